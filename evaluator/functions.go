package evaluator

import (
	"context"

	"github.com/dop251/goja/ast"
	"github.com/podhmo/pagescript/object"
)

func (e *Evaluator) evalCallExpression(ctx context.Context, n *ast.CallExpression, env *object.Environment) object.Object {
	callee := e.Eval(ctx, n.Callee, env)
	if isError(callee) || callee == brokenChain {
		return callee
	}
	args, errObj := e.evalExpressions(ctx, n.ArgumentList, env)
	if errObj != nil {
		return errObj
	}
	if !isCallable(callee) {
		return e.newError(n, object.TypeError, "%s is not a function", describe(n.Callee))
	}
	return e.applyFunction(ctx, n, callee, args)
}

func (e *Evaluator) evalNewExpression(ctx context.Context, n *ast.NewExpression, env *object.Environment) object.Object {
	callee := e.Eval(ctx, n.Callee, env)
	if isError(callee) {
		return callee
	}
	args, errObj := e.evalExpressions(ctx, n.ArgumentList, env)
	if errObj != nil {
		return errObj
	}
	if b, ok := callee.(*object.Builtin); ok && b.Constructor {
		return e.applyFunction(ctx, n, b, args)
	}
	return e.newError(n, object.TypeError, "%s is not a constructor", describe(n.Callee))
}

func isCallable(obj object.Object) bool {
	switch obj.(type) {
	case *object.Function, *object.Builtin:
		return true
	}
	return false
}

// applyFunction calls a closure or a builtin. node is the call site and may be nil.
// Rejected promises coming out of a call are tracked until someone observes them.
func (e *Evaluator) applyFunction(ctx context.Context, node ast.Node, fn object.Object, args []object.Object) object.Object {
	if err := e.checkContext(ctx, node); err != nil {
		return err
	}

	var result object.Object
	switch fn := fn.(type) {
	case *object.Function:
		result = e.callFunction(ctx, node, fn, args)
	case *object.Builtin:
		result = fn.Fn(e.builtinContext(ctx, node), args...)
	default:
		return e.newError(node, object.TypeError, "%s is not a function", fn.Inspect())
	}

	switch r := result.(type) {
	case *object.Error:
		return withPos(r, node)
	case *object.Promise:
		if err := r.Err(); err != nil && err.Pos == 0 && !r.Handled && node != nil {
			r = object.Rejected(withPos(err, node))
			result = r
		}
		e.track(r)
	case nil:
		return object.UNDEFINED
	}
	return result
}

// callFunction evaluates a closure body in a new environment enclosed by the closure's
// defining environment, never the caller's.
func (e *Evaluator) callFunction(ctx context.Context, node ast.Node, fn *object.Function, args []object.Object) object.Object {
	if e.depth >= e.maxCallDepth {
		e.logger.DebugContext(ctx, "call depth exceeded", "function", fn.Name, "depth", e.depth)
		return e.newError(node, object.RangeError, "Maximum call stack size exceeded")
	}
	e.depth++
	defer func() { e.depth-- }()

	result := e.runFunctionBody(ctx, fn, args)
	if !fn.Async {
		return result
	}

	if err, ok := result.(*object.Error); ok {
		if !err.Catchable() {
			return err
		}
		return object.Rejected(withPos(err, node))
	}
	return object.Resolved(result)
}

func (e *Evaluator) runFunctionBody(ctx context.Context, fn *object.Function, args []object.Object) object.Object {
	env := object.NewEnclosedEnvironment(fn.Env)
	for i, param := range fn.Parameters {
		var arg object.Object = object.UNDEFINED
		if i < len(args) {
			arg = args[i]
		}
		if param.Initializer != nil && arg == object.UNDEFINED {
			arg = e.Eval(ctx, param.Initializer, env)
			if isError(arg) {
				return arg
			}
		}
		if err := e.bindTarget(ctx, param.Target, arg, env, bindLet); err != nil {
			return err
		}
	}
	if fn.Rest != nil {
		rest := &object.Array{}
		if len(args) > len(fn.Parameters) {
			rest.Elements = append(rest.Elements, args[len(fn.Parameters):]...)
		}
		if err := e.bindTarget(ctx, fn.Rest, rest, env, bindLet); err != nil {
			return err
		}
	}

	switch body := fn.Body.(type) {
	case *ast.BlockStatement:
		return unwrapReturnValue(e.EvalStatements(ctx, body.List, env), object.UNDEFINED)
	case *ast.ExpressionBody:
		return e.Eval(ctx, body.Expression, env)
	}
	return e.newError(nil, object.UnsupportedConstruct, "unsupported construct: function body %T", fn.Body)
}

// unwrapReturnValue turns the completion of a function body into the call's value.
func unwrapReturnValue(obj object.Object, fallthroughValue object.Object) object.Object {
	switch o := obj.(type) {
	case *object.ReturnValue:
		return o.Value
	case *object.Error:
		return o
	}
	return fallthroughValue
}

func (e *Evaluator) builtinContext(ctx context.Context, node ast.Node) *object.BuiltinContext {
	return &object.BuiltinContext{
		Ctx: ctx,
		Log: e.log,
		Apply: func(fn object.Object, args ...object.Object) object.Object {
			return e.applyFunction(ctx, node, fn, args)
		},
		Track: e.track,
		NewError: func(kind object.ErrorKind, format string, args ...any) *object.Error {
			return e.newError(node, kind, format, args...)
		},
	}
}
