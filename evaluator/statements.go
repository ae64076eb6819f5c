package evaluator

import (
	"context"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
	"github.com/podhmo/pagescript/object"
)

func (e *Evaluator) evalBlock(ctx context.Context, block *ast.BlockStatement, env *object.Environment) object.Object {
	return e.EvalStatements(ctx, block.List, env)
}

func (e *Evaluator) evalLexicalDeclaration(ctx context.Context, tok token.Token, list []*ast.Binding, env *object.Environment) object.Object {
	mode := bindLet
	if tok == token.CONST {
		mode = bindConst
	}
	return e.evalBindings(ctx, list, env, mode)
}

func (e *Evaluator) evalBindings(ctx context.Context, list []*ast.Binding, env *object.Environment, mode bindMode) object.Object {
	for _, b := range list {
		var val object.Object = object.UNDEFINED
		if b.Initializer != nil {
			val = e.Eval(ctx, b.Initializer, env)
			if isError(val) {
				return val
			}
			if id, ok := b.Target.(*ast.Identifier); ok {
				nameLiteral(b.Initializer, val, id.Name.String())
			}
		}
		if err := e.bindTarget(ctx, b.Target, val, env, mode); err != nil {
			return err
		}
	}
	return object.UNDEFINED
}

// nameLiteral gives an anonymous function or arrow literal the name it is bound to.
// Closures that already exist are shared and keep their name.
func nameLiteral(expr ast.Expression, val object.Object, name string) {
	switch expr.(type) {
	case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
	default:
		return
	}
	if fn, ok := val.(*object.Function); ok && fn.Name == "" {
		fn.Name = name
	}
}

func (e *Evaluator) declareFunction(fn *ast.FunctionLiteral, env *object.Environment) {
	closure := e.newFunction(fn, env)
	env.Define(closure.Name, closure)
}

func (e *Evaluator) newFunction(fn *ast.FunctionLiteral, env *object.Environment) *object.Function {
	closure := &object.Function{
		Parameters: fn.ParameterList.List,
		Rest:       fn.ParameterList.Rest,
		Body:       fn.Body,
		Env:        env,
		Async:      fn.Async,
	}
	if fn.Name != nil {
		closure.Name = fn.Name.Name.String()
	}
	return closure
}

func (e *Evaluator) evalIfStatement(ctx context.Context, n *ast.IfStatement, env *object.Environment) object.Object {
	test := e.Eval(ctx, n.Test, env)
	if isError(test) {
		return test
	}
	if isTruthy(test) {
		return e.evalBody(ctx, n.Consequent, env)
	}
	if n.Alternate != nil {
		return e.evalBody(ctx, n.Alternate, env)
	}
	return object.UNDEFINED
}

// evalBody evaluates a statement that forms the body of a compound statement in a
// fresh child environment. Blocks open their scope themselves.
func (e *Evaluator) evalBody(ctx context.Context, body ast.Statement, env *object.Environment) object.Object {
	if block, ok := body.(*ast.BlockStatement); ok {
		return e.evalBlock(ctx, block, object.NewEnclosedEnvironment(env))
	}
	return e.Eval(ctx, body, object.NewEnclosedEnvironment(env))
}

func (e *Evaluator) evalForStatement(ctx context.Context, n *ast.ForStatement, env *object.Environment) object.Object {
	loopEnv := object.NewEnclosedEnvironment(env)
	var perIteration []string

	switch init := n.Initializer.(type) {
	case nil:
	case *ast.ForLoopInitializerExpression:
		if res := e.Eval(ctx, init.Expression, loopEnv); isError(res) {
			return res
		}
	case *ast.ForLoopInitializerVarDeclList:
		if res := e.evalBindings(ctx, init.List, env, bindVar); isError(res) {
			return res
		}
	case *ast.ForLoopInitializerLexicalDecl:
		decl := init.LexicalDeclaration
		if res := e.evalLexicalDeclaration(ctx, decl.Token, decl.List, loopEnv); isError(res) {
			return res
		}
		for _, b := range decl.List {
			perIteration = append(perIteration, boundNames(b.Target)...)
		}
	default:
		return e.newError(n, object.UnsupportedConstruct, "unsupported construct: for initializer %T", init)
	}

	// let bindings get a fresh copy per iteration so closures capture that iteration's value
	iterEnv := copyBindings(loopEnv, perIteration, env)
	for {
		if err := e.checkContext(ctx, n); err != nil {
			return err
		}
		if n.Test != nil {
			test := e.Eval(ctx, n.Test, iterEnv)
			if isError(test) {
				return test
			}
			if !isTruthy(test) {
				break
			}
		}
		if res := e.evalBody(ctx, n.Body, iterEnv); isAbrupt(res) {
			return res
		}
		iterEnv = copyBindings(iterEnv, perIteration, env)
		if n.Update != nil {
			if res := e.Eval(ctx, n.Update, iterEnv); isError(res) {
				return res
			}
		}
	}
	return object.UNDEFINED
}

func copyBindings(from *object.Environment, names []string, outer *object.Environment) *object.Environment {
	if len(names) == 0 {
		return from
	}
	to := object.NewEnclosedEnvironment(outer)
	for _, name := range names {
		val, _ := from.Lookup(name)
		if from.IsConstant(name) {
			to.DefineConst(name, val)
		} else {
			to.Define(name, val)
		}
	}
	return to
}

func (e *Evaluator) evalForOfStatement(ctx context.Context, n *ast.ForOfStatement, env *object.Environment) object.Object {
	source := e.Eval(ctx, n.Source, env)
	if isError(source) {
		return source
	}

	var next func(i int) (object.Object, bool)
	switch src := source.(type) {
	case *object.Array:
		next = func(i int) (object.Object, bool) {
			if i >= len(src.Elements) {
				return nil, false
			}
			return src.Elements[i], true
		}
	case *object.String:
		runes := []rune(src.Value)
		next = func(i int) (object.Object, bool) {
			if i >= len(runes) {
				return nil, false
			}
			return &object.String{Value: string(runes[i])}, true
		}
	default:
		return e.newError(n.Source, object.TypeError, "%s is not iterable", describe(n.Source))
	}

	for i := 0; ; i++ {
		if err := e.checkContext(ctx, n); err != nil {
			return err
		}
		item, ok := next(i)
		if !ok {
			break
		}
		iterEnv := object.NewEnclosedEnvironment(env)
		var bindErr *object.Error
		switch into := n.Into.(type) {
		case *ast.ForDeclaration:
			mode := bindLet
			if into.IsConst {
				mode = bindConst
			}
			bindErr = e.bindTarget(ctx, into.Target, item, iterEnv, mode)
		case *ast.ForIntoVar:
			bindErr = e.bindTarget(ctx, into.Binding.Target, item, env, bindVar)
		case *ast.ForIntoExpression:
			bindErr = e.bindTarget(ctx, into.Expression, item, iterEnv, bindAssign)
		default:
			return e.newError(n, object.UnsupportedConstruct, "unsupported construct: for-of target %T", into)
		}
		if bindErr != nil {
			return bindErr
		}
		if res := e.evalBody(ctx, n.Body, iterEnv); isAbrupt(res) {
			return res
		}
	}
	return object.UNDEFINED
}

func (e *Evaluator) evalWhileStatement(ctx context.Context, n *ast.WhileStatement, env *object.Environment) object.Object {
	for {
		if err := e.checkContext(ctx, n); err != nil {
			return err
		}
		test := e.Eval(ctx, n.Test, env)
		if isError(test) {
			return test
		}
		if !isTruthy(test) {
			return object.UNDEFINED
		}
		if res := e.evalBody(ctx, n.Body, env); isAbrupt(res) {
			return res
		}
	}
}

func (e *Evaluator) evalDoWhileStatement(ctx context.Context, n *ast.DoWhileStatement, env *object.Environment) object.Object {
	for {
		if err := e.checkContext(ctx, n); err != nil {
			return err
		}
		if res := e.evalBody(ctx, n.Body, env); isAbrupt(res) {
			return res
		}
		test := e.Eval(ctx, n.Test, env)
		if isError(test) {
			return test
		}
		if !isTruthy(test) {
			return object.UNDEFINED
		}
	}
}

func (e *Evaluator) evalReturnStatement(ctx context.Context, n *ast.ReturnStatement, env *object.Environment) object.Object {
	if n.Argument == nil {
		return &object.ReturnValue{Value: object.UNDEFINED}
	}
	val := e.Eval(ctx, n.Argument, env)
	if isError(val) {
		return val
	}
	return &object.ReturnValue{Value: val}
}

// evalTryStatement runs the try block, hands a catchable error to the catch clause, and
// runs the finalizer exactly once. A ReturnValue from the try block is never caught.
// An abrupt completion of the finalizer replaces the result.
func (e *Evaluator) evalTryStatement(ctx context.Context, n *ast.TryStatement, env *object.Environment) object.Object {
	result := e.Eval(ctx, n.Body, env)

	if errObj, ok := result.(*object.Error); ok && errObj.Catchable() && n.Catch != nil {
		catchEnv := object.NewEnclosedEnvironment(env)
		if n.Catch.Parameter != nil {
			if bindErr := e.bindTarget(ctx, n.Catch.Parameter, errObj.GuestValue(), catchEnv, bindLet); bindErr != nil {
				result = bindErr
			} else {
				result = e.Eval(ctx, n.Catch.Body, catchEnv)
			}
		} else {
			result = e.Eval(ctx, n.Catch.Body, catchEnv)
		}
	}

	if n.Finally != nil {
		if fin := e.Eval(ctx, n.Finally, env); isAbrupt(fin) {
			return fin
		}
	}
	return result
}
