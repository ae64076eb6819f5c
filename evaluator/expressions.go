package evaluator

import (
	"context"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
	"github.com/podhmo/pagescript/object"
)

func (e *Evaluator) evalIdentifier(n *ast.Identifier, env *object.Environment) object.Object {
	name := n.Name.String()
	if val, ok := env.Lookup(name); ok {
		return val
	}
	return e.newError(n, object.ReferenceError, "%s is not defined", name)
}

func (e *Evaluator) evalNumberLiteral(n *ast.NumberLiteral) object.Object {
	switch v := n.Value.(type) {
	case int64:
		return &object.Number{Value: float64(v)}
	case float64:
		return &object.Number{Value: v}
	case int:
		return &object.Number{Value: float64(v)}
	}
	return e.newError(n, object.UnsupportedConstruct, "unsupported construct: number literal %s", n.Literal)
}

func (e *Evaluator) evalTemplateLiteral(ctx context.Context, n *ast.TemplateLiteral, env *object.Environment) object.Object {
	if n.Tag != nil {
		return e.newError(n, object.UnsupportedConstruct, "unsupported construct: tagged template")
	}
	var out strings.Builder
	for i, el := range n.Elements {
		out.WriteString(el.Parsed.String())
		if i < len(n.Expressions) {
			val := e.Eval(ctx, n.Expressions[i], env)
			if isError(val) {
				return val
			}
			out.WriteString(toString(val))
		}
	}
	return &object.String{Value: out.String()}
}

func (e *Evaluator) evalArrayLiteral(ctx context.Context, n *ast.ArrayLiteral, env *object.Environment) object.Object {
	elements, errObj := e.evalExpressions(ctx, n.Value, env)
	if errObj != nil {
		return errObj
	}
	return &object.Array{Elements: elements}
}

// evalExpressions evaluates a list left to right, expanding spread elements.
// Holes (nil expressions) become undefined.
func (e *Evaluator) evalExpressions(ctx context.Context, exprs []ast.Expression, env *object.Environment) ([]object.Object, *object.Error) {
	out := make([]object.Object, 0, len(exprs))
	for _, expr := range exprs {
		if expr == nil {
			out = append(out, object.UNDEFINED)
			continue
		}
		if spread, ok := expr.(*ast.SpreadElement); ok {
			val := e.Eval(ctx, spread.Expression, env)
			if err := asError(val); err != nil {
				return nil, err
			}
			switch v := val.(type) {
			case *object.Array:
				out = append(out, v.Elements...)
			case *object.String:
				for _, r := range v.Value {
					out = append(out, &object.String{Value: string(r)})
				}
			default:
				return nil, e.newError(spread, object.TypeError, "%s is not iterable", describe(spread.Expression))
			}
			continue
		}
		val := e.Eval(ctx, expr, env)
		if err := asError(val); err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func (e *Evaluator) evalObjectLiteral(ctx context.Context, n *ast.ObjectLiteral, env *object.Environment) object.Object {
	m := object.NewMap()
	for _, prop := range n.Value {
		switch p := prop.(type) {
		case *ast.PropertyKeyed:
			if p.Kind != ast.PropertyKindValue && p.Kind != ast.PropertyKindMethod {
				return e.newError(n, object.UnsupportedConstruct, "unsupported construct: %s accessor", p.Kind)
			}
			key, errObj := e.propertyName(ctx, p.Key, p.Computed, env)
			if errObj != nil {
				return errObj
			}
			val := e.Eval(ctx, p.Value, env)
			if isError(val) {
				return val
			}
			nameLiteral(p.Value, val, key)
			m.Set(key, val)
		case *ast.PropertyShort:
			name := p.Name.Name.String()
			val, ok := env.Lookup(name)
			if !ok {
				return e.newError(n, object.ReferenceError, "%s is not defined", name)
			}
			m.Set(name, val)
		case *ast.SpreadElement:
			val := e.Eval(ctx, p.Expression, env)
			if isError(val) {
				return val
			}
			switch src := val.(type) {
			case *object.Map:
				for _, k := range src.Keys() {
					v, _ := src.Get(k)
					m.Set(k, v)
				}
			case *object.Array:
				for i, v := range src.Elements {
					m.Set(propertyKey(&object.Number{Value: float64(i)}), v)
				}
			}
		default:
			return e.newError(n, object.UnsupportedConstruct, "unsupported construct: object property %T", prop)
		}
	}
	return m
}

func (e *Evaluator) evalUnaryExpression(ctx context.Context, n *ast.UnaryExpression, env *object.Environment) object.Object {
	switch n.Operator {
	case token.INCREMENT, token.DECREMENT:
		return e.evalUpdateExpression(ctx, n, env)
	case token.TYPEOF:
		if id, ok := n.Operand.(*ast.Identifier); ok {
			if _, defined := env.Lookup(id.Name.String()); !defined {
				return &object.String{Value: "undefined"}
			}
		}
	case token.DELETE:
		return e.evalDelete(ctx, n, env)
	}

	operand := e.Eval(ctx, n.Operand, env)
	if isError(operand) {
		return operand
	}
	switch n.Operator {
	case token.NOT:
		return object.NativeBool(!isTruthy(operand))
	case token.MINUS:
		return &object.Number{Value: -toNumber(operand)}
	case token.PLUS:
		return &object.Number{Value: toNumber(operand)}
	case token.BITWISE_NOT:
		return &object.Number{Value: float64(^toInt32(operand))}
	case token.TYPEOF:
		return &object.String{Value: typeOf(operand)}
	case token.VOID:
		return object.UNDEFINED
	}
	return e.newError(n, object.UnsupportedConstruct, "unsupported construct: unary operator %s", n.Operator.String())
}

// evalUpdateExpression implements ++ and --. The prefix form yields the new value,
// the postfix form the old one.
func (e *Evaluator) evalUpdateExpression(ctx context.Context, n *ast.UnaryExpression, env *object.Environment) object.Object {
	delta := 1.0
	if n.Operator == token.DECREMENT {
		delta = -1
	}

	var old object.Object
	var store func(object.Object) object.Object
	switch target := n.Operand.(type) {
	case *ast.Identifier:
		name := target.Name.String()
		cur, ok := env.Lookup(name)
		if !ok {
			return e.newError(target, object.ReferenceError, "%s is not defined", name)
		}
		old = cur
		store = func(v object.Object) object.Object {
			if !env.Assign(name, v) {
				return e.newError(target, object.TypeError, "Assignment to constant variable.")
			}
			return v
		}
	case *ast.DotExpression, *ast.BracketExpression:
		ref, errObj := e.evalMemberRef(ctx, target, env)
		if errObj != nil {
			return errObj
		}
		old = e.getMember(target, ref.obj, ref.key)
		if isError(old) {
			return old
		}
		store = func(v object.Object) object.Object { return e.setMember(target, ref.obj, ref.key, v) }
	default:
		return e.newError(n, object.UnsupportedConstruct, "unsupported construct: update of %T", n.Operand)
	}

	oldNum := &object.Number{Value: toNumber(old)}
	newNum := &object.Number{Value: oldNum.Value + delta}
	if res := store(newNum); isError(res) {
		return res
	}
	if n.Postfix {
		return oldNum
	}
	return newNum
}

func (e *Evaluator) evalDelete(ctx context.Context, n *ast.UnaryExpression, env *object.Environment) object.Object {
	switch target := n.Operand.(type) {
	case *ast.DotExpression, *ast.BracketExpression:
		ref, errObj := e.evalMemberRef(ctx, target, env)
		if errObj != nil {
			return errObj
		}
		switch obj := ref.obj.(type) {
		case *object.Map:
			if obj.Frozen {
				return e.newError(n, object.TypeError, "Cannot delete property '%s' of a frozen object", ref.key)
			}
			obj.Delete(ref.key)
		case *object.Array:
			if idx, ok := arrayIndex(ref.key); ok && idx < len(obj.Elements) {
				obj.Elements[idx] = object.UNDEFINED
			}
		case object.MemberGetter:
			return e.newError(n, object.TypeError, "Cannot delete host member '%s'", ref.key)
		}
		return object.TRUE
	}
	return e.newError(n, object.TypeError, "delete is only allowed on member expressions")
}

func (e *Evaluator) evalBinaryExpression(ctx context.Context, n *ast.BinaryExpression, env *object.Environment) object.Object {
	left := e.Eval(ctx, n.Left, env)
	if isError(left) {
		return left
	}

	switch n.Operator {
	case token.LOGICAL_AND:
		if !isTruthy(left) {
			return left
		}
		return e.Eval(ctx, n.Right, env)
	case token.LOGICAL_OR:
		if isTruthy(left) {
			return left
		}
		return e.Eval(ctx, n.Right, env)
	case token.COALESCE:
		if !object.IsNullish(left) {
			return left
		}
		return e.Eval(ctx, n.Right, env)
	}

	right := e.Eval(ctx, n.Right, env)
	if isError(right) {
		return right
	}
	return e.binaryOp(n, n.Operator, left, right)
}

func (e *Evaluator) evalAssignExpression(ctx context.Context, n *ast.AssignExpression, env *object.Environment) object.Object {
	compound := n.Operator != token.ASSIGN

	switch target := n.Left.(type) {
	case *ast.Identifier:
		name := target.Name.String()
		if !compound {
			val := e.Eval(ctx, n.Right, env)
			if isError(val) {
				return val
			}
			if !env.AssignOrDefine(name, val) {
				return e.newError(target, object.TypeError, "Assignment to constant variable.")
			}
			return val
		}
		cur, ok := env.Lookup(name)
		if !ok {
			return e.newError(target, object.ReferenceError, "%s is not defined", name)
		}
		val := e.compoundValue(ctx, n, cur, env)
		if isError(val) {
			return val
		}
		if !env.Assign(name, val) {
			return e.newError(target, object.TypeError, "Assignment to constant variable.")
		}
		return val

	case *ast.DotExpression, *ast.BracketExpression:
		ref, errObj := e.evalMemberRef(ctx, target, env)
		if errObj != nil {
			return errObj
		}
		var val object.Object
		if compound {
			cur := e.getMember(target, ref.obj, ref.key)
			if isError(cur) {
				return cur
			}
			val = e.compoundValue(ctx, n, cur, env)
		} else {
			val = e.Eval(ctx, n.Right, env)
		}
		if isError(val) {
			return val
		}
		return e.setMember(target, ref.obj, ref.key, val)

	case *ast.ObjectPattern, *ast.ArrayPattern:
		if compound {
			break
		}
		val := e.Eval(ctx, n.Right, env)
		if isError(val) {
			return val
		}
		if err := e.bindTarget(ctx, target, val, env, bindAssign); err != nil {
			return err
		}
		return val
	}
	return e.newError(n, object.UnsupportedConstruct, "unsupported construct: assignment to %T", n.Left)
}

// compoundValue computes the new value of `target op= right` from the current value.
func (e *Evaluator) compoundValue(ctx context.Context, n *ast.AssignExpression, cur object.Object, env *object.Environment) object.Object {
	switch n.Operator {
	case token.LOGICAL_AND:
		if !isTruthy(cur) {
			return cur
		}
		return e.Eval(ctx, n.Right, env)
	case token.LOGICAL_OR:
		if isTruthy(cur) {
			return cur
		}
		return e.Eval(ctx, n.Right, env)
	case token.COALESCE:
		if !object.IsNullish(cur) {
			return cur
		}
		return e.Eval(ctx, n.Right, env)
	}
	right := e.Eval(ctx, n.Right, env)
	if isError(right) {
		return right
	}
	return e.binaryOp(n, n.Operator, cur, right)
}

// memberRef is an evaluated member expression: the object and the resolved key.
type memberRef struct {
	obj object.Object
	key string
}

func (e *Evaluator) evalMemberRef(ctx context.Context, node ast.Node, env *object.Environment) (memberRef, *object.Error) {
	var objExpr ast.Expression
	var key string
	switch n := node.(type) {
	case *ast.DotExpression:
		objExpr, key = n.Left, n.Identifier.Name.String()
	case *ast.BracketExpression:
		obj := e.Eval(ctx, n.Left, env)
		if err := asError(obj); err != nil {
			return memberRef{}, err
		}
		k := e.Eval(ctx, n.Member, env)
		if err := asError(k); err != nil {
			return memberRef{}, err
		}
		return memberRef{obj: obj, key: propertyKey(k)}, nil
	}
	obj := e.Eval(ctx, objExpr, env)
	if err := asError(obj); err != nil {
		return memberRef{}, err
	}
	return memberRef{obj: obj, key: key}, nil
}

func (e *Evaluator) assignToMember(ctx context.Context, node ast.Node, val object.Object, env *object.Environment) object.Object {
	ref, errObj := e.evalMemberRef(ctx, node, env)
	if errObj != nil {
		return errObj
	}
	return e.setMember(node, ref.obj, ref.key, val)
}

func (e *Evaluator) evalAwaitExpression(ctx context.Context, n *ast.AwaitExpression, env *object.Environment) object.Object {
	val := e.Eval(ctx, n.Argument, env)
	if isError(val) {
		return val
	}
	p, ok := val.(*object.Promise)
	if !ok {
		return val
	}
	result, err := p.Await()
	if err != nil {
		return withPos(err, n)
	}
	return result
}
