package evaluator

import (
	"context"
	"strconv"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
	"github.com/podhmo/pagescript/object"
)

// bindMode selects how a binding target receives its value.
type bindMode int

const (
	bindVar    bindMode = iota // define in the current frame
	bindLet                    // define in the current frame
	bindConst                  // define a read-only binding in the current frame
	bindAssign                 // assign through the scope chain, as `=` does
)

// bindTarget binds val to an identifier or a single-level object/array pattern.
// Patterns nested inside patterns are rejected with UnsupportedConstruct.
func (e *Evaluator) bindTarget(ctx context.Context, target ast.Node, val object.Object, env *object.Environment, mode bindMode) *object.Error {
	switch t := target.(type) {
	case *ast.Identifier:
		return e.bindName(t, val, env, mode)
	case *ast.ObjectPattern:
		return e.bindObjectPattern(ctx, t, val, env, mode)
	case *ast.ArrayPattern:
		return e.bindArrayPattern(ctx, t, val, env, mode)
	case *ast.DotExpression, *ast.BracketExpression:
		if mode == bindAssign {
			return asError(e.assignToMember(ctx, t, val, env))
		}
	}
	return e.newError(target, object.UnsupportedConstruct, "unsupported construct: binding target %T", target)
}

func (e *Evaluator) bindName(id *ast.Identifier, val object.Object, env *object.Environment, mode bindMode) *object.Error {
	name := id.Name.String()
	switch mode {
	case bindConst:
		env.DefineConst(name, val)
	case bindAssign:
		if !env.AssignOrDefine(name, val) {
			return e.newError(id, object.TypeError, "Assignment to constant variable.")
		}
	default:
		env.Define(name, val)
	}
	return nil
}

// element is one sub-binding of a pattern: the leaf target and its default value.
func (e *Evaluator) bindElement(ctx context.Context, node ast.Node, val object.Object, env *object.Environment, mode bindMode, initializer ast.Expression) *object.Error {
	if assign, ok := node.(*ast.AssignExpression); ok && assign.Operator == token.ASSIGN {
		node, initializer = assign.Left, assign.Right
	}
	switch node.(type) {
	case *ast.ObjectPattern, *ast.ArrayPattern, *ast.ObjectLiteral, *ast.ArrayLiteral:
		return e.newError(node, object.UnsupportedConstruct, "unsupported pattern: nested destructuring")
	}
	if initializer != nil && val == object.UNDEFINED {
		val = e.Eval(ctx, initializer, env)
		if err, ok := val.(*object.Error); ok {
			return err
		}
	}
	return e.bindTarget(ctx, node, val, env, mode)
}

func (e *Evaluator) bindObjectPattern(ctx context.Context, p *ast.ObjectPattern, val object.Object, env *object.Environment, mode bindMode) *object.Error {
	if object.IsNullish(val) {
		return e.newError(p, object.TypeError, "Cannot destructure '%s' as it is %s.", val.Inspect(), val.Inspect())
	}
	used := make(map[string]bool, len(p.Properties))
	for _, prop := range p.Properties {
		switch prop := prop.(type) {
		case *ast.PropertyShort:
			name := prop.Name.Name.String()
			used[name] = true
			member := e.getMember(p, val, name)
			if err, ok := member.(*object.Error); ok {
				return err
			}
			id := prop.Name
			if err := e.bindElement(ctx, &id, member, env, mode, prop.Initializer); err != nil {
				return err
			}
		case *ast.PropertyKeyed:
			key, errObj := e.propertyName(ctx, prop.Key, prop.Computed, env)
			if errObj != nil {
				return errObj
			}
			used[key] = true
			member := e.getMember(p, val, key)
			if err, ok := member.(*object.Error); ok {
				return err
			}
			if err := e.bindElement(ctx, prop.Value, member, env, mode, nil); err != nil {
				return err
			}
		default:
			return e.newError(p, object.UnsupportedConstruct, "unsupported pattern: %T", prop)
		}
	}

	if p.Rest != nil {
		rest := object.NewMap()
		if m, ok := val.(*object.Map); ok {
			for _, k := range m.Keys() {
				if !used[k] {
					v, _ := m.Get(k)
					rest.Set(k, v)
				}
			}
		}
		if err := e.bindElement(ctx, p.Rest, rest, env, mode, nil); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) bindArrayPattern(ctx context.Context, p *ast.ArrayPattern, val object.Object, env *object.Environment, mode bindMode) *object.Error {
	var items []object.Object
	switch v := val.(type) {
	case *object.Array:
		items = v.Elements
	case *object.String:
		for _, r := range v.Value {
			items = append(items, &object.String{Value: string(r)})
		}
	default:
		return e.newError(p, object.TypeError, "%s is not iterable", val.Inspect())
	}

	for i, el := range p.Elements {
		if el == nil {
			continue // hole, e.g. [, b]
		}
		var item object.Object = object.UNDEFINED
		if i < len(items) {
			item = items[i]
		}
		if err := e.bindElement(ctx, el, item, env, mode, nil); err != nil {
			return err
		}
	}

	if p.Rest != nil {
		rest := &object.Array{}
		if len(items) > len(p.Elements) {
			rest.Elements = append(rest.Elements, items[len(p.Elements):]...)
		}
		if err := e.bindElement(ctx, p.Rest, rest, env, mode, nil); err != nil {
			return err
		}
	}
	return nil
}

// propertyName resolves the key of an object literal property or pattern property.
func (e *Evaluator) propertyName(ctx context.Context, key ast.Expression, computed bool, env *object.Environment) (string, *object.Error) {
	if !computed {
		switch k := key.(type) {
		case *ast.StringLiteral:
			return k.Value.String(), nil
		case *ast.Identifier:
			return k.Name.String(), nil
		case *ast.NumberLiteral:
			return propertyKey(e.evalNumberLiteral(k)), nil
		}
	}
	val := e.Eval(ctx, key, env)
	if err, ok := val.(*object.Error); ok {
		return "", err
	}
	return propertyKey(val), nil
}

// boundNames lists the identifiers a binding target introduces.
func boundNames(target ast.Node) []string {
	var names []string
	add := func(n ast.Node) {
		if a, ok := n.(*ast.AssignExpression); ok {
			n = a.Left
		}
		if id, ok := n.(*ast.Identifier); ok {
			names = append(names, id.Name.String())
		}
	}
	switch t := target.(type) {
	case *ast.Identifier:
		add(t)
	case *ast.ObjectPattern:
		for _, prop := range t.Properties {
			switch prop := prop.(type) {
			case *ast.PropertyShort:
				names = append(names, prop.Name.Name.String())
			case *ast.PropertyKeyed:
				add(prop.Value)
			}
		}
		if t.Rest != nil {
			add(t.Rest)
		}
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el != nil {
				add(el)
			}
		}
		if t.Rest != nil {
			add(t.Rest)
		}
	}
	return names
}

func asError(obj object.Object) *object.Error {
	if err, ok := obj.(*object.Error); ok {
		return err
	}
	return nil
}

// propertyKey converts a value used as a property name to its string form.
func propertyKey(key object.Object) string {
	if n, ok := key.(*object.Number); ok && n.Value == float64(int64(n.Value)) {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return key.Inspect()
}
