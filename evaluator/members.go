package evaluator

import (
	"math"
	"strconv"

	"github.com/dop251/goja/ast"
	"github.com/podhmo/pagescript/object"
)

// getMember reads obj[name]. Reading from null or undefined is a TypeError.
func (e *Evaluator) getMember(node ast.Node, obj object.Object, name string) object.Object {
	switch o := obj.(type) {
	case *object.Undefined, *object.Null:
		return e.newError(node, object.TypeError, "Cannot read properties of %s (reading '%s')", obj.Inspect(), name)
	case *object.Map:
		if v, ok := o.Get(name); ok {
			return v
		}
		return object.UNDEFINED
	case *object.Array:
		if idx, ok := arrayIndex(name); ok {
			if idx < len(o.Elements) {
				return o.Elements[idx]
			}
			return object.UNDEFINED
		}
		if name == "length" {
			return &object.Number{Value: float64(len(o.Elements))}
		}
		return e.arrayMethod(o, name)
	case *object.String:
		if idx, ok := arrayIndex(name); ok {
			runes := []rune(o.Value)
			if idx < len(runes) {
				return &object.String{Value: string(runes[idx])}
			}
			return object.UNDEFINED
		}
		if name == "length" {
			return &object.Number{Value: float64(len([]rune(o.Value)))}
		}
		return e.stringMethod(o, name)
	case *object.Number:
		return e.numberMethod(o, name)
	case *object.Boolean:
		if name == "toString" {
			return method(name, func(*object.BuiltinContext, ...object.Object) object.Object {
				return &object.String{Value: o.Inspect()}
			})
		}
		return object.UNDEFINED
	case *object.ErrorValue:
		switch name {
		case "name":
			return &object.String{Value: o.Name}
		case "message":
			return &object.String{Value: o.Message}
		case "toString":
			return method(name, func(*object.BuiltinContext, ...object.Object) object.Object {
				return &object.String{Value: o.Inspect()}
			})
		}
		return object.UNDEFINED
	case *object.Promise:
		return e.promiseMethod(o, name)
	case *object.Function:
		if name == "name" {
			return &object.String{Value: o.Name}
		}
		return object.UNDEFINED
	case *object.Builtin:
		if name == "name" {
			return &object.String{Value: o.Name}
		}
		if o.Statics != nil {
			if v, ok := o.Statics.Get(name); ok {
				return v
			}
		}
		return object.UNDEFINED
	case object.MemberGetter:
		return withPosObj(o.GetMember(name), node)
	}
	return object.UNDEFINED
}

// maxArrayLength bounds how far a write may grow an array; arrays are dense.
const maxArrayLength = 1 << 24

// setMember writes obj[name] = val and yields val. Only plain objects and arrays are writable.
func (e *Evaluator) setMember(node ast.Node, obj object.Object, name string, val object.Object) object.Object {
	switch o := obj.(type) {
	case *object.Undefined, *object.Null:
		return e.newError(node, object.TypeError, "Cannot set properties of %s (setting '%s')", obj.Inspect(), name)
	case *object.Map:
		if o.Frozen {
			return e.newError(node, object.TypeError, "Cannot assign to read only property '%s' of object", name)
		}
		o.Set(name, val)
		return val
	case *object.Array:
		if name == "length" {
			f := toNumber(val)
			if f < 0 || f > maxArrayLength || f != math.Trunc(f) {
				return e.newError(node, object.RangeError, "Invalid array length")
			}
			n := int(f)
			for len(o.Elements) < n {
				o.Elements = append(o.Elements, object.UNDEFINED)
			}
			o.Elements = o.Elements[:n]
			return val
		}
		idx, ok := arrayIndex(name)
		if !ok {
			return e.newError(node, object.TypeError, "Cannot create property '%s' on array", name)
		}
		if idx >= maxArrayLength {
			return e.newError(node, object.RangeError, "Invalid array length")
		}
		for len(o.Elements) <= idx {
			o.Elements = append(o.Elements, object.UNDEFINED)
		}
		o.Elements[idx] = val
		return val
	case object.MemberGetter:
		return e.newError(node, object.TypeError, "Cannot assign to host member '%s' of %s", name, obj.Inspect())
	}
	return e.newError(node, object.TypeError, "Cannot create property '%s' on %s", name, typeOf(obj))
}

func withPosObj(obj object.Object, node ast.Node) object.Object {
	if err, ok := obj.(*object.Error); ok {
		return withPos(err, node)
	}
	return obj
}

// arrayIndex parses a canonical non-negative integer key.
func arrayIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func method(name string, fn object.BuiltinFunction) *object.Builtin {
	return &object.Builtin{Name: name, Fn: fn}
}

func arg(args []object.Object, i int) object.Object {
	if i < len(args) {
		return args[i]
	}
	return object.UNDEFINED
}
