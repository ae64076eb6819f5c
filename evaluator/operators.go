package evaluator

import (
	"math"
	"strconv"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
	"github.com/podhmo/pagescript/object"
)

func (e *Evaluator) binaryOp(node ast.Node, op token.Token, left, right object.Object) object.Object {
	switch op {
	case token.PLUS:
		lp, rp := toPrimitive(left), toPrimitive(right)
		_, ls := lp.(*object.String)
		_, rs := rp.(*object.String)
		if ls || rs {
			return &object.String{Value: toString(lp) + toString(rp)}
		}
		return &object.Number{Value: toNumber(lp) + toNumber(rp)}
	case token.MINUS:
		return &object.Number{Value: toNumber(left) - toNumber(right)}
	case token.MULTIPLY:
		return &object.Number{Value: toNumber(left) * toNumber(right)}
	case token.SLASH:
		return &object.Number{Value: toNumber(left) / toNumber(right)}
	case token.REMAINDER:
		return &object.Number{Value: math.Mod(toNumber(left), toNumber(right))}
	case token.EXPONENT:
		return &object.Number{Value: math.Pow(toNumber(left), toNumber(right))}

	case token.AND:
		return &object.Number{Value: float64(toInt32(left) & toInt32(right))}
	case token.OR:
		return &object.Number{Value: float64(toInt32(left) | toInt32(right))}
	case token.EXCLUSIVE_OR:
		return &object.Number{Value: float64(toInt32(left) ^ toInt32(right))}
	case token.SHIFT_LEFT:
		return &object.Number{Value: float64(toInt32(left) << (toUint32(right) & 31))}
	case token.SHIFT_RIGHT:
		return &object.Number{Value: float64(toInt32(left) >> (toUint32(right) & 31))}
	case token.UNSIGNED_SHIFT_RIGHT:
		return &object.Number{Value: float64(toUint32(left) >> (toUint32(right) & 31))}

	case token.STRICT_EQUAL:
		return object.NativeBool(strictEquals(left, right))
	case token.STRICT_NOT_EQUAL:
		return object.NativeBool(!strictEquals(left, right))
	case token.EQUAL:
		return object.NativeBool(looseEquals(left, right))
	case token.NOT_EQUAL:
		return object.NativeBool(!looseEquals(left, right))

	case token.LESS:
		return object.NativeBool(compare(left, right, func(c int) bool { return c < 0 }))
	case token.LESS_OR_EQUAL:
		return object.NativeBool(compare(left, right, func(c int) bool { return c <= 0 }))
	case token.GREATER:
		return object.NativeBool(compare(left, right, func(c int) bool { return c > 0 }))
	case token.GREATER_OR_EQUAL:
		return object.NativeBool(compare(left, right, func(c int) bool { return c >= 0 }))

	case token.IN:
		key := propertyKey(left)
		switch r := right.(type) {
		case *object.Map:
			_, ok := r.Get(key)
			return object.NativeBool(ok)
		case *object.Array:
			if key == "length" {
				return object.TRUE
			}
			idx, ok := arrayIndex(key)
			return object.NativeBool(ok && idx < len(r.Elements))
		}
		return e.newError(node, object.TypeError, "Cannot use 'in' operator to search for '%s' in %s", key, right.Inspect())
	case token.INSTANCEOF:
		ctor, ok := right.(*object.Builtin)
		if !ok || !ctor.Constructor {
			return e.newError(node, object.TypeError, "Right-hand side of 'instanceof' is not callable")
		}
		ev, ok := left.(*object.ErrorValue)
		return object.NativeBool(ok && (ctor.Name == "Error" || ctor.Name == ev.Name))
	}
	return e.newError(node, object.UnsupportedConstruct, "unsupported construct: operator %s", op.String())
}

// compare implements the relational operators. Two strings compare lexically,
// anything else numerically; a NaN operand makes every comparison false.
func compare(left, right object.Object, ok func(int) bool) bool {
	lp, rp := toPrimitive(left), toPrimitive(right)
	if ls, isStr := lp.(*object.String); isStr {
		if rs, isStr := rp.(*object.String); isStr {
			return ok(strings.Compare(ls.Value, rs.Value))
		}
	}
	l, r := toNumber(lp), toNumber(rp)
	if math.IsNaN(l) || math.IsNaN(r) {
		return false
	}
	switch {
	case l < r:
		return ok(-1)
	case l > r:
		return ok(1)
	}
	return ok(0)
}

func strictEquals(a, b object.Object) bool {
	switch x := a.(type) {
	case *object.Number:
		y, ok := b.(*object.Number)
		return ok && x.Value == y.Value
	case *object.String:
		y, ok := b.(*object.String)
		return ok && x.Value == y.Value
	case *object.Boolean:
		y, ok := b.(*object.Boolean)
		return ok && x.Value == y.Value
	case *object.Undefined:
		_, ok := b.(*object.Undefined)
		return ok
	case *object.Null:
		_, ok := b.(*object.Null)
		return ok
	}
	return a == b
}

func looseEquals(a, b object.Object) bool {
	if object.IsNullish(a) || object.IsNullish(b) {
		return object.IsNullish(a) && object.IsNullish(b)
	}
	if a.Type() == b.Type() {
		return strictEquals(a, b)
	}
	switch {
	case isPrimitive(a) && !isPrimitive(b):
		return looseEquals(a, toPrimitive(b))
	case !isPrimitive(a) && isPrimitive(b):
		return looseEquals(toPrimitive(a), b)
	case isPrimitive(a) && isPrimitive(b):
		return toNumber(a) == toNumber(b)
	}
	return false
}

// sameValueZero is strict equality except that NaN equals NaN; used by includes.
func sameValueZero(a, b object.Object) bool {
	if x, ok := a.(*object.Number); ok {
		if y, ok := b.(*object.Number); ok && math.IsNaN(x.Value) && math.IsNaN(y.Value) {
			return true
		}
	}
	return strictEquals(a, b)
}

func isPrimitive(obj object.Object) bool {
	switch obj.(type) {
	case *object.Undefined, *object.Null, *object.Boolean, *object.Number, *object.String:
		return true
	}
	return false
}

// toPrimitive converts objects to their string form; primitives are returned as is.
func toPrimitive(obj object.Object) object.Object {
	if isPrimitive(obj) {
		return obj
	}
	return &object.String{Value: obj.Inspect()}
}

func toNumber(obj object.Object) float64 {
	switch o := obj.(type) {
	case *object.Number:
		return o.Value
	case *object.Boolean:
		if o.Value {
			return 1
		}
		return 0
	case *object.Null:
		return 0
	case *object.Undefined:
		return math.NaN()
	case *object.String:
		return stringToNumber(o.Value)
	case *object.Array:
		return stringToNumber(o.Inspect())
	}
	return math.NaN()
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	for prefix, base := range map[string]int{"0x": 16, "0o": 8, "0b": 2} {
		if digits, ok := strings.CutPrefix(lower, prefix); ok {
			n, err := strconv.ParseUint(digits, base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if strings.ContainsAny(lower, "_xn") || strings.Contains(lower, "inf") {
		return math.NaN() // ParseFloat accepts forms the guest language does not
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func toString(obj object.Object) string {
	return obj.Inspect()
}

func toInt32(obj object.Object) int32 {
	return int32(toUint32(obj))
}

func toUint32(obj object.Object) uint32 {
	f := toNumber(obj)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	f = math.Mod(f, 4294967296)
	if f < 0 {
		f += 4294967296
	}
	return uint32(f)
}

func typeOf(obj object.Object) string {
	switch obj.(type) {
	case *object.Undefined:
		return "undefined"
	case *object.Boolean:
		return "boolean"
	case *object.Number:
		return "number"
	case *object.String:
		return "string"
	case *object.Function, *object.Builtin:
		return "function"
	}
	return "object"
}
