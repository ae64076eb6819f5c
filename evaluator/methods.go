package evaluator

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/podhmo/pagescript/object"
)

func (e *Evaluator) arrayMethod(arr *object.Array, name string) object.Object {
	switch name {
	case "push":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			arr.Elements = append(arr.Elements, args...)
			return &object.Number{Value: float64(len(arr.Elements))}
		})
	case "pop":
		return method(name, func(*object.BuiltinContext, ...object.Object) object.Object {
			if len(arr.Elements) == 0 {
				return object.UNDEFINED
			}
			last := arr.Elements[len(arr.Elements)-1]
			arr.Elements = arr.Elements[:len(arr.Elements)-1]
			return last
		})
	case "shift":
		return method(name, func(*object.BuiltinContext, ...object.Object) object.Object {
			if len(arr.Elements) == 0 {
				return object.UNDEFINED
			}
			first := arr.Elements[0]
			arr.Elements = arr.Elements[1:]
			return first
		})
	case "unshift":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			arr.Elements = append(append([]object.Object{}, args...), arr.Elements...)
			return &object.Number{Value: float64(len(arr.Elements))}
		})
	case "join":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			sep := ","
			if s := arg(args, 0); s != object.UNDEFINED {
				sep = toString(s)
			}
			parts := make([]string, len(arr.Elements))
			for i, el := range arr.Elements {
				if !object.IsNullish(el) {
					parts[i] = toString(el)
				}
			}
			return &object.String{Value: strings.Join(parts, sep)}
		})
	case "includes":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			for _, el := range arr.Elements {
				if sameValueZero(el, arg(args, 0)) {
					return object.TRUE
				}
			}
			return object.FALSE
		})
	case "indexOf":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			for i, el := range arr.Elements {
				if strictEquals(el, arg(args, 0)) {
					return &object.Number{Value: float64(i)}
				}
			}
			return &object.Number{Value: -1}
		})
	case "slice":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			start, end := sliceBounds(len(arr.Elements), arg(args, 0), arg(args, 1))
			return &object.Array{Elements: append([]object.Object{}, arr.Elements[start:end]...)}
		})
	case "concat":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			out := append([]object.Object{}, arr.Elements...)
			for _, a := range args {
				if other, ok := a.(*object.Array); ok {
					out = append(out, other.Elements...)
				} else {
					out = append(out, a)
				}
			}
			return &object.Array{Elements: out}
		})
	case "reverse":
		return method(name, func(*object.BuiltinContext, ...object.Object) object.Object {
			for i, j := 0, len(arr.Elements)-1; i < j; i, j = i+1, j-1 {
				arr.Elements[i], arr.Elements[j] = arr.Elements[j], arr.Elements[i]
			}
			return arr
		})
	case "sort":
		return method(name, func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			cmp := arg(args, 0)
			var failure object.Object
			sort.SliceStable(arr.Elements, func(i, j int) bool {
				if failure != nil {
					return false
				}
				a, b := arr.Elements[i], arr.Elements[j]
				if cmp == object.UNDEFINED {
					return toString(a) < toString(b)
				}
				res := ctx.Apply(cmp, a, b)
				if isError(res) {
					failure = res
					return false
				}
				return toNumber(res) < 0
			})
			if failure != nil {
				return failure
			}
			return arr
		})
	case "map", "filter", "forEach", "find", "findIndex", "some", "every":
		return method(name, func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			return iterate(ctx, name, arr, arg(args, 0))
		})
	case "reduce":
		return method(name, func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			fn := arg(args, 0)
			if !isCallable(fn) {
				return ctx.NewError(object.TypeError, "%s is not a function", fn.Inspect())
			}
			elements := arr.Elements
			var acc object.Object
			if len(args) > 1 {
				acc = args[1]
			} else {
				if len(elements) == 0 {
					return ctx.NewError(object.TypeError, "Reduce of empty array with no initial value")
				}
				acc, elements = elements[0], elements[1:]
			}
			offset := len(arr.Elements) - len(elements)
			for i, el := range elements {
				acc = ctx.Apply(fn, acc, el, &object.Number{Value: float64(i + offset)}, arr)
				if isError(acc) {
					return acc
				}
			}
			return acc
		})
	}
	return object.UNDEFINED
}

// iterate implements the callback-taking array methods.
func iterate(ctx *object.BuiltinContext, name string, arr *object.Array, fn object.Object) object.Object {
	if !isCallable(fn) {
		return ctx.NewError(object.TypeError, "%s is not a function", fn.Inspect())
	}
	var mapped []object.Object
	for i := 0; i < len(arr.Elements); i++ {
		el := arr.Elements[i]
		res := ctx.Apply(fn, el, &object.Number{Value: float64(i)}, arr)
		if isError(res) {
			return res
		}
		switch name {
		case "map":
			mapped = append(mapped, res)
		case "filter":
			if isTruthy(res) {
				mapped = append(mapped, el)
			}
		case "find":
			if isTruthy(res) {
				return el
			}
		case "findIndex":
			if isTruthy(res) {
				return &object.Number{Value: float64(i)}
			}
		case "some":
			if isTruthy(res) {
				return object.TRUE
			}
		case "every":
			if !isTruthy(res) {
				return object.FALSE
			}
		}
	}
	switch name {
	case "map", "filter":
		return &object.Array{Elements: append([]object.Object{}, mapped...)}
	case "findIndex":
		return &object.Number{Value: -1}
	case "some":
		return object.FALSE
	case "every":
		return object.TRUE
	}
	return object.UNDEFINED
}

// sliceBounds resolves slice(start, end) arguments, counting negative values from the end.
func sliceBounds(length int, startArg, endArg object.Object) (int, int) {
	clamp := func(v object.Object, def int) int {
		if v == object.UNDEFINED {
			return def
		}
		f := toNumber(v)
		if math.IsNaN(f) {
			return 0
		}
		n := int(math.Trunc(math.Max(math.Min(f, float64(length)), -float64(length)-1)))
		if n < 0 {
			n += length
		}
		return max(0, min(n, length))
	}
	start, end := clamp(startArg, 0), clamp(endArg, length)
	if end < start {
		end = start
	}
	return start, end
}

func (e *Evaluator) stringMethod(str *object.String, name string) object.Object {
	s := str.Value
	strArg := func(args []object.Object, i int) string { return toString(arg(args, i)) }

	switch name {
	case "includes":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			return object.NativeBool(strings.Contains(s, strArg(args, 0)))
		})
	case "startsWith":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			return object.NativeBool(strings.HasPrefix(s, strArg(args, 0)))
		})
	case "endsWith":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			return object.NativeBool(strings.HasSuffix(s, strArg(args, 0)))
		})
	case "indexOf":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			idx := strings.Index(s, strArg(args, 0))
			if idx > 0 {
				idx = len([]rune(s[:idx]))
			}
			return &object.Number{Value: float64(idx)}
		})
	case "slice", "substring":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			runes := []rune(s)
			var start, end int
			if name == "slice" {
				start, end = sliceBounds(len(runes), arg(args, 0), arg(args, 1))
			} else {
				start, end = substringBounds(len(runes), arg(args, 0), arg(args, 1))
			}
			return &object.String{Value: string(runes[start:end])}
		})
	case "toUpperCase":
		return method(name, func(*object.BuiltinContext, ...object.Object) object.Object {
			return &object.String{Value: strings.ToUpper(s)}
		})
	case "toLowerCase":
		return method(name, func(*object.BuiltinContext, ...object.Object) object.Object {
			return &object.String{Value: strings.ToLower(s)}
		})
	case "trim":
		return method(name, func(*object.BuiltinContext, ...object.Object) object.Object {
			return &object.String{Value: strings.TrimSpace(s)}
		})
	case "split":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			if arg(args, 0) == object.UNDEFINED {
				return &object.Array{Elements: []object.Object{str}}
			}
			parts := strings.Split(s, strArg(args, 0))
			out := make([]object.Object, len(parts))
			for i, p := range parts {
				out[i] = &object.String{Value: p}
			}
			return &object.Array{Elements: out}
		})
	case "replace", "replaceAll":
		return method(name, func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			n := 1
			if name == "replaceAll" {
				n = -1
			}
			repl := arg(args, 1)
			if isCallable(repl) {
				return replaceWith(ctx, s, strArg(args, 0), repl, n)
			}
			return &object.String{Value: strings.Replace(s, strArg(args, 0), toString(repl), n)}
		})
	case "repeat":
		return method(name, func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			count := toNumber(arg(args, 0))
			if count < 0 || math.IsInf(count, 0) {
				return ctx.NewError(object.RangeError, "Invalid count value: %s", object.FormatNumber(count))
			}
			if math.IsNaN(count) {
				count = 0
			}
			return &object.String{Value: strings.Repeat(s, int(count))}
		})
	case "padStart", "padEnd":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			width := int(toNumber(arg(args, 0)))
			pad := " "
			if p := arg(args, 1); p != object.UNDEFINED {
				pad = toString(p)
			}
			missing := width - len([]rune(s))
			if missing <= 0 || pad == "" {
				return str
			}
			fill := []rune(strings.Repeat(pad, missing/len([]rune(pad))+1))[:missing]
			if name == "padStart" {
				return &object.String{Value: string(fill) + s}
			}
			return &object.String{Value: s + string(fill)}
		})
	case "charAt":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			runes := []rune(s)
			idx := int(toNumber(arg(args, 0)))
			if idx < 0 || idx >= len(runes) {
				return &object.String{Value: ""}
			}
			return &object.String{Value: string(runes[idx])}
		})
	case "toString":
		return method(name, func(*object.BuiltinContext, ...object.Object) object.Object {
			return str
		})
	}
	return object.UNDEFINED
}

func substringBounds(length int, startArg, endArg object.Object) (int, int) {
	clamp := func(v object.Object, def int) int {
		if v == object.UNDEFINED {
			return def
		}
		f := toNumber(v)
		if math.IsNaN(f) || f < 0 {
			return 0
		}
		return min(int(f), length)
	}
	start, end := clamp(startArg, 0), clamp(endArg, length)
	if start > end {
		start, end = end, start
	}
	return start, end
}

func replaceWith(ctx *object.BuiltinContext, s, old string, fn object.Object, n int) object.Object {
	var out strings.Builder
	rest := s
	for n != 0 {
		idx := strings.Index(rest, old)
		if idx < 0 {
			break
		}
		res := ctx.Apply(fn, &object.String{Value: old})
		if isError(res) {
			return res
		}
		out.WriteString(rest[:idx])
		out.WriteString(toString(res))
		rest = rest[idx+len(old):]
		n--
		if old == "" {
			break
		}
	}
	out.WriteString(rest)
	return &object.String{Value: out.String()}
}

func (e *Evaluator) numberMethod(num *object.Number, name string) object.Object {
	switch name {
	case "toFixed":
		return method(name, func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			digits := 0
			if d := arg(args, 0); d != object.UNDEFINED {
				digits = int(toNumber(d))
			}
			if digits < 0 || digits > 100 {
				return ctx.NewError(object.RangeError, "toFixed() digits argument must be between 0 and 100")
			}
			return &object.String{Value: strconv.FormatFloat(num.Value, 'f', digits, 64)}
		})
	case "toString":
		return method(name, func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			if r := arg(args, 0); r != object.UNDEFINED && num.Value == math.Trunc(num.Value) {
				return &object.String{Value: strconv.FormatInt(int64(num.Value), int(toNumber(r)))}
			}
			return &object.String{Value: num.Inspect()}
		})
	}
	return object.UNDEFINED
}

// promiseMethod implements then, catch and finally on settled promises. The callbacks run
// immediately; a callback error rejects the derived promise, which the caller tracks.
func (e *Evaluator) promiseMethod(p *object.Promise, name string) object.Object {
	settle := func(ctx *object.BuiltinContext, onFulfilled, onRejected object.Object) object.Object {
		val, err := p.Await()
		var next object.Object
		switch {
		case err == nil && isCallable(onFulfilled):
			next = ctx.Apply(onFulfilled, val)
		case err == nil:
			next = val
		case isCallable(onRejected):
			next = ctx.Apply(onRejected, err.GuestValue())
		default:
			return object.Rejected(err)
		}
		if errObj, ok := next.(*object.Error); ok {
			if !errObj.Catchable() {
				return errObj
			}
			return object.Rejected(errObj)
		}
		return object.Resolved(next)
	}

	switch name {
	case "then":
		return method(name, func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			return settle(ctx, arg(args, 0), arg(args, 1))
		})
	case "catch":
		return method(name, func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			return settle(ctx, object.UNDEFINED, arg(args, 0))
		})
	case "finally":
		return method(name, func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			if fn := arg(args, 0); isCallable(fn) {
				if res := ctx.Apply(fn); isError(res) {
					return res
				}
			}
			return settle(ctx, object.UNDEFINED, object.UNDEFINED)
		})
	}
	return object.UNDEFINED
}
