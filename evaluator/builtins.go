package evaluator

import (
	"bytes"
	"encoding/json"
	"errors"
	"maps"
	"math"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iancoleman/orderedmap"
	"github.com/podhmo/pagescript/object"
)

// InstallGlobals binds the built-in globals into env.
func (e *Evaluator) InstallGlobals(env *object.Environment) {
	env.DefineConst("undefined", object.UNDEFINED)
	env.DefineConst("NaN", &object.Number{Value: math.NaN()})
	env.DefineConst("Infinity", &object.Number{Value: math.Inf(1)})

	env.Define("console", namespace(map[string]object.BuiltinFunction{
		"log": consoleLog,
	}))

	for _, name := range []string{"Error", "TypeError", "ReferenceError", "RangeError"} {
		env.Define(name, errorConstructor(name))
	}

	env.Define("String", method("String", func(_ *object.BuiltinContext, args ...object.Object) object.Object {
		if len(args) == 0 {
			return &object.String{}
		}
		return &object.String{Value: toString(args[0])}
	}))
	env.Define("Number", method("Number", func(_ *object.BuiltinContext, args ...object.Object) object.Object {
		if len(args) == 0 {
			return &object.Number{}
		}
		return &object.Number{Value: toNumber(args[0])}
	}))
	env.Define("Boolean", method("Boolean", func(_ *object.BuiltinContext, args ...object.Object) object.Object {
		return object.NativeBool(isTruthy(arg(args, 0)))
	}))
	env.Define("parseInt", method("parseInt", builtinParseInt))
	env.Define("parseFloat", method("parseFloat", builtinParseFloat))
	env.Define("isNaN", method("isNaN", func(_ *object.BuiltinContext, args ...object.Object) object.Object {
		return object.NativeBool(math.IsNaN(toNumber(arg(args, 0))))
	}))
	env.Define("sleep", method("sleep", builtinSleep))

	env.Define("JSON", namespace(map[string]object.BuiltinFunction{
		"stringify": jsonStringify,
		"parse":     jsonParse,
	}))
	env.Define("Object", namespace(map[string]object.BuiltinFunction{
		"keys":    objectEntries("keys"),
		"values":  objectEntries("values"),
		"entries": objectEntries("entries"),
		"assign":  objectAssign,
		"freeze":  objectFreeze,
	}))
	env.Define("Array", namespace(map[string]object.BuiltinFunction{
		"isArray": func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			_, ok := arg(args, 0).(*object.Array)
			return object.NativeBool(ok)
		},
	}))

	mathNS := namespace(map[string]object.BuiltinFunction{
		"floor": mathFunc(math.Floor),
		"ceil":  mathFunc(math.Ceil),
		"round": mathFunc(func(f float64) float64 { return math.Floor(f + 0.5) }),
		"abs":   mathFunc(math.Abs),
		"sqrt":  mathFunc(math.Sqrt),
		"trunc": mathFunc(math.Trunc),
		"min":   mathFold(math.Inf(1), math.Min),
		"max":   mathFold(math.Inf(-1), math.Max),
		"pow": func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			return &object.Number{Value: math.Pow(toNumber(arg(args, 0)), toNumber(arg(args, 1)))}
		},
		"random": func(*object.BuiltinContext, ...object.Object) object.Object {
			return &object.Number{Value: rand.Float64()}
		},
	})
	mathNS.Set("PI", &object.Number{Value: math.Pi})
	env.Define("Math", mathNS)

	statics := namespace(map[string]object.BuiltinFunction{
		"resolve": func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			return object.Resolved(arg(args, 0))
		},
		"reject": func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			return object.Rejected(object.ThrowValue(arg(args, 0)))
		},
		"all": promiseAll,
	})
	env.Define("Promise", &object.Builtin{Name: "Promise", Fn: newPromise, Constructor: true, Statics: statics})
}

// namespace builds a frozen object of built-in functions.
func namespace(fns map[string]object.BuiltinFunction) *object.Map {
	m := object.NewMap()
	for _, name := range slices.Sorted(maps.Keys(fns)) {
		m.Set(name, method(name, fns[name]))
	}
	m.Frozen = true
	return m
}

// LogFunction returns a function that prints its arguments the way console.log does.
func LogFunction(name string) *object.Builtin {
	return method(name, consoleLog)
}

func consoleLog(ctx *object.BuiltinContext, args ...object.Object) object.Object {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = display(a)
	}
	ctx.Log(strings.Join(parts, " "))
	return object.UNDEFINED
}

// display renders a value the way console.log prints it: strings verbatim and
// arrays and objects as JSON.
func display(obj object.Object) string {
	switch obj.(type) {
	case *object.Array, *object.Map:
		if s, ok, err := stringify(obj, ""); err == nil && ok {
			return s
		}
	}
	return obj.Inspect()
}

func errorConstructor(name string) *object.Builtin {
	return &object.Builtin{
		Name:        name,
		Constructor: true,
		Fn: func(_ *object.BuiltinContext, args ...object.Object) object.Object {
			msg := ""
			if m := arg(args, 0); m != object.UNDEFINED {
				msg = toString(m)
			}
			return &object.ErrorValue{Name: name, Message: msg}
		},
	}
}

func builtinParseInt(_ *object.BuiltinContext, args ...object.Object) object.Object {
	s := strings.TrimSpace(toString(arg(args, 0)))
	radix := 10
	if r := arg(args, 1); r != object.UNDEFINED {
		radix = int(toNumber(r))
	}
	sign := 1.0
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign, s = -1, rest
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	if radix == 0 || radix == 16 {
		if rest, ok := cutPrefixFold(s, "0x"); ok {
			s, radix = rest, 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return &object.Number{Value: math.NaN()}
	}
	end := 0
	for end < len(s) && digitValue(rune(s[end])) < radix {
		end++
	}
	if end == 0 {
		return &object.Number{Value: math.NaN()}
	}
	n, err := strconv.ParseInt(s[:end], radix, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(s[:end], 64)
		return &object.Number{Value: sign * f}
	}
	return &object.Number{Value: sign * float64(n)}
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

func digitValue(r rune) int {
	switch {
	case '0' <= r && r <= '9':
		return int(r - '0')
	case unicode.IsLetter(r) && r < unicode.MaxASCII:
		return int(unicode.ToLower(r)-'a') + 10
	}
	return 99
}

var floatPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|\d+\.?\d*(?:[eE][+-]?\d+)?|\.\d+(?:[eE][+-]?\d+)?)`)

func builtinParseFloat(_ *object.BuiltinContext, args ...object.Object) object.Object {
	m := floatPrefix.FindString(strings.TrimSpace(toString(arg(args, 0))))
	if m == "" {
		return &object.Number{Value: math.NaN()}
	}
	return &object.Number{Value: stringToNumber(m)}
}

// builtinSleep pauses for the given milliseconds and resolves to undefined.
// Cancellation of the run interrupts the wait.
func builtinSleep(ctx *object.BuiltinContext, args ...object.Object) object.Object {
	ms := toNumber(arg(args, 0))
	if math.IsNaN(ms) || ms < 0 {
		ms = 0
	}
	timer := time.NewTimer(time.Duration(ms * float64(time.Millisecond)))
	defer timer.Stop()
	select {
	case <-ctx.Ctx.Done():
		err := ctx.NewError(object.Aborted, "execution aborted: %v", ctx.Ctx.Err())
		err.Cause = ctx.Ctx.Err()
		return err
	case <-timer.C:
		return object.Resolved(object.UNDEFINED)
	}
}

func jsonStringify(ctx *object.BuiltinContext, args ...object.Object) object.Object {
	indent := ""
	switch sp := arg(args, 2).(type) {
	case *object.Number:
		indent = strings.Repeat(" ", max(0, min(10, int(sp.Value))))
	case *object.String:
		indent = sp.Value
	}
	s, ok, err := stringify(arg(args, 0), indent)
	if errors.Is(err, object.ErrCircular) {
		return ctx.NewError(object.TypeError, "Converting circular structure to JSON")
	}
	if err != nil || !ok {
		return object.UNDEFINED
	}
	return &object.String{Value: s}
}

// stringify encodes obj as JSON. It reports false for values without a JSON form.
func stringify(obj object.Object, indent string) (string, bool, error) {
	v, ok, err := object.ToJSONValue(obj)
	if err != nil || !ok {
		return "", false, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return "", false, err
	}
	return strings.TrimSuffix(buf.String(), "\n"), true, nil
}

func jsonParse(ctx *object.BuiltinContext, args ...object.Object) object.Object {
	src := toString(arg(args, 0))
	v, err := decodeJSON(json.RawMessage(src))
	if err != nil {
		return object.ThrowValue(&object.ErrorValue{Name: "SyntaxError", Message: err.Error()})
	}
	return v
}

// decodeJSON decodes a JSON document, keeping the key order of objects.
func decodeJSON(raw json.RawMessage) (object.Object, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("unexpected end of JSON input")
	}
	switch trimmed[0] {
	case '{':
		om := orderedmap.New()
		if err := json.Unmarshal(trimmed, om); err != nil {
			return nil, err
		}
		return object.FromNative(om), nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, err
		}
		arr := &object.Array{Elements: make([]object.Object, len(elems))}
		for i, el := range elems {
			v, err := decodeJSON(el)
			if err != nil {
				return nil, err
			}
			arr.Elements[i] = v
		}
		return arr, nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	return object.FromNative(v), nil
}

func objectEntries(kind string) object.BuiltinFunction {
	return func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
		var keys []string
		var get func(string) object.Object
		switch o := arg(args, 0).(type) {
		case *object.Map:
			keys = o.Keys()
			get = func(k string) object.Object { v, _ := o.Get(k); return v }
		case *object.Array:
			for i := range o.Elements {
				keys = append(keys, strconv.Itoa(i))
			}
			get = func(k string) object.Object { i, _ := strconv.Atoi(k); return o.Elements[i] }
		case *object.Undefined, *object.Null:
			return ctx.NewError(object.TypeError, "Cannot convert undefined or null to object")
		}
		out := &object.Array{Elements: make([]object.Object, 0, len(keys))}
		for _, k := range keys {
			switch kind {
			case "keys":
				out.Elements = append(out.Elements, &object.String{Value: k})
			case "values":
				out.Elements = append(out.Elements, get(k))
			default:
				pair := []object.Object{&object.String{Value: k}, get(k)}
				out.Elements = append(out.Elements, &object.Array{Elements: pair})
			}
		}
		return out
	}
}

func objectAssign(ctx *object.BuiltinContext, args ...object.Object) object.Object {
	target, ok := arg(args, 0).(*object.Map)
	if !ok {
		return ctx.NewError(object.TypeError, "Object.assign target must be an object")
	}
	if target.Frozen {
		return ctx.NewError(object.TypeError, "Cannot assign to read only object")
	}
	for _, src := range args[1:] {
		if m, ok := src.(*object.Map); ok {
			for _, k := range m.Keys() {
				v, _ := m.Get(k)
				target.Set(k, v)
			}
		}
	}
	return target
}

func objectFreeze(_ *object.BuiltinContext, args ...object.Object) object.Object {
	if m, ok := arg(args, 0).(*object.Map); ok {
		m.Frozen = true
	}
	return arg(args, 0)
}

func mathFunc(fn func(float64) float64) object.BuiltinFunction {
	return func(_ *object.BuiltinContext, args ...object.Object) object.Object {
		return &object.Number{Value: fn(toNumber(arg(args, 0)))}
	}
}

func mathFold(init float64, fn func(a, b float64) float64) object.BuiltinFunction {
	return func(_ *object.BuiltinContext, args ...object.Object) object.Object {
		acc := init
		for _, a := range args {
			acc = fn(acc, toNumber(a))
		}
		return &object.Number{Value: acc}
	}
}

// newPromise runs the executor synchronously; the first call to resolve or reject
// settles the promise. An executor that settles nothing yields a promise resolved to
// undefined, since nothing can settle it later.
func newPromise(ctx *object.BuiltinContext, args ...object.Object) object.Object {
	executor := arg(args, 0)
	if !isCallable(executor) {
		return ctx.NewError(object.TypeError, "Promise resolver %s is not a function", executor.Inspect())
	}
	var settled *object.Promise
	resolve := method("resolve", func(_ *object.BuiltinContext, args ...object.Object) object.Object {
		if settled == nil {
			settled = object.Resolved(arg(args, 0))
		}
		return object.UNDEFINED
	})
	reject := method("reject", func(_ *object.BuiltinContext, args ...object.Object) object.Object {
		if settled == nil {
			settled = object.Rejected(object.ThrowValue(arg(args, 0)))
		}
		return object.UNDEFINED
	})
	if res := ctx.Apply(executor, resolve, reject); isError(res) {
		errObj := res.(*object.Error)
		if !errObj.Catchable() {
			return errObj
		}
		if settled == nil {
			settled = object.Rejected(errObj)
		}
	}
	if settled == nil {
		settled = object.Resolved(object.UNDEFINED)
	}
	return settled
}

// promiseAll resolves to the array of values, or to the first rejection.
// Every input is observed, so later rejections are not reported as unhandled.
func promiseAll(_ *object.BuiltinContext, args ...object.Object) object.Object {
	list, ok := arg(args, 0).(*object.Array)
	if !ok {
		return object.Rejected(object.NewError(object.TypeError, "%s is not iterable", arg(args, 0).Inspect()))
	}
	out := &object.Array{Elements: make([]object.Object, len(list.Elements))}
	var first *object.Error
	for i, el := range list.Elements {
		p, ok := el.(*object.Promise)
		if !ok {
			out.Elements[i] = el
			continue
		}
		v, err := p.Await()
		if err != nil && first == nil {
			first = err
		}
		out.Elements[i] = v
	}
	if first != nil {
		return object.Rejected(first)
	}
	return object.Resolved(out)
}
