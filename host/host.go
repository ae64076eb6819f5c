// Package host exposes a caller-supplied automation handle to guest scripts.
//
// A View describes what lives at a dotted path of the handle and performs calls;
// a Proxy turns a View into a guest value that logs every method call before
// forwarding it.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MemberKind tells a Proxy how to expose a member.
type MemberKind int

const (
	// MemberMissing means nothing lives at the path; it reads as undefined.
	MemberMissing MemberKind = iota
	// MemberValue is plain data, returned to the guest verbatim.
	MemberValue
	// MemberObject is a nested object, wrapped in a child Proxy when read.
	MemberObject
	// MemberMethod is callable through View.Call.
	MemberMethod
)

func (k MemberKind) String() string {
	switch k {
	case MemberValue:
		return "value"
	case MemberObject:
		return "object"
	case MemberMethod:
		return "method"
	}
	return "missing"
}

// Member describes the member at a path.
type Member struct {
	Kind MemberKind
	// Value holds the data for MemberValue.
	Value any
}

// View is the capability a host object offers to guest code.
// Paths are dotted member names relative to the host root, e.g. "keyboard.press".
type View interface {
	Member(path string) (Member, error)
	Call(ctx context.Context, path string, args []any) (any, error)
}

// Reflect returns a View over an arbitrary Go value.
//
// Guest member names are matched against exported methods and fields by upper-casing
// the first letter (`click` finds `Click`), struct fields also match their json tag,
// and map[string]any keys match verbatim. Methods may take a context.Context as their
// first parameter and may return an error as their last result.
func Reflect(target any) View {
	if v, ok := target.(View); ok {
		return v
	}
	return &reflectView{root: reflect.ValueOf(target)}
}

type reflectView struct {
	root reflect.Value
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

func (rv *reflectView) Member(path string) (Member, error) {
	if path == "" {
		return Member{Kind: MemberObject}, nil
	}
	v, ok := rv.resolve(path)
	if !ok {
		return Member{Kind: MemberMissing}, nil
	}
	return classify(v), nil
}

func (rv *reflectView) Call(ctx context.Context, path string, args []any) (result any, err error) {
	fn, ok := rv.resolve(path)
	if !ok {
		return nil, fmt.Errorf("%s is not defined on the host", path)
	}
	fn = indirect(fn)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, fmt.Errorf("%s is not a method", path)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", path, r)
		}
	}()

	in, err := buildArgs(ctx, fn.Type(), args)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	return unpackResults(fn.Call(in))
}

// resolve walks the dotted path from the root.
func (rv *reflectView) resolve(path string) (reflect.Value, bool) {
	cur := rv.root
	for _, name := range strings.Split(path, ".") {
		next, ok := lookupMember(cur, name)
		if !ok {
			return reflect.Value{}, false
		}
		cur = next
	}
	return cur, true
}

func lookupMember(v reflect.Value, name string) (reflect.Value, bool) {
	if !v.IsValid() || name == "" {
		return reflect.Value{}, false
	}
	exported := exportName(name)

	// methods are looked up before dereferencing so that pointer receivers are found
	if v.Kind() != reflect.Interface || !v.IsNil() {
		if m := v.MethodByName(exported); m.IsValid() {
			return m, true
		}
	}

	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if m := v.MethodByName(exported); m.IsValid() {
		return m, true
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		item := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !item.IsValid() {
			return reflect.Value{}, false
		}
		return item, true
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if tag == name || f.Name == exported {
				return v.Field(i), true
			}
		}
	}
	return reflect.Value{}, false
}

func classify(v reflect.Value) Member {
	d := indirect(v)
	if !d.IsValid() {
		return Member{Kind: MemberValue, Value: nil}
	}
	switch d.Kind() {
	case reflect.Func:
		return Member{Kind: MemberMethod}
	case reflect.Struct:
		return Member{Kind: MemberObject}
	case reflect.Map:
		if d.Type().Key().Kind() == reflect.String {
			return Member{Kind: MemberObject}
		}
	}
	return Member{Kind: MemberValue, Value: d.Interface()}
}

// indirect follows pointers and interfaces. It returns the zero Value for nil.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func buildArgs(ctx context.Context, ft reflect.Type, args []any) ([]reflect.Value, error) {
	var in []reflect.Value
	params := ft.NumIn()
	first := 0
	if params > 0 && ft.In(0) == contextType {
		in = append(in, reflect.ValueOf(ctx))
		first = 1
	}

	fixed := params
	if ft.IsVariadic() {
		fixed = params - 1
	}
	for i := first; i < fixed; i++ {
		var arg any
		if j := i - first; j < len(args) {
			arg = args[j]
		}
		v, err := convertArg(arg, ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i-first+1, err)
		}
		in = append(in, v)
	}
	if ft.IsVariadic() {
		elem := ft.In(params - 1).Elem()
		for j := fixed - first; j < len(args); j++ {
			v, err := convertArg(args[j], elem)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", j+1, err)
			}
			in = append(in, v)
		}
	}
	return in, nil
}

// convertArg converts a plain Go value produced from a guest value to the parameter type.
func convertArg(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) {
		return v.Convert(t), nil
	}
	if v.Kind() == reflect.String && t.Kind() == reflect.String {
		return v.Convert(t), nil
	}

	b, err := json.Marshal(arg)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s: %w", arg, t, err)
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(b, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %s as %s: %w", b, t, err)
	}
	return ptr.Elem(), nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func unpackResults(out []reflect.Value) (any, error) {
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			return nil, out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	if len(out) == 1 {
		return out[0].Interface(), nil
	}
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}
