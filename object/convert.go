package object

import (
	"encoding/json"
	"errors"
	"maps"
	"math"
	"reflect"
	"slices"

	"github.com/iancoleman/orderedmap"
)

// FromNative converts a Go value into a guest value.
// Objects pass through unchanged; structs and other composite values that are not
// plain slices or maps are converted through their JSON encoding.
func FromNative(v any) Object {
	switch x := v.(type) {
	case nil:
		return NULL
	case Object:
		return x
	case bool:
		return NativeBool(x)
	case string:
		return &String{Value: x}
	case float64:
		return &Number{Value: x}
	case int:
		return &Number{Value: float64(x)}
	case int64:
		return &Number{Value: float64(x)}
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return &String{Value: x.String()}
		}
		return &Number{Value: f}
	case []any:
		arr := &Array{Elements: make([]Object, len(x))}
		for i, el := range x {
			arr.Elements[i] = FromNative(el)
		}
		return arr
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(x) {
			m.Set(k, FromNative(x[k]))
		}
		return m
	case *orderedmap.OrderedMap:
		return fromOrdered(x)
	case orderedmap.OrderedMap:
		return fromOrdered(&x)
	case error:
		return &ErrorValue{Name: "Error", Message: x.Error()}
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromOrdered(om *orderedmap.OrderedMap) *Map {
	m := NewMap()
	for _, k := range om.Keys() {
		v, _ := om.Get(k)
		m.Set(k, FromNative(v))
	}
	return m
}

func fromReflect(rv reflect.Value) Object {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NULL
		}
		if rv.Elem().Kind() != reflect.Struct {
			return FromNative(rv.Elem().Interface())
		}
	case reflect.Bool:
		return NativeBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Number{Value: float64(rv.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &Number{Value: float64(rv.Uint())}
	case reflect.Float32, reflect.Float64:
		return &Number{Value: rv.Float()}
	case reflect.String:
		return &String{Value: rv.String()}
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return NULL
		}
		arr := &Array{Elements: make([]Object, rv.Len())}
		for i := 0; i < rv.Len(); i++ {
			arr.Elements[i] = FromNative(rv.Index(i).Interface())
		}
		return arr
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return UNDEFINED
	}

	// structs and maps with non-string keys
	b, err := json.Marshal(rv.Interface())
	if err != nil {
		return UNDEFINED
	}
	om := orderedmap.New()
	if err := json.Unmarshal(b, om); err == nil {
		return fromOrdered(om)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return UNDEFINED
	}
	return FromNative(generic)
}

// ErrCircular is returned when a guest value contains itself.
var ErrCircular = errors.New("circular structure")

// ToNative converts a guest value into plain Go values:
// nil, bool, float64, string, []any and map[string]any.
// Functions and other non-data values are returned as the Object itself.
// A value that contains itself yields ErrCircular.
func ToNative(obj Object) (any, error) {
	var c converter
	return c.native(obj)
}

// ToJSONValue converts a guest value into a value whose JSON encoding follows the guest
// language's JSON.stringify: object keys keep insertion order, and undefined and function
// members are omitted. The second result is false when the value itself has no JSON form.
// A value that contains itself yields ErrCircular.
func ToJSONValue(obj Object) (any, bool, error) {
	var c converter
	return c.json(obj)
}

// converter tracks the arrays and objects on the current path, so that
// a shared value may appear twice but a cycle is reported.
type converter struct {
	path map[Object]struct{}
}

func (c *converter) enter(obj Object) error {
	if _, ok := c.path[obj]; ok {
		return ErrCircular
	}
	if c.path == nil {
		c.path = make(map[Object]struct{})
	}
	c.path[obj] = struct{}{}
	return nil
}

func (c *converter) leave(obj Object) {
	delete(c.path, obj)
}

func (c *converter) native(obj Object) (any, error) {
	switch o := obj.(type) {
	case nil, *Undefined, *Null:
		return nil, nil
	case *Boolean:
		return o.Value, nil
	case *Number:
		return o.Value, nil
	case *String:
		return o.Value, nil
	case *Array:
		if err := c.enter(o); err != nil {
			return nil, err
		}
		defer c.leave(o)
		out := make([]any, len(o.Elements))
		for i, el := range o.Elements {
			v, err := c.native(el)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *Map:
		if err := c.enter(o); err != nil {
			return nil, err
		}
		defer c.leave(o)
		out := make(map[string]any, o.Len())
		for _, k := range o.Keys() {
			el, _ := o.Get(k)
			v, err := c.native(el)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case *ErrorValue:
		return map[string]any{"name": o.Name, "message": o.Message}, nil
	}
	return obj, nil
}

func (c *converter) json(obj Object) (any, bool, error) {
	switch o := obj.(type) {
	case nil, *Undefined, *Function, *Builtin:
		return nil, false, nil
	case *Null:
		return nil, true, nil
	case *Number:
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return nil, true, nil
		}
		return o.Value, true, nil
	case *Array:
		if err := c.enter(o); err != nil {
			return nil, false, err
		}
		defer c.leave(o)
		out := make([]any, len(o.Elements))
		for i, el := range o.Elements {
			v, ok, err := c.json(el)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				v = nil
			}
			out[i] = v
		}
		return out, true, nil
	case *Map:
		if err := c.enter(o); err != nil {
			return nil, false, err
		}
		defer c.leave(o)
		om := orderedmap.New()
		om.SetEscapeHTML(false)
		for _, k := range o.Keys() {
			el, _ := o.Get(k)
			v, ok, err := c.json(el)
			if err != nil {
				return nil, false, err
			}
			if ok {
				om.Set(k, v)
			}
		}
		return om, true, nil
	case *ErrorValue:
		return orderedmap.New(), true, nil
	case *Promise:
		return orderedmap.New(), true, nil
	}
	v, err := c.native(obj)
	if err != nil {
		return nil, false, err
	}
	if _, isObj := v.(Object); isObj {
		return nil, false, nil
	}
	return v, true, nil
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
