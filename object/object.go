package object

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/iancoleman/orderedmap"
)

// ObjectType is a string representation of an object's type.
type ObjectType string

const (
	UNDEFINED_OBJ    ObjectType = "UNDEFINED"
	NULL_OBJ         ObjectType = "NULL"
	BOOLEAN_OBJ      ObjectType = "BOOLEAN"
	NUMBER_OBJ       ObjectType = "NUMBER"
	STRING_OBJ       ObjectType = "STRING"
	ARRAY_OBJ        ObjectType = "ARRAY"
	MAP_OBJ          ObjectType = "OBJECT"
	FUNCTION_OBJ     ObjectType = "FUNCTION"
	BUILTIN_OBJ      ObjectType = "BUILTIN"
	PROMISE_OBJ      ObjectType = "PROMISE"
	ERROR_VALUE_OBJ  ObjectType = "ERROR_VALUE"
	HOST_OBJ         ObjectType = "HOST"
	RETURN_VALUE_OBJ ObjectType = "RETURN_VALUE"
	ERROR_OBJ        ObjectType = "ERROR"
)

// Object is the interface that all guest values implement.
type Object interface {
	// Type returns the type of the object.
	Type() ObjectType
	// Inspect returns the string conversion of the value, as the guest language's String(v) would.
	Inspect() string
}

// MemberGetter is implemented by values whose members are resolved by the value itself
// rather than by the evaluator, such as host proxies.
type MemberGetter interface {
	Object
	GetMember(name string) Object
}

// --- Primitive Objects ---

// Undefined is the value of missing bindings, members, and return values.
type Undefined struct{}

func (u *Undefined) Type() ObjectType { return UNDEFINED_OBJ }
func (u *Undefined) Inspect() string  { return "undefined" }

// Null is the null literal.
type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

// Boolean represents a boolean value.
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

// Number represents a numeric value. The guest language has a single number type.
type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return FormatNumber(n.Value) }

// String represents a string value.
type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

var (
	UNDEFINED = &Undefined{}
	NULL      = &Null{}
	TRUE      = &Boolean{Value: true}
	FALSE     = &Boolean{Value: false}
)

// NativeBool returns the shared TRUE or FALSE instance.
func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// IsNullish reports whether obj is null or undefined.
func IsNullish(obj Object) bool {
	switch obj.(type) {
	case *Undefined, *Null:
		return true
	}
	return false
}

// FormatNumber converts a float64 to its guest string form:
// integral values print without a fraction and very large or small magnitudes use exponent notation.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs < 1e21 && abs >= 1e-6 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}

// --- Composite Objects ---

// Array is a mutable, ordered list of values.
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }

// Inspect joins the elements with commas; null and undefined elements print as empty strings.
func (a *Array) Inspect() string {
	parts := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		if IsNullish(el) {
			continue
		}
		parts[i] = el.Inspect()
	}
	return strings.Join(parts, ",")
}

// Map is a plain guest object. Keys keep their insertion order.
type Map struct {
	pairs  *orderedmap.OrderedMap
	Frozen bool
}

// NewMap creates an empty object.
func NewMap() *Map {
	return &Map{pairs: orderedmap.New()}
}

func (m *Map) Type() ObjectType { return MAP_OBJ }
func (m *Map) Inspect() string  { return "[object Object]" }

// Get returns the value stored under key.
func (m *Map) Get(key string) (Object, bool) {
	v, ok := m.pairs.Get(key)
	if !ok {
		return nil, false
	}
	return v.(Object), true
}

// Set stores a value under key. An existing key keeps its position.
func (m *Map) Set(key string, val Object) {
	m.pairs.Set(key, val)
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	if _, ok := m.pairs.Get(key); !ok {
		return false
	}
	m.pairs.Delete(key)
	return true
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	keys := m.pairs.Keys()
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Len returns the number of keys.
func (m *Map) Len() int { return len(m.pairs.Keys()) }

// ErrorValue is a guest-visible error instance, as created by `new Error(message)`
// or bound to a catch parameter.
type ErrorValue struct {
	Name    string
	Message string
}

func (e *ErrorValue) Type() ObjectType { return ERROR_VALUE_OBJ }
func (e *ErrorValue) Inspect() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

// --- Function Objects ---

// Function is a closure: parameters, body and the environment it was defined in.
type Function struct {
	Name       string
	Parameters []*ast.Binding
	Rest       ast.Node // nil when there is no rest parameter
	Body       ast.Node // *ast.BlockStatement or *ast.ExpressionBody
	Env        *Environment
	Async      bool
	Arrow      bool
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	if f.Name == "" {
		return "[Function (anonymous)]"
	}
	return fmt.Sprintf("[Function: %s]", f.Name)
}

// BuiltinContext is handed to every builtin invocation.
type BuiltinContext struct {
	Ctx context.Context
	// Log writes a line to the execution's log callback.
	Log func(msg string)
	// Apply calls a guest or builtin function with the given arguments.
	Apply func(fn Object, args ...Object) Object
	// Track registers a promise so that an unobserved rejection is reported.
	Track func(p *Promise)
	// NewError creates an error object of the given kind.
	NewError func(kind ErrorKind, format string, args ...any) *Error
}

// BuiltinFunction is the signature for built-in functions.
type BuiltinFunction func(ctx *BuiltinContext, args ...Object) Object

// Builtin represents a function implemented in Go.
type Builtin struct {
	Name string
	Fn   BuiltinFunction
	// Constructor allows the builtin to be used with `new`.
	Constructor bool
	// Statics holds members read off the function itself, like Promise.resolve.
	Statics *Map
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return fmt.Sprintf("[Function: %s]", b.Name) }

// ReturnValue wraps the value of a `return` statement while it travels up to the enclosing call.
type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }
