package object

import "fmt"

// ErrorKind classifies evaluation failures.
type ErrorKind string

const (
	ReferenceError       ErrorKind = "ReferenceError"
	TypeError            ErrorKind = "TypeError"
	RangeError           ErrorKind = "RangeError"
	UnsupportedConstruct ErrorKind = "UnsupportedConstruct"
	HostFailure          ErrorKind = "HostFailure"
	Thrown               ErrorKind = "Thrown"
	Aborted              ErrorKind = "Aborted"
)

// Error is an abrupt completion. It travels through the evaluator's normal return
// channel like any other object and is also a Go error.
type Error struct {
	Kind    ErrorKind
	Message string
	// Value is the guest value carried by a `throw` statement.
	Value Object
	// Cause is the underlying Go error, e.g. the one returned by a host method.
	Cause error
	// Pos is the parser offset of the node that raised the error, 0 if unknown.
	Pos int
	// Line is the 1-based source line, filled in by the caller that owns the source.
	Line int
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return e.Error() }

// Error makes it a valid Go error.
func (e *Error) Error() string {
	msg := e.describe()
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	return msg
}

func (e *Error) describe() string {
	switch e.Kind {
	case Thrown:
		if ev, ok := e.Value.(*ErrorValue); ok {
			return ev.Inspect()
		}
		return "Uncaught " + e.Message
	case UnsupportedConstruct:
		return e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Catchable reports whether a guest try/catch may intercept the error.
func (e *Error) Catchable() bool { return e.Kind != Aborted }

// GuestValue returns the value a catch clause binds for this error.
func (e *Error) GuestValue() Object {
	if e.Value != nil {
		return e.Value
	}
	name := string(e.Kind)
	switch e.Kind {
	case HostFailure, UnsupportedConstruct:
		name = "Error"
	}
	return &ErrorValue{Name: name, Message: e.Message}
}

// NewError creates an error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ThrowValue creates the error raised by a guest `throw` statement.
func ThrowValue(v Object) *Error {
	msg := v.Inspect()
	if ev, ok := v.(*ErrorValue); ok {
		msg = ev.Message
	}
	return &Error{Kind: Thrown, Message: msg, Value: v}
}
