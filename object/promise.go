package object

// Promise is the result of an asynchronous operation. Host calls complete before
// the promise is handed to guest code, so a Promise is always settled: it holds
// either a value or an error.
type Promise struct {
	value Object
	err   *Error
	// Handled is set once guest code awaits or otherwise observes the promise.
	Handled bool
}

// Resolved creates a promise fulfilled with v.
func Resolved(v Object) *Promise {
	if p, ok := v.(*Promise); ok {
		return p
	}
	return &Promise{value: v}
}

// Rejected creates a promise rejected with err.
func Rejected(err *Error) *Promise {
	return &Promise{err: err}
}

func (p *Promise) Type() ObjectType { return PROMISE_OBJ }
func (p *Promise) Inspect() string  { return "[object Promise]" }

// Await marks the promise as handled and returns its outcome.
func (p *Promise) Await() (Object, *Error) {
	p.Handled = true
	if p.err != nil {
		return nil, p.err
	}
	return p.value, nil
}

// Err returns the rejection reason without marking the promise handled.
func (p *Promise) Err() *Error { return p.err }
