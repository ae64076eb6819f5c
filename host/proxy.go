package host

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/podhmo/pagescript/object"
)

// Proxy is the guest-side face of a host object. It holds no state besides the view,
// the path it stands for and the log callback; child proxies are created only when a
// member is read.
type Proxy struct {
	view View
	name string // guest name of the root, used in log lines
	path string // dotted path relative to the root
	log  func(string)
}

// New wraps view as a guest value. name is how the root is known to guest code
// (e.g. "page") and appears in every logged call.
func New(view View, name string, log func(string)) *Proxy {
	if log == nil {
		log = func(string) {}
	}
	return &Proxy{view: view, name: name, log: log}
}

func (p *Proxy) Type() object.ObjectType { return object.HOST_OBJ }
func (p *Proxy) Inspect() string         { return "[host " + p.DisplayPath() + "]" }

// DisplayPath returns the full dotted path including the root name.
func (p *Proxy) DisplayPath() string {
	return joinPath(p.name, p.path)
}

// GetMember reads a member. Data is returned as a guest value, nested objects as a
// child Proxy, and methods as a forwarding function.
func (p *Proxy) GetMember(name string) object.Object {
	path := joinPath(p.path, name)
	m, err := p.view.Member(path)
	if err != nil {
		return &object.Error{Kind: object.HostFailure, Message: err.Error(), Cause: err}
	}
	switch m.Kind {
	case MemberValue:
		return object.FromNative(m.Value)
	case MemberObject:
		return &Proxy{view: p.view, name: p.name, path: path, log: p.log}
	case MemberMethod:
		return p.forward(path)
	}
	return object.UNDEFINED
}

// forward returns an async function that logs the call and then invokes the host.
// Exactly one log line precedes every call that reaches the view.
func (p *Proxy) forward(path string) *object.Builtin {
	display := joinPath(p.name, path)
	return &object.Builtin{
		Name: display,
		Fn: func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			native := make([]any, len(args))
			for i, arg := range args {
				v, err := object.ToNative(arg)
				if err != nil {
					return object.Rejected(object.NewError(object.TypeError, "Cannot pass argument %d of %s: %v", i+1, display, err))
				}
				native[i] = v
			}
			p.log(FormatCall(display, args))

			result, err := p.view.Call(ctx.Ctx, path, native)
			if err != nil {
				return object.Rejected(&object.Error{Kind: object.HostFailure, Message: err.Error(), Cause: err})
			}
			return object.Resolved(object.FromNative(result))
		},
	}
}

// FormatCall renders the log line for a host call: "call <path> <json array of args>".
// An argument that contains itself is rendered as "[Circular]".
func FormatCall(path string, args []object.Object) string {
	values := make([]any, len(args))
	for i, arg := range args {
		v, ok, err := object.ToJSONValue(arg)
		switch {
		case err != nil:
			values[i] = "[Circular]"
		case ok:
			values[i] = v
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "call " + path + " [?]"
	}
	return "call " + path + " " + strings.TrimSuffix(buf.String(), "\n")
}

func joinPath(base, name string) string {
	switch {
	case base == "":
		return name
	case name == "":
		return base
	}
	return strings.Join([]string{base, name}, ".")
}
