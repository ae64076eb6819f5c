package object

// binding is a single slot in an environment frame.
type binding struct {
	value    Object
	constant bool
}

// Environment holds the bindings of one scope and a link to the enclosing scope.
type Environment struct {
	store map[string]*binding
	outer *Environment
}

// NewEnvironment creates a new, top-level environment.
func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]*binding)}
}

// NewEnclosedEnvironment creates a new environment that is enclosed by an outer one.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Outer returns the enclosing environment.
func (e *Environment) Outer() *Environment {
	return e.outer
}

// Root returns the outermost environment reachable from e.
func (e *Environment) Root() *Environment {
	root := e
	for root.outer != nil {
		root = root.outer
	}
	return root
}

// Define binds name in the current frame, overwriting any existing binding there.
// Bindings of the same name in outer frames are shadowed, never touched.
func (e *Environment) Define(name string, val Object) Object {
	e.store[name] = &binding{value: val}
	return val
}

// DefineConst binds name in the current frame as read-only.
func (e *Environment) DefineConst(name string, val Object) Object {
	e.store[name] = &binding{value: val, constant: true}
	return val
}

// Lookup retrieves the value bound to name, checking outer scopes if necessary.
func (e *Environment) Lookup(name string) (Object, bool) {
	if b := e.resolve(name); b != nil {
		return b.value, true
	}
	return nil, false
}

// IsConstant reports whether the binding that name resolves to is read-only.
func (e *Environment) IsConstant(name string) bool {
	b := e.resolve(name)
	return b != nil && b.constant
}

// Assign updates the first frame, walking outward, that already defines name.
// It returns false if no frame defines it or the binding is a constant.
func (e *Environment) Assign(name string, val Object) bool {
	b := e.resolve(name)
	if b == nil || b.constant {
		return false
	}
	b.value = val
	return true
}

// AssignOrDefine implements plain `=` on an identifier: an existing binding is
// updated in place, otherwise the name is defined in the outermost frame.
// It returns false only when the existing binding is a constant.
func (e *Environment) AssignOrDefine(name string, val Object) bool {
	if b := e.resolve(name); b != nil {
		if b.constant {
			return false
		}
		b.value = val
		return true
	}
	e.Root().Define(name, val)
	return true
}

func (e *Environment) resolve(name string) *binding {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.store[name]; ok {
			return b
		}
	}
	return nil
}
