package value

import "fmt"

// BuiltinFunc is the Go-side implementation of a builtin Fun.
type BuiltinFunc func(args []Value, named map[string]Value) (Value, error)

// Fun is Quest's first-class callable (§3, §4.3): either a host-provided
// builtin, or a user-defined function storing its parameter list, body,
// and a reference to the scope chain captured at definition time.
//
// Env and Body/Params are `any` so this package doesn't need to import
// internal/scope or internal/ast (which would create an import cycle,
// since scope stores Values and ast is walked by the evaluator that
// already imports value) — the interp package, which imports both,
// performs the type assertions at call time.
type Fun struct {
	id       int64
	Name     string
	Builtin  BuiltinFunc
	Params   any // []*ast.Node, nil for builtins
	Body     any // *ast.Node, nil for builtins
	Env      any // *scope.Scope captured at definition time, nil for builtins
	Receiver Value // bound receiver for a method-reference value (§4.5), nil otherwise
	Doc      string
}

// NewBuiltinFun wraps a Go function as a callable builtin Fun.
func NewBuiltinFun(name string, fn BuiltinFunc) *Fun {
	return &Fun{id: nextID(), Name: name, Builtin: fn}
}

// NewUserFun constructs a user-defined Fun capturing env.
func NewUserFun(name string, params, body, env any) *Fun {
	return &Fun{id: nextID(), Name: name, Params: params, Body: body, Env: env}
}

// BindReceiver returns a copy of f bound to receiver, the value a bare
// `receiver.method` member reference produces (§4.5).
func (f *Fun) BindReceiver(receiver Value) *Fun {
	bound := *f
	bound.id = nextID()
	bound.Receiver = receiver
	return &bound
}

func (f *Fun) Cls() string { return "Fun" }
func (f *Fun) Id() int64   { return f.id }
func (f *Fun) Str() string { return fmt.Sprintf("<fun %s>", f.displayName()) }
func (f *Fun) Rep() string { return f.Str() }
func (f *Fun) Truthy() bool { return true }

func (f *Fun) displayName() string {
	if f.Name == "" {
		return "anonymous"
	}
	return f.Name
}

// IsBuiltin reports whether f wraps a Go function rather than AST+scope.
func (f *Fun) IsBuiltin() bool { return f.Builtin != nil }
