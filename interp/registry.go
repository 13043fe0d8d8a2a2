package interp

import "github.com/quest-lang/quest/internal/value"

// Registry is the builtin extension surface described in §4.9: module
// names mapped to member tables, and (type tag, method name) mapped to
// a builtin implementation. External collaborators (I/O, DB, crypto,
// HTTP, time, etc.) register into it at startup; the evaluator only
// ever calls through it, never knows what's behind a given entry.
type Registry struct {
	globals    map[string]value.Value            // builtins visible in every scope (print, len, ...)
	modules    map[string]*value.Module          // pre-registered host modules, keyed by "std/..." path
	typeMethod map[string]map[string]value.BuiltinFunc // type tag -> method name -> impl
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		globals:    map[string]value.Value{},
		modules:    map[string]*value.Module{},
		typeMethod: map[string]map[string]value.BuiltinFunc{},
	}
}

// Global registers a name visible from every scope without an import.
func (r *Registry) Global(name string, fn value.BuiltinFunc) {
	r.globals[name] = value.NewBuiltinFun(name, fn)
}

// Globals returns the registered global builtins.
func (r *Registry) Globals() map[string]value.Value { return r.globals }

// Module registers a host-provided module under a "std/..." path.
func (r *Registry) Module(path string, m *value.Module) { r.modules[path] = m }

// LookupModule returns a pre-registered host module, if any.
func (r *Registry) LookupModule(path string) (*value.Module, bool) {
	m, ok := r.modules[path]
	return m, ok
}

// TypeMethod registers a builtin method on every value whose Cls() ==
// typeTag (e.g. "Array", "String"), consulted by the dispatch pipeline
// after instance/trait/static lookup fails (§4.5 last resort).
func (r *Registry) TypeMethod(typeTag, method string, fn value.BuiltinFunc) {
	tbl, ok := r.typeMethod[typeTag]
	if !ok {
		tbl = map[string]value.BuiltinFunc{}
		r.typeMethod[typeTag] = tbl
	}
	tbl[method] = fn
}

// LookupTypeMethod finds a registered builtin method for typeTag.
func (r *Registry) LookupTypeMethod(typeTag, method string) (value.BuiltinFunc, bool) {
	tbl, ok := r.typeMethod[typeTag]
	if !ok {
		return nil, false
	}
	fn, ok := tbl[method]
	return fn, ok
}
