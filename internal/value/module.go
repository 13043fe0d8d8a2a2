package value

import "fmt"

// Module is a loaded Quest module (§3, §4.8): a name, its absolute
// source path, and the public/private member partitions `pub` splits
// top-level declarations into.
type Module struct {
	id      int64
	Name    string
	Path    string
	Public  *Dict
	private map[string]Value

	// Overlay, if set, is the path to a stdlib overlay source file
	// (§4.8) whose public members were merged into Public (overlay wins
	// on name collisions). Its `%fun`/`%let` docstrings are copied onto
	// the Doc field of the matching public Funs at merge time; _doc()
	// does not read the file again.
	Overlay string
}

// NewModule constructs an (initially empty) Module, used by the loader
// to insert a cache entry *before* evaluating the module body so
// circular imports observe a partially-populated module (§4.8).
func NewModule(name, path string) *Module {
	return &Module{
		id:      nextID(),
		Name:    name,
		Path:    path,
		Public:  NewDict(),
		private: map[string]Value{},
	}
}

func (m *Module) Cls() string  { return "Module" }
func (m *Module) Id() int64    { return m.id }
func (m *Module) Str() string  { return fmt.Sprintf("<module %s>", m.Name) }
func (m *Module) Rep() string  { return m.Str() }
func (m *Module) Truthy() bool { return true }

// SetPublic records a pub-marked top-level binding.
func (m *Module) SetPublic(name string, v Value) { m.Public.Set(name, v) }

// SetPrivate records a non-pub top-level binding, visible only to code
// defined inside the module (§4.8).
func (m *Module) SetPrivate(name string, v Value) { m.private[name] = v }

// GetPrivate looks up a private binding, used when evaluating code
// whose defining module matches m.
func (m *Module) GetPrivate(name string) (Value, bool) {
	v, ok := m.private[name]
	return v, ok
}

// GetPublic looks up a `module.name` access.
func (m *Module) GetPublic(name string) (Value, bool) { return m.Public.Get(name) }
