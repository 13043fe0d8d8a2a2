// Package scope implements the lexical scope chain and parallel call
// stack described in §4.3: an ordered sequence of frames, each a
// mapping from identifier to value, with inner-to-outer lookup and
// shared-by-reference capture for closures.
package scope

import (
	"fmt"

	"github.com/quest-lang/quest/internal/value"
)

// NameError reports a lookup/update/delete against a name the scope
// chain doesn't hold, corresponding to the NameErr exception type.
type NameError struct {
	Name string
}

func (e *NameError) Error() string { return fmt.Sprintf("name '%s' is not defined", e.Name) }

// Scope is one frame in the chain, holding the bindings declared
// directly in it and a link to its parent. Frames are always reached
// through a pointer, so a closure that captures *Scope shares mutation
// with every other holder of the same pointer (§4.3's "shared owning
// handle", not a value-semantics copy).
type Scope struct {
	parent *Scope
	vars   map[string]value.Value

	// Module, if set, is the *value.Module this frame's bindings
	// belong to (set on a module's outermost frame and inherited by every
	// frame pushed beneath it); used to resolve `pub`-marked declarations
	// into the module's public table.
	Module *value.Module
}

// New constructs a fresh root scope chain with exactly one frame, used
// for a new module's top-level evaluation (§4.8 step 2) or a REPL session.
func New() *Scope {
	return &Scope{vars: map[string]value.Value{}}
}

// Push returns a new frame chained to parent, used for function calls,
// block bodies, and per-iteration loop variables (§4.3).
func Push(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: map[string]value.Value{}, Module: parent.moduleOf()}
}

func (s *Scope) moduleOf() *value.Module {
	for c := s; c != nil; c = c.parent {
		if c.Module != nil {
			return c.Module
		}
	}
	return nil
}

// Declare introduces name in the innermost frame, shadowing any outer
// binding of the same name (§4.3: "declaration inserts in the innermost").
func (s *Scope) Declare(name string, v value.Value) {
	s.vars[name] = v
}

// Get walks inner-to-outer looking for name.
func (s *Scope) Get(name string) (value.Value, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Update searches inner-to-outer and rebinds the first frame holding
// name, failing with NameError if no frame declares it (§4.3:
// "assignment searches and updates in place, failing if the name is
// not found").
func (s *Scope) Update(name string, v value.Value) error {
	for c := s; c != nil; c = c.parent {
		if _, ok := c.vars[name]; ok {
			c.vars[name] = v
			return nil
		}
	}
	return &NameError{Name: name}
}

// Delete removes the first match of name walking inner-to-outer,
// per the documented-ambiguous §9 resolution: del acts on the first
// binding found, same direction as Get/Update.
func (s *Scope) Delete(name string) error {
	for c := s; c != nil; c = c.parent {
		if _, ok := c.vars[name]; ok {
			delete(c.vars, name)
			return nil
		}
	}
	return &NameError{Name: name}
}

// Has reports whether name is bound anywhere in the chain.
func (s *Scope) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// DeclaredHere reports whether name is bound in this exact frame
// (not an outer one).
func (s *Scope) DeclaredHere(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Parent returns the enclosing frame, or nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Names returns the identifiers bound directly in this frame, in no
// particular order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for n := range s.vars {
		names = append(names, n)
	}
	return names
}
