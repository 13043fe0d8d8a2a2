package value

import (
	"fmt"
	"strings"
)

// FieldDecl describes one typed field of a user Type (§3).
type FieldDecl struct {
	Name         string
	DeclaredType string // primitive name, user type name, trait name, or "" if untyped
	Optional     bool   // admits nil (the `?` marker)
	HasDefault   bool
	Default      Value // evaluated default, nil if none
}

// Method is a user-defined or static method bound to a Type. Body is
// an opaque pointer to an *ast.Node supplied by the interp package
// (kept as any here so internal/value has no dependency on internal/ast).
type Method struct {
	Name   string
	Body   any
	Params any // []*ast.Node
	Static bool
	Env    any // *scope.Scope the type/trait/impl was declared in
}

// Type is a user-defined type descriptor (§3, §4.6).
type Type struct {
	id          int64
	Name        string
	Fields      []FieldDecl
	Methods     map[string]*Method
	StaticMeths map[string]*Method
	Traits      map[string]*Trait // traits this type claims to implement, by name
	TraitImpls  map[string]map[string]*Method // trait name -> method name -> impl
}

// NewType constructs an empty Type descriptor named name.
func NewType(name string) *Type {
	return &Type{
		id:          nextID(),
		Name:        name,
		Methods:     map[string]*Method{},
		StaticMeths: map[string]*Method{},
		Traits:      map[string]*Trait{},
		TraitImpls:  map[string]map[string]*Method{},
	}
}

func (t *Type) Cls() string  { return "Type" }
func (t *Type) Id() int64    { return t.id }
func (t *Type) Str() string  { return t.Name }
func (t *Type) Rep() string  { return fmt.Sprintf("<Type %s>", t.Name) }
func (t *Type) Truthy() bool { return true }

// Field looks up a declared field by name.
func (t *Type) Field(name string) (FieldDecl, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDecl{}, false
}

// FindMethod looks up an instance method on t, then on its claimed
// traits' impl blocks, per §4.5's dispatch order.
func (t *Type) FindMethod(name string) *Method {
	if m, ok := t.Methods[name]; ok {
		return m
	}
	for _, impls := range t.TraitImpls {
		if m, ok := impls[name]; ok {
			return m
		}
	}
	return nil
}

// Implements reports whether t claims to implement the trait named name.
func (t *Type) Implements(name string) bool {
	_, ok := t.Traits[name]
	return ok
}

// Trait is a named capability set: required method signatures (§3, §4.6).
type Trait struct {
	id       int64
	Name     string
	Required []RequiredMethod
}

// RequiredMethod is one (name, arity) signature a Trait demands.
type RequiredMethod struct {
	Name  string
	Arity int
}

// NewTrait constructs a Trait descriptor.
func NewTrait(name string) *Trait {
	return &Trait{id: nextID(), Name: name}
}

func (t *Trait) Cls() string  { return "Trait" }
func (t *Trait) Id() int64    { return t.id }
func (t *Trait) Str() string  { return t.Name }
func (t *Trait) Rep() string  { return fmt.Sprintf("<Trait %s>", t.Name) }
func (t *Trait) Truthy() bool { return true }

// Struct is an instance of a user Type (§3).
type Struct struct {
	id     int64
	Type   *Type
	Fields map[string]Value
}

// NewStruct constructs a Struct instance of typ with the given field values.
func NewStruct(typ *Type, fields map[string]Value) *Struct {
	return &Struct{id: nextID(), Type: typ, Fields: fields}
}

func (s *Struct) Cls() string { return s.Type.Name }
func (s *Struct) Id() int64   { return s.id }
func (s *Struct) Str() string { return s.Rep() }
func (s *Struct) Rep() string {
	return reprCycle(s, func(seen map[int64]bool) string {
		parts := make([]string, 0, len(s.Type.Fields))
		for _, f := range s.Type.Fields {
			v := s.Fields[f.Name]
			parts = append(parts, f.Name+": "+repSeen(v, seen))
		}
		return fmt.Sprintf("%s(%s)", s.Type.Name, strings.Join(parts, ", "))
	})
}
func (s *Struct) Truthy() bool { return true }
