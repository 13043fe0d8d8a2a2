package interp

import (
	"strconv"

	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/scope"
	"github.com/quest-lang/quest/internal/value"
)

func itoa(n int) string { return strconv.Itoa(n) }

// arity reports a method's declared parameter count, excluding an
// implicit leading `self` (self is never written as an explicit
// parameter, §4.5 "the method runs with an implicit self bound to the
// receiver" — but a method built some other way could still carry one,
// so this stays defensive rather than assuming it never happens).
func arity(m *value.Method) int {
	params, _ := m.Params.([]*ast.Node)
	if len(params) > 0 && params[0].Str == "self" {
		return len(params) - 1
	}
	return len(params)
}

// evalFunDecl implements §4.6's plain function declaration: params and
// body are captured with the defining scope as a closure environment,
// then bound as a name (and, at module top level, optionally exported).
func (ip *Interpreter) evalFunDecl(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	params := n.Child[:len(n.Child)-1]
	body := n.Child[len(n.Child)-1]
	fn := value.NewUserFun(n.Str, params, body, sc)
	sc.Declare(n.Str, fn)
	if sc.Module != nil {
		if n.Pub {
			sc.Module.SetPublic(n.Str, fn)
		} else {
			sc.Module.SetPrivate(n.Str, fn)
		}
	}
	return fn, nil
}

// evalTypeDecl builds a Type descriptor from its FieldDecl/FunDecl
// children (§3, §4.6). Field defaults are evaluated once, at
// declaration time, against the enclosing scope.
func (ip *Interpreter) evalTypeDecl(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	t := value.NewType(n.Str)
	for _, c := range n.Child {
		switch c.Kind {
		case ast.FieldDecl:
			fd := value.FieldDecl{Name: c.Str, DeclaredType: c.Ident, Optional: c.Optional}
			if len(c.Child) > 0 {
				def, err := ip.eval(c.Child[0], sc)
				if err != nil {
					return nil, err
				}
				fd.HasDefault = true
				fd.Default = def
			}
			t.Fields = append(t.Fields, fd)
		case ast.FunDecl:
			m := funDeclToMethod(c, sc)
			if c.IsStatic {
				t.StaticMeths[c.Str] = m
			} else {
				t.Methods[c.Str] = m
			}
		}
	}
	sc.Declare(n.Str, t)
	if sc.Module != nil {
		if n.Pub {
			sc.Module.SetPublic(n.Str, t)
		} else {
			sc.Module.SetPrivate(n.Str, t)
		}
	}
	return t, nil
}

func funDeclToMethod(c *ast.Node, sc *scope.Scope) *value.Method {
	params := c.Child[:len(c.Child)-1]
	body := c.Child[len(c.Child)-1]
	return &value.Method{Name: c.Str, Params: params, Body: body, Static: c.IsStatic, Env: sc}
}

// evalTraitDecl builds a Trait descriptor from its MethodSig children
// (§3, §4.6): only required-method signatures, no bodies.
func (ip *Interpreter) evalTraitDecl(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	tr := value.NewTrait(n.Str)
	for _, sig := range n.Child {
		tr.Required = append(tr.Required, value.RequiredMethod{Name: sig.Str, Arity: len(sig.Child)})
	}
	sc.Declare(n.Str, tr)
	if sc.Module != nil {
		if n.Pub {
			sc.Module.SetPublic(n.Str, tr)
		} else {
			sc.Module.SetPrivate(n.Str, tr)
		}
	}
	return tr, nil
}

// evalImplDecl attaches a trait implementation to a type (§4.6), then
// validates that every method the trait requires was supplied —
// incompleteness is a TypeErr raised at `impl...end` time, not at
// first call.
func (ip *Interpreter) evalImplDecl(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	traitName, typeName := n.Str, n.Ident
	traitVal, ok := sc.Get(traitName)
	if !ok {
		return nil, ip.RaiseStd(value.NameErr, "trait '"+traitName+"' is not defined")
	}
	tr, ok := traitVal.(*value.Trait)
	if !ok {
		return nil, ip.RaiseStd(value.TypeErr, "'"+traitName+"' is not a trait")
	}
	typeVal, ok := sc.Get(typeName)
	if !ok {
		return nil, ip.RaiseStd(value.NameErr, "type '"+typeName+"' is not defined")
	}
	t, ok := typeVal.(*value.Type)
	if !ok {
		return nil, ip.RaiseStd(value.TypeErr, "'"+typeName+"' is not a type")
	}

	impls := map[string]*value.Method{}
	for _, fn := range n.Child {
		impls[fn.Str] = funDeclToMethod(fn, sc)
	}
	for _, req := range tr.Required {
		m, ok := impls[req.Name]
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "type '"+typeName+"' does not implement required method '"+req.Name+"' of trait '"+traitName+"'")
		}
		if arity(m) != req.Arity {
			return nil, ip.RaiseStd(value.TypeErr, "type '"+typeName+"'s '"+req.Name+"' has the wrong arity for trait '"+traitName+"' (want "+itoa(req.Arity)+", got "+itoa(arity(m))+")")
		}
	}
	t.Traits[traitName] = tr
	t.TraitImpls[traitName] = impls
	return value.Nil, nil
}
