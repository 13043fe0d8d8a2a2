package interp

import (
	"github.com/quest-lang/quest/internal/value"
)

// invoke implements §4.5's `invoke(receiver, method_name, args) ->
// Value` dispatch order: struct instance method, then trait impls,
// type static method, module public member, built-in type table,
// magic-method protocol.
func (ip *Interpreter) invoke(recv value.Value, method string, args []value.Value, named map[string]value.Value, line int) (value.Value, error) {
	if _, isModule := recv.(*value.Module); isModule {
		// A module's public function is called plainly, with no implicit
		// `self` receiver (§4.8) — unlike struct/type method dispatch.
		if fn, ok := ip.lookupCallable(recv, method); ok {
			return ip.callFun(fn, args, named, line)
		}
	} else if t, isType := recv.(*value.Type); isType && method == "new" {
		if _, hasStatic := t.StaticMeths["new"]; !hasStatic {
			// `.new(...)` is the built-in static constructor (§4.5) unless
			// the type overrides it with its own static `new`.
			return ip.constructType(t, args, named)
		}
		fn, _ := ip.lookupCallable(recv, method)
		return ip.callFun(fn, args, named, line)
	} else if fn, ok := ip.lookupCallable(recv, method); ok {
		return ip.callFun(fn.BindReceiver(recv), args, named, line)
	}
	if v, ok := ip.magicMethod(recv, method, args); ok {
		return v, nil
	}
	return nil, ip.RaiseStd(value.TypeErr, "value of type "+recv.Cls()+" has no method '"+method+"'")
}

// lookupCallable resolves a bound-method name against the dispatch
// order without invoking it, used both by invoke() and by
// evalMethodRef (`recv.method` with no call parens, §4.5).
func (ip *Interpreter) lookupCallable(recv value.Value, method string) (*value.Fun, bool) {
	switch r := recv.(type) {
	case *value.Struct:
		if m := r.Type.FindMethod(method); m != nil {
			return methodToFun(m, r.Type.Name+"."+method), true
		}
	case *value.Type:
		if m, ok := r.StaticMeths[method]; ok {
			return methodToFun(m, r.Name+"."+method), true
		}
	case *value.Module:
		if v, ok := r.GetPublic(method); ok {
			if fn, ok := v.(*value.Fun); ok {
				return fn, true
			}
		}
	}
	if fn, ok := ip.registry.LookupTypeMethod(value.Cls(recv), method); ok {
		return value.NewBuiltinFun(value.Cls(recv)+"."+method, fn), true
	}
	return nil, false
}

func methodToFun(m *value.Method, name string) *value.Fun {
	return value.NewUserFun(name, m.Params, m.Body, m.Env)
}

// getMember implements the non-call member-access rules of §4.4: a
// struct's field wins over its methods, a module exposes its public
// table, a dict is keyed by identifier, everything else falls through
// to the callable/magic dispatch used by evalMethodRef.
func (ip *Interpreter) getMember(recv value.Value, name string) (value.Value, error) {
	switch r := recv.(type) {
	case *value.Struct:
		if v, ok := r.Fields[name]; ok {
			return v, nil
		}
		if m := r.Type.FindMethod(name); m != nil {
			return methodToFun(m, r.Type.Name+"."+name).BindReceiver(recv), nil
		}
	case *value.Module:
		if v, ok := r.GetPublic(name); ok {
			return v, nil
		}
		return nil, ip.RaiseStd(value.NameErr, "module has no public member '"+name+"'")
	case *value.Dict:
		if v, ok := r.Get(name); ok {
			return v, nil
		}
		return nil, ip.RaiseStd(value.KeyErr, "key '"+name+"' not found")
	case *value.Type:
		if m, ok := r.StaticMeths[name]; ok {
			return methodToFun(m, r.Name+"."+name), nil
		}
	}
	if fn, ok := ip.lookupCallable(recv, name); ok {
		return fn.BindReceiver(recv), nil
	}
	if v, ok := ip.magicMethod(recv, name, nil); ok {
		return v, nil
	}
	return nil, ip.RaiseStd(value.TypeErr, "value of type "+recv.Cls()+" has no attribute '"+name+"'")
}

// magicMethod implements the always-present `_id`/`_str`/`_rep`/`_doc`
// protocol (§3, §4.5) for every value, `_enter`/`_exit` for values
// that don't define their own (a no-op pass-through: `_enter` returns
// the receiver, `_exit` returns nil), and `is(type_name)`.
func (ip *Interpreter) magicMethod(recv value.Value, name string, args []value.Value) (value.Value, bool) {
	switch name {
	case "_id":
		return value.Int(recv.Id()), true
	case "_str":
		return value.String(recv.Str()), true
	case "_rep":
		return value.String(recv.Rep()), true
	case "_doc":
		if fn, ok := recv.(*value.Fun); ok {
			return value.String(fn.Doc), true
		}
		return value.String(""), true
	case "_enter":
		return recv, true
	case "_exit":
		return value.Nil, true
	case "is":
		if len(args) == 1 {
			if tn, ok := value.StringOf(args[0]); ok {
				return value.Bool(isType(recv, tn)), true
			}
		}
	}
	return nil, false
}

func isType(recv value.Value, typeName string) bool {
	if recv.Cls() == typeName {
		return true
	}
	if s, ok := recv.(*value.Struct); ok {
		return s.Type.Implements(typeName)
	}
	return false
}

// constructType implements `Type(...)`/`Type.new(...)` construction
// (§4.5 "`.new(...)` is a built-in static constructor", §4.6 field
// validation).
func (ip *Interpreter) constructType(t *value.Type, args []value.Value, named map[string]value.Value) (value.Value, error) {
	fields := map[string]value.Value{}
	for i, field := range t.Fields {
		var v value.Value
		if i < len(args) {
			v = args[i]
		} else if nv, ok := named[field.Name]; ok {
			v = nv
		} else if field.HasDefault {
			v = field.Default
		} else if field.Optional {
			v = value.Nil
		} else {
			return nil, ip.RaiseStd(value.ArgErr, "missing required field '"+field.Name+"' for "+t.Name+".new(...)")
		}
		if err := checkFieldType(field, v); err != nil {
			return nil, ip.RaiseStd(value.TypeErr, err.Error())
		}
		fields[field.Name] = v
	}
	ip.noteAlloc()
	return value.NewStruct(t, fields), nil
}

// checkFieldType enforces a declared field's type (§4.6), including its
// "polymorphism via trait" rule: a field typed as a trait name admits
// any struct whose type implements that trait, not just an exact class
// match — the same rule `is`/isType already apply to instance checks.
func checkFieldType(field value.FieldDecl, v value.Value) error {
	if field.DeclaredType == "" {
		return nil
	}
	if field.Optional && value.IsNil(v) {
		return nil
	}
	if !isType(v, field.DeclaredType) {
		return &typeMismatch{field: field.Name, want: field.DeclaredType, got: v.Cls()}
	}
	return nil
}

type typeMismatch struct{ field, want, got string }

func (e *typeMismatch) Error() string {
	return "field '" + e.field + "' expects " + e.want + ", got " + e.got
}
