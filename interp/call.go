package interp

import (
	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/scope"
	"github.com/quest-lang/quest/internal/value"
)

// evalCall handles `callee(args...)` (§4.4 Call): CallExpr's first
// child is either a bare expression (plain function call) or a
// MemberExpr built by the parser for `recv.method(args)`.
func (ip *Interpreter) evalCall(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	callee := n.Child[0]
	args, named, err := ip.evalArgs(n.Child[1:], sc)
	if err != nil {
		return nil, err
	}

	if callee.Kind == ast.MemberExpr {
		recv, err := ip.eval(callee.Child[0], sc)
		if err != nil {
			return nil, err
		}
		return ip.invoke(recv, callee.Ident, args, named, lineOf(n))
	}

	fnVal, err := ip.eval(callee, sc)
	if err != nil {
		return nil, err
	}
	return ip.callValue(fnVal, args, named, lineOf(n))
}

// evalArgs evaluates a CallExpr's argument children left-to-right
// (§5 ordering guarantee), splitting named args (Param nodes) out.
func (ip *Interpreter) evalArgs(nodes []*ast.Node, sc *scope.Scope) ([]value.Value, map[string]value.Value, error) {
	var positional []value.Value
	var named map[string]value.Value
	for _, a := range nodes {
		if a.Kind == ast.Param {
			v, err := ip.eval(a.Child[0], sc)
			if err != nil {
				return nil, nil, err
			}
			if named == nil {
				named = map[string]value.Value{}
			}
			named[a.Str] = v
			continue
		}
		v, err := ip.eval(a, sc)
		if err != nil {
			return nil, nil, err
		}
		positional = append(positional, v)
	}
	return positional, named, nil
}

// callValue invokes any callable Value: a Fun (builtin or user) or a
// Type (constructor sugar `Type(...)` == `Type.new(...)`). Any other
// value raises TypeErr.
func (ip *Interpreter) callValue(fn value.Value, args []value.Value, named map[string]value.Value, line int) (value.Value, error) {
	switch f := fn.(type) {
	case *value.Fun:
		return ip.callFun(f, args, named, line)
	case *value.Type:
		return ip.constructType(f, args, named)
	default:
		return nil, ip.RaiseStd(value.TypeErr, "value of type "+fn.Cls()+" is not callable")
	}
}

// callFun runs a Fun, pushing a call-stack frame and a fresh scope
// frame bound to the captured environment (§4.3 closure semantics).
func (ip *Interpreter) callFun(f *value.Fun, args []value.Value, named map[string]value.Value, line int) (value.Value, error) {
	if f.IsBuiltin() {
		if f.Receiver != nil {
			args = append([]value.Value{f.Receiver}, args...)
		}
		if err := ip.pushCall(f.Name, line); err != nil {
			return nil, err
		}
		defer ip.popCall()
		v, err := f.Builtin(args, named)
		if err != nil {
			return nil, ip.wrapBuiltinErr(err)
		}
		return v, nil
	}

	env, _ := f.Env.(*scope.Scope)
	params, _ := f.Params.([]*ast.Node)
	body, _ := f.Body.(*ast.Node)
	if env == nil {
		env = ip.global
	}

	callScope := scope.Push(env)
	if f.Receiver != nil {
		callScope.Declare("self", f.Receiver)
	}
	if err := ip.bindParams(params, args, named, callScope); err != nil {
		return nil, err
	}

	if err := ip.pushCall(f.Name, line); err != nil {
		return nil, err
	}
	defer ip.popCall()

	v, err := ip.evalBlockIn(body, callScope)
	if err != nil {
		if rs, ok := err.(*returnSignal); ok {
			return rs.val, nil
		}
		return nil, err
	}
	return v, nil
}

// wrapBuiltinErr lets a builtin either return a plain Go error (wrapped
// as RuntimeErr) or a *raised it constructed itself via ip.RaiseStd;
// sys.exit's *exitSignal also passes through unwrapped.
func (ip *Interpreter) wrapBuiltinErr(err error) error {
	switch err.(type) {
	case *raised, *exitSignal:
		return err
	}
	return ip.RaiseStd(value.RuntimeErr, err.Error())
}

// bindParams implements §4.5's argument binding: positionals fill
// declared parameters in order, named args match by name, defaults
// fill missing tail parameters, arity mismatch is an ArgErr.
func (ip *Interpreter) bindParams(params []*ast.Node, args []value.Value, named map[string]value.Value, sc *scope.Scope) error {
	if len(args) > len(params) {
		return ip.RaiseStd(value.ArgErr, "too many arguments")
	}
	for i, p := range params {
		if i < len(args) {
			sc.Declare(p.Str, args[i])
			continue
		}
		if v, ok := named[p.Str]; ok {
			sc.Declare(p.Str, v)
			continue
		}
		if p.Optional && len(p.Child) > 0 {
			def, err := ip.eval(p.Child[0], sc)
			if err != nil {
				return err
			}
			sc.Declare(p.Str, def)
			continue
		}
		if p.Optional {
			sc.Declare(p.Str, value.Nil)
			continue
		}
		return ip.RaiseStd(value.ArgErr, "missing required argument '"+p.Str+"'")
	}
	return nil
}

func (ip *Interpreter) evalMember(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	recv, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	return ip.getMember(recv, n.Ident)
}

func (ip *Interpreter) evalMethodRef(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	recv, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	if _, isModule := recv.(*value.Module); isModule {
		return ip.getMember(recv, n.Ident)
	}
	if m, ok := ip.lookupCallable(recv, n.Ident); ok {
		return m.BindReceiver(recv), nil
	}
	return ip.getMember(recv, n.Ident)
}

func (ip *Interpreter) evalIndex(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	container, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	idx, err := ip.eval(n.Child[1], sc)
	if err != nil {
		return nil, err
	}
	return ip.getIndex(container, idx)
}

func (ip *Interpreter) getIndex(container, idx value.Value) (value.Value, error) {
	switch c := container.(type) {
	case *value.Array:
		i, ok := value.IntOf(idx)
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "array index must be an Int")
		}
		v, err := c.Get(i)
		if err != nil {
			return nil, ip.RaiseStd(value.IndexErr, err.Error())
		}
		return v, nil
	case *value.Dict:
		key, ok := value.StringOf(idx)
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "dict key must be a String")
		}
		v, ok := c.Get(key)
		if !ok {
			return nil, ip.RaiseStd(value.KeyErr, "key '"+key+"' not found")
		}
		return v, nil
	default:
		if s, ok := value.StringOf(container); ok {
			i, iok := value.IntOf(idx)
			if !iok {
				return nil, ip.RaiseStd(value.TypeErr, "string index must be an Int")
			}
			runes := []rune(s)
			n := int64(len(runes))
			if i < 0 {
				i += n
			}
			if i < 0 || i >= n {
				return nil, ip.RaiseStd(value.IndexErr, "string index out of range")
			}
			return value.String(string(runes[i])), nil
		}
		return nil, ip.RaiseStd(value.TypeErr, "value of type "+container.Cls()+" does not support indexing")
	}
}
