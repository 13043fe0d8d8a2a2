package interp

import (
	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/scope"
	"github.com/quest-lang/quest/internal/value"
)

// evalTry implements `try ... catch ... ensure ... end` (§4.7). The
// protected block and every catch clause run under the same `ensure`
// guarantee: it runs on every exit path, and a raise inside it
// supersedes whatever exception (if any) was in flight.
func (ip *Interpreter) evalTry(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	body := n.Child[0]
	ensureBlock := n.Child[len(n.Child)-1]
	catches := n.Child[1 : len(n.Child)-1]

	result, err := ip.evalBlockNewFrame(body, sc)

	if err != nil {
		if r, ok := err.(*raised); ok {
			caught, cerr := ip.runCatches(r.exc, catches, sc)
			if cerr != nil {
				err = cerr
			} else {
				result, err = caught, nil
			}
		}
	}

	if ensureBlock != nil {
		if _, eerr := ip.evalBlockNewFrame(ensureBlock, sc); eerr != nil {
			return nil, eerr
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runCatches tries each `catch` clause in order against exc, binding
// it to the clause's name when the (optional) type tag matches.
func (ip *Interpreter) runCatches(exc *value.Exception, catches []*ast.Node, sc *scope.Scope) (value.Value, error) {
	for _, c := range catches {
		if c.Ident != "" && c.Ident != exc.Type {
			continue
		}
		inner := scope.Push(sc)
		if c.Str != "" {
			inner.Declare(c.Str, exc)
		}
		ip.curExc = append(ip.curExc, exc)
		v, err := ip.evalBlockIn(c.Child[0], inner)
		ip.curExc = ip.curExc[:len(ip.curExc)-1]
		return v, err
	}
	return nil, raise(exc)
}

// evalRaise implements `raise [expr [from cause]]` (§4.4/§4.7). A bare
// `raise` re-raises the currently-handled exception. An Exception
// value raises unchanged. A Struct constructed from a user-declared
// exception type raises using its type name as the tag, since that's
// the only way `catch e: TypeName` can ever match a user exception
// type declared as `type Name; end`. Any other value is wrapped as a
// generic RuntimeErr around its ._str() text.
func (ip *Interpreter) evalRaise(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	if len(n.Child) == 0 {
		if len(ip.curExc) == 0 {
			return nil, ip.RaiseStd(value.RuntimeErr, "no exception is currently being handled")
		}
		return nil, raise(ip.curExc[len(ip.curExc)-1])
	}
	v, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	exc := ip.toException(v)
	if len(n.Child) > 1 {
		causeV, err := ip.eval(n.Child[1], sc)
		if err != nil {
			return nil, err
		}
		exc.Cause = ip.toException(causeV)
	}
	exc.Stack = ip.calls.Snapshot()
	exc.File = ip.curFile
	return nil, raise(exc)
}

func (ip *Interpreter) toException(v value.Value) *value.Exception {
	switch e := v.(type) {
	case *value.Exception:
		return e
	case *value.Struct:
		exc := value.NewException(e.Type.Name, e.Str())
		exc.Fields = e.Fields
		return exc
	default:
		return value.NewException(value.RuntimeErr, v.Str())
	}
}

// evalWith implements `with expr as name ... end` (§4.4/§5): calls
// `_enter()`, binds the result, runs the body, then guarantees
// `_exit()` runs — an ensure-equivalent whose own raise supersedes an
// in-flight exception from the body.
func (ip *Interpreter) evalWith(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	obj, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	bound := obj
	if enter, ok := ip.lookupCallable(obj, "_enter"); ok {
		v, err := ip.callFun(enter.BindReceiver(obj), nil, nil, lineOf(n))
		if err != nil {
			return nil, err
		}
		bound = v
	}

	inner := scope.Push(sc)
	inner.Declare(n.Str, bound)
	result, bodyErr := ip.evalBlockIn(n.Child[1], inner)

	if exit, ok := ip.lookupCallable(obj, "_exit"); ok {
		if _, exitErr := ip.callFun(exit.BindReceiver(obj), nil, nil, lineOf(n)); exitErr != nil {
			return nil, exitErr
		}
	}
	if bodyErr != nil {
		return nil, bodyErr
	}
	return result, nil
}
