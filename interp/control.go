package interp

import (
	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/scope"
	"github.com/quest-lang/quest/internal/value"
)

// evalFor implements `for x in iterable ... end` (§4.4): arrays yield
// items, dicts yield keys, strings yield one-character strings, sets
// yield items, ranges yield integers, and any other value exposing an
// `iter()` method is driven through the has_next()/next() protocol.
// Each iteration's loop variable lives in a fresh inner frame (§4.3).
func (ip *Interpreter) evalFor(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	ident, iterNode, body := n.Child[0], n.Child[1], n.Child[2]

	runBody := func(v value.Value) (brk bool, err error) {
		inner := scope.Push(sc)
		inner.Declare(ident.Str, v)
		if _, err := ip.evalBlockIn(body, inner); err != nil {
			if _, ok := err.(*breakSignal); ok {
				return true, nil
			}
			if _, ok := err.(*continueSignal); ok {
				return false, nil
			}
			return false, err
		}
		return false, nil
	}

	if iterNode.Kind == ast.RangeExpr {
		return ip.evalForRange(iterNode, sc, runBody)
	}

	iterable, err := ip.eval(iterNode, sc)
	if err != nil {
		return nil, err
	}
	switch c := iterable.(type) {
	case *value.Array:
		for _, v := range c.Items() {
			brk, err := runBody(v)
			if err != nil {
				return nil, err
			}
			if brk {
				break
			}
		}
		return value.Nil, nil
	case *value.Dict:
		for _, k := range c.Keys() {
			brk, err := runBody(value.String(k))
			if err != nil {
				return nil, err
			}
			if brk {
				break
			}
		}
		return value.Nil, nil
	case *value.Set:
		for _, v := range c.Items() {
			brk, err := runBody(v)
			if err != nil {
				return nil, err
			}
			if brk {
				break
			}
		}
		return value.Nil, nil
	default:
		if s, ok := value.StringOf(iterable); ok {
			for _, r := range s {
				brk, err := runBody(value.String(string(r)))
				if err != nil {
					return nil, err
				}
				if brk {
					break
				}
			}
			return value.Nil, nil
		}
		return ip.iterateProtocol(iterable, runBody)
	}
}

// evalForRange drives a `for x in a..b [step n]` loop without
// materializing the whole sequence.
func (ip *Interpreter) evalForRange(n *ast.Node, sc *scope.Scope, runBody func(value.Value) (bool, error)) (value.Value, error) {
	lo, hi, step, err := ip.rangeBounds(n, sc)
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, ip.RaiseStd(value.ValueErr, "range step must not be zero")
	}
	for i := lo; (step > 0 && i < hi) || (step < 0 && i > hi); i += step {
		brk, err := runBody(value.Int(i))
		if err != nil {
			return nil, err
		}
		if brk {
			break
		}
	}
	return value.Nil, nil
}

func (ip *Interpreter) rangeBounds(n *ast.Node, sc *scope.Scope) (lo, hi, step int64, err error) {
	loV, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return 0, 0, 0, err
	}
	hiV, err := ip.eval(n.Child[1], sc)
	if err != nil {
		return 0, 0, 0, err
	}
	lo, ok1 := value.IntOf(loV)
	hi, ok2 := value.IntOf(hiV)
	if !ok1 || !ok2 {
		return 0, 0, 0, ip.RaiseStd(value.TypeErr, "range bounds must be Int")
	}
	step = 1
	if len(n.Child) > 2 {
		stepV, serr := ip.eval(n.Child[2], sc)
		if serr != nil {
			return 0, 0, 0, serr
		}
		s, ok := value.IntOf(stepV)
		if !ok {
			return 0, 0, 0, ip.RaiseStd(value.TypeErr, "range step must be Int")
		}
		step = s
	} else if lo > hi {
		step = -1
	}
	return lo, hi, step, nil
}

// evalRangeAsArray materializes a RangeExpr used as a plain expression
// (e.g. `let r = 1..5`) into an Array, since Quest has no separate
// lazy Range value type.
func (ip *Interpreter) evalRangeAsArray(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	lo, hi, step, err := ip.rangeBounds(n, sc)
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, ip.RaiseStd(value.ValueErr, "range step must not be zero")
	}
	var items []value.Value
	for i := lo; (step > 0 && i < hi) || (step < 0 && i > hi); i += step {
		items = append(items, value.Int(i))
	}
	return value.NewArray(items), nil
}

// iterateProtocol drives a user value through the `iter()` ->
// has_next()/next() iteration protocol (§4.4's "any value whose type
// exposes an iteration protocol"). The exact method name isn't spelled
// out beyond has_next/next for the iterator object, so `iter()` is
// used as the entry point (a Python/JS-style name); a value with no
// `iter()` is used as its own iterator.
func (ip *Interpreter) iterateProtocol(recv value.Value, runBody func(value.Value) (bool, error)) (value.Value, error) {
	iterFn, ok := ip.lookupCallable(recv, "iter")
	var it value.Value
	if ok {
		v, err := ip.callFun(iterFn.BindReceiver(recv), nil, nil, 0)
		if err != nil {
			return nil, err
		}
		it = v
	} else {
		it = recv
	}
	for {
		hn, ok := ip.lookupCallable(it, "has_next")
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "value of type "+recv.Cls()+" is not iterable")
		}
		hv, err := ip.callFun(hn.BindReceiver(it), nil, nil, 0)
		if err != nil {
			return nil, err
		}
		if !value.Truthy(hv) {
			return value.Nil, nil
		}
		nextFn, _ := ip.lookupCallable(it, "next")
		v, err := ip.callFun(nextFn.BindReceiver(it), nil, nil, 0)
		if err != nil {
			return nil, err
		}
		brk, err := runBody(v)
		if err != nil {
			return nil, err
		}
		if brk {
			return value.Nil, nil
		}
	}
}

// evalMatch implements `match subject ... end` (§4.4): each arm's
// pattern is tested against the subject — a Set pattern tests
// membership, a Type pattern tests the subject's type tag, anything
// else tests equality. The first matching arm runs; `else` (a nil
// pattern child) or no match yields nil.
func (ip *Interpreter) evalMatch(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	subject, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	for _, arm := range n.Child[1:] {
		pat, body := arm.Child[0], arm.Child[1]
		if pat == nil {
			return ip.evalBlockNewFrame(body, sc)
		}
		patVal, err := ip.eval(pat, sc)
		if err != nil {
			return nil, err
		}
		if matchPattern(patVal, subject) {
			return ip.evalBlockNewFrame(body, sc)
		}
	}
	return value.Nil, nil
}

func matchPattern(pat, subject value.Value) bool {
	switch p := pat.(type) {
	case *value.Set:
		return p.Contains(subject)
	case *value.Type:
		return subject.Cls() == p.Name
	default:
		return value.Equal(pat, subject)
	}
}
