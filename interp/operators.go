package interp

import (
	"math/big"

	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/scope"
	"github.com/quest-lang/quest/internal/value"
)

func (ip *Interpreter) evalBinary(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	left, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	right, err := ip.eval(n.Child[1], sc)
	if err != nil {
		return nil, err
	}
	return ip.applyBinary(n.Str, left, right)
}

func (ip *Interpreter) applyBinary(op string, left, right value.Value) (value.Value, error) {
	switch op {
	case "+":
		v, err := value.Add(left, right)
		return ip.translateArith(v, err)
	case "-":
		v, err := value.Sub(left, right)
		return ip.translateArith(v, err)
	case "*":
		v, err := value.Mul(left, right)
		return ip.translateArith(v, err)
	case "/":
		v, err := value.Div(left, right)
		return ip.translateArith(v, err)
	case "%":
		v, err := value.Mod(left, right)
		return ip.translateArith(v, err)
	case "..":
		// String concatenation (§4.1/§4.4); non-string operands coerce
		// via ._str() on the right-hand side when the left is a String.
		v, err := value.Add(left, right)
		if err != nil {
			return nil, ip.translateArithErr(err)
		}
		return v, nil
	case "==":
		return value.Bool(value.Equal(left, right)), nil
	case "!=":
		return value.Bool(!value.Equal(left, right)), nil
	case "<", ">", "<=", ">=":
		c, ok := value.Compare(left, right)
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "values of type "+left.Cls()+" and "+right.Cls()+" are not ordered")
		}
		switch op {
		case "<":
			return value.Bool(c < 0), nil
		case ">":
			return value.Bool(c > 0), nil
		case "<=":
			return value.Bool(c <= 0), nil
		default:
			return value.Bool(c >= 0), nil
		}
	case "&":
		return ip.bitOrSetOp(left, right, true)
	case "|":
		return ip.bitOrSetOp(left, right, false)
	default:
		return nil, ip.RaiseStd(value.RuntimeErr, "unknown binary operator "+op)
	}
}

// bitOrSetOp implements `&`/`|` (§4.1 precedence table): bitwise
// and/or on Int/BigInt operands, intersection/union when both
// operands are Sets — there's no third-party or teacher-demonstrated
// behavior to follow here.
func (ip *Interpreter) bitOrSetOp(left, right value.Value, and bool) (value.Value, error) {
	if ls, ok := left.(*value.Set); ok {
		if rs, ok := right.(*value.Set); ok {
			if and {
				return setIntersect(ls, rs), nil
			}
			return setUnion(ls, rs), nil
		}
	}
	li, lok := value.IntOf(left)
	ri, rok := value.IntOf(right)
	if lok && rok {
		if and {
			return value.Int(li & ri), nil
		}
		return value.Int(li | ri), nil
	}
	lb, lbok := value.BigIntOf(left)
	rb, rbok := value.BigIntOf(right)
	if lbok && rbok {
		out := new(big.Int)
		if and {
			out.And(lb, rb)
		} else {
			out.Or(lb, rb)
		}
		return value.BigInt(out), nil
	}
	return nil, ip.RaiseStd(value.TypeErr, "unsupported operand types for bitwise operator: "+left.Cls()+" and "+right.Cls())
}

func setIntersect(a, b *value.Set) *value.Set {
	out := value.NewSet()
	for _, v := range a.Items() {
		if b.Contains(v) {
			out.Add(v)
		}
	}
	return out
}

func setUnion(a, b *value.Set) *value.Set {
	out := value.NewSet()
	for _, v := range a.Items() {
		out.Add(v)
	}
	for _, v := range b.Items() {
		out.Add(v)
	}
	return out
}

func (ip *Interpreter) translateArith(v value.Value, err error) (value.Value, error) {
	if err == nil {
		return v, nil
	}
	return nil, ip.translateArithErr(err)
}

func (ip *Interpreter) translateArithErr(err error) error {
	switch err.(type) {
	case *value.OverflowError:
		return ip.RaiseStd(value.OverflowErr, err.Error())
	case *value.DivideByZeroError:
		return ip.RaiseStd(value.ZeroDivisionErr, err.Error())
	default:
		return ip.RaiseStd(value.TypeErr, err.Error())
	}
}

func (ip *Interpreter) evalUnary(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	v, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	switch n.Str {
	case "!", "not":
		return value.Bool(!value.Truthy(v)), nil
	case "-":
		out, err := value.Neg(v)
		return ip.translateArith(out, err)
	case "+":
		if !value.IsNumeric(v) {
			return nil, ip.RaiseStd(value.TypeErr, "unary + requires a numeric operand, got "+v.Cls())
		}
		return v, nil
	default:
		return nil, ip.RaiseStd(value.RuntimeErr, "unknown unary operator "+n.Str)
	}
}

func (ip *Interpreter) evalLogical(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	left, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	switch n.Str {
	case "and":
		if !value.Truthy(left) {
			return left, nil
		}
		return ip.eval(n.Child[1], sc)
	case "or":
		if value.Truthy(left) {
			return left, nil
		}
		return ip.eval(n.Child[1], sc)
	default:
		return nil, ip.RaiseStd(value.RuntimeErr, "unknown logical operator "+n.Str)
	}
}

func (ip *Interpreter) evalAssign(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	rhs, err := ip.eval(n.Child[1], sc)
	if err != nil {
		return nil, err
	}
	if err := ip.assignTo(n.Child[0], rhs, sc); err != nil {
		return nil, err
	}
	return rhs, nil
}

func (ip *Interpreter) evalCompoundAssign(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	cur, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	rhs, err := ip.eval(n.Child[1], sc)
	if err != nil {
		return nil, err
	}
	op := n.Str[:len(n.Str)-1] // "+=" -> "+"
	result, err := ip.applyBinary(op, cur, rhs)
	if err != nil {
		return nil, err
	}
	if err := ip.assignTo(n.Child[0], result, sc); err != nil {
		return nil, err
	}
	return result, nil
}

// assignTo handles the three assignable target shapes: a bare
// identifier, a[idx], and obj.field.
func (ip *Interpreter) assignTo(target *ast.Node, v value.Value, sc *scope.Scope) error {
	switch target.Kind {
	case ast.Ident:
		if err := sc.Update(target.Str, v); err != nil {
			return ip.RaiseStd(value.NameErr, err.Error())
		}
		if sc.Module != nil {
			if _, isPriv := sc.Module.GetPrivate(target.Str); isPriv {
				sc.Module.SetPrivate(target.Str, v)
			} else if _, isPub := sc.Module.GetPublic(target.Str); isPub {
				sc.Module.SetPublic(target.Str, v)
			}
		}
		return nil
	case ast.IndexExpr:
		container, err := ip.eval(target.Child[0], sc)
		if err != nil {
			return err
		}
		idx, err := ip.eval(target.Child[1], sc)
		if err != nil {
			return err
		}
		return ip.setIndex(container, idx, v)
	case ast.MemberExpr:
		recv, err := ip.eval(target.Child[0], sc)
		if err != nil {
			return err
		}
		return ip.setMember(recv, target.Ident, v)
	default:
		return ip.RaiseStd(value.RuntimeErr, "invalid assignment target")
	}
}

func (ip *Interpreter) setIndex(container, idx, v value.Value) error {
	switch c := container.(type) {
	case *value.Array:
		i, ok := value.IntOf(idx)
		if !ok {
			return ip.RaiseStd(value.TypeErr, "array index must be an Int")
		}
		if err := c.Set(i, v); err != nil {
			return ip.RaiseStd(value.IndexErr, err.Error())
		}
		return nil
	case *value.Dict:
		key, ok := value.StringOf(idx)
		if !ok {
			return ip.RaiseStd(value.TypeErr, "dict key must be a String")
		}
		c.Set(key, v)
		return nil
	default:
		return ip.RaiseStd(value.TypeErr, "value of type "+container.Cls()+" does not support index assignment")
	}
}

func (ip *Interpreter) setMember(recv value.Value, name string, v value.Value) error {
	switch r := recv.(type) {
	case *value.Struct:
		// Field type annotations are enforced at construction *and*
		// assignment (§4.6).
		if field, ok := r.Type.Field(name); ok {
			if err := checkFieldType(field, v); err != nil {
				return ip.RaiseStd(value.TypeErr, err.Error())
			}
		}
		r.Fields[name] = v
		return nil
	case *value.Module:
		r.SetPublic(name, v)
		return nil
	default:
		return ip.RaiseStd(value.TypeErr, "value of type "+recv.Cls()+" does not support attribute assignment")
	}
}
