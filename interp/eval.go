package interp

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/scope"
	"github.com/quest-lang/quest/internal/value"
)

// eval is the tree-walking core (§4.4): it dispatches on node kind and
// returns either a runtime value or a propagating error, which may be
// a *raised Quest exception or a control-flow signal (return/break/continue).
func (ip *Interpreter) eval(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	switch n.Kind {
	case ast.IntLit:
		return evalIntLit(n.Str)
	case ast.FloatLit:
		f, err := strconv.ParseFloat(strings.ReplaceAll(n.Str, "_", ""), 64)
		if err != nil {
			return nil, ip.RaiseStd(value.ValueErr, "invalid float literal: "+n.Str)
		}
		return value.Float(f), nil
	case ast.BigIntLit:
		s := strings.TrimSuffix(strings.ReplaceAll(n.Str, "_", ""), "n")
		v, ok := value.BigIntFromString(s)
		if !ok {
			return nil, ip.RaiseStd(value.ValueErr, "invalid bigint literal: "+n.Str)
		}
		return v, nil
	case ast.DecimalLit:
		s := strings.TrimSuffix(strings.ReplaceAll(n.Str, "_", ""), "d")
		v, err := value.DecimalFromString(s)
		if err != nil {
			return nil, ip.RaiseStd(value.ValueErr, "invalid decimal literal: "+n.Str)
		}
		return v, nil
	case ast.StringLit:
		return value.String(n.Str), nil
	case ast.BytesLit:
		return value.Bytes([]byte(n.Str)), nil
	case ast.BoolLit:
		return value.Bool(n.Str == "true"), nil
	case ast.NilLit:
		return value.Nil, nil
	case ast.FStringLit:
		return ip.evalFString(n, sc)
	case ast.Ident:
		v, ok := sc.Get(n.Str)
		if !ok {
			return nil, ip.RaiseStd(value.NameErr, "name '"+n.Str+"' is not defined")
		}
		return v, nil
	case ast.ArrayLit:
		items := make([]value.Value, 0, len(n.Child))
		for _, c := range n.Child {
			v, err := ip.eval(c, sc)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		ip.noteAlloc()
		return value.NewArray(items), nil
	case ast.DictLit:
		ip.noteAlloc()
		d := value.NewDict()
		for _, pair := range n.Child {
			k, err := ip.eval(pair.Child[0], sc)
			if err != nil {
				return nil, err
			}
			v, err := ip.eval(pair.Child[1], sc)
			if err != nil {
				return nil, err
			}
			keyStr, ok := value.StringOf(k)
			if !ok {
				return nil, ip.RaiseStd(value.TypeErr, "dict keys must be strings, got "+k.Cls())
			}
			d.Set(keyStr, v)
		}
		return d, nil
	case ast.SetLit:
		ip.noteAlloc()
		s := value.NewSet()
		for _, c := range n.Child {
			v, err := ip.eval(c, sc)
			if err != nil {
				return nil, err
			}
			if _, err := s.Add(v); err != nil {
				return nil, ip.RaiseStd(value.TypeErr, err.Error())
			}
		}
		return s, nil
	case ast.BinaryExpr:
		return ip.evalBinary(n, sc)
	case ast.UnaryExpr:
		return ip.evalUnary(n, sc)
	case ast.LogicalExpr:
		return ip.evalLogical(n, sc)
	case ast.AssignExpr:
		return ip.evalAssign(n, sc)
	case ast.CompoundAssignExpr:
		return ip.evalCompoundAssign(n, sc)
	case ast.LetStmt:
		return ip.evalLet(n, sc)
	case ast.Block:
		return ip.evalBlockNewFrame(n, sc)
	case ast.ExprStmt:
		return ip.eval(n.Child[0], sc)
	case ast.IfExpr:
		return ip.evalIf(n, sc)
	case ast.WhileStmt:
		return ip.evalWhile(n, sc)
	case ast.UntilStmt:
		return ip.evalUntil(n, sc)
	case ast.ForStmt:
		return ip.evalFor(n, sc)
	case ast.RangeExpr:
		return ip.evalRangeAsArray(n, sc)
	case ast.MatchExpr:
		return ip.evalMatch(n, sc)
	case ast.TryStmt:
		return ip.evalTry(n, sc)
	case ast.RaiseStmt:
		return ip.evalRaise(n, sc)
	case ast.WithStmt:
		return ip.evalWith(n, sc)
	case ast.ReturnStmt:
		var rv value.Value = value.Nil
		if len(n.Child) > 0 {
			v, err := ip.eval(n.Child[0], sc)
			if err != nil {
				return nil, err
			}
			rv = v
		}
		return nil, &returnSignal{val: rv}
	case ast.BreakStmt:
		return nil, &breakSignal{}
	case ast.ContinueStmt:
		return nil, &continueSignal{}
	case ast.DelStmt:
		return ip.evalDel(n, sc)
	case ast.UseStmt:
		return ip.evalUse(n, sc)
	case ast.FunDecl:
		return ip.evalFunDecl(n, sc)
	case ast.TypeDecl:
		return ip.evalTypeDecl(n, sc)
	case ast.TraitDecl:
		return ip.evalTraitDecl(n, sc)
	case ast.ImplDecl:
		return ip.evalImplDecl(n, sc)
	case ast.CallExpr:
		return ip.evalCall(n, sc)
	case ast.MemberExpr:
		return ip.evalMember(n, sc)
	case ast.MethodRefExpr:
		return ip.evalMethodRef(n, sc)
	case ast.IndexExpr:
		return ip.evalIndex(n, sc)
	default:
		return nil, ip.RaiseStd(value.RuntimeErr, "evaluator: unhandled node kind")
	}
}

func evalIntLit(lit string) (value.Value, error) {
	s := strings.ReplaceAll(lit, "_", "")
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		base, s = 8, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		if bi, ok := new(big.Int).SetString(s, base); ok {
			return value.BigInt(bi), nil
		}
		return nil, &raised{exc: value.NewException(value.ValueErr, "invalid integer literal: "+lit)}
	}
	return value.Int(n), nil
}

// evalBlockNewFrame pushes a child frame for a block body (§4.3: block
// scopes for function bodies, iteration bodies, with-blocks), runs its
// statements, and returns the last statement's value.
func (ip *Interpreter) evalBlockNewFrame(n *ast.Node, parent *scope.Scope) (value.Value, error) {
	inner := scope.Push(parent)
	return ip.evalBlockIn(n, inner)
}

func (ip *Interpreter) evalBlockIn(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	var last value.Value = value.Nil
	for _, stmt := range n.Child {
		v, err := ip.eval(stmt, sc)
		if err != nil {
			return nil, err
		}
		if v != nil {
			last = v
		}
	}
	return last, nil
}

func (ip *Interpreter) evalLet(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	var last value.Value = value.Nil
	for _, pair := range n.Child {
		name := pair.Child[0].Str
		var v value.Value = value.Nil
		if pair.Child[1] != nil {
			val, err := ip.eval(pair.Child[1], sc)
			if err != nil {
				return nil, err
			}
			v = val
		}
		sc.Declare(name, v)
		if n.Pub && sc.Module != nil {
			sc.Module.SetPublic(name, v)
		} else if sc.Module != nil {
			sc.Module.SetPrivate(name, v)
		}
		last = v
	}
	return last, nil
}

func (ip *Interpreter) evalIf(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	cond, err := ip.eval(n.Child[0], sc)
	if err != nil {
		return nil, err
	}
	if value.Truthy(cond) {
		return ip.evalBlockNewFrame(n.Child[1], sc)
	}
	if n.Child[2] != nil {
		if n.Child[2].Kind == ast.IfExpr {
			return ip.evalIf(n.Child[2], sc)
		}
		return ip.evalBlockNewFrame(n.Child[2], sc)
	}
	return value.Nil, nil
}

func (ip *Interpreter) evalWhile(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	for {
		cond, err := ip.eval(n.Child[0], sc)
		if err != nil {
			return nil, err
		}
		if !value.Truthy(cond) {
			return value.Nil, nil
		}
		if _, err := ip.evalBlockNewFrame(n.Child[1], sc); err != nil {
			if _, ok := err.(*breakSignal); ok {
				return value.Nil, nil
			}
			if _, ok := err.(*continueSignal); ok {
				continue
			}
			return nil, err
		}
	}
}

func (ip *Interpreter) evalUntil(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	for {
		cond, err := ip.eval(n.Child[0], sc)
		if err != nil {
			return nil, err
		}
		if value.Truthy(cond) {
			return value.Nil, nil
		}
		if _, err := ip.evalBlockNewFrame(n.Child[1], sc); err != nil {
			if _, ok := err.(*breakSignal); ok {
				return value.Nil, nil
			}
			if _, ok := err.(*continueSignal); ok {
				continue
			}
			return nil, err
		}
	}
}

func (ip *Interpreter) evalDel(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	target := n.Child[0]
	if target.Kind != ast.Ident {
		return nil, ip.RaiseStd(value.RuntimeErr, "del target must be a name")
	}
	if err := sc.Delete(target.Str); err != nil {
		return nil, ip.RaiseStd(value.NameErr, err.Error())
	}
	return value.Nil, nil
}
