package value

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// OverflowError is returned by arithmetic helpers when an Int operation
// overflows; the interp package turns it into a raised OverflowErr (§4.7).
type OverflowError struct {
	Op string
}

func (e *OverflowError) Error() string { return fmt.Sprintf("integer overflow in %s", e.Op) }

// DivideByZeroError is returned for Int division/modulo by zero (§4.7 ZeroDivisionErr).
type DivideByZeroError struct{}

func (e *DivideByZeroError) Error() string { return "division by zero" }

// numKind ranks the numeric tower for promotion decisions (§4.2):
// Int < Float < Decimal, BigInt promotes like Int but never silently
// narrows back down.
type numKind int

const (
	numNone numKind = iota
	numInt
	numBigInt
	numFloat
	numDecimal
)

func kindOf(v Value) numKind {
	switch v.(type) {
	case *intValue:
		return numInt
	case *bigIntValue:
		return numBigInt
	case *floatValue:
		return numFloat
	case *decimalValue:
		return numDecimal
	default:
		return numNone
	}
}

// IsNumeric reports whether v is one of Int, BigInt, Float, Decimal.
func IsNumeric(v Value) bool { return kindOf(v) != numNone }

// promote returns both operands lifted to the wider of their two
// numeric kinds, per §4.2: Int/Float -> Float, Int/Decimal -> Decimal.
func promote(a, b Value) (numKind, Value, Value) {
	ka, kb := kindOf(a), kindOf(b)
	if ka == numNone || kb == numNone {
		return numNone, a, b
	}
	k := ka
	if kb > k {
		k = kb
	}
	return k, castTo(a, k), castTo(b, k)
}

func castTo(v Value, k numKind) Value {
	switch k {
	case numInt:
		return v
	case numBigInt:
		switch x := v.(type) {
		case *intValue:
			return BigInt(big.NewInt(x.val))
		default:
			return v
		}
	case numFloat:
		switch x := v.(type) {
		case *intValue:
			return Float(float64(x.val))
		case *bigIntValue:
			f, _ := new(big.Float).SetInt(x.val).Float64()
			return Float(f)
		default:
			return v
		}
	case numDecimal:
		switch x := v.(type) {
		case *intValue:
			return Decimal(decimal.NewFromInt(x.val))
		case *floatValue:
			return Decimal(decimal.NewFromFloat(x.val))
		case *bigIntValue:
			return Decimal(decimal.NewFromBigInt(x.val, 0))
		default:
			return v
		}
	}
	return v
}

// Add implements the `plus` method sugar for `a + b` (§4.4).
func Add(a, b Value) (Value, error) {
	if sa, ok := a.(*stringValue); ok {
		return String(sa.storage.data + coerceStr(b)), nil
	}
	k, x, y := promote(a, b)
	switch k {
	case numInt:
		xi, yi := x.(*intValue).val, y.(*intValue).val
		sum := xi + yi
		if (yi > 0 && sum < xi) || (yi < 0 && sum > xi) {
			return nil, &OverflowError{Op: "+"}
		}
		return Int(sum), nil
	case numBigInt:
		return BigInt(new(big.Int).Add(x.(*bigIntValue).val, y.(*bigIntValue).val)), nil
	case numFloat:
		return Float(x.(*floatValue).val + y.(*floatValue).val), nil
	case numDecimal:
		return Decimal(DecimalOf(x).Add(DecimalOf(y))), nil
	}
	return nil, fmt.Errorf("unsupported operand types for +: %s and %s", a.Cls(), b.Cls())
}

// Sub implements `a - b`.
func Sub(a, b Value) (Value, error) {
	k, x, y := promote(a, b)
	switch k {
	case numInt:
		xi, yi := x.(*intValue).val, y.(*intValue).val
		diff := xi - yi
		if (yi < 0 && diff < xi) || (yi > 0 && diff > xi) {
			return nil, &OverflowError{Op: "-"}
		}
		return Int(diff), nil
	case numBigInt:
		return BigInt(new(big.Int).Sub(x.(*bigIntValue).val, y.(*bigIntValue).val)), nil
	case numFloat:
		return Float(x.(*floatValue).val - y.(*floatValue).val), nil
	case numDecimal:
		return Decimal(DecimalOf(x).Sub(DecimalOf(y))), nil
	}
	return nil, fmt.Errorf("unsupported operand types for -: %s and %s", a.Cls(), b.Cls())
}

// Mul implements `a * b`.
func Mul(a, b Value) (Value, error) {
	k, x, y := promote(a, b)
	switch k {
	case numInt:
		xi, yi := x.(*intValue).val, y.(*intValue).val
		if xi != 0 && yi != 0 {
			prod := xi * yi
			if prod/yi != xi {
				return nil, &OverflowError{Op: "*"}
			}
			return Int(prod), nil
		}
		return Int(0), nil
	case numBigInt:
		return BigInt(new(big.Int).Mul(x.(*bigIntValue).val, y.(*bigIntValue).val)), nil
	case numFloat:
		return Float(x.(*floatValue).val * y.(*floatValue).val), nil
	case numDecimal:
		return Decimal(DecimalOf(x).Mul(DecimalOf(y))), nil
	}
	return nil, fmt.Errorf("unsupported operand types for *: %s and %s", a.Cls(), b.Cls())
}

// Div implements `a / b`. Int/Int division by zero raises
// DivideByZeroError; Float division by zero follows IEEE-754 (§4.4 edge case).
func Div(a, b Value) (Value, error) {
	k, x, y := promote(a, b)
	switch k {
	case numInt:
		xi, yi := x.(*intValue).val, y.(*intValue).val
		if yi == 0 {
			return nil, &DivideByZeroError{}
		}
		if xi == math.MinInt64 && yi == -1 {
			return nil, &OverflowError{Op: "/"}
		}
		return Int(xi / yi), nil
	case numBigInt:
		yi := y.(*bigIntValue).val
		if yi.Sign() == 0 {
			return nil, &DivideByZeroError{}
		}
		return BigInt(new(big.Int).Quo(x.(*bigIntValue).val, yi)), nil
	case numFloat:
		return Float(x.(*floatValue).val / y.(*floatValue).val), nil
	case numDecimal:
		yd := DecimalOf(y)
		if yd.IsZero() {
			return nil, &DivideByZeroError{}
		}
		return Decimal(DecimalOf(x).Div(yd)), nil
	}
	return nil, fmt.Errorf("unsupported operand types for /: %s and %s", a.Cls(), b.Cls())
}

// Mod implements `a % b`.
func Mod(a, b Value) (Value, error) {
	k, x, y := promote(a, b)
	switch k {
	case numInt:
		xi, yi := x.(*intValue).val, y.(*intValue).val
		if yi == 0 {
			return nil, &DivideByZeroError{}
		}
		return Int(xi % yi), nil
	case numFloat:
		return Float(math.Mod(x.(*floatValue).val, y.(*floatValue).val)), nil
	case numBigInt:
		yi := y.(*bigIntValue).val
		if yi.Sign() == 0 {
			return nil, &DivideByZeroError{}
		}
		return BigInt(new(big.Int).Rem(x.(*bigIntValue).val, yi)), nil
	case numDecimal:
		yd := DecimalOf(y)
		if yd.IsZero() {
			return nil, &DivideByZeroError{}
		}
		return Decimal(DecimalOf(x).Mod(yd)), nil
	}
	return nil, fmt.Errorf("unsupported operand types for %%: %s and %s", a.Cls(), b.Cls())
}

// Neg implements unary `-a`.
func Neg(a Value) (Value, error) {
	switch x := a.(type) {
	case *intValue:
		if x.val == math.MinInt64 {
			return nil, &OverflowError{Op: "unary -"}
		}
		return Int(-x.val), nil
	case *floatValue:
		return Float(-x.val), nil
	case *bigIntValue:
		return BigInt(new(big.Int).Neg(x.val)), nil
	case *decimalValue:
		return Decimal(DecimalOf(x).Neg()), nil
	}
	return nil, fmt.Errorf("bad operand type for unary -: %s", a.Cls())
}

func coerceStr(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Str()
}

// Compare returns -1/0/1 for a versus b, or ok=false if the pair isn't
// ordered (§4.2: numbers among themselves with promotion, strings
// lexicographically, arrays pointwise).
func Compare(a, b Value) (int, bool) {
	if IsNumeric(a) && IsNumeric(b) {
		k, x, y := promote(a, b)
		switch k {
		case numInt:
			xi, yi := x.(*intValue).val, y.(*intValue).val
			switch {
			case xi < yi:
				return -1, true
			case xi > yi:
				return 1, true
			default:
				return 0, true
			}
		case numBigInt:
			return x.(*bigIntValue).val.Cmp(y.(*bigIntValue).val), true
		case numFloat:
			xf, yf := x.(*floatValue).val, y.(*floatValue).val
			if math.IsNaN(xf) || math.IsNaN(yf) {
				return 0, false
			}
			switch {
			case xf < yf:
				return -1, true
			case xf > yf:
				return 1, true
			default:
				return 0, true
			}
		case numDecimal:
			return DecimalOf(x).Cmp(DecimalOf(y)), true
		}
	}
	if as, ok := a.(*stringValue); ok {
		if bs, ok := b.(*stringValue); ok {
			switch {
			case as.storage.data < bs.storage.data:
				return -1, true
			case as.storage.data > bs.storage.data:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	if aa, ok := a.(*Array); ok {
		if ba, ok := b.(*Array); ok {
			return compareArrays(aa, ba)
		}
	}
	return 0, false
}

func compareArrays(a, b *Array) (int, bool) {
	n := len(a.items)
	if len(b.items) < n {
		n = len(b.items)
	}
	for i := 0; i < n; i++ {
		c, ok := Compare(a.items[i], b.items[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	switch {
	case len(a.items) < len(b.items):
		return -1, true
	case len(a.items) > len(b.items):
		return 1, true
	default:
		return 0, true
	}
}

// Equal implements §4.2's equality rule: deep for collections/structs,
// by value for primitives, by identity for opaque handles/functions.
// The numeric-equality-across-kinds open question (§9) is resolved as
// "compare by value after promotion; NaN never equals anything".
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	if IsNumeric(a) && IsNumeric(b) {
		c, ok := Compare(a, b)
		return ok && c == 0
	}
	switch x := a.(type) {
	case *boolValue:
		y, ok := b.(*boolValue)
		return ok && x.val == y.val
	case *stringValue:
		y, ok := b.(*stringValue)
		return ok && x.storage.data == y.storage.data
	case *bytesValue:
		y, ok := b.(*bytesValue)
		if !ok || len(x.data) != len(y.data) {
			return false
		}
		for i := range x.data {
			if x.data[i] != y.data[i] {
				return false
			}
		}
		return true
	case *Array:
		y, ok := b.(*Array)
		if !ok || len(x.items) != len(y.items) {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || len(x.keys) != len(y.keys) {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.Get(k)
			if !ok || !Equal(x.entries[k], yv) {
				return false
			}
		}
		return true
	case *Set:
		y, ok := b.(*Set)
		if !ok || len(x.items) != len(y.items) {
			return false
		}
		for k := range x.items {
			if _, ok := y.items[k]; !ok {
				return false
			}
		}
		return true
	case *Struct:
		y, ok := b.(*Struct)
		if !ok || x.Type != y.Type {
			return false
		}
		for name, v := range x.Fields {
			if !Equal(v, y.Fields[name]) {
				return false
			}
		}
		return true
	default:
		return a.Id() == b.Id()
	}
}

// HashKey returns a string key usable for hash-based containers built
// around Value, satisfying `x == y implies hash(x) == hash(y)` (§8)
// for primitives, strings, bytes.
func HashKey(v Value) (string, bool) {
	switch x := v.(type) {
	case nilValue:
		return "nil:", true
	case *boolValue:
		return fmt.Sprintf("bool:%v", x.val), true
	case *intValue:
		return fmt.Sprintf("int:%d", x.val), true
	case *floatValue:
		if math.IsNaN(x.val) {
			return "", false
		}
		if x.val == math.Trunc(x.val) {
			return fmt.Sprintf("int:%d", int64(x.val)), true
		}
		return fmt.Sprintf("float:%v", x.val), true
	case *bigIntValue:
		return "int:" + x.val.String(), true
	case *decimalValue:
		if x.val.Equal(x.val.Truncate(0)) {
			return "int:" + x.val.BigInt().String(), true
		}
		if f, _ := x.val.Float64(); decimal.NewFromFloat(f).Equal(x.val) {
			return fmt.Sprintf("float:%v", f), true
		}
		return "decimal:" + DecimalOf(x).String(), true
	case *stringValue:
		return "str:" + x.storage.data, true
	case *bytesValue:
		return "bytes:" + string(x.data), true
	case *uuidValue:
		return "uuid:" + x.val.String(), true
	default:
		return "", false
	}
}
