package value

import "github.com/shopspring/decimal"

// decimalValue wraps shopspring/decimal, an arbitrary-precision
// fixed-scale type sourced from the gad-lang scripting-language
// manifest's dependency set (see DESIGN.md), satisfying §3's "at
// least 28 significant digits" requirement for the Decimal variant.
type decimalValue struct {
	id  int64
	val decimal.Decimal
}

// Decimal constructs a Decimal value from a shopspring/decimal.Decimal.
func Decimal(d decimal.Decimal) Value {
	return &decimalValue{id: nextID(), val: d}
}

// DecimalFromString parses a decimal literal (§4.1's `d`-suffixed
// numeric literal form).
func DecimalFromString(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return Decimal(d), nil
}

func (d *decimalValue) Cls() string  { return "Decimal" }
func (d *decimalValue) Id() int64    { return d.id }
func (d *decimalValue) Str() string  { return d.val.String() }
func (d *decimalValue) Rep() string  { return d.val.String() }
func (d *decimalValue) Truthy() bool { return !d.val.IsZero() }

// DecimalOf extracts the shopspring/decimal.Decimal, promoting v first
// if it is a narrower numeric kind.
func DecimalOf(v Value) decimal.Decimal {
	switch x := v.(type) {
	case *decimalValue:
		return x.val
	case *intValue:
		return decimal.NewFromInt(x.val)
	case *floatValue:
		return decimal.NewFromFloat(x.val)
	case *bigIntValue:
		return decimal.NewFromBigInt(x.val, 0)
	default:
		return decimal.Zero
	}
}
