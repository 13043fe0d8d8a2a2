package value

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// formatSegment is either a literal text run or a placeholder.
type formatSegment struct {
	literal     string
	isPlaceholder bool
	argRef      string // integer position (as string), name, or "" for auto-increment
	spec        string // the part after ':'
}

// ParseFormatSpec splits a `.fmt()`/f-string format string into
// alternating literal and placeholder segments, per §4.9: each
// placeholder has the shape `{argref?:spec?}`, "{{"/"}}" are literal braces.
func ParseFormatSpec(s string) ([]formatSegment, error) {
	var segs []formatSegment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, formatSegment{literal: lit.String()})
			lit.Reset()
		}
	}
	r := []rune(s)
	i := 0
	for i < len(r) {
		switch {
		case r[i] == '{' && i+1 < len(r) && r[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case r[i] == '}' && i+1 < len(r) && r[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case r[i] == '{':
			flush()
			j := i + 1
			for j < len(r) && r[j] != '}' {
				j++
			}
			if j >= len(r) {
				return nil, fmt.Errorf("unterminated format placeholder")
			}
			inner := string(r[i+1 : j])
			argRef, spec, _ := strings.Cut(inner, ":")
			segs = append(segs, formatSegment{isPlaceholder: true, argRef: argRef, spec: spec})
			i = j + 1
		default:
			lit.WriteRune(r[i])
			i++
		}
	}
	flush()
	return segs, nil
}

// Format applies args (positional) and named to a parsed format string,
// implementing §4.2/§4.9's placeholder evaluation: auto-increment when
// argref is absent, named lookup, numeric conversion with width/align/
// precision/alternate-form/sign, ._str() fallback for non-numeric.
func Format(pattern string, args []Value, named map[string]Value) (string, error) {
	segs, err := ParseFormatSpec(pattern)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	auto := 0
	for _, seg := range segs {
		if !seg.isPlaceholder {
			out.WriteString(seg.literal)
			continue
		}
		var arg Value
		switch {
		case seg.argRef == "":
			if auto >= len(args) {
				return "", fmt.Errorf("format: not enough arguments for auto-index %d", auto)
			}
			arg = args[auto]
			auto++
		case isAllDigits(seg.argRef):
			idx, _ := strconv.Atoi(seg.argRef)
			if idx < 0 || idx >= len(args) {
				return "", fmt.Errorf("format: argument index %d out of range", idx)
			}
			arg = args[idx]
		default:
			v, ok := named[seg.argRef]
			if !ok {
				return "", fmt.Errorf("format: unknown named argument %q", seg.argRef)
			}
			arg = v
		}
		rendered, err := renderSpec(arg, seg.spec)
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
	}
	return out.String(), nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// spec holds one parsed `[fill][align][sign][#][0][width][.precision][type]` form.
type spec struct {
	fill      rune
	align     rune // '<', '>', '^', 0 if unset
	sign      rune // '+', '-', 0 if unset
	alternate bool
	zeroPad   bool
	width     int
	hasWidth  bool
	precision int
	hasPrec   bool
	typ       rune // 'x','X','b','o','e','E', 0 for default
}

func parseSpec(s string) spec {
	var sp spec
	r := []rune(s)
	i := 0
	if len(r) >= 2 && (r[1] == '<' || r[1] == '>' || r[1] == '^') {
		sp.fill = r[0]
		sp.align = r[1]
		i = 2
	} else if len(r) >= 1 && (r[0] == '<' || r[0] == '>' || r[0] == '^') {
		sp.align = r[0]
		i = 1
	}
	if i < len(r) && (r[i] == '+' || r[i] == '-') {
		sp.sign = r[i]
		i++
	}
	if i < len(r) && r[i] == '#' {
		sp.alternate = true
		i++
	}
	if i < len(r) && r[i] == '0' {
		sp.zeroPad = true
		if sp.fill == 0 {
			sp.fill = '0'
			if sp.align == 0 {
				sp.align = '>'
			}
		}
		i++
	}
	start := i
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}
	if i > start {
		sp.width, _ = strconv.Atoi(string(r[start:i]))
		sp.hasWidth = true
	}
	if i < len(r) && r[i] == '.' {
		i++
		pstart := i
		for i < len(r) && r[i] >= '0' && r[i] <= '9' {
			i++
		}
		sp.precision, _ = strconv.Atoi(string(r[pstart:i]))
		sp.hasPrec = true
	}
	if i < len(r) {
		sp.typ = r[i]
	}
	if sp.fill == 0 {
		sp.fill = ' '
	}
	return sp
}

func renderSpec(v Value, specStr string) (string, error) {
	sp := parseSpec(specStr)
	var body string
	numeric := IsNumeric(v)

	switch {
	case sp.typ == 'x' || sp.typ == 'X':
		n, err := toBigInt(v)
		if err != nil {
			return "", err
		}
		body = n.Text(16)
		if sp.typ == 'X' {
			body = strings.ToUpper(body)
		}
		if sp.alternate {
			prefix := "0x"
			if sp.typ == 'X' {
				prefix = "0X"
			}
			body = prefix + body
		}
	case sp.typ == 'b':
		n, err := toBigInt(v)
		if err != nil {
			return "", err
		}
		body = n.Text(2)
		if sp.alternate {
			body = "0b" + body
		}
	case sp.typ == 'o':
		n, err := toBigInt(v)
		if err != nil {
			return "", err
		}
		body = n.Text(8)
		if sp.alternate {
			body = "0o" + body
		}
	case sp.typ == 'e' || sp.typ == 'E':
		f, err := toFloat(v)
		if err != nil {
			return "", err
		}
		prec := 6
		if sp.hasPrec {
			prec = sp.precision
		}
		verb := byte('e')
		if sp.typ == 'E' {
			verb = 'E'
		}
		body = string(strconv.AppendFloat(nil, f, verb, prec, 64))
	case numeric:
		body = renderNumericDefault(v, sp)
	default:
		body = v.Str()
	}

	if numeric && sp.sign == '+' && !strings.HasPrefix(body, "-") {
		body = "+" + body
	}

	return pad(body, sp, numeric), nil
}

func renderNumericDefault(v Value, sp spec) string {
	switch x := v.(type) {
	case *intValue:
		return strconv.FormatInt(x.val, 10)
	case *bigIntValue:
		return x.val.String()
	case *decimalValue:
		if sp.hasPrec {
			return DecimalOf(x).StringFixed(int32(sp.precision))
		}
		return x.val.String()
	case *floatValue:
		if sp.hasPrec {
			return strconv.FormatFloat(x.val, 'f', sp.precision, 64)
		}
		return strconv.FormatFloat(x.val, 'f', -1, 64)
	}
	return v.Str()
}

func toBigInt(v Value) (*big.Int, error) {
	switch x := v.(type) {
	case *intValue:
		return big.NewInt(x.val), nil
	case *bigIntValue:
		return x.val, nil
	default:
		return nil, fmt.Errorf("format: type %s does not support integer radix conversion", v.Cls())
	}
}

func toFloat(v Value) (float64, error) {
	switch x := v.(type) {
	case *intValue:
		return float64(x.val), nil
	case *floatValue:
		return x.val, nil
	case *decimalValue:
		f, _ := x.val.Float64()
		return f, nil
	case *bigIntValue:
		f := new(big.Float).SetInt(x.val)
		r, _ := f.Float64()
		return r, nil
	default:
		return 0, fmt.Errorf("format: type %s is not numeric", v.Cls())
	}
}

func pad(body string, sp spec, numeric bool) string {
	if !sp.hasWidth || len([]rune(body)) >= sp.width {
		return body
	}
	padLen := sp.width - len([]rune(body))
	fill := strings.Repeat(string(sp.fill), padLen)
	align := sp.align
	if align == 0 {
		// Rust-style format specs (§8) default numeric types to
		// right-alignment; everything else (strings) defaults left.
		if numeric {
			align = '>'
		} else {
			align = '<'
		}
	}
	switch align {
	case '>':
		if sp.zeroPad && (strings.HasPrefix(body, "-") || strings.HasPrefix(body, "+")) {
			return body[:1] + fill + body[1:]
		}
		return fill + body
	case '^':
		left := padLen / 2
		right := padLen - left
		return strings.Repeat(string(sp.fill), left) + body + strings.Repeat(string(sp.fill), right)
	default:
		return body + fill
	}
}

// HumanizeBytes formats a byte count using dustin/go-humanize, used by
// NDArray's Rep (SPEC_FULL.md Domain Stack).
func HumanizeBytes(n uint64) string { return humanize.Bytes(n) }

// HumanizeComma groups a large integer with thousands separators,
// used by the same pretty-printer for large BigInt values.
func HumanizeComma(n int64) string { return humanize.Comma(n) }
