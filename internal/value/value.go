// Package value implements Quest's runtime value model (§3, §4.2 of the
// language spec): a tagged-variant Value, process-wide object identity,
// small-int/bool interning, and the common protocol every value answers
// to (cls, _id, _str, _rep, _doc, is).
package value

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"
)

// Value is the interface every runtime value implements. It is
// intentionally small: the bulk of per-type behavior lives in the
// method-dispatch tables built by the interp package (§4.5), not on
// the interface itself, mirroring the teacher's separation between
// the generic `node`/`frame` machinery and the builtin tables it drives.
type Value interface {
	// Cls returns the runtime type name, e.g. "Int", "Array", "Point".
	Cls() string
	// Id returns the process-unique identity integer (§3 invariant:
	// stable for the value's lifetime, shared by all aliases).
	Id() int64
	// Str returns the default textual form (used by _str(), string
	// concatenation coercion, and uncaught-exception printing).
	Str() string
	// Rep returns the REPL form (strings quoted, bytes as b"...").
	Rep() string
	// Truthy implements §4.2's truthiness rule.
	Truthy() bool
}

// idCounter is the monotonically increasing source of object identity.
// Nil is pinned to 0 (the zero value, never issued to anything else).
var idCounter int64

func nextID() int64 {
	return atomic.AddInt64(&idCounter, 1)
}

// ---- Nil ----

type nilValue struct{}

// Nil is the single Nil value; its identity is always 0.
var Nil Value = nilValue{}

func (nilValue) Cls() string  { return "Nil" }
func (nilValue) Id() int64    { return 0 }
func (nilValue) Str() string  { return "nil" }
func (nilValue) Rep() string  { return "nil" }
func (nilValue) Truthy() bool { return false }

// IsNil reports whether v is the Nil value.
func IsNil(v Value) bool { _, ok := v.(nilValue); return ok }

// ---- Bool ----

type boolValue struct {
	id  int64
	val bool
}

var (
	trueValue  = &boolValue{id: nextID(), val: true}
	falseValue = &boolValue{id: nextID(), val: false}
)

// Bool returns the interned True or False singleton.
func Bool(b bool) Value {
	if b {
		return trueValue
	}
	return falseValue
}

func (b *boolValue) Cls() string { return "Bool" }
func (b *boolValue) Id() int64   { return b.id }
func (b *boolValue) Str() string {
	if b.val {
		return "true"
	}
	return "false"
}
func (b *boolValue) Rep() string  { return b.Str() }
func (b *boolValue) Truthy() bool { return b.val }

// BoolOf extracts the Go bool, panicking if v is not a Bool (callers
// must type-check with AsBool first in non-trusted contexts).
func BoolOf(v Value) bool { return v.(*boolValue).val }

// AsBool reports whether v is a Bool and returns its Go value.
func AsBool(v Value) (bool, bool) {
	b, ok := v.(*boolValue)
	if !ok {
		return false, false
	}
	return b.val, true
}

// ---- Int ----

type intValue struct {
	id  int64
	val int64
}

// smallInts interns the [-128, 127] range per §3/§8.
var smallInts [256]*intValue

func init() {
	for i := range smallInts {
		v := int64(i - 128)
		smallInts[i] = &intValue{id: nextID(), val: v}
	}
}

// Int constructs (or returns the interned singleton for) an Int value.
func Int(n int64) Value {
	if n >= -128 && n <= 127 {
		return smallInts[n+128]
	}
	return &intValue{id: nextID(), val: n}
}

func (i *intValue) Cls() string  { return "Int" }
func (i *intValue) Id() int64    { return i.id }
func (i *intValue) Str() string  { return fmt.Sprintf("%d", i.val) }
func (i *intValue) Rep() string  { return i.Str() }
func (i *intValue) Truthy() bool { return i.val != 0 }

// IntOf returns the Go int64 backing an Int value and whether v was one.
func IntOf(v Value) (int64, bool) {
	i, ok := v.(*intValue)
	if !ok {
		return 0, false
	}
	return i.val, true
}

// ---- Float ----

type floatValue struct {
	id  int64
	val float64
}

// Float constructs a Float value.
func Float(f float64) Value { return &floatValue{id: nextID(), val: f} }

func (f *floatValue) Cls() string { return "Float" }
func (f *floatValue) Id() int64   { return f.id }
func (f *floatValue) Str() string {
	if math.IsInf(f.val, 1) {
		return "inf"
	}
	if math.IsInf(f.val, -1) {
		return "-inf"
	}
	if math.IsNaN(f.val) {
		return "nan"
	}
	return fmt.Sprintf("%g", f.val)
}
func (f *floatValue) Rep() string { return f.Str() }
func (f *floatValue) Truthy() bool {
	return f.val != 0 && !math.IsNaN(f.val)
}

// FloatOf returns the Go float64 backing a Float value.
func FloatOf(v Value) (float64, bool) {
	f, ok := v.(*floatValue)
	if !ok {
		return 0, false
	}
	return f.val, true
}

// ---- String ----

// stringStorage is the refcounted-by-sharing payload described in §3:
// clones alias the same *stringStorage, the value stays immutable.
type stringStorage struct {
	data string
}

type stringValue struct {
	id      int64
	storage *stringStorage
}

// String constructs a String value.
func String(s string) Value {
	return &stringValue{id: nextID(), storage: &stringStorage{data: s}}
}

func (s *stringValue) Cls() string  { return "String" }
func (s *stringValue) Id() int64    { return s.id }
func (s *stringValue) Str() string  { return s.storage.data }
func (s *stringValue) Rep() string  { return quoteString(s.storage.data) }
func (s *stringValue) Truthy() bool { return s.storage.data != "" }

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// StringOf returns the Go string backing a String value.
func StringOf(v Value) (string, bool) {
	s, ok := v.(*stringValue)
	if !ok {
		return "", false
	}
	return s.storage.data, true
}

// ---- Bytes ----

type bytesValue struct {
	id   int64
	data []byte
}

// Bytes constructs an immutable Bytes value.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &bytesValue{id: nextID(), data: cp}
}

func (b *bytesValue) Cls() string  { return "Bytes" }
func (b *bytesValue) Id() int64    { return b.id }
func (b *bytesValue) Str() string  { return string(b.data) }
func (b *bytesValue) Rep() string  { return fmt.Sprintf("b%s", quoteString(string(b.data))) }
func (b *bytesValue) Truthy() bool { return len(b.data) > 0 }

// BytesOf returns the Go []byte backing a Bytes value.
func BytesOf(v Value) ([]byte, bool) {
	b, ok := v.(*bytesValue)
	if !ok {
		return nil, false
	}
	return b.data, true
}

// Truthy implements §4.2's global truthiness rule for any Value,
// including ones that don't special-case it in their own Truthy().
func Truthy(v Value) bool {
	if v == nil {
		return false
	}
	return v.Truthy()
}

// Cls is a free-function form of v.Cls() for callers holding a nil
// interface guard elsewhere.
func Cls(v Value) string {
	if v == nil {
		return "Nil"
	}
	return v.Cls()
}

// SortValues sorts a slice of comparable values ascending using Compare.
func SortValues(vs []Value) {
	sort.SliceStable(vs, func(i, j int) bool {
		c, ok := Compare(vs[i], vs[j])
		return ok && c < 0
	})
}
