package value

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// ---- StringIO ----

// StringIO is a mutable string buffer (§3), the one collection-shaped
// value that is *not* immutable-payload like String: it exists
// specifically so builtins can accumulate text without repeated
// string concatenation.
type StringIO struct {
	id  int64
	buf strings.Builder
}

// NewStringIO constructs an empty StringIO.
func NewStringIO() *StringIO { return &StringIO{id: nextID()} }

func (s *StringIO) Cls() string  { return "StringIO" }
func (s *StringIO) Id() int64    { return s.id }
func (s *StringIO) Str() string  { return s.buf.String() }
func (s *StringIO) Rep() string  { return fmt.Sprintf("<StringIO %s>", quoteString(s.buf.String())) }
func (s *StringIO) Truthy() bool { return s.buf.Len() > 0 }

// Write appends s to the buffer.
func (s *StringIO) Write(str string) { s.buf.WriteString(str) }

// ---- RNG ----

// RNG is random number generator state (§3). It wraps math/rand's
// source-scoped generator so multiple Quest RNG values don't share
// mutable global state (and so a seeded RNG is reproducible).
type RNG struct {
	id  int64
	src *rand.Rand
}

// NewRNG constructs an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{id: nextID(), src: rand.New(rand.NewSource(seed))}
}

// NewRNGFromTime constructs an RNG seeded from the current time.
func NewRNGFromTime() *RNG { return NewRNG(time.Now().UnixNano()) }

func (r *RNG) Cls() string  { return "RNG" }
func (r *RNG) Id() int64    { return r.id }
func (r *RNG) Str() string  { return "<RNG>" }
func (r *RNG) Rep() string  { return "<RNG>" }
func (r *RNG) Truthy() bool { return true }

// Int63 returns the next pseudo-random int64 in [0, n).
func (r *RNG) Int63(n int64) int64 { return r.src.Int63n(n) }

// Float64 returns the next pseudo-random float64 in [0, 1).
func (r *RNG) Float64() float64 { return r.src.Float64() }

// ---- Temporal values ----
// §3 lists Timestamp/Zoned/Date/Time/Span/DateRange as immutable
// runtime values; their full arithmetic and formatting belong to the
// `time` stdlib collaborator (§1 non-goal: "network or filesystem
// semantics... belong to stdlib collaborators" — temporal computation
// is the same kind of collaborator surface). The core only needs the
// value shapes to exist, compare, and round-trip their _str() form
// (§8: `time.parse(t._str()) == t`). Timestamp and Zoned wrap
// time.Time, whose RFC3339 string already round-trips; the other
// temporal types do not wrap a stdlib time type.

type Timestamp struct {
	id  int64
	val time.Time
}

// NewTimestamp constructs a Timestamp (UTC instant) value.
func NewTimestamp(t time.Time) *Timestamp { return &Timestamp{id: nextID(), val: t.UTC()} }

func (t *Timestamp) Cls() string  { return "Timestamp" }
func (t *Timestamp) Id() int64    { return t.id }
func (t *Timestamp) Str() string  { return t.val.Format(time.RFC3339Nano) }
func (t *Timestamp) Rep() string  { return t.Str() }
func (t *Timestamp) Truthy() bool { return true }
func (t *Timestamp) Time() time.Time { return t.val }

type Zoned struct {
	id  int64
	val time.Time
}

// NewZoned constructs a timezone-aware datetime value.
func NewZoned(t time.Time) *Zoned { return &Zoned{id: nextID(), val: t} }

func (z *Zoned) Cls() string  { return "Zoned" }
func (z *Zoned) Id() int64    { return z.id }
func (z *Zoned) Str() string  { return z.val.Format(time.RFC3339Nano) }
func (z *Zoned) Rep() string  { return z.Str() }
func (z *Zoned) Truthy() bool { return true }
func (z *Zoned) Time() time.Time { return z.val }

type Date struct {
	id         int64
	Y, M, D    int
}

// NewDate constructs a calendar-only Date value.
func NewDate(y, m, d int) *Date { return &Date{id: nextID(), Y: y, M: m, D: d} }

func (d *Date) Cls() string  { return "Date" }
func (d *Date) Id() int64    { return d.id }
func (d *Date) Str() string  { return fmt.Sprintf("%04d-%02d-%02d", d.Y, d.M, d.D) }
func (d *Date) Rep() string  { return d.Str() }
func (d *Date) Truthy() bool { return true }

type ClockTime struct {
	id                 int64
	H, Min, S, Nanosec int
}

// NewTime constructs a clock-only Time value.
func NewTime(h, m, s, ns int) *ClockTime {
	return &ClockTime{id: nextID(), H: h, Min: m, S: s, Nanosec: ns}
}

func (t *ClockTime) Cls() string { return "Time" }
func (t *ClockTime) Id() int64   { return t.id }
func (t *ClockTime) Str() string { return fmt.Sprintf("%02d:%02d:%02d", t.H, t.Min, t.S) }
func (t *ClockTime) Rep() string { return t.Str() }
func (t *ClockTime) Truthy() bool { return true }

type Span struct {
	id  int64
	val time.Duration
}

// NewSpan constructs a duration value mixing calendar and clock units
// (§ GLOSSARY "Span"); represented as a Go Duration for the clock part.
func NewSpan(d time.Duration) *Span { return &Span{id: nextID(), val: d} }

func (s *Span) Cls() string  { return "Span" }
func (s *Span) Id() int64    { return s.id }
func (s *Span) Str() string  { return s.val.String() }
func (s *Span) Rep() string  { return s.Str() }
func (s *Span) Truthy() bool { return s.val != 0 }
func (s *Span) Duration() time.Duration { return s.val }

type DateRange struct {
	id         int64
	Start, End *Date
}

// NewDateRange constructs a [start, end) date range value.
func NewDateRange(start, end *Date) *DateRange {
	return &DateRange{id: nextID(), Start: start, End: end}
}

func (r *DateRange) Cls() string { return "DateRange" }
func (r *DateRange) Id() int64   { return r.id }
func (r *DateRange) Str() string { return fmt.Sprintf("%s..%s", r.Start.Str(), r.End.Str()) }
func (r *DateRange) Rep() string { return r.Str() }
func (r *DateRange) Truthy() bool { return true }

// ---- NDArray ----

// NDArray is a dense numeric tensor (§3). Full linear-algebra behavior
// is a stdlib collaborator concern; the core carries the value shape
// (shape + flat float64 storage) so builtins can construct/index/print it.
type NDArray struct {
	id    int64
	Shape []int
	Data  []float64
}

// NewNDArray constructs an NDArray of the given shape, zero-filled.
func NewNDArray(shape []int) *NDArray {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &NDArray{id: nextID(), Shape: append([]int(nil), shape...), Data: make([]float64, n)}
}

func (a *NDArray) Cls() string { return "NDArray" }
func (a *NDArray) Id() int64   { return a.id }
func (a *NDArray) Str() string { return a.Rep() }
// Rep reports shape plus a humanized element count and approximate
// memory footprint (go-humanize, SPEC_FULL.md Domain Stack), rather
// than a bare element count that gets unreadable for large arrays.
func (a *NDArray) Rep() string {
	dims := make([]string, len(a.Shape))
	for i, d := range a.Shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	elems := HumanizeComma(int64(len(a.Data)))
	size := HumanizeBytes(uint64(len(a.Data)) * 8)
	return fmt.Sprintf("NDArray<%s>(%s elems, %s)", strings.Join(dims, "x"), elems, size)
}
func (a *NDArray) Truthy() bool { return len(a.Data) > 0 }

// ---- Opaque host handles ----

// Handle is a host-provided opaque value (database connection, cursor,
// file handle, subprocess handle, serial port, §3). Its identity and
// _enter()/_exit() protocol are all the core needs to know; the payload
// and method table are supplied by whichever stdlib collaborator
// registered it (§4.9).
type Handle struct {
	id      int64
	Kind    string // e.g. "DBConnection", "FileHandle"
	Payload any
}

// NewHandle constructs an opaque host handle of the given kind.
func NewHandle(kind string, payload any) *Handle {
	return &Handle{id: nextID(), Kind: kind, Payload: payload}
}

func (h *Handle) Cls() string  { return h.Kind }
func (h *Handle) Id() int64    { return h.id }
func (h *Handle) Str() string  { return fmt.Sprintf("<%s>", h.Kind) }
func (h *Handle) Rep() string  { return h.Str() }
func (h *Handle) Truthy() bool { return true }
