package value

import (
	"fmt"
	"strings"
)

// IndexError/KeyError/EmptyError are sentinel payloads the interp
// package turns into IndexErr/KeyErr exceptions (§4.7). They're plain
// Go errors here because collection mutators are called from many
// contexts (builtins, evaluator) that all want the same translation.
type IndexError struct {
	Index, Len int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range for length %d", e.Index, e.Len)
}

type KeyError struct{ Key string }

func (e *KeyError) Error() string { return fmt.Sprintf("key %q not found", e.Key) }

type EmptyError struct{ Op string }

func (e *EmptyError) Error() string { return fmt.Sprintf("%s on empty collection", e.Op) }

// ---- Array ----

// Array is Quest's mutable, heterogeneous, shared-by-reference list
// (§3). Aliasing is achieved the same way the teacher's `frame` data
// slice is shared across clones that share `anc`: callers hold a
// pointer to the same *Array, not a copy of its contents.
type Array struct {
	id    int64
	items []Value
}

// NewArray constructs an Array from items (copied defensively).
func NewArray(items []Value) *Array {
	cp := make([]Value, len(items))
	copy(cp, items)
	return &Array{id: nextID(), items: cp}
}

func (a *Array) Cls() string { return "Array" }
func (a *Array) Id() int64   { return a.id }
func (a *Array) Str() string { return a.Rep() }
func (a *Array) Rep() string {
	return reprCycle(a, func(seen map[int64]bool) string {
		parts := make([]string, len(a.items))
		for i, v := range a.items {
			parts[i] = repSeen(v, seen)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	})
}
func (a *Array) Truthy() bool { return len(a.items) > 0 }

// Len returns the element count.
func (a *Array) Len() int { return len(a.items) }

// Items returns the backing slice directly (callers must not retain
// and mutate it outside the collection's own mutator methods).
func (a *Array) Items() []Value { return a.items }

// resolveIndex applies §4.4's negative-indexing rule: -1 is the last
// element, -(len) the first, anything further out of range is an error.
func (a *Array) resolveIndex(i int64) (int, error) {
	n := len(a.items)
	idx := int(i)
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, &IndexError{Index: int(i), Len: n}
	}
	return idx, nil
}

// Get returns the element at i, applying negative-index wraparound.
func (a *Array) Get(i int64) (Value, error) {
	idx, err := a.resolveIndex(i)
	if err != nil {
		return nil, err
	}
	return a.items[idx], nil
}

// Set assigns the element at i, applying negative-index wraparound.
func (a *Array) Set(i int64, v Value) error {
	idx, err := a.resolveIndex(i)
	if err != nil {
		return err
	}
	a.items[idx] = v
	return nil
}

// Push appends v, satisfying the §8 invariant push(v); last()==v; len+1.
func (a *Array) Push(v Value) { a.items = append(a.items, v) }

// Pop removes and returns the last element.
func (a *Array) Pop() (Value, error) {
	if len(a.items) == 0 {
		return nil, &EmptyError{Op: "pop"}
	}
	v := a.items[len(a.items)-1]
	a.items = a.items[:len(a.items)-1]
	return v, nil
}

// Shift removes and returns the first element.
func (a *Array) Shift() (Value, error) {
	if len(a.items) == 0 {
		return nil, &EmptyError{Op: "shift"}
	}
	v := a.items[0]
	a.items = a.items[1:]
	return v, nil
}

// Unshift prepends v.
func (a *Array) Unshift(v Value) { a.items = append([]Value{v}, a.items...) }

// Insert places v at index i, shifting later elements right.
func (a *Array) Insert(i int64, v Value) error {
	n := len(a.items)
	idx := int(i)
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx > n {
		return &IndexError{Index: int(i), Len: n}
	}
	a.items = append(a.items, nil)
	copy(a.items[idx+1:], a.items[idx:])
	a.items[idx] = v
	return nil
}

// Remove deletes and returns the element at index i.
func (a *Array) Remove(i int64) (Value, error) {
	idx, err := a.resolveIndex(i)
	if err != nil {
		return nil, err
	}
	v := a.items[idx]
	a.items = append(a.items[:idx], a.items[idx+1:]...)
	return v, nil
}

// First returns the first element.
func (a *Array) First() (Value, error) {
	if len(a.items) == 0 {
		return nil, &EmptyError{Op: "first"}
	}
	return a.items[0], nil
}

// Last returns the last element.
func (a *Array) Last() (Value, error) {
	if len(a.items) == 0 {
		return nil, &EmptyError{Op: "last"}
	}
	return a.items[len(a.items)-1], nil
}

// Sort sorts the array in place using less, an ordering predicate.
func (a *Array) Sort(less func(x, y Value) bool) {
	n := len(a.items)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && less(a.items[j], a.items[j-1]); j-- {
			a.items[j], a.items[j-1] = a.items[j-1], a.items[j]
		}
	}
}

// Reverse reverses the array in place.
func (a *Array) Reverse() {
	for i, j := 0, len(a.items)-1; i < j; i, j = i+1, j-1 {
		a.items[i], a.items[j] = a.items[j], a.items[i]
	}
}

// Concat returns a new Array with other's elements appended (non-mutating, §4.2).
func (a *Array) Concat(other *Array) *Array {
	out := make([]Value, 0, len(a.items)+len(other.items))
	out = append(out, a.items...)
	out = append(out, other.items...)
	return NewArray(out)
}

// Slice returns a new Array over [start, end) with Python-style
// negative-index normalization, clamped to bounds.
func (a *Array) Slice(start, end int64) *Array {
	n := int64(len(a.items))
	s, e := start, end
	if s < 0 {
		s += n
	}
	if e < 0 {
		e += n
	}
	if s < 0 {
		s = 0
	}
	if e > n {
		e = n
	}
	if s >= e {
		return NewArray(nil)
	}
	return NewArray(a.items[s:e])
}

// ---- Dict ----

// Dict is Quest's ordered, mutable, shared-by-reference string-keyed
// mapping (§3). Insertion order is preserved via the parallel `keys`
// slice, the same pattern the teacher uses for preserving declaration
// order in `imports`/`scopes` maps keyed by path.
type Dict struct {
	id      int64
	keys    []string
	entries map[string]Value
}

// NewDict constructs an empty Dict.
func NewDict() *Dict {
	return &Dict{id: nextID(), entries: map[string]Value{}}
}

func (d *Dict) Cls() string { return "Dict" }
func (d *Dict) Id() int64   { return d.id }
func (d *Dict) Str() string { return d.Rep() }
func (d *Dict) Rep() string {
	return reprCycle(d, func(seen map[int64]bool) string {
		parts := make([]string, len(d.keys))
		for i, k := range d.keys {
			parts[i] = quoteString(k) + ": " + repSeen(d.entries[k], seen)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	})
}
func (d *Dict) Truthy() bool { return len(d.keys) > 0 }

// Len returns the entry count.
func (d *Dict) Len() int { return len(d.keys) }

// Get looks up key, reporting presence.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.entries[key]
	return v, ok
}

// Set inserts or updates key, appending to the key order on first insert.
func (d *Dict) Set(key string, v Value) {
	if _, exists := d.entries[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = v
}

// Del removes key, reporting whether it was present.
func (d *Dict) Del(key string) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Values returns the values in key-insertion order.
func (d *Dict) Values() []Value {
	out := make([]Value, len(d.keys))
	for i, k := range d.keys {
		out[i] = d.entries[k]
	}
	return out
}

// Contains reports whether key is present.
func (d *Dict) Contains(key string) bool {
	_, ok := d.entries[key]
	return ok
}

// ---- Set ----

// Set is Quest's mutable set of hashable values (§3).
type Set struct {
	id    int64
	items map[string]Value // hash key -> representative value
}

// NewSet constructs an empty Set.
func NewSet() *Set { return &Set{id: nextID(), items: map[string]Value{}} }

func (s *Set) Cls() string { return "Set" }
func (s *Set) Id() int64   { return s.id }
func (s *Set) Str() string { return s.Rep() }
func (s *Set) Rep() string {
	return reprCycle(s, func(seen map[int64]bool) string {
		parts := make([]string, 0, len(s.items))
		for _, v := range s.items {
			parts = append(parts, repSeen(v, seen))
		}
		return "Set{" + strings.Join(parts, ", ") + "}"
	})
}
func (s *Set) Truthy() bool { return len(s.items) > 0 }

// Len returns the element count.
func (s *Set) Len() int { return len(s.items) }

// Add inserts v if hashable, reporting whether it was newly added.
func (s *Set) Add(v Value) (bool, error) {
	k, ok := HashKey(v)
	if !ok {
		return false, fmt.Errorf("unhashable type: %s", v.Cls())
	}
	if _, exists := s.items[k]; exists {
		return false, nil
	}
	s.items[k] = v
	return true, nil
}

// Contains reports whether v (by hash key) is a member.
func (s *Set) Contains(v Value) bool {
	k, ok := HashKey(v)
	if !ok {
		return false
	}
	_, exists := s.items[k]
	return exists
}

// Remove deletes v, reporting whether it was present.
func (s *Set) Remove(v Value) bool {
	k, ok := HashKey(v)
	if !ok {
		return false
	}
	if _, exists := s.items[k]; !exists {
		return false
	}
	delete(s.items, k)
	return true
}

// Items returns the set's members in unspecified order.
func (s *Set) Items() []Value {
	out := make([]Value, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out
}

// ---- cyclic _rep() guard ----
// Supplements spec.md per SPEC_FULL.md: shared-reference collections
// plus struct fields can form reference cycles, so Rep() tracks
// visited identities and renders "<cycle>" instead of recursing forever.

var repInProgress = map[int64]bool{}

func reprCycle(v Value, render func(seen map[int64]bool) string) string {
	if repInProgress[v.Id()] {
		return "<cycle>"
	}
	repInProgress[v.Id()] = true
	defer delete(repInProgress, v.Id())
	return render(repInProgress)
}

func repSeen(v Value, seen map[int64]bool) string {
	if v == nil {
		return "nil"
	}
	return v.Rep()
}
