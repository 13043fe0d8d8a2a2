package value

import "github.com/google/uuid"

// uuidValue wraps google/uuid, present in five of the scripting-language
// manifests under _examples/other_examples/manifests (see DESIGN.md).
type uuidValue struct {
	id  int64
	val uuid.UUID
}

// Uuid constructs a Uuid value.
func Uuid(u uuid.UUID) Value { return &uuidValue{id: nextID(), val: u} }

// NewUuidV4 generates a random (v4) Uuid value.
func NewUuidV4() Value { return Uuid(uuid.New()) }

// UuidFromString parses a canonical UUID string into a Uuid value.
func UuidFromString(s string) (Value, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return Uuid(u), nil
}

func (u *uuidValue) Cls() string  { return "Uuid" }
func (u *uuidValue) Id() int64    { return u.id }
func (u *uuidValue) Str() string  { return u.val.String() }
func (u *uuidValue) Rep() string  { return quoteString(u.val.String()) }
func (u *uuidValue) Truthy() bool { return u.val != uuid.Nil }

// UuidOf returns the uuid.UUID backing a Uuid value.
func UuidOf(v Value) (uuid.UUID, bool) {
	u, ok := v.(*uuidValue)
	if !ok {
		return uuid.UUID{}, false
	}
	return u.val, true
}
