package value

import (
	"fmt"
	"strings"
)

// Exception is Quest's raised/caught error object (§3, §4.7): a type
// tag, message, a stack snapshot taken at construction time, optional
// file/line, and an optional chained cause.
type Exception struct {
	id      int64
	Type    string // dotted type tag, e.g. "ValueErr", "IndexErr", or a user type name
	Message string
	Stack   []string // "at <function> (<file>:<line>)", newest frame first
	File    string
	Line    int
	Cause   *Exception
	Fields  map[string]Value // for user-declared exception types constructed via Type.new(...)
}

// Well-known built-in exception type tags (§4.7).
const (
	ParseErr         = "ParseErr"
	NameErr          = "NameErr"
	TypeErr          = "TypeErr"
	ArgErr           = "ArgErr"
	IndexErr         = "IndexErr"
	KeyErr           = "KeyErr"
	ValueErr         = "ValueErr"
	ZeroDivisionErr  = "ZeroDivisionErr"
	OverflowErr      = "OverflowErr"
	IOError          = "IOError"
	OSError          = "OSError"
	RuntimeErr       = "RuntimeErr"
)

// NewException constructs an Exception with the given type tag and
// message; the stack is filled in by the caller (the interp package,
// which owns the call stack) immediately after construction.
func NewException(typ, message string) *Exception {
	return &Exception{id: nextID(), Type: typ, Message: message}
}

func (e *Exception) Cls() string  { return e.Type }
func (e *Exception) Id() int64    { return e.id }
func (e *Exception) Str() string  { return fmt.Sprintf("%s: %s", e.Type, e.Message) }
func (e *Exception) Rep() string  { return fmt.Sprintf("<%s: %s>", e.Type, quoteString(e.Message)) }
func (e *Exception) Truthy() bool { return true }

// Display renders the §7 user-visible failure form: type, message,
// stack (newest frame first), and, if chained, the cause indented below.
func (e *Exception) Display() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", e.Type, e.Message)
	for _, frame := range e.Stack {
		fmt.Fprintf(&b, "  %s\n", frame)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, "  caused by: %s: %s\n", e.Cause.Type, e.Cause.Message)
	}
	return b.String()
}
