package interp

import (
	"fmt"

	"github.com/quest-lang/quest/internal/value"
)

// raised carries a Quest exception through Go's error-return channel
// so the evaluator can propagate it with ordinary `if err != nil`
// control flow while try/catch unwraps it back into a *value.Exception.
type raised struct {
	exc *value.Exception
}

func (r *raised) Error() string { return r.exc.Str() }

func raise(exc *value.Exception) error { return &raised{exc: exc} }

// AsException unwraps err into the Quest exception it carries, if any,
// for hosts (the CLI, embedders) that need to render it without
// reaching into interp's unexported control-flow types.
func AsException(err error) (*value.Exception, bool) {
	if r, ok := err.(*raised); ok {
		return r.exc, true
	}
	return nil, false
}

func raisef(typ, format string, args ...any) error {
	return raise(value.NewException(typ, fmt.Sprintf(format, args...)))
}

// returnSignal/breakSignal/continueSignal are non-exception control
// transfers (§4.4): they unwind exactly one function call / one loop
// body respectively, and are never visible to a Quest-level catch.
type returnSignal struct{ val value.Value }

func (r *returnSignal) Error() string { return "return outside function" }

type breakSignal struct{}

func (breakSignal) Error() string { return "break outside loop" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue outside loop" }
