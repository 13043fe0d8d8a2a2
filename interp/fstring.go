package interp

import (
	"strings"

	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/scope"
	"github.com/quest-lang/quest/internal/value"
)

// evalFString implements f-string interpolation (§4.1/§4.2): the
// parser has already split the literal into alternating FStringSeg
// text and sub-parsed expression children; each expression's value is
// rendered via its ._str() form and spliced between the segments.
func (ip *Interpreter) evalFString(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	var b strings.Builder
	for _, c := range n.Child {
		if c.Kind == ast.FStringSeg {
			b.WriteString(c.Str)
			continue
		}
		v, err := ip.eval(c, sc)
		if err != nil {
			return nil, err
		}
		b.WriteString(v.Str())
	}
	return value.String(b.String()), nil
}
