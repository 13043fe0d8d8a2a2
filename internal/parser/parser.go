// Package parser builds a Quest parse tree (internal/ast) from a token
// stream (internal/lexer). It is a hand-written recursive-descent parser
// with a precedence-climbing expression core, matching §4.1 of the
// language spec: unary ops bind tightest, then */ %, then +-, then the
// concatenation operator .., then comparisons, then &, then |, then
// and, then or (loosest).
package parser

import (
	"fmt"

	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/lexer"
)

// Error is a parse failure with location, matching the language's
// ParseErr exception shape (§4.7).
type Error struct {
	Pos      lexer.Pos
	Msg      string
	Expected []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse lexes and parses src, returning the Program node.
func Parse(src string) (*ast.Node, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: filterNewlines(toks, false)}
	return p.parseProgram()
}

// filterNewlines drops NEWLINE tokens from toks when drop is true and
// returns toks unchanged when it is false; SEMI tokens are always kept.
func filterNewlines(toks []lexer.Token, drop bool) []lexer.Token {
	if !drop {
		return toks
	}
	out := make([]lexer.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == lexer.NEWLINE {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(off int) lexer.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, &Error{Pos: p.cur().Pos, Msg: fmt.Sprintf("expected %s, found %q", what, p.cur().Literal)}
	}
	return p.advance(), nil
}

// skipSeparators consumes statement separators (newlines, semicolons).
func (p *Parser) skipSeparators() {
	for p.at(lexer.NEWLINE) || p.at(lexer.SEMI) {
		p.advance()
	}
}

func span(start, end lexer.Pos) ast.Span { return ast.Span{Start: start, End: end} }

func (p *Parser) parseProgram() (*ast.Node, error) {
	start := p.cur().Pos
	prog := ast.NewNode(ast.Program, span(start, start))
	p.skipSeparators()
	for !p.at(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Child = append(prog.Child, stmt)
		p.skipSeparators()
	}
	prog.Span.End = p.cur().Pos
	return prog, nil
}

var blockEnders = map[lexer.Kind]bool{
	lexer.END: true, lexer.ELIF: true, lexer.ELSE: true,
	lexer.CATCH: true, lexer.ENSURE: true, lexer.EOF: true,
}

// parseBlock parses statements until a block-ending keyword (without
// consuming it).
func (p *Parser) parseBlock() (*ast.Node, error) {
	start := p.cur().Pos
	b := ast.NewNode(ast.Block, span(start, start))
	p.skipSeparators()
	for !blockEnders[p.cur().Kind] {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		b.Child = append(b.Child, stmt)
		p.skipSeparators()
	}
	b.Span.End = p.cur().Pos
	return b, nil
}

func (p *Parser) parseStatement() (*ast.Node, error) {
	pub := false
	if p.at(lexer.PUB) {
		pub = true
		p.advance()
	}

	switch p.cur().Kind {
	case lexer.LET, lexer.CONST:
		return p.parseLet(pub)
	case lexer.FUN:
		return p.parseFunDecl(pub)
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.UNTIL:
		return p.parseUntil()
	case lexer.FOR:
		return p.parseFor()
	case lexer.TRY:
		return p.parseTry()
	case lexer.RAISE:
		return p.parseRaise()
	case lexer.WITH:
		return p.parseWith()
	case lexer.MATCH:
		return p.parseMatch()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.BREAK:
		t := p.advance()
		return ast.NewNode(ast.BreakStmt, span(t.Pos, t.Pos)), nil
	case lexer.CONTINUE:
		t := p.advance()
		return ast.NewNode(ast.ContinueStmt, span(t.Pos, t.Pos)), nil
	case lexer.DEL:
		return p.parseDel()
	case lexer.USE:
		return p.parseUse(pub)
	case lexer.TYPE:
		return p.parseTypeDecl(pub)
	case lexer.TRAIT:
		return p.parseTraitDecl(pub)
	case lexer.IMPL:
		return p.parseImplDecl()
	default:
		return p.parseExprOrAssignStatement()
	}
}

func (p *Parser) parseLet(pub bool) (*ast.Node, error) {
	start := p.advance().Pos // let/const
	n := ast.NewNode(ast.LetStmt, span(start, start))
	n.Pub = pub
	for {
		name, err := p.expect(lexer.IDENT, "identifier")
		if err != nil {
			return nil, err
		}
		id := ast.NewNode(ast.Ident, span(name.Pos, name.Pos))
		id.Str = name.Literal
		var val *ast.Node
		if p.at(lexer.ASSIGN) {
			p.advance()
			val, err = p.parseExpr(0)
			if err != nil {
				return nil, err
			}
		}
		pair := ast.NewNode(ast.Param, id.Span)
		pair.Child = []*ast.Node{id, val}
		n.Child = append(n.Child, pair)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	n.Span.End = p.cur().Pos
	return n, nil
}

func (p *Parser) parseParamList() ([]*ast.Node, error) {
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	var params []*ast.Node
	for !p.at(lexer.RPAREN) {
		name, err := p.expect(lexer.IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		param := ast.NewNode(ast.Param, span(name.Pos, name.Pos))
		param.Str = name.Literal
		if p.at(lexer.QUESTION) {
			p.advance()
			param.Optional = true
		}
		if p.at(lexer.COLON) {
			p.advance()
			typeName, err := p.expect(lexer.IDENT, "type name")
			if err != nil {
				return nil, err
			}
			param.Ident = typeName.Literal
		}
		if p.at(lexer.ASSIGN) {
			p.advance()
			def, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			param.Child = []*ast.Node{def}
			param.Optional = true
		}
		params = append(params, param)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseFunDecl(pub bool) (*ast.Node, error) {
	start := p.advance().Pos // fun
	isStatic := false
	n := ast.NewNode(ast.FunDecl, span(start, start))
	n.Pub = pub
	n.IsStatic = isStatic

	var name string
	if p.at(lexer.IDENT) {
		name = p.advance().Literal
	}
	n.Str = name

	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	n.Child = append(params, body)
	n.Span.End = p.toks[p.pos-1].Pos
	return n, nil
}

func (p *Parser) parseIf() (*ast.Node, error) {
	start := p.advance().Pos // if
	n := ast.NewNode(ast.IfExpr, span(start, start))
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n.Child = []*ast.Node{cond, then, nil}
	if p.at(lexer.ELIF) {
		elif, err := p.parseIf2()
		if err != nil {
			return nil, err
		}
		n.Child[2] = elif
		return n, nil
	}
	if p.at(lexer.ELSE) {
		p.advance()
		elseBlk, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		n.Child[2] = elseBlk
		if _, err := p.expect(lexer.END, "end"); err != nil {
			return nil, err
		}
		return n, nil
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseIf2 handles an `elif` arm, recursing the same shape as `if` but
// without consuming its own trailing `end` when it nests further.
func (p *Parser) parseIf2() (*ast.Node, error) {
	start := p.advance().Pos // elif
	n := ast.NewNode(ast.IfExpr, span(start, start))
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n.Child = []*ast.Node{cond, then, nil}
	if p.at(lexer.ELIF) {
		elif, err := p.parseIf2()
		if err != nil {
			return nil, err
		}
		n.Child[2] = elif
		return n, nil
	}
	if p.at(lexer.ELSE) {
		p.advance()
		elseBlk, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		n.Child[2] = elseBlk
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	start := p.advance().Pos
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.WhileStmt, span(start, start))
	n.Child = []*ast.Node{cond, body}
	return n, nil
}

func (p *Parser) parseUntil() (*ast.Node, error) {
	start := p.advance().Pos
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.UntilStmt, span(start, start))
	n.Child = []*ast.Node{cond, body}
	return n, nil
}

func (p *Parser) parseFor() (*ast.Node, error) {
	start := p.advance().Pos
	name, err := p.expect(lexer.IDENT, "loop variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IN, "in"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	iter = reshapeRange(iter)
	if p.at(lexer.STEP) {
		p.advance()
		stepExpr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if iter.Kind == ast.RangeExpr {
			iter.Child = append(iter.Child, stepExpr)
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	id := ast.NewNode(ast.Ident, span(name.Pos, name.Pos))
	id.Str = name.Literal
	n := ast.NewNode(ast.ForStmt, span(start, start))
	n.Child = []*ast.Node{id, iter, body}
	return n, nil
}

// reshapeRange rewrites a top-level ".." BinaryExpr into a RangeExpr so
// the evaluator can special-case range iteration without re-inspecting
// operator strings.
func reshapeRange(n *ast.Node) *ast.Node {
	if n.Kind == ast.BinaryExpr && n.Str == ".." {
		r := ast.NewNode(ast.RangeExpr, n.Span)
		r.Child = []*ast.Node{n.Child[0], n.Child[1]}
		return r
	}
	return n
}

func (p *Parser) parseTry() (*ast.Node, error) {
	start := p.advance().Pos
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.TryStmt, span(start, start))
	n.Child = append(n.Child, body)

	for p.at(lexer.CATCH) {
		catchStart := p.advance().Pos
		c := ast.NewNode(ast.CatchClause, span(catchStart, catchStart))
		if p.at(lexer.IDENT) {
			name := p.advance()
			c.Str = name.Literal
			if p.at(lexer.COLON) {
				p.advance()
				typ, err := p.expect(lexer.IDENT, "exception type")
				if err != nil {
					return nil, err
				}
				c.Ident = typ.Literal
			}
		}
		cbody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		c.Child = []*ast.Node{cbody}
		n.Child = append(n.Child, c)
	}

	var ensure *ast.Node
	if p.at(lexer.ENSURE) {
		p.advance()
		eb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		ensure = eb
	}
	n.Child = append(n.Child, ensure)

	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseRaise() (*ast.Node, error) {
	start := p.advance().Pos
	n := ast.NewNode(ast.RaiseStmt, span(start, start))
	if p.at(lexer.NEWLINE) || p.at(lexer.SEMI) || blockEnders[p.cur().Kind] {
		return n, nil // bare re-raise
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	n.Child = append(n.Child, expr)
	if p.at(lexer.FROM) {
		p.advance()
		cause, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.Child = append(n.Child, cause)
	}
	return n, nil
}

func (p *Parser) parseWith() (*ast.Node, error) {
	start := p.advance().Pos
	obj, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.AS, "as"); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT, "binding name")
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.WithStmt, span(start, start))
	n.Str = name.Literal
	n.Child = []*ast.Node{obj, body}
	return n, nil
}

func (p *Parser) parseMatch() (*ast.Node, error) {
	start := p.advance().Pos
	subject, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.MatchExpr, span(start, start))
	n.Child = append(n.Child, subject)
	p.skipSeparators()
	for !p.at(lexer.END) {
		if p.at(lexer.ELSE) {
			p.advance()
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			arm := ast.NewNode(ast.MatchArm, body.Span)
			arm.Child = []*ast.Node{nil, body}
			n.Child = append(n.Child, arm)
			p.skipSeparators()
			continue
		}
		pat, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		arm := ast.NewNode(ast.MatchArm, pat.Span)
		arm.Child = []*ast.Node{pat, body}
		n.Child = append(n.Child, arm)
		p.skipSeparators()
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseReturn() (*ast.Node, error) {
	start := p.advance().Pos
	n := ast.NewNode(ast.ReturnStmt, span(start, start))
	if p.at(lexer.NEWLINE) || p.at(lexer.SEMI) || blockEnders[p.cur().Kind] {
		return n, nil
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	n.Child = append(n.Child, expr)
	return n, nil
}

func (p *Parser) parseDel() (*ast.Node, error) {
	start := p.advance().Pos
	target, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.DelStmt, span(start, start))
	n.Child = []*ast.Node{target}
	return n, nil
}

func (p *Parser) parseUse(pub bool) (*ast.Node, error) {
	start := p.advance().Pos
	pathTok, err := p.expect(lexer.STRING, "module path string")
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.UseStmt, span(start, start))
	n.Pub = pub
	n.Str = pathTok.Literal
	if p.at(lexer.AS) {
		p.advance()
		alias, err := p.expect(lexer.IDENT, "alias")
		if err != nil {
			return nil, err
		}
		n.Ident = alias.Literal
	}
	return n, nil
}

func (p *Parser) parseTypeDecl(pub bool) (*ast.Node, error) {
	start := p.advance().Pos
	name, err := p.expect(lexer.IDENT, "type name")
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.TypeDecl, span(start, start))
	n.Str = name.Literal
	n.Pub = pub
	p.skipSeparators()
	for !p.at(lexer.END) {
		if p.at(lexer.STATIC) || p.at(lexer.FUN) {
			isStatic := false
			if p.at(lexer.STATIC) {
				isStatic = true
				p.advance()
			}
			fn, err := p.parseFunDecl(false)
			if err != nil {
				return nil, err
			}
			fn.IsStatic = isStatic
			n.Child = append(n.Child, fn)
			p.skipSeparators()
			continue
		}
		field, err := p.parseFieldDecl()
		if err != nil {
			return nil, err
		}
		n.Child = append(n.Child, field)
		p.skipSeparators()
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseFieldDecl() (*ast.Node, error) {
	// typed_field: name  |  name?: type = default  |  bare `name`
	first, err := p.expect(lexer.IDENT, "field declaration")
	if err != nil {
		return nil, err
	}
	f := ast.NewNode(ast.FieldDecl, span(first.Pos, first.Pos))
	if p.at(lexer.QUESTION) {
		p.advance()
		f.Optional = true
	}
	if p.at(lexer.COLON) {
		p.advance()
		name, err := p.expect(lexer.IDENT, "field name")
		if err != nil {
			return nil, err
		}
		f.Ident = first.Literal // declared type
		f.Str = name.Literal    // field name
	} else {
		f.Str = first.Literal
	}
	if p.at(lexer.ASSIGN) {
		p.advance()
		def, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		f.Child = []*ast.Node{def}
		f.Optional = true
	}
	return f, nil
}

func (p *Parser) parseTraitDecl(pub bool) (*ast.Node, error) {
	start := p.advance().Pos
	name, err := p.expect(lexer.IDENT, "trait name")
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.TraitDecl, span(start, start))
	n.Str = name.Literal
	n.Pub = pub
	p.skipSeparators()
	for !p.at(lexer.END) {
		if _, err := p.expect(lexer.FUN, "fun"); err != nil {
			return nil, err
		}
		mname, err := p.expect(lexer.IDENT, "method name")
		if err != nil {
			return nil, err
		}
		params, err := p.parseParamList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.END, "end"); err != nil {
			return nil, err
		}
		sig := ast.NewNode(ast.MethodSig, span(mname.Pos, mname.Pos))
		sig.Str = mname.Literal
		sig.Child = params
		n.Child = append(n.Child, sig)
		p.skipSeparators()
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseImplDecl() (*ast.Node, error) {
	start := p.advance().Pos
	traitName, err := p.expect(lexer.IDENT, "trait name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.FOR, "for"); err != nil {
		return nil, err
	}
	typeName, err := p.expect(lexer.IDENT, "type name")
	if err != nil {
		return nil, err
	}
	n := ast.NewNode(ast.ImplDecl, span(start, start))
	n.Str = traitName.Literal
	n.Ident = typeName.Literal
	p.skipSeparators()
	for !p.at(lexer.END) {
		fn, err := p.parseFunDecl(false)
		if err != nil {
			return nil, err
		}
		n.Child = append(n.Child, fn)
		p.skipSeparators()
	}
	if _, err := p.expect(lexer.END, "end"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseExprOrAssignStatement handles `expr`, `expr = expr`,
// `expr += expr`, and multi-target `a, b = expr` patterns.
func (p *Parser) parseExprOrAssignStatement() (*ast.Node, error) {
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case lexer.ASSIGN:
		op := p.advance()
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.AssignExpr, span(op.Pos, op.Pos))
		n.Child = []*ast.Node{expr, rhs}
		return p.wrapExprStmt(n), nil
	case lexer.PLUSEQ, lexer.MINUSEQ, lexer.STAREQ, lexer.SLASHEQ:
		op := p.advance()
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.CompoundAssignExpr, span(op.Pos, op.Pos))
		n.Str = op.Literal
		n.Child = []*ast.Node{expr, rhs}
		return p.wrapExprStmt(n), nil
	default:
		return p.wrapExprStmt(expr), nil
	}
}

func (p *Parser) wrapExprStmt(e *ast.Node) *ast.Node {
	n := ast.NewNode(ast.ExprStmt, e.Span)
	n.Child = []*ast.Node{e}
	return n
}

// --- expression parsing (precedence climbing) ---

type prec int

const (
	precOr prec = iota
	precAnd
	precBitOr
	precBitAnd
	precCompare
	precConcat
	precAdd
	precMul
)

var binPrec = map[lexer.Kind]prec{
	lexer.OR:      precOr,
	lexer.AND:     precAnd,
	lexer.BITOR:   precBitOr,
	lexer.BITAND:  precBitAnd,
	lexer.EQ:      precCompare,
	lexer.NEQ:     precCompare,
	lexer.LT:      precCompare,
	lexer.GT:      precCompare,
	lexer.LE:      precCompare,
	lexer.GE:      precCompare,
	lexer.CONCAT:  precConcat,
	lexer.PLUS:    precAdd,
	lexer.MINUS:   precAdd,
	lexer.STAR:    precMul,
	lexer.SLASH:   precMul,
	lexer.PERCENT: precMul,
}

func (p *Parser) parseExpr(min prec) (*ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		opKind := p.cur().Kind
		pr, ok := binPrec[opKind]
		if !ok || pr < min {
			return left, nil
		}
		op := p.advance()
		right, err := p.parseExpr(pr + 1)
		if err != nil {
			return nil, err
		}
		var n *ast.Node
		if opKind == lexer.AND || opKind == lexer.OR {
			n = ast.NewNode(ast.LogicalExpr, span(op.Pos, op.Pos))
		} else {
			n = ast.NewNode(ast.BinaryExpr, span(op.Pos, op.Pos))
		}
		n.Str = op.Literal
		n.Child = []*ast.Node{left, right}
		left = n
	}
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	switch p.cur().Kind {
	case lexer.BANG, lexer.NOT, lexer.MINUS, lexer.PLUS:
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.UnaryExpr, span(op.Pos, op.Pos))
		n.Str = op.Literal
		n.Child = []*ast.Node{operand}
		return n, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (*ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case lexer.DOT:
			p.advance()
			name, err := p.expect(lexer.IDENT, "member name")
			if err != nil {
				return nil, err
			}
			if p.at(lexer.LPAREN) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				n := ast.NewNode(ast.CallExpr, span(name.Pos, name.Pos))
				member := ast.NewNode(ast.MemberExpr, span(name.Pos, name.Pos))
				member.Ident = name.Literal
				member.Child = []*ast.Node{expr}
				n.Child = append([]*ast.Node{member}, args...)
				expr = n
			} else {
				n := ast.NewNode(ast.MethodRefExpr, span(name.Pos, name.Pos))
				n.Ident = name.Literal
				n.Child = []*ast.Node{expr}
				expr = n
			}
		case lexer.LBRACKET:
			p.advance()
			idx, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
				return nil, err
			}
			n := ast.NewNode(ast.IndexExpr, idx.Span)
			n.Child = []*ast.Node{expr, idx}
			expr = n
		case lexer.LPAREN:
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			n := ast.NewNode(ast.CallExpr, expr.Span)
			n.Child = append([]*ast.Node{expr}, args...)
			expr = n
		default:
			return expr, nil
		}
	}
}

// parseArgs parses a `(arg, arg, name: arg, ...)` call argument list.
// Named arguments are encoded as Param nodes (Str=name, Child=[value]).
func (p *Parser) parseArgs() ([]*ast.Node, error) {
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	var args []*ast.Node
	for !p.at(lexer.RPAREN) {
		if p.at(lexer.IDENT) && p.peekAt(1).Kind == lexer.COLON {
			name := p.advance()
			p.advance() // colon
			val, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			named := ast.NewNode(ast.Param, val.Span)
			named.Str = name.Literal
			named.Child = []*ast.Node{val}
			args = append(args, named)
		} else {
			val, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, val)
		}
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.INT:
		p.advance()
		n := ast.NewNode(ast.IntLit, span(t.Pos, t.Pos))
		n.Str = t.Literal
		return n, nil
	case lexer.FLOAT:
		p.advance()
		n := ast.NewNode(ast.FloatLit, span(t.Pos, t.Pos))
		n.Str = t.Literal
		return n, nil
	case lexer.BIGINT:
		p.advance()
		n := ast.NewNode(ast.BigIntLit, span(t.Pos, t.Pos))
		n.Str = t.Literal
		return n, nil
	case lexer.DECIMAL:
		p.advance()
		n := ast.NewNode(ast.DecimalLit, span(t.Pos, t.Pos))
		n.Str = t.Literal
		return n, nil
	case lexer.STRING:
		p.advance()
		n := ast.NewNode(ast.StringLit, span(t.Pos, t.Pos))
		n.Str = t.Literal
		return n, nil
	case lexer.BYTES:
		p.advance()
		n := ast.NewNode(ast.BytesLit, span(t.Pos, t.Pos))
		n.Str = t.Literal
		return n, nil
	case lexer.FSTRING:
		p.advance()
		return parseFString(t)
	case lexer.TRUE, lexer.FALSE:
		p.advance()
		n := ast.NewNode(ast.BoolLit, span(t.Pos, t.Pos))
		n.Str = t.Literal
		return n, nil
	case lexer.NIL:
		p.advance()
		return ast.NewNode(ast.NilLit, span(t.Pos, t.Pos)), nil
	case lexer.SELF:
		p.advance()
		n := ast.NewNode(ast.Ident, span(t.Pos, t.Pos))
		n.Str = "self"
		return n, nil
	case lexer.IDENT:
		p.advance()
		n := ast.NewNode(ast.Ident, span(t.Pos, t.Pos))
		n.Str = t.Literal
		return n, nil
	case lexer.LPAREN:
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		return e, nil
	case lexer.LBRACKET:
		return p.parseArrayLit()
	case lexer.LBRACE:
		return p.parseDictOrSetLit()
	case lexer.IF:
		return p.parseIf()
	case lexer.MATCH:
		return p.parseMatch()
	default:
		return nil, &Error{Pos: t.Pos, Msg: fmt.Sprintf("unexpected token %q", t.Literal)}
	}
}

func (p *Parser) parseArrayLit() (*ast.Node, error) {
	start := p.advance().Pos // [
	n := ast.NewNode(ast.ArrayLit, span(start, start))
	for !p.at(lexer.RBRACKET) {
		el, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.Child = append(n.Child, el)
		if p.at(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseDictOrSetLit() (*ast.Node, error) {
	start := p.advance().Pos // {
	if p.at(lexer.RBRACE) {
		p.advance()
		return ast.NewNode(ast.DictLit, span(start, start)), nil
	}
	first, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.at(lexer.COLON) {
		p.advance()
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n := ast.NewNode(ast.DictLit, span(start, start))
		pair := ast.NewNode(ast.Param, val.Span)
		pair.Child = []*ast.Node{first, val}
		n.Child = append(n.Child, pair)
		for p.at(lexer.COMMA) {
			p.advance()
			if p.at(lexer.RBRACE) {
				break
			}
			k, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.COLON, ":"); err != nil {
				return nil, err
			}
			v, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			kv := ast.NewNode(ast.Param, v.Span)
			kv.Child = []*ast.Node{k, v}
			n.Child = append(n.Child, kv)
		}
		if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
			return nil, err
		}
		return n, nil
	}
	// set literal
	n := ast.NewNode(ast.SetLit, span(start, start))
	n.Child = append(n.Child, first)
	for p.at(lexer.COMMA) {
		p.advance()
		if p.at(lexer.RBRACE) {
			break
		}
		el, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.Child = append(n.Child, el)
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseFString splits an f-string's raw literal into alternating
// FStringSeg text segments and sub-parsed expressions, per §4.1:
// "{{" / "}}" escape to literal braces, "{expr}" is a nested expression.
func parseFString(t lexer.Token) (*ast.Node, error) {
	n := ast.NewNode(ast.FStringLit, span(t.Pos, t.Pos))
	raw := []rune(t.Literal)
	var seg []rune
	flushSeg := func() {
		s := ast.NewNode(ast.FStringSeg, n.Span)
		s.Str = string(seg)
		n.Child = append(n.Child, s)
		seg = nil
	}
	i := 0
	for i < len(raw) {
		switch {
		case raw[i] == '{' && i+1 < len(raw) && raw[i+1] == '{':
			seg = append(seg, '{')
			i += 2
		case raw[i] == '}' && i+1 < len(raw) && raw[i+1] == '}':
			seg = append(seg, '}')
			i += 2
		case raw[i] == '{':
			flushSeg()
			depth := 1
			j := i + 1
			for j < len(raw) && depth > 0 {
				if raw[j] == '{' {
					depth++
				} else if raw[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			if j >= len(raw) {
				return nil, &Error{Pos: t.Pos, Msg: "unterminated f-string expression"}
			}
			exprSrc := string(raw[i+1 : j])
			exprNode, err := Parse(exprSrc)
			if err != nil {
				return nil, err
			}
			if len(exprNode.Child) != 1 || exprNode.Child[0].Kind != ast.ExprStmt {
				return nil, &Error{Pos: t.Pos, Msg: "f-string segment must be a single expression"}
			}
			n.Child = append(n.Child, exprNode.Child[0].Child[0])
			i = j + 1
		default:
			seg = append(seg, raw[i])
			i++
		}
	}
	flushSeg()
	return n, nil
}
