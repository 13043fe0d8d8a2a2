// Package ast defines the Quest parse tree produced by internal/parser
// and walked by the interp package's evaluator.
package ast

import "github.com/quest-lang/quest/internal/lexer"

// Span is the source range a Node was parsed from.
type Span struct {
	Start, End lexer.Pos
}

// Kind discriminates Node variants.
type Kind int

const (
	Program Kind = iota
	IntLit
	FloatLit
	BigIntLit
	DecimalLit
	StringLit
	BytesLit
	FStringLit // child nodes alternate Literal-segment / expr
	FStringSeg // a literal text segment inside an FStringLit
	BoolLit
	NilLit
	Ident
	ArrayLit
	DictLit
	SetLit
	BinaryExpr
	UnaryExpr
	LogicalExpr // and/or, short-circuit
	CallExpr
	MemberExpr
	MethodRefExpr // receiver.method with no call parens
	IndexExpr
	AssignExpr
	CompoundAssignExpr
	LetStmt
	IfExpr
	WhileStmt
	UntilStmt
	ForStmt
	RangeExpr // a..b or a..b step n
	MatchExpr
	MatchArm
	TryStmt
	CatchClause
	RaiseStmt
	WithStmt
	FunDecl
	Param
	ReturnStmt
	BreakStmt
	ContinueStmt
	DelStmt
	UseStmt
	TypeDecl
	FieldDecl
	TraitDecl
	MethodSig
	ImplDecl
	Block
	ExprStmt
)

// Node is a single parse-tree node. The shape is intentionally loose
// (an attribute bag plus a child slice) rather than one Go type per
// grammar production, mirroring the teacher's single generic `node`
// type with kind-specific fields.
type Node struct {
	Kind     Kind
	Span     Span
	Str      string  // literal text, identifier name, operator
	Ident    string  // secondary identifier (alias, field name, method name)
	Child    []*Node // children, meaning depends on Kind
	Optional bool    // field/param is optional (trailing '?')
	Pub      bool    // top-level decl marked `pub`
	IsStatic bool    // method decl marked `static`
}

// NewNode allocates a Node of the given kind at span.
func NewNode(k Kind, span Span) *Node {
	return &Node{Kind: k, Span: span}
}

// Walk performs a depth-first traversal of n, invoking in on entry and
// out on exit. in may return false to skip n's children.
func (n *Node) Walk(in func(*Node) bool, out func(*Node)) {
	if n == nil {
		return
	}
	if in != nil && !in(n) {
		return
	}
	for _, c := range n.Child {
		c.Walk(in, out)
	}
	if out != nil {
		out(n)
	}
}
