package syntax

// ----------------------------------------------------------------------------
// Interfaces
//
// The node set is closed: every node embeds one of the unexported base
// structs below, so only this package can add variants, and consumers
// (code generator, printers) switch over the concrete types exhaustively.

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Pos // position of the first token of the node
	aNode()
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	aExpr()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	aStmt()
}

// ----------------------------------------------------------------------------
// Base node types

type node struct {
	pos Pos
}

func (n *node) Pos() Pos { return n.pos }
func (n *node) aNode()   {}

type expr struct{ node }

func (*expr) aExpr() {}

type stmt struct{ node }

func (*stmt) aStmt() {}

// ----------------------------------------------------------------------------
// Program

// File is a parsed program: its top-level statements in source order and
// the symbol table built while parsing them.
type File struct {
	node
	Stmts  []Stmt
	Locals *Locals
}

// ----------------------------------------------------------------------------
// Expressions

// BinaryOp is the operator of a BinaryExpr. Greater-than comparisons are
// rewritten by the parser and have no BinaryOp.
type BinaryOp uint8

const (
	Add    BinaryOp = iota // +
	Sub                    // -
	Mul                    // *
	Div                    // /
	Eql                    // ==
	Neq                    // !=
	Lss                    // <
	Leq                    // <=
	Assign                 // =
)

var binaryOpNames = [...]string{
	Add:    "+",
	Sub:    "-",
	Mul:    "*",
	Div:    "/",
	Eql:    "==",
	Neq:    "!=",
	Lss:    "<",
	Leq:    "<=",
	Assign: "=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// BinaryExpr represents X Op Y. For Assign, X is always a *LocalVar.
type BinaryExpr struct {
	expr
	Op BinaryOp
	X  Expr
	Y  Expr
}

// NumberLit represents an integer literal.
type NumberLit struct {
	expr
	Value int32

	// Implicit marks the placeholder the parser inserts for a missing
	// else branch; it never appears in source.
	Implicit bool
}

// LocalVar is a resolved reference to a local variable. The variable lives
// at rbp-Offset.
type LocalVar struct {
	expr
	Name   string
	Offset int32
}

// ----------------------------------------------------------------------------
// Statements

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	stmt
	X Expr
}

// ReturnStmt represents: return Result;
type ReturnStmt struct {
	stmt
	Result Expr
}

// BlockStmt represents: { Stmts }
type BlockStmt struct {
	stmt
	Stmts  []Stmt
	Rbrace Pos
}

// IfStmt represents: if (Cond) Then else Else.
// Else is never nil: a missing else branch is an implicit *NumberLit 0
// wrapped in an ExprStmt.
type IfStmt struct {
	stmt
	Cond Expr
	Then Stmt
	Else Stmt
}

// HasElse reports whether the else branch came from source.
func (s *IfStmt) HasElse() bool {
	return !IsImplicit(s.Else)
}

// WhileStmt represents: while (Cond) Body
type WhileStmt struct {
	stmt
	Cond Expr
	Body Stmt
}

// ForStmt represents: for (Init; Cond; Post) Body
// Init, Cond and Post are nil when omitted.
type ForStmt struct {
	stmt
	Init Expr
	Cond Expr
	Post Expr
	Body Stmt
}

// IsImplicit reports whether s is the placeholder for a missing else.
func IsImplicit(s Stmt) bool {
	es, ok := s.(*ExprStmt)
	if !ok {
		return false
	}
	lit, ok := es.X.(*NumberLit)
	return ok && lit.Implicit
}
