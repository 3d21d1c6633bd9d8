package codegen

import (
	"fmt"
	"strconv"

	"github.com/you-not-fish/stackc/internal/syntax"
)

// Generator emits stack-machine code for syntax trees. Every expression
// and statement leaves exactly one 8-byte value on the machine stack; the
// caller discards it.
//
// A Generator owns the label counter, so all code that ends up in one
// assembly file must come from the same Generator.
type Generator struct {
	labels int // last label id handed out
	depth  int // values on the evaluation stack, counted statically
	code   []Instr
}

// NewGenerator returns a Generator whose first label id is 1.
func NewGenerator() *Generator {
	return &Generator{}
}

// Gen returns the code for node. For a *syntax.File, each top-level
// statement is followed by a pop that discards its value.
func (g *Generator) Gen(node syntax.Node) []Instr {
	g.code = nil
	switch n := node.(type) {
	case *syntax.File:
		for _, s := range n.Stmts {
			g.stmt(s)
			g.pop("rax")
		}
	case syntax.Stmt:
		g.stmt(n)
	case syntax.Expr:
		g.expr(n)
	default:
		panic(fmt.Sprintf("codegen: unexpected node %T", node))
	}
	return g.code
}

// Depth returns the static evaluation-stack depth after the code
// generated so far.
func (g *Generator) Depth() int {
	return g.depth
}

// LabelCount returns how many label ids have been handed out.
func (g *Generator) LabelCount() int {
	return g.labels
}

// ----------------------------------------------------------------------------
// Emission helpers

func (g *Generator) emit(op string, args ...string) {
	g.code = append(g.code, Instr{Op: op, Args: args})
}

func (g *Generator) label(name string) {
	g.code = append(g.code, Instr{Label: name})
}

func (g *Generator) push(arg string) {
	g.emit("push", arg)
	g.depth++
}

func (g *Generator) pop(reg string) {
	g.emit("pop", reg)
	g.depth--
}

// count hands out the next label id.
func (g *Generator) count() int {
	g.labels++
	return g.labels
}

func labelName(kind string, id int) string {
	return fmt.Sprintf(".L%s.%d", kind, id)
}

// testCond evaluates cond and jumps to target when it is zero.
func (g *Generator) testCond(cond syntax.Expr, target string) {
	g.expr(cond)
	g.pop("rax")
	g.emit("cmp", "rax", "0")
	g.emit("je", target)
}

// ----------------------------------------------------------------------------
// Statements

func (g *Generator) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.ExprStmt:
		g.expr(s.X)

	case *syntax.ReturnStmt:
		g.expr(s.Result)
		g.pop("rax")
		g.emit("mov", "rsp", "rbp")
		g.emit("pop", "rbp")
		g.emit("ret")
		// Control never reaches past ret; keep the count as if the
		// statement had left its value.
		g.depth++

	case *syntax.BlockStmt:
		if len(s.Stmts) == 0 {
			g.push("0")
			return
		}
		for i, st := range s.Stmts {
			if i > 0 {
				g.pop("rax")
			}
			g.stmt(st)
		}

	case *syntax.IfStmt:
		c := g.count()
		elseLabel, endLabel := labelName("else", c), labelName("end", c)
		g.testCond(s.Cond, elseLabel)
		g.stmt(s.Then)
		g.emit("jmp", endLabel)
		g.depth--
		g.label(elseLabel)
		g.stmt(s.Else)
		g.label(endLabel)

	case *syntax.WhileStmt:
		c := g.count()
		begin, end := labelName("begin", c), labelName("end", c)
		g.label(begin)
		g.testCond(s.Cond, end)
		g.stmt(s.Body)
		g.pop("rax")
		g.emit("jmp", begin)
		g.label(end)
		g.push("0")

	case *syntax.ForStmt:
		c := g.count()
		begin, end := labelName("begin", c), labelName("end", c)
		if s.Init != nil {
			g.expr(s.Init)
			g.pop("rax")
		}
		g.label(begin)
		if s.Cond != nil {
			g.testCond(s.Cond, end)
		}
		g.stmt(s.Body)
		g.pop("rax")
		if s.Post != nil {
			g.expr(s.Post)
			g.pop("rax")
		}
		g.emit("jmp", begin)
		g.label(end)
		g.push("0")

	default:
		panic(fmt.Sprintf("codegen: unexpected statement %T", s))
	}
}

// ----------------------------------------------------------------------------
// Expressions

// addr pushes the address of a local variable.
func (g *Generator) addr(v *syntax.LocalVar) {
	g.emit("mov", "rax", "rbp")
	g.emit("sub", "rax", strconv.Itoa(int(v.Offset)))
	g.push("rax")
}

func (g *Generator) expr(e syntax.Expr) {
	switch e := e.(type) {
	case *syntax.NumberLit:
		g.push(strconv.Itoa(int(e.Value)))

	case *syntax.LocalVar:
		g.addr(e)
		g.pop("rax")
		g.emit("mov", "rax", "[rax]")
		g.push("rax")

	case *syntax.BinaryExpr:
		if e.Op == syntax.Assign {
			g.addr(e.X.(*syntax.LocalVar))
			g.expr(e.Y)
			g.pop("rdi")
			g.pop("rax")
			g.emit("movsxd", "rdi", "edi") // variables hold int32
			g.emit("mov", "[rax]", "rdi")
			g.push("rdi")
			return
		}

		g.expr(e.X)
		g.expr(e.Y)
		g.pop("rdi")
		g.pop("rax")
		g.binary(e.Op)
		g.push("rax")

	default:
		panic(fmt.Sprintf("codegen: unexpected expression %T", e))
	}
}

// binary computes rax = rax op rdi.
func (g *Generator) binary(op syntax.BinaryOp) {
	switch op {
	case syntax.Add:
		g.emit("add", "rax", "rdi")
	case syntax.Sub:
		g.emit("sub", "rax", "rdi")
	case syntax.Mul:
		g.emit("imul", "rax", "rdi")
	case syntax.Div:
		g.emit("cqo")
		g.emit("idiv", "rdi")
	case syntax.Eql:
		g.compare("sete")
	case syntax.Neq:
		g.compare("setne")
	case syntax.Lss:
		g.compare("setl")
	case syntax.Leq:
		g.compare("setle")
	default:
		panic(fmt.Sprintf("codegen: unexpected operator %s", op))
	}
}

func (g *Generator) compare(setcc string) {
	g.emit("cmp", "rax", "rdi")
	g.emit(setcc, "al")
	g.emit("movzb", "rax", "al")
}
