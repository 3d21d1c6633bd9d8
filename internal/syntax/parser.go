package syntax

import "fmt"

// Parser is a recursive-descent parser over a scanned token slice.
//
// The grammar, from lowest to highest precedence:
//
//	program    = stmt*
//	stmt       = expr ";"
//	           | "{" stmt* "}"
//	           | "return" expr ";"
//	           | "if" "(" expr ")" stmt ("else" stmt)?
//	           | "while" "(" expr ")" stmt
//	           | "for" "(" expr? ";" expr? ";" expr? ")" stmt
//	expr       = assign
//	assign     = equality ("=" assign)?
//	equality   = relational (("==" | "!=") relational)*
//	relational = add (("<" | "<=" | ">" | ">=") add)*
//	add        = mul (("+" | "-") mul)*
//	mul        = unary (("*" | "/") unary)*
//	unary      = ("+" | "-")? primary
//	primary    = number | identifier | "(" expr ")"
type Parser struct {
	toks []TokenInfo
	cur  int // index of the current token in toks

	// Current token info (cached from toks[cur])
	tok Token
	lit string
	val int32
	pos Pos

	locals *Locals // symbol table; identifiers are resolved while parsing

	// Open delimiters, innermost last. Used to tell a stray closer from
	// one that belongs to an enclosing construct.
	open []Token

	first *ParseError // first error; parsing stops there
}

// Parse scans and parses src. filename is used in positions and may be
// empty. The first lexical or syntax error aborts and is returned as a
// *LexError or *ParseError.
func Parse(filename, src string) (*File, error) {
	toks, err := Tokenize(filename, src)
	if err != nil {
		return nil, err
	}
	return NewParser(toks, NewLocals()).Parse()
}

// NewParser creates a parser reading toks and allocating variables in
// locals. An _EOF token is appended if toks does not end with one.
func NewParser(toks []TokenInfo, locals *Locals) *Parser {
	if n := len(toks); n == 0 || toks[n-1].Tok != _EOF {
		var eof TokenInfo
		if n > 0 {
			eof.Pos = toks[n-1].Pos
		}
		toks = append(toks[:n:n], eof)
	}
	p := &Parser{
		toks:   toks,
		cur:    -1,
		locals: locals,
	}
	p.next()
	return p
}

// ----------------------------------------------------------------------------
// Token navigation

// next advances to the next token. It stays on the final _EOF.
func (p *Parser) next() {
	if p.cur < len(p.toks)-1 {
		p.cur++
	}
	t := p.toks[p.cur]
	p.tok, p.lit, p.val, p.pos = t.Tok, t.Lit, t.Val, t.Pos
}

// got consumes the current token if it is tok.
func (p *Parser) got(tok Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

// want consumes tok or reports an error.
func (p *Parser) want(tok Token) {
	if !p.got(tok) {
		p.unexpected(tok.String())
	}
}

// openDelim consumes the opening delimiter tok and returns its position
// for the matching closeDelim call.
func (p *Parser) openDelim(tok Token) Pos {
	pos := p.pos
	p.want(tok)
	p.open = append(p.open, tok)
	return pos
}

// closeDelim consumes the closer of the delimiter opened at pos.
func (p *Parser) closeDelim(open Token, pos Pos) {
	if n := len(p.open); n > 0 {
		p.open = p.open[:n-1]
	}
	closer := open.closer()
	if p.got(closer) {
		return
	}
	p.errorAt(pos, UnmatchedDelimiter,
		fmt.Sprintf("unmatched %s: expected %s at %s, found %s", open, closer, p.pos, p.describe()))
}

// ----------------------------------------------------------------------------
// Error handling

// errorAt records the first error and moves to _EOF so that every
// production unwinds without consuming further input.
func (p *Parser) errorAt(pos Pos, kind ErrorKind, msg string) {
	if p.first != nil {
		return
	}
	p.first = &ParseError{Pos: pos, Kind: kind, Msg: msg}
	p.cur = len(p.toks) - 1
	t := p.toks[p.cur]
	p.tok, p.lit, p.val, p.pos = t.Tok, t.Lit, t.Val, t.Pos
}

// unexpected reports that what was expected at the current token.
func (p *Parser) unexpected(what string) {
	if p.tok == _EOF {
		p.errorAt(p.pos, UnexpectedEndOfInput, "expected "+what+", found EOF")
		return
	}
	p.errorAt(p.pos, UnexpectedToken, "expected "+what+", found "+p.describe())
}

// describe renders the current token for error messages.
func (p *Parser) describe() string {
	switch p.tok {
	case _EOF:
		return "EOF"
	case _Name, _Number:
		return fmt.Sprintf("%s %s", p.tok, p.lit)
	}
	return fmt.Sprintf("'%s'", p.tok)
}

// Err returns the first syntax error, or nil.
func (p *Parser) Err() error {
	if p.first == nil {
		return nil
	}
	return p.first
}

// ----------------------------------------------------------------------------
// Parsing entry point

// Parse parses the whole token stream.
func (p *Parser) Parse() (*File, error) {
	f := &File{Locals: p.locals}
	f.pos = p.pos

	for p.tok != _EOF {
		f.Stmts = append(f.Stmts, p.stmt())
	}

	if p.first != nil {
		return nil, p.first
	}
	return f, nil
}

// ----------------------------------------------------------------------------
// Statements

func (p *Parser) stmt() Stmt {
	switch p.tok {
	case _Lbrace:
		return p.blockStmt()
	case _Return:
		return p.returnStmt()
	case _If:
		return p.ifStmt()
	case _While:
		return p.whileStmt()
	case _For:
		return p.forStmt()
	}

	s := &ExprStmt{}
	s.pos = p.pos
	s.X = p.expr()
	p.want(_Semi)
	return s
}

// blockStmt parses { stmt* }
func (p *Parser) blockStmt() *BlockStmt {
	b := &BlockStmt{}
	b.pos = p.pos

	lbrace := p.openDelim(_Lbrace)
	for p.tok != _Rbrace && p.tok != _EOF {
		b.Stmts = append(b.Stmts, p.stmt())
	}
	b.Rbrace = p.pos
	p.closeDelim(_Lbrace, lbrace)

	return b
}

// returnStmt parses return expr ;
func (p *Parser) returnStmt() *ReturnStmt {
	s := &ReturnStmt{}
	s.pos = p.pos

	p.want(_Return)
	s.Result = p.expr()
	p.want(_Semi)

	return s
}

// ifStmt parses if ( expr ) stmt [else stmt]
func (p *Parser) ifStmt() *IfStmt {
	s := &IfStmt{}
	s.pos = p.pos

	p.want(_If)
	lparen := p.openDelim(_Lparen)
	s.Cond = p.expr()
	p.closeDelim(_Lparen, lparen)
	s.Then = p.stmt()

	if p.got(_Else) {
		s.Else = p.stmt()
	} else {
		s.Else = implicitElse(p.pos)
	}

	return s
}

// implicitElse builds the placeholder for a missing else branch.
func implicitElse(pos Pos) Stmt {
	lit := &NumberLit{Implicit: true}
	lit.pos = pos
	s := &ExprStmt{X: lit}
	s.pos = pos
	return s
}

// whileStmt parses while ( expr ) stmt
func (p *Parser) whileStmt() *WhileStmt {
	s := &WhileStmt{}
	s.pos = p.pos

	p.want(_While)
	lparen := p.openDelim(_Lparen)
	s.Cond = p.expr()
	p.closeDelim(_Lparen, lparen)
	s.Body = p.stmt()

	return s
}

// forStmt parses for ( [expr] ; [expr] ; [expr] ) stmt
func (p *Parser) forStmt() *ForStmt {
	s := &ForStmt{}
	s.pos = p.pos

	p.want(_For)
	lparen := p.openDelim(_Lparen)
	if p.tok != _Semi {
		s.Init = p.expr()
	}
	p.want(_Semi)
	if p.tok != _Semi {
		s.Cond = p.expr()
	}
	p.want(_Semi)
	if p.tok != _Rparen {
		s.Post = p.expr()
	}
	p.closeDelim(_Lparen, lparen)
	s.Body = p.stmt()

	return s
}

// ----------------------------------------------------------------------------
// Expressions

func (p *Parser) expr() Expr {
	return p.assign()
}

func binary(op BinaryOp, x, y Expr, pos Pos) *BinaryExpr {
	b := &BinaryExpr{Op: op, X: x, Y: y}
	b.pos = pos
	return b
}

// assign is right-associative: a = b = c is a = (b = c).
func (p *Parser) assign() Expr {
	x := p.equality()
	if p.tok != _Assign {
		return x
	}

	if _, ok := x.(*LocalVar); !ok {
		p.errorAt(p.pos, UnexpectedToken, "expression is not assignable")
		return x
	}
	p.next()
	return binary(Assign, x, p.assign(), x.Pos())
}

func (p *Parser) equality() Expr {
	x := p.relational()
	for {
		switch p.tok {
		case _Eql:
			p.next()
			x = binary(Eql, x, p.relational(), x.Pos())
		case _Neq:
			p.next()
			x = binary(Neq, x, p.relational(), x.Pos())
		default:
			return x
		}
	}
}

// relational lowers a > b to b < a and a >= b to b <= a so that only
// two comparison operators reach the code generator.
func (p *Parser) relational() Expr {
	x := p.add()
	for {
		switch p.tok {
		case _Lss:
			p.next()
			x = binary(Lss, x, p.add(), x.Pos())
		case _Leq:
			p.next()
			x = binary(Leq, x, p.add(), x.Pos())
		case _Gtr:
			p.next()
			x = binary(Lss, p.add(), x, x.Pos())
		case _Geq:
			p.next()
			x = binary(Leq, p.add(), x, x.Pos())
		default:
			return x
		}
	}
}

func (p *Parser) add() Expr {
	x := p.mul()
	for {
		switch p.tok {
		case _Add:
			p.next()
			x = binary(Add, x, p.mul(), x.Pos())
		case _Sub:
			p.next()
			x = binary(Sub, x, p.mul(), x.Pos())
		default:
			return x
		}
	}
}

func (p *Parser) mul() Expr {
	x := p.unary()
	for {
		switch p.tok {
		case _Mul:
			p.next()
			x = binary(Mul, x, p.unary(), x.Pos())
		case _Div:
			p.next()
			x = binary(Div, x, p.unary(), x.Pos())
		default:
			return x
		}
	}
}

// unary parses an optional sign. -x is built as 0 - x.
func (p *Parser) unary() Expr {
	switch p.tok {
	case _Add:
		p.next()
		return p.primary()
	case _Sub:
		pos := p.pos
		p.next()
		zero := &NumberLit{}
		zero.pos = pos
		return binary(Sub, zero, p.primary(), pos)
	}
	return p.primary()
}

func (p *Parser) primary() Expr {
	switch p.tok {
	case _Number:
		n := &NumberLit{Value: p.val}
		n.pos = p.pos
		p.next()
		return n

	case _Name:
		v := &LocalVar{Name: p.lit, Offset: p.locals.Resolve(p.lit)}
		v.pos = p.pos
		p.next()
		return v

	case _Lparen:
		lparen := p.openDelim(_Lparen)
		x := p.expr()
		p.closeDelim(_Lparen, lparen)
		return x

	case _Rparen, _Rbrace:
		if !p.closesInnermost(p.tok) {
			p.errorAt(p.pos, UnmatchedDelimiter, fmt.Sprintf("unmatched %s", p.tok))
			break
		}
		p.unexpected("expression")

	default:
		p.unexpected("expression")
	}

	// error recovery placeholder; the caller unwinds to Parse.
	n := &NumberLit{}
	n.pos = p.pos
	return n
}

// closesInnermost reports whether tok closes the innermost open delimiter.
func (p *Parser) closesInnermost(tok Token) bool {
	n := len(p.open)
	return n > 0 && p.open[n-1].closer() == tok
}
