// Package syntax implements lexical and syntactic analysis for stackc's
// C subset: a scanner, a recursive-descent parser, and the flat symbol
// table that assigns stack-frame offsets to local variables.
package syntax

import "fmt"

// Token represents the type of a lexical token.
type Token uint

const (
	_EOF Token = iota // end of input

	// Literals
	_Name   // identifier: a, foo
	_Number // decimal integer literal

	// Operators
	_Add    // +
	_Sub    // -
	_Mul    // *
	_Div    // /
	_Eql    // ==
	_Neq    // !=
	_Lss    // <
	_Leq    // <=
	_Gtr    // >
	_Geq    // >=
	_Assign // =

	// Delimiters
	_Lparen // (
	_Rparen // )
	_Lbrace // {
	_Rbrace // }
	_Semi   // ;

	// Keywords
	_Else
	_For
	_If
	_Return
	_While

	tokenCount
)

var tokenNames = [...]string{
	_EOF: "EOF",

	_Name:   "NAME",
	_Number: "NUMBER",

	_Add:    "+",
	_Sub:    "-",
	_Mul:    "*",
	_Div:    "/",
	_Eql:    "==",
	_Neq:    "!=",
	_Lss:    "<",
	_Leq:    "<=",
	_Gtr:    ">",
	_Geq:    ">=",
	_Assign: "=",

	_Lparen: "(",
	_Rparen: ")",
	_Lbrace: "{",
	_Rbrace: "}",
	_Semi:   ";",

	_Else:   "else",
	_For:    "for",
	_If:     "if",
	_Return: "return",
	_While:  "while",
}

// String returns the string representation of the token.
func (t Token) String() string {
	if t < tokenCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// IsKeyword reports whether t is a keyword token.
func (t Token) IsKeyword() bool {
	return t >= _Else && t <= _While
}

// IsOperator reports whether t is an operator token.
func (t Token) IsOperator() bool {
	return t >= _Add && t <= _Assign
}

// IsDelimiter reports whether t is a parenthesis, brace, or semicolon.
func (t Token) IsDelimiter() bool {
	return t >= _Lparen && t <= _Semi
}

// IsEOF reports whether t is the EOF token.
func (t Token) IsEOF() bool {
	return t == _EOF
}

// closer returns the delimiter that closes t, or _EOF if t opens nothing.
func (t Token) closer() Token {
	switch t {
	case _Lparen:
		return _Rparen
	case _Lbrace:
		return _Rbrace
	}
	return _EOF
}

// keywords maps keyword spellings to their tokens. Keywords are recognized
// after a maximal identifier has been scanned, so "returnx" stays a name
// and "if (" lexes like "if(".
var keywords = map[string]Token{
	"else":   _Else,
	"for":    _For,
	"if":     _If,
	"return": _Return,
	"while":  _While,
}

// LookupKeyword returns the keyword token for ident, or _Name.
func LookupKeyword(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return _Name
}

// TokenInfo is one scanned token.
type TokenInfo struct {
	Tok Token
	Lit string // source text of the token
	Val int32  // value of a _Number token
	Pos Pos    // position of the first character
}

func (ti TokenInfo) String() string {
	switch ti.Tok {
	case _Name, _Number:
		return fmt.Sprintf("%s(%s)", ti.Tok, ti.Lit)
	}
	return ti.Tok.String()
}
