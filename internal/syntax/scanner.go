package syntax

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Scanner performs lexical analysis on stackc source text.
type Scanner struct {
	source // embedded character reader

	// Current token info
	tok    Token
	lit    string
	val    int32
	tokPos Pos

	err error // first lexical error; once set, Next only returns _EOF
}

// NewScanner creates a new Scanner for src. filename is used in
// positions and may be empty.
func NewScanner(filename, src string) *Scanner {
	return &Scanner{source: newSource(filename, src)}
}

// Tokenize scans src completely. The returned slice always ends with an
// _EOF token. On a lexical error the tokens are discarded and a *LexError
// is returned.
func Tokenize(filename, src string) ([]TokenInfo, error) {
	s := NewScanner(filename, src)
	var toks []TokenInfo
	for {
		s.Next()
		if s.err != nil {
			return nil, s.err
		}
		toks = append(toks, TokenInfo{Tok: s.tok, Lit: s.lit, Val: s.val, Pos: s.tokPos})
		if s.tok == _EOF {
			return toks, nil
		}
	}
}

// Next advances to the next token.
func (s *Scanner) Next() {
	s.val = 0

	if s.err != nil {
		s.tok, s.lit = _EOF, ""
		return
	}

	s.skipWhitespace()
	s.tokPos = s.pos()

	switch {
	case s.ch < 0:
		s.tok = _EOF
		s.lit = ""

	case isDigit(s.ch):
		s.scanNumber()

	case isOperatorStart(s.ch):
		s.scanOperator()

	case isLower(s.ch):
		s.scanIdent()

	default:
		s.errorf(UnrecognizedCharacter, "unrecognized character %s", s.describeChar())
	}
}

// describeChar quotes the character at the current offset. Non-ASCII
// input is decoded as UTF-8; an invalid byte is shown in hex.
func (s *Scanner) describeChar() string {
	if s.ch < utf8.RuneSelf {
		return fmt.Sprintf("%q", s.ch)
	}
	r, size := utf8.DecodeRuneInString(s.buf[s.offs:])
	if r == utf8.RuneError && size <= 1 {
		return fmt.Sprintf("%#x", s.buf[s.offs])
	}
	return fmt.Sprintf("%q", r)
}

// Token returns the current token type.
func (s *Scanner) Token() Token {
	return s.tok
}

// Literal returns the current token's source text.
func (s *Scanner) Literal() string {
	return s.lit
}

// Value returns the value of the current _Number token.
func (s *Scanner) Value() int32 {
	return s.val
}

// Pos returns the current token's start position.
func (s *Scanner) Pos() Pos {
	return s.tokPos
}

// Err returns the first lexical error, if any.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) errorf(kind ErrorKind, format string, args ...interface{}) {
	s.err = &LexError{Pos: s.tokPos, Kind: kind, Msg: fmt.Sprintf(format, args...)}
	s.tok, s.lit = _EOF, ""
}

func (s *Scanner) skipWhitespace() {
	for isWhitespace(s.ch) {
		s.nextch()
	}
}

// scanIdent scans a maximal run of a-z and then looks it up in the
// keyword table.
func (s *Scanner) scanIdent() {
	start := s.offs
	for isLower(s.ch) {
		s.nextch()
	}
	s.lit = s.buf[start:s.offs]
	s.tok = LookupKeyword(s.lit)
}

// scanNumber scans a maximal run of decimal digits. Values that do not
// fit in a signed 32-bit integer are an error.
func (s *Scanner) scanNumber() {
	start := s.offs
	for isDigit(s.ch) {
		s.nextch()
	}
	s.lit = s.buf[start:s.offs]
	s.tok = _Number

	v, err := strconv.ParseInt(s.lit, 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			s.errorf(NumericLiteralOverflow, "integer literal %s overflows int32", s.lit)
		} else {
			s.errorf(NumericLiteralOverflow, "malformed integer literal %s", s.lit)
		}
		return
	}
	s.val = int32(v)
}

// scanOperator scans an operator or delimiter. Two-character operators
// win over their one-character prefixes.
func (s *Scanner) scanOperator() {
	ch := s.ch
	next := s.peek()

	two := func(tok Token, lit string) {
		s.nextch()
		s.nextch()
		s.tok, s.lit = tok, lit
	}
	one := func(tok Token) {
		s.nextch()
		s.tok, s.lit = tok, string(ch)
	}

	switch ch {
	case '=':
		if next == '=' {
			two(_Eql, "==")
			return
		}
		one(_Assign)
	case '!':
		if next == '=' {
			two(_Neq, "!=")
			return
		}
		// '!' alone is not an operator of the language.
		s.errorf(UnrecognizedCharacter, "unrecognized character %q", ch)
	case '<':
		if next == '=' {
			two(_Leq, "<=")
			return
		}
		one(_Lss)
	case '>':
		if next == '=' {
			two(_Geq, ">=")
			return
		}
		one(_Gtr)
	case '+':
		one(_Add)
	case '-':
		one(_Sub)
	case '*':
		one(_Mul)
	case '/':
		one(_Div)
	case '(':
		one(_Lparen)
	case ')':
		one(_Rparen)
	case '{':
		one(_Lbrace)
	case '}':
		one(_Rbrace)
	case ';':
		one(_Semi)
	}
}
