package syntax

import "fmt"

// ErrorKind classifies lexical and syntax errors.
type ErrorKind uint8

const (
	// Lexical errors
	UnrecognizedCharacter ErrorKind = iota + 1
	NumericLiteralOverflow

	// Syntax errors
	UnexpectedToken
	UnexpectedEndOfInput
	UnmatchedDelimiter
)

var errorKindNames = [...]string{
	UnrecognizedCharacter:  "unrecognized character",
	NumericLiteralOverflow: "numeric literal overflow",
	UnexpectedToken:        "unexpected token",
	UnexpectedEndOfInput:   "unexpected end of input",
	UnmatchedDelimiter:     "unmatched delimiter",
}

func (k ErrorKind) String() string {
	if k > 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// LexError is reported by the scanner. Scanning stops at the first one.
type LexError struct {
	Pos  Pos
	Kind ErrorKind // UnrecognizedCharacter or NumericLiteralOverflow
	Msg  string
}

func (e *LexError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// ParseError is reported by the parser. Parsing stops at the first one.
type ParseError struct {
	Pos  Pos
	Kind ErrorKind // UnexpectedToken, UnexpectedEndOfInput or UnmatchedDelimiter
	Msg  string
}

func (e *ParseError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// ErrorPos returns the position carried by a LexError or ParseError.
func ErrorPos(err error) (Pos, bool) {
	switch e := err.(type) {
	case *LexError:
		return e.Pos, true
	case *ParseError:
		return e.Pos, true
	}
	return Pos{}, false
}
