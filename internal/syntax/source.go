package syntax

// source is a byte reader over the program text with position tracking.
// The language is ASCII-only; any other byte is reported by the scanner
// as an unrecognized character.
type source struct {
	buf string // whole program text

	filename string
	line     uint32 // line of ch (1-based)
	col      uint32 // column of ch (1-based)

	ch   rune // current character, -1 at EOF
	offs int  // byte offset of ch in buf
}

func newSource(filename, src string) source {
	s := source{
		buf:      src,
		filename: filename,
		line:     1,
		col:      1,
		ch:       -1,
	}
	if len(src) > 0 {
		s.ch = rune(src[0])
	}
	return s
}

// nextch advances to the next byte. (line, col) always describe s.ch.
func (s *source) nextch() {
	if s.ch < 0 {
		return
	}
	if s.ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.offs++
	if s.offs >= len(s.buf) {
		s.offs = len(s.buf)
		s.ch = -1
		return
	}
	s.ch = rune(s.buf[s.offs])
}

// peek returns the byte after ch, or -1.
func (s *source) peek() rune {
	if s.offs+1 >= len(s.buf) {
		return -1
	}
	return rune(s.buf[s.offs+1])
}

// pos returns the position of the current character.
func (s *source) pos() Pos {
	return newPosOffset(s.filename, s.line, s.col, s.offs)
}

// isLower reports whether r may appear in an identifier (a-z only).
func isLower(r rune) bool {
	return 'a' <= r && r <= 'z'
}

// isDigit reports whether r is a decimal digit.
func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isWhitespace reports whether r separates tokens.
func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// isOperatorStart reports whether r can start an operator or delimiter.
func isOperatorStart(r rune) bool {
	switch r {
	case '+', '-', '*', '/', '(', ')', '{', '}', '<', '>', '=', '!', ';':
		return true
	}
	return false
}
