package syntax

import "fmt"

// Pos represents a position in the source text.
// The zero value is an invalid position.
type Pos struct {
	filename string // source name; empty for command-line input
	line     uint32 // 1-based line number
	col      uint32 // 1-based column number (byte offset in line)
	offs     int    // 0-based byte offset from the start of the source
}

// NewPos creates a new Pos with the given filename, line, and column.
// Line and column numbers are 1-based.
func NewPos(filename string, line, col uint32) Pos {
	return Pos{filename: filename, line: line, col: col, offs: -1}
}

func newPosOffset(filename string, line, col uint32, offs int) Pos {
	return Pos{filename: filename, line: line, col: col, offs: offs}
}

// String returns the position as "filename:line:col", or "line:col"
// if the source has no name.
func (p Pos) String() string {
	if p.filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.filename, p.line, p.col)
	}
	return fmt.Sprintf("%d:%d", p.line, p.col)
}

// IsValid reports whether the position is valid (line > 0).
func (p Pos) IsValid() bool {
	return p.line > 0
}

// Line returns the 1-based line number.
func (p Pos) Line() uint32 {
	return p.line
}

// Col returns the 1-based column number.
func (p Pos) Col() uint32 {
	return p.col
}

// Offset returns the byte offset of the position in the source,
// or -1 if the position was not produced by the scanner.
func (p Pos) Offset() int {
	if !p.IsValid() {
		return -1
	}
	return p.offs
}

// Filename returns the source name.
func (p Pos) Filename() string {
	return p.filename
}
