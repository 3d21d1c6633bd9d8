package codegen

import (
	"fmt"
	"io"
)

// emitter wraps an io.Writer with helpers for writing assembly text.
// The first write error is kept and later writes are skipped.
type emitter struct {
	w   io.Writer
	err error // first write error
}

// emit writes a formatted line to the output (no indentation).
func (e *emitter) emit(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format+"\n", args...)
}

// emitDirective writes an assembler directive such as .global main.
func (e *emitter) emitDirective(name, arg string) {
	e.emit(".%s %s", name, arg)
}

// emitInstrs writes each instruction on its own line.
func (e *emitter) emitInstrs(code []Instr) {
	for _, in := range code {
		e.emit("%s", in)
	}
}
