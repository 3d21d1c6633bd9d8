package codegen

import (
	"errors"
	"fmt"
	"io"

	"github.com/you-not-fish/stackc/internal/syntax"
)

// FrameSize is the fixed number of bytes main reserves for locals.
const FrameSize = 208

// MaxLocals is the number of variable slots that fit in the frame.
const MaxLocals = FrameSize / syntax.SlotSize

// ErrFrameOverflow reports a program with more locals than MaxLocals.
var ErrFrameOverflow = errors.New("stack frame overflow")

// Program returns the complete instruction list for f: the main label,
// prologue, the statements and the epilogue.
func Program(f *syntax.File) ([]Instr, error) {
	if n := f.Locals.Len(); n > MaxLocals {
		return nil, fmt.Errorf("%w: %d local variables, at most %d fit in %d bytes",
			ErrFrameOverflow, n, MaxLocals, FrameSize)
	}

	code := []Instr{
		{Label: "main"},
		{Op: "push", Args: []string{"rbp"}},
		{Op: "mov", Args: []string{"rbp", "rsp"}},
		{Op: "sub", Args: []string{"rsp", fmt.Sprint(FrameSize)}},
	}
	code = append(code, NewGenerator().Gen(f)...)
	code = append(code,
		Instr{Op: "mov", Args: []string{"rsp", "rbp"}},
		Instr{Op: "pop", Args: []string{"rbp"}},
		Instr{Op: "ret"},
	)
	return code, nil
}

// EmitProgram writes f as a complete assembly file to w.
func EmitProgram(w io.Writer, f *syntax.File) error {
	code, err := Program(f)
	if err != nil {
		return err
	}

	e := &emitter{w: w}
	e.emitDirective("intel_syntax", "noprefix")
	e.emitDirective("global", "main")
	e.emitInstrs(code)
	return e.err
}
