// Package codegen translates stackc syntax trees into x86-64 assembly
// (Intel syntax) for a single-value evaluation stack.
package codegen

import "strings"

// Instr is one line of generated assembly: either a label definition
// (Label set, Op empty) or an instruction with its operands.
type Instr struct {
	Label string
	Op    string
	Args  []string
}

func (in Instr) String() string {
	if in.Op == "" {
		return in.Label + ":"
	}
	if len(in.Args) == 0 {
		return "  " + in.Op
	}
	return "  " + in.Op + " " + strings.Join(in.Args, ", ")
}

// IsLabel reports whether in defines a label.
func (in Instr) IsLabel() bool {
	return in.Op == ""
}
