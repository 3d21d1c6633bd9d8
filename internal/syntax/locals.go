package syntax

import (
	"fmt"
	"strings"
)

// SlotSize is the size in bytes of one local variable's frame slot.
const SlotSize = 8

// Locals is the flat, program-wide symbol table mapping variable names to
// frame offsets. There are no scopes: the first occurrence of a name
// allocates the next slot and every later occurrence reuses it.
type Locals struct {
	offsets map[string]int32
	names   []string // allocation order
}

// NewLocals returns an empty symbol table.
func NewLocals() *Locals {
	return &Locals{offsets: make(map[string]int32)}
}

// Resolve returns the frame offset for name, allocating
// (Len()+1)*SlotSize on first use.
func (l *Locals) Resolve(name string) int32 {
	if off, ok := l.offsets[name]; ok {
		return off
	}
	off := int32(len(l.names)+1) * SlotSize
	l.offsets[name] = off
	l.names = append(l.names, name)
	return off
}

// Lookup returns the offset of an already allocated name.
func (l *Locals) Lookup(name string) (int32, bool) {
	off, ok := l.offsets[name]
	return off, ok
}

// Len returns the number of distinct names.
func (l *Locals) Len() int {
	return len(l.names)
}

// Names returns the names in allocation order.
func (l *Locals) Names() []string {
	return append([]string(nil), l.names...)
}

// FrameSize returns the number of bytes the allocated slots occupy.
func (l *Locals) FrameSize() int {
	return len(l.names) * SlotSize
}

// String lists the table for debugging, one "name: -offset(rbp)" per line.
func (l *Locals) String() string {
	var buf strings.Builder
	buf.WriteString("locals {\n")
	for _, name := range l.names {
		fmt.Fprintf(&buf, "  %s: -%d(rbp)\n", name, l.offsets[name])
	}
	buf.WriteString("}\n")
	return buf.String()
}
