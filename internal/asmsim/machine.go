package asmsim

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultStackSize is the size in bytes of the simulated stack.
	DefaultStackSize = 1 << 16

	// DefaultMaxSteps bounds the number of executed instructions.
	DefaultMaxSteps = 50_000_000

	// ctxCheckInterval is how many steps run between context checks.
	ctxCheckInterval = 4096

	// returnSentinel is the return address pushed before main is entered.
	returnSentinel = -1
)

// ErrStepLimit is returned when a program executes more than MaxSteps
// instructions.
var ErrStepLimit = errors.New("asmsim: step limit exceeded")

// Error is a parse or run-time error at a line of the assembly text.
// Line is 0 for errors not tied to a line.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return "asm: " + e.Msg
	}
	return fmt.Sprintf("asm:%d: %s", e.Line, e.Msg)
}

func errorf(line int, format string, args ...interface{}) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Machine executes a Program. A Machine runs once; create a new one to
// run the program again.
type Machine struct {
	prog *Program

	Regs  [numRegs]int64
	Stack []byte // rsp and rbp are offsets into Stack

	// Operands of the last cmp, read by je and setcc.
	cmpX, cmpY int64

	pc    int
	steps int

	// MaxSteps bounds execution; zero means DefaultMaxSteps.
	MaxSteps int
}

// NewMachine returns a machine ready to run p from main with an empty
// stack of DefaultStackSize bytes.
func NewMachine(p *Program) *Machine {
	m := &Machine{
		prog:  p,
		Stack: make([]byte, DefaultStackSize),
		pc:    p.entry,
	}
	m.Regs[RSP] = int64(len(m.Stack))
	return m
}

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() int {
	return m.steps
}

// Run executes the program until main returns and reports the value of
// rax at that point.
func (m *Machine) Run(ctx context.Context) (int64, error) {
	maxSteps := m.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	if err := m.push(0, returnSentinel); err != nil {
		return 0, err
	}

	for {
		if m.steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if m.steps >= maxSteps {
			return 0, ErrStepLimit
		}
		if m.pc < 0 || m.pc >= len(m.prog.insts) {
			return 0, errorf(0, "execution ran off the end of the program")
		}

		in := &m.prog.insts[m.pc]
		m.pc++
		m.steps++

		done, err := m.step(in)
		if err != nil {
			return 0, err
		}
		if done {
			return m.Regs[RAX], nil
		}
	}
}

// step executes one instruction. It reports true when main returns.
func (m *Machine) step(in *inst) (bool, error) {
	a := in.args
	switch in.op {
	case "push":
		return false, m.push(in.line, m.value(a[0]))

	case "pop":
		v, err := m.pop(in.line)
		if err != nil {
			return false, err
		}
		m.Regs[a[0].reg] = v

	case "mov":
		switch {
		case a[0].kind == opMem:
			return false, m.store(in.line, m.Regs[a[0].reg], m.Regs[a[1].reg])
		case a[1].kind == opMem:
			v, err := m.load(in.line, m.Regs[a[1].reg])
			if err != nil {
				return false, err
			}
			m.Regs[a[0].reg] = v
		default:
			m.Regs[a[0].reg] = m.value(a[1])
		}

	case "add":
		m.Regs[a[0].reg] += m.value(a[1])

	case "sub":
		m.Regs[a[0].reg] -= m.value(a[1])

	case "imul":
		m.Regs[a[0].reg] *= m.value(a[1])

	case "cqo":
		// rdx is not modeled; idiv divides rax directly.

	case "idiv":
		d := m.value(a[0])
		if d == 0 {
			return false, errorf(in.line, "integer division by zero")
		}
		if d == -1 && m.Regs[RAX] == math.MinInt64 {
			return false, errorf(in.line, "integer division overflow")
		}
		m.Regs[RAX] /= d

	case "cmp":
		m.cmpX, m.cmpY = m.Regs[a[0].reg], m.value(a[1])

	case "sete":
		m.setAL(m.cmpX == m.cmpY)
	case "setne":
		m.setAL(m.cmpX != m.cmpY)
	case "setl":
		m.setAL(m.cmpX < m.cmpY)
	case "setle":
		m.setAL(m.cmpX <= m.cmpY)

	case "movzb":
		m.Regs[a[0].reg] = m.Regs[RAX] & 0xff

	case "movsxd":
		m.Regs[a[0].reg] = int64(int32(m.Regs[a[1].reg]))

	case "je":
		if m.cmpX == m.cmpY {
			m.pc = in.target
		}

	case "jmp":
		m.pc = in.target

	case "ret":
		addr, err := m.pop(in.line)
		if err != nil {
			return false, err
		}
		if addr == returnSentinel {
			return true, nil
		}
		return false, errorf(in.line, "ret to unknown address %d", addr)

	default:
		return false, errorf(in.line, "unknown mnemonic %q", in.op)
	}
	return false, nil
}

func (m *Machine) value(o operand) int64 {
	switch o.kind {
	case opImm:
		return o.imm
	case opByte:
		return m.Regs[RAX] & 0xff
	}
	return m.Regs[o.reg]
}

func (m *Machine) setAL(b bool) {
	m.Regs[RAX] &^= 0xff
	if b {
		m.Regs[RAX] |= 1
	}
}

func (m *Machine) push(line int, v int64) error {
	sp := m.Regs[RSP] - 8
	if sp < 0 {
		return errorf(line, "stack overflow")
	}
	m.Regs[RSP] = sp
	return m.store(line, sp, v)
}

func (m *Machine) pop(line int) (int64, error) {
	sp := m.Regs[RSP]
	if sp+8 > int64(len(m.Stack)) {
		return 0, errorf(line, "stack underflow")
	}
	v, err := m.load(line, sp)
	if err != nil {
		return 0, err
	}
	m.Regs[RSP] = sp + 8
	return v, nil
}

func (m *Machine) load(line int, addr int64) (int64, error) {
	if addr < 0 || addr+8 > int64(len(m.Stack)) {
		return 0, errorf(line, "load from invalid address %d", addr)
	}
	return int64(binary.LittleEndian.Uint64(m.Stack[addr:])), nil
}

func (m *Machine) store(line int, addr, v int64) error {
	if addr < 0 || addr+8 > int64(len(m.Stack)) {
		return errorf(line, "store to invalid address %d", addr)
	}
	binary.LittleEndian.PutUint64(m.Stack[addr:], uint64(v))
	return nil
}

// Run parses text and executes it on a new machine.
func Run(ctx context.Context, text string) (int64, error) {
	p, err := Parse(text)
	if err != nil {
		return 0, err
	}
	return NewMachine(p).Run(ctx)
}

// ExitStatus returns the process exit status a native run of a program
// returning v would report: the low 8 bits.
func ExitStatus(v int64) int {
	return int(uint8(v))
}
