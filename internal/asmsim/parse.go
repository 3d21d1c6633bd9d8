// Package asmsim executes the x86-64 assembly subset produced by stackc's
// code generator. It lets the compiler be tested on any host, without an
// assembler or an x86-64 machine.
package asmsim

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Register names a 64-bit register of the simulated machine.
type Register uint8

const (
	RAX Register = iota
	RDI
	RBP
	RSP
	numRegs
)

var registerNames = [...]string{
	RAX: "rax",
	RDI: "rdi",
	RBP: "rbp",
	RSP: "rsp",
}

// dwordNames are the low 32-bit halves of the registers.
var dwordNames = [...]string{
	RAX: "eax",
	RDI: "edi",
	RBP: "ebp",
	RSP: "esp",
}

func (r Register) String() string {
	if r < numRegs {
		return registerNames[r]
	}
	return fmt.Sprintf("reg(%d)", r)
}

type operandKind uint8

const (
	opReg   operandKind = iota + 1 // rax
	opByte                         // al, the low byte of rax
	opDword                        // edi, the low 32 bits of rdi
	opImm                          // 42
	opMem                          // [rax]
	opLabel                        // .Lend.1
)

type operand struct {
	kind  operandKind
	reg   Register
	imm   int64
	label string
}

func (o operand) String() string {
	switch o.kind {
	case opReg:
		return o.reg.String()
	case opByte:
		return "al"
	case opDword:
		return dwordNames[o.reg]
	case opImm:
		return strconv.FormatInt(o.imm, 10)
	case opMem:
		return "[" + o.reg.String() + "]"
	case opLabel:
		return o.label
	}
	return "?"
}

// inst is one decoded instruction. For jumps, target is the index of the
// instruction following the label.
type inst struct {
	line   int
	op     string
	args   []operand
	target int
}

// Program is parsed assembly text ready to run.
type Program struct {
	insts  []inst
	labels map[string]int
	entry  int
}

// Len returns the number of instructions in the program.
func (p *Program) Len() int {
	return len(p.insts)
}

// Labels returns the label names ordered by the instruction they mark.
func (p *Program) Labels() []string {
	names := make([]string, 0, len(p.labels))
	for name := range p.labels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if p.labels[a] != p.labels[b] {
			return p.labels[a] < p.labels[b]
		}
		return a < b
	})
	return names
}

// operand shapes accepted by each mnemonic
var shapes = map[string][][]operandKind{
	"push":   {{opImm}, {opReg}},
	"pop":    {{opReg}},
	"mov":    {{opReg, opReg}, {opReg, opImm}, {opReg, opMem}, {opMem, opReg}},
	"add":    {{opReg, opReg}, {opReg, opImm}},
	"sub":    {{opReg, opReg}, {opReg, opImm}},
	"imul":   {{opReg, opReg}},
	"cqo":    {{}},
	"idiv":   {{opReg}},
	"cmp":    {{opReg, opReg}, {opReg, opImm}},
	"sete":   {{opByte}},
	"setne":  {{opByte}},
	"setl":   {{opByte}},
	"setle":  {{opByte}},
	"movzb":  {{opReg, opByte}},
	"movsxd": {{opReg, opDword}},
	"je":     {{opLabel}},
	"jmp":    {{opLabel}},
	"ret":    {{}},
}

// Parse reads Intel-syntax assembly text. Directives are ignored and
// execution starts at the label main.
func Parse(text string) (*Program, error) {
	p := &Program{labels: make(map[string]int)}

	// Pass 1: decode instructions and record label addresses.
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := raw
		if j := strings.IndexByte(line, '#'); j >= 0 {
			line = line[:j]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, ":") {
			name := strings.TrimSuffix(line, ":")
			if !validLabel(name) {
				return nil, errorf(lineNo, "invalid label %q", name)
			}
			if _, dup := p.labels[name]; dup {
				return nil, errorf(lineNo, "duplicate label %s", name)
			}
			p.labels[name] = len(p.insts)
			continue
		}

		if line[0] == '.' {
			continue // directive
		}

		in, err := parseInst(line, lineNo)
		if err != nil {
			return nil, err
		}
		p.insts = append(p.insts, in)
	}

	// Pass 2: resolve jump targets.
	for i := range p.insts {
		in := &p.insts[i]
		if in.op != "je" && in.op != "jmp" {
			continue
		}
		target, ok := p.labels[in.args[0].label]
		if !ok {
			return nil, errorf(in.line, "undefined label %s", in.args[0].label)
		}
		in.target = target
	}

	entry, ok := p.labels["main"]
	if !ok {
		return nil, errorf(0, "no main label")
	}
	p.entry = entry
	return p, nil
}

func parseInst(line string, lineNo int) (inst, error) {
	mnemonic, rest, _ := strings.Cut(line, " ")
	mnemonic = strings.ToLower(mnemonic)
	allowed, ok := shapes[mnemonic]
	if !ok {
		return inst{}, errorf(lineNo, "unknown mnemonic %q", mnemonic)
	}

	in := inst{line: lineNo, op: mnemonic}
	if rest = strings.TrimSpace(rest); rest != "" {
		for _, field := range strings.Split(rest, ",") {
			o, err := parseOperand(strings.TrimSpace(field), mnemonic)
			if err != nil {
				return inst{}, errorf(lineNo, "%s: %v", mnemonic, err)
			}
			in.args = append(in.args, o)
		}
	}

	for _, shape := range allowed {
		if matches(in.args, shape) {
			return in, nil
		}
	}
	return inst{}, errorf(lineNo, "bad operands for %s: %s", mnemonic, rest)
}

func matches(args []operand, shape []operandKind) bool {
	if len(args) != len(shape) {
		return false
	}
	for i, k := range shape {
		if args[i].kind != k {
			return false
		}
	}
	return true
}

func parseOperand(s, mnemonic string) (operand, error) {
	if s == "" {
		return operand{}, fmt.Errorf("empty operand")
	}
	if mnemonic == "je" || mnemonic == "jmp" {
		if !validLabel(s) {
			return operand{}, fmt.Errorf("invalid label %q", s)
		}
		return operand{kind: opLabel, label: s}, nil
	}
	if s == "al" {
		return operand{kind: opByte}, nil
	}
	if r, ok := lookupRegister(s); ok {
		return operand{kind: opReg, reg: r}, nil
	}
	for r := Register(0); r < numRegs; r++ {
		if dwordNames[r] == s {
			return operand{kind: opDword, reg: r}, nil
		}
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		r, ok := lookupRegister(strings.TrimSpace(s[1 : len(s)-1]))
		if !ok {
			return operand{}, fmt.Errorf("bad memory operand %s", s)
		}
		return operand{kind: opMem, reg: r}, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return operand{}, fmt.Errorf("bad operand %s", s)
	}
	return operand{kind: opImm, imm: v}, nil
}

func lookupRegister(s string) (Register, bool) {
	for r := Register(0); r < numRegs; r++ {
		if registerNames[r] == s {
			return r, true
		}
	}
	return 0, false
}

func validLabel(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '.' || c == '_':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
