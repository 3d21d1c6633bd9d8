package asmsim

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const header = ".intel_syntax noprefix\n.global main\nmain:\n"

func run(t *testing.T, body string) (int64, error) {
	t.Helper()
	return Run(context.Background(), header+body)
}

func mustRun(t *testing.T, body string) int64 {
	t.Helper()
	v, err := run(t, body)
	if err != nil {
		t.Fatalf("Run: %v\n%s", err, body)
	}
	return v
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{"push_pop", "  push 42\n  pop rax\n  ret\n", 42},
		{"add", "  push 2\n  push 3\n  pop rdi\n  pop rax\n  add rax, rdi\n  ret\n", 5},
		{"sub", "  push 2\n  push 3\n  pop rdi\n  pop rax\n  sub rax, rdi\n  ret\n", -1},
		{"imul", "  push 6\n  push 7\n  pop rdi\n  pop rax\n  imul rax, rdi\n  ret\n", 42},
		{"idiv", "  push 7\n  push 2\n  pop rdi\n  pop rax\n  cqo\n  idiv rdi\n  ret\n", 3},
		{"idiv_truncates_toward_zero", "  push -7\n  push 2\n  pop rdi\n  pop rax\n  cqo\n  idiv rdi\n  ret\n", -3},
		{"mov_imm", "  mov rax, 9\n  ret\n", 9},
		{"add_imm", "  mov rax, 9\n  add rax, 1\n  ret\n", 10},
		{"sub_imm", "  mov rax, 9\n  sub rax, 10\n  ret\n", -1},
		{"64bit", "  mov rax, 2147483647\n  add rax, 1\n  ret\n", 2147483648},
		{"movsxd_wraps", "  mov rdi, 2147483647\n  add rdi, 1\n  movsxd rax, edi\n  ret\n", -2147483648},
		{"movsxd_drops_high_bits", "  mov rdi, 4294967296\n  add rdi, 5\n  movsxd rax, edi\n  ret\n", 5},
		{"movsxd_negative", "  mov rdi, 0\n  sub rdi, 3\n  movsxd rax, edi\n  ret\n", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustRun(t, tt.body); got != tt.want {
				t.Errorf("rax = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		setcc string
		x, y  string
		want  int64
	}{
		{"sete", "3", "3", 1},
		{"sete", "3", "4", 0},
		{"setne", "3", "4", 1},
		{"setne", "3", "3", 0},
		{"setl", "3", "4", 1},
		{"setl", "4", "3", 0},
		{"setl", "-1", "0", 1},
		{"setle", "3", "3", 1},
		{"setle", "4", "3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.setcc+"_"+tt.x+"_"+tt.y, func(t *testing.T) {
			body := "  push " + tt.x + "\n  push " + tt.y + "\n  pop rdi\n  pop rax\n" +
				"  cmp rax, rdi\n  " + tt.setcc + " al\n  movzb rax, al\n  ret\n"
			if got := mustRun(t, body); got != tt.want {
				t.Errorf("rax = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetccKeepsHighBits(t *testing.T) {
	body := "  mov rax, 256\n  cmp rax, rax\n  sete al\n  ret\n"
	if got := mustRun(t, body); got != 257 {
		t.Errorf("rax = %d, want 257", got)
	}
	body = "  mov rax, 511\n  cmp rax, rax\n  sete al\n  movzb rax, al\n  ret\n"
	if got := mustRun(t, body); got != 1 {
		t.Errorf("rax = %d, want 1", got)
	}
}

func TestFrameMemory(t *testing.T) {
	// a = 5; a + 1
	body := `  push rbp
  mov rbp, rsp
  sub rsp, 208
  mov rax, rbp
  sub rax, 8
  push rax
  push 5
  pop rdi
  pop rax
  mov [rax], rdi
  push rdi
  pop rax
  mov rax, rbp
  sub rax, 8
  push rax
  pop rax
  mov rax, [rax]
  push rax
  push 1
  pop rdi
  pop rax
  add rax, rdi
  push rax
  pop rax
  mov rsp, rbp
  pop rbp
  ret
`
	if got := mustRun(t, body); got != 6 {
		t.Errorf("rax = %d, want 6", got)
	}
}

func TestJumps(t *testing.T) {
	// sum 1..10 with a countdown in rdi
	body := `  mov rax, 0
  mov rdi, 10
.Lbegin.1:
  cmp rdi, 0
  je .Lend.1
  add rax, rdi
  sub rdi, 1
  jmp .Lbegin.1
.Lend.1:
  ret
`
	if got := mustRun(t, body); got != 55 {
		t.Errorf("rax = %d, want 55", got)
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	body := "\n  # leading comment\n  push 4 # four\n\n  pop rax\n  ret\n"
	if got := mustRun(t, body); got != 4 {
		t.Errorf("rax = %d, want 4", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLine int
		wantMsg  string
	}{
		{"unknown_mnemonic", header + "  nop\n  ret\n", 4, "unknown mnemonic"},
		{"undefined_label", header + "  jmp .Lnowhere\n", 4, "undefined label .Lnowhere"},
		{"bad_register", header + "  pop rbx\n", 4, "bad operand rbx"},
		{"bad_memory", header + "  mov rax, [rbx]\n", 4, "bad memory operand"},
		{"dword_in_mov", header + "  mov rax, edi\n", 4, "bad operands for mov"},
		{"movsxd_from_qword", header + "  movsxd rax, rdi\n", 4, "bad operands for movsxd"},
		{"bad_shape", header + "  push [rax]\n", 4, "bad operands for push"},
		{"wrong_arity", header + "  add rax\n", 4, "bad operands for add"},
		{"duplicate_label", header + "main:\n  ret\n", 4, "duplicate label main"},
		{"no_main", ".global main\nstart:\n  ret\n", 0, "no main label"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			var asmErr *Error
			if !errors.As(err, &asmErr) {
				t.Fatalf("Parse error = %v (%T), want *Error", err, err)
			}
			if asmErr.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", asmErr.Line, tt.wantLine)
			}
			if !strings.Contains(asmErr.Msg, tt.wantMsg) {
				t.Errorf("msg = %q, want substring %q", asmErr.Msg, tt.wantMsg)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"div_zero", "  mov rax, 1\n  mov rdi, 0\n  cqo\n  idiv rdi\n  ret\n", "division by zero"},
		{"stack_underflow", "  pop rax\n  pop rax\n", "stack underflow"},
		{"bad_load", "  mov rax, -8\n  mov rax, [rax]\n  ret\n", "invalid address"},
		{"bad_ret", "  push 7\n  ret\n", "ret to unknown address"},
		{"fall_off", "  push 1\n", "ran off the end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.body)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Run error = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestStackOverflow(t *testing.T) {
	body := ".Lloop:\n  push 1\n  jmp .Lloop\n"
	_, err := run(t, body)
	if err == nil || !strings.Contains(err.Error(), "stack overflow") {
		t.Errorf("Run error = %v, want stack overflow", err)
	}
}

func TestStepLimit(t *testing.T) {
	p, err := Parse(header + ".Lloop:\n  jmp .Lloop\n")
	if err != nil {
		t.Fatal(err)
	}
	m := NewMachine(p)
	m.MaxSteps = 1000
	_, err = m.Run(context.Background())
	if !errors.Is(err, ErrStepLimit) {
		t.Fatalf("Run error = %v, want ErrStepLimit", err)
	}
	if m.Steps() != 1000 {
		t.Errorf("Steps() = %d, want 1000", m.Steps())
	}
}

func TestContextCancel(t *testing.T) {
	p, err := Parse(header + ".Lloop:\n  jmp .Lloop\n")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	m := NewMachine(p)
	m.MaxSteps = 1 << 62
	_, err = m.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run error = %v, want context.DeadlineExceeded", err)
	}
}

func TestLabels(t *testing.T) {
	p, err := Parse(header + "  jmp .Lb\n.La:\n  ret\n.Lb:\n  jmp .La\n")
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(p.Labels(), " ")
	if got != "main .La .Lb" {
		t.Errorf("Labels() = %s, want main .La .Lb", got)
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		v    int64
		want int
	}{
		{0, 0},
		{42, 42},
		{255, 255},
		{256, 0},
		{-1, 255},
	}
	for _, tt := range tests {
		if got := ExitStatus(tt.v); got != tt.want {
			t.Errorf("ExitStatus(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}
