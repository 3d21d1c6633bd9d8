package e2e

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/you-not-fish/stackc/internal/asmsim"
	"github.com/you-not-fish/stackc/internal/codegen"
	"github.com/you-not-fish/stackc/internal/syntax"
)

// TestE2E runs end-to-end tests for all .c files in testdata/.
// Each test:
//  1. Runs the full pipeline: scan → parse → codegen
//  2. Executes the assembly in the simulator and compares the value main
//     returns against the .golden file
//  3. On linux/amd64 with cc available, assembles and links the output,
//     runs the binary and compares its exit status (the low 8 bits)
func TestE2E(t *testing.T) {
	testFiles, err := filepath.Glob("testdata/*.c")
	if err != nil {
		t.Fatal(err)
	}
	if len(testFiles) == 0 {
		t.Fatal("no .c test files found in testdata/")
	}

	for _, testFile := range testFiles {
		name := strings.TrimSuffix(filepath.Base(testFile), ".c")
		t.Run(name, func(t *testing.T) {
			runE2ETest(t, testFile)
		})
	}
}

// runE2ETest runs a single end-to-end test.
func runE2ETest(t *testing.T, srcFile string) {
	t.Helper()

	goldenFile := strings.TrimSuffix(srcFile, ".c") + ".golden"
	expected, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}
	want, err := strconv.ParseInt(strings.TrimSpace(string(expected)), 10, 64)
	if err != nil {
		t.Fatalf("golden file %s: %v", goldenFile, err)
	}

	asm := compileFile(t, srcFile)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got, err := asmsim.Run(ctx, asm)
	if err != nil {
		t.Fatalf("simulation failed: %v\n%s", err, asm)
	}
	if got != want {
		t.Errorf("simulated result = %d, want %d", got, want)
	}

	runNative(t, asm, asmsim.ExitStatus(want))
}

// compileFile runs the compilation pipeline in-process and returns the
// assembly text.
func compileFile(t *testing.T, srcFile string) string {
	t.Helper()

	src, err := os.ReadFile(srcFile)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	f, err := syntax.Parse(srcFile, string(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var buf bytes.Buffer
	if err := codegen.EmitProgram(&buf, f); err != nil {
		t.Fatalf("codegen: %v", err)
	}
	return buf.String()
}

// runNative assembles asm with cc and checks the binary's exit status.
func runNative(t *testing.T, asm string, wantStatus int) {
	t.Helper()

	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		return
	}
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Log("cc not found, skipping native run")
		return
	}

	tmpDir := t.TempDir()
	asmFile := filepath.Join(tmpDir, "output.s")
	binFile := filepath.Join(tmpDir, "output")
	if err := os.WriteFile(asmFile, []byte(asm), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(cc, "-o", binFile, asmFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("cc failed:\n%s\n%v", out, err)
	}

	status := 0
	if err := exec.Command(binFile).Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("binary execution failed: %v", err)
		}
		status = exitErr.ExitCode()
	}
	if status != wantStatus {
		t.Errorf("native exit status = %d, want %d", status, wantStatus)
	}
}

// TestE2EErrors checks that invalid programs fail before any code is
// generated.
func TestE2EErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind syntax.ErrorKind
	}{
		{"unrecognized", "a = 1 $ 2;", syntax.UnrecognizedCharacter},
		{"overflow", "return 4294967296;", syntax.NumericLiteralOverflow},
		{"unexpected", "return return;", syntax.UnexpectedToken},
		{"eof", "if (1)", syntax.UnexpectedEndOfInput},
		{"unmatched", "while (1 { }", syntax.UnmatchedDelimiter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := syntax.Parse("bad.c", tt.src)
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}

			var kind syntax.ErrorKind
			var lexErr *syntax.LexError
			var parseErr *syntax.ParseError
			switch {
			case errors.As(err, &lexErr):
				kind = lexErr.Kind
			case errors.As(err, &parseErr):
				kind = parseErr.Kind
			}
			if kind != tt.kind {
				t.Errorf("error %v has kind %v, want %v", err, kind, tt.kind)
			}
		})
	}
}
