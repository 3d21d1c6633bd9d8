// Package main implements the stackc compiler entry point.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/you-not-fish/stackc/internal/asmsim"
	"github.com/you-not-fish/stackc/internal/codegen"
	"github.com/you-not-fish/stackc/internal/syntax"
)

// Compiler flags
var (
	sourceFile = flag.String("file", "", "Read source from file instead of the argument")
	output     = flag.String("o", "", "Output file")
	emitTokens = flag.Bool("emit-tokens", false, "Output token stream")
	emitAST    = flag.Bool("emit-ast", false, "Output AST")
	astFormat  = flag.String("ast-format", "text", "AST output format (text, json or dump)")
	emitLocals = flag.Bool("emit-locals", false, "Output the local variable table")
	runProgram = flag.Bool("run", false, "Simulate the compiled program and print its result")
	maxSteps   = flag.Int("max-steps", asmsim.DefaultMaxSteps, "Instruction limit for -run")
	timeout    = flag.Duration("timeout", 10*time.Second, "Time limit for -run")
	trace      = flag.Bool("trace", false, "Output timing trace")
	doctor     = flag.Bool("doctor", false, "Check the native assembler and linker")
	version    = flag.Bool("version", false, "Print version")
)

// Version information
const Version = "0.1.0-dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "stackc %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: stackc [options] <source>\n")
		fmt.Fprintf(os.Stderr, "       stackc [options] -file <file.c>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("stackc version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		os.Exit(0)
	}

	if *doctor {
		os.Exit(runDoctor())
	}

	filename, src, err := loadSource(*sourceFile, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintln(os.Stderr, "usage: stackc [options] <source>")
		os.Exit(1)
	}

	switch {
	case *emitTokens:
		os.Exit(runEmitTokens(filename, src))
	case *emitAST:
		os.Exit(runEmitAST(filename, src))
	case *emitLocals:
		os.Exit(runEmitLocals(filename, src))
	case *runProgram:
		os.Exit(runSimulate(filename, src))
	}
	os.Exit(runCompile(filename, src))
}

// loadSource returns the program text: the contents of path when it is
// set, otherwise the single positional argument.
func loadSource(path string, args []string) (filename, src string, err error) {
	if path != "" {
		if len(args) > 0 {
			return "", "", errors.New("source given both as -file and as argument")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", err
		}
		return path, string(data), nil
	}

	switch len(args) {
	case 0:
		return "", "", errors.New("no input")
	case 1:
		return "", args[0], nil
	}
	return "", "", fmt.Errorf("expected one source argument, got %d", len(args))
}

// ----------------------------------------------------------------------------
// Pipeline

// tracer prints per-phase timings to stderr when -trace is set.
type tracer struct {
	enabled bool
	start   time.Time
}

func newTracer() *tracer {
	return &tracer{enabled: *trace, start: time.Now()}
}

// done reports the phase that started at the previous call.
func (t *tracer) done(phase string, extra ...string) {
	if !t.enabled {
		return
	}
	now := time.Now()
	line := fmt.Sprintf("%-8s %v", phase, now.Sub(t.start))
	if len(extra) > 0 {
		line += " (" + strings.Join(extra, ", ") + ")"
	}
	fmt.Fprintln(os.Stderr, line)
	t.start = now
}

// parse runs the scanner and the parser.
func parse(filename, src string, tr *tracer) (*syntax.File, error) {
	toks, err := syntax.Tokenize(filename, src)
	if err != nil {
		return nil, err
	}
	tr.done("lex", fmt.Sprintf("%d tokens", len(toks)))

	f, err := syntax.NewParser(toks, syntax.NewLocals()).Parse()
	if err != nil {
		return nil, err
	}
	tr.done("parse", fmt.Sprintf("%d locals", f.Locals.Len()))
	return f, nil
}

// compile produces the assembly text for src.
func compile(filename, src string, tr *tracer) ([]byte, error) {
	f, err := parse(filename, src, tr)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := codegen.EmitProgram(&buf, f); err != nil {
		return nil, err
	}
	tr.done("codegen", fmt.Sprintf("%d bytes", buf.Len()))
	return buf.Bytes(), nil
}

// runCompile writes the assembly for src to -o or stdout.
func runCompile(filename, src string) int {
	tr := newTracer()
	asm, err := compile(filename, src, tr)
	if err != nil {
		reportError(os.Stderr, src, err)
		return 1
	}

	if *output != "" {
		if err := os.WriteFile(*output, asm, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}
	if _, err := os.Stdout.Write(asm); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// runSimulate compiles src, executes it in the simulator and prints the
// value main returns.
func runSimulate(filename, src string) int {
	tr := newTracer()
	asm, err := compile(filename, src, tr)
	if err != nil {
		reportError(os.Stderr, src, err)
		return 1
	}

	prog, err := asmsim.Parse(string(asm))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	m := asmsim.NewMachine(prog)
	m.MaxSteps = *maxSteps
	v, err := m.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	tr.done("run", fmt.Sprintf("%d steps", m.Steps()))

	fmt.Printf("%d\n", v)
	return 0
}

// ----------------------------------------------------------------------------
// Debug output

// runEmitTokens scans src and prints all tokens with positions.
func runEmitTokens(filename, src string) int {
	tr := newTracer()
	toks, err := syntax.Tokenize(filename, src)
	if err != nil {
		reportError(os.Stderr, src, err)
		return 1
	}
	tr.done("lex", fmt.Sprintf("%d tokens", len(toks)))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%-20s %-12s %s\n", "POSITION", "TOKEN", "LITERAL")
	fmt.Fprintf(&buf, "%-20s %-12s %s\n", strings.Repeat("-", 20), strings.Repeat("-", 12), strings.Repeat("-", 20))
	for _, t := range toks {
		fmt.Fprintf(&buf, "%-20s %-12s %q\n", t.Pos, t.Tok, t.Lit)
	}
	return flush(&buf)
}

// runEmitAST parses src and prints the AST in the -ast-format format.
func runEmitAST(filename, src string) int {
	tr := newTracer()
	f, err := parse(filename, src, tr)
	if err != nil {
		reportError(os.Stderr, src, err)
		return 1
	}

	var buf bytes.Buffer
	switch *astFormat {
	case "text":
		syntax.Fprint(&buf, f)
	case "json":
		err = syntax.FprintJSON(&buf, f)
	case "dump":
		err = syntax.FprintDump(&buf, f)
	default:
		err = fmt.Errorf("unknown AST format %q", *astFormat)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return flush(&buf)
}

// runEmitLocals parses src and prints the local variable table.
func runEmitLocals(filename, src string) int {
	f, err := parse(filename, src, newTracer())
	if err != nil {
		reportError(os.Stderr, src, err)
		return 1
	}
	fmt.Print(f.Locals)
	return 0
}

func flush(buf *bytes.Buffer) int {
	if _, err := buf.WriteTo(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// runDoctor reports whether the host can assemble and run the output.
func runDoctor() int {
	fmt.Println("stackc Toolchain Doctor")
	fmt.Println("=======================")
	fmt.Println()

	allOk := true

	target := runtime.GOOS + "/" + runtime.GOARCH
	fmt.Printf("host:    %s", target)
	if nativeTarget(runtime.GOOS, runtime.GOARCH) {
		fmt.Println(" ✓")
	} else {
		fmt.Println(" ✗ (output needs linux/amd64; use -run to simulate)")
		allOk = false
	}

	ccVersion, ccOk := checkTool("cc", "--version")
	fmt.Printf("cc:      %s", ccVersion)
	if ccOk {
		fmt.Println(" ✓")
	} else {
		fmt.Println(" ✗ (not found)")
		allOk = false
	}

	asVersion, asOk := checkTool("as", "--version")
	fmt.Printf("as:      %s", asVersion)
	if asOk {
		fmt.Println(" ✓")
	} else {
		fmt.Println(" (optional, not found)")
	}

	fmt.Println()
	if allOk {
		fmt.Println("All required tools available!")
		return 0
	}

	fmt.Println("Some required tools are missing.")
	return 1
}

// nativeTarget reports whether binaries assembled from stackc output run
// on goos/goarch.
func nativeTarget(goos, goarch string) bool {
	return goos == "linux" && goarch == "amd64"
}

// checkTool runs a tool with the given arguments and returns the first line of output.
func checkTool(name string, args ...string) (string, bool) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", false
	}

	line, _, _ := strings.Cut(string(out), "\n")
	line = strings.TrimSpace(line)
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line, true
}

// ----------------------------------------------------------------------------
// Diagnostics

// reportError prints err. Lexical and syntax errors are shown as
//
//	pos: kind: message
//	<source line>
//	    ^
func reportError(w io.Writer, src string, err error) {
	var (
		pos  syntax.Pos
		kind syntax.ErrorKind
		msg  string
	)
	var lexErr *syntax.LexError
	var parseErr *syntax.ParseError
	switch {
	case errors.As(err, &lexErr):
		pos, kind, msg = lexErr.Pos, lexErr.Kind, lexErr.Msg
	case errors.As(err, &parseErr):
		pos, kind, msg = parseErr.Pos, parseErr.Kind, parseErr.Msg
	default:
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "%s: %s: %s\n", pos, kind, msg)
	if line, col, ok := sourceLine(src, pos); ok {
		fmt.Fprintf(w, "%s\n%s^\n", line, caretPad(line, col))
	}
}

// sourceLine returns the text of the line holding pos and the caret
// column within it.
func sourceLine(src string, pos syntax.Pos) (line string, col int, ok bool) {
	offs := pos.Offset()
	if offs < 0 || offs > len(src) {
		return "", 0, false
	}
	start := strings.LastIndexByte(src[:offs], '\n') + 1
	end := strings.IndexByte(src[offs:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += offs
	}
	return strings.TrimRight(src[start:end], "\r"), offs - start, true
}

// caretPad returns whitespace that lines up with column col of line,
// keeping tabs so the caret stays aligned.
func caretPad(line string, col int) string {
	if col > len(line) {
		col = len(line)
	}
	var b strings.Builder
	for i := 0; i < col; i++ {
		if line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
