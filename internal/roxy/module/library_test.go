package module

import (
	"bytes"
	"testing"
)

// compileAndRun compiles a single-module program named "main" and
// returns whatever it wrote to stdout.
func compileAndRun(t *testing.T, src string) string {
	t.Helper()
	var out bytes.Buffer
	lib := NewLibrary(&out)
	if err := lib.AddSource("main", []byte(src)); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if err := lib.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := lib.Run("main"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

// TestArithmeticAndLocals is spec.md §8 scenario S1.
func TestArithmeticAndLocals(t *testing.T) {
	src := `
var a: i32 = 2;
var b: i32 = 3;
print_i32(a + b * 4);
`
	if got, want := compileAndRun(t, src), "14\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestConditionalAndLoop is spec.md §8 scenario S2.
func TestConditionalAndLoop(t *testing.T) {
	src := `
var i: i32 = 0;
var s: i32 = 0;
while (i < 5) {
	s = s + i;
	i = i + 1;
}
print_i32(s);
`
	if got, want := compileAndRun(t, src), "10\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestStringConcat is spec.md §8 scenario S3.
func TestStringConcat(t *testing.T) {
	src := `print(concat("foo", "bar"));`
	if got, want := compileAndRun(t, src), "foobar\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestFunctionCall is spec.md §8 scenario S4.
func TestFunctionCall(t *testing.T) {
	src := `
fun sq(x: i32): i32 { return x * x; }
print_i32(sq(7));
`
	if got, want := compileAndRun(t, src), "49\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestShortCircuit is spec.md §8 scenario S5: side() must never run.
func TestShortCircuit(t *testing.T) {
	src := `
fun side(): bool { print("x"); return true; }
if (false && side()) { print("a"); } else { print("b"); }
`
	if got, want := compileAndRun(t, src), "b\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestStringEquality checks that == and != compare string identity
// rather than always agreeing: string Values carry their payload in a
// ref field, not the bit pattern a naive reuse of the integer compare
// would read.
func TestStringEquality(t *testing.T) {
	src := `
if ("a" == "b") { print("eq"); } else { print("neq"); }
if ("a" == "a") { print("eq"); } else { print("neq"); }
if ("a" != "b") { print("neq"); } else { print("eq"); }
`
	if got, want := compileAndRun(t, src), "neq\neq\nneq\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestImport is spec.md §8 scenario S6: a wildcard import of another
// module's pub function.
func TestImport(t *testing.T) {
	var out bytes.Buffer
	lib := NewLibrary(&out)
	if err := lib.AddSource("lib", []byte(`pub fun add(a: i32, b: i32): i32 { return a + b; }`)); err != nil {
		t.Fatalf("AddSource(lib): %v", err)
	}
	if err := lib.AddSource("main", []byte(`
import lib.*;
print_i32(add(2, 3));
`)); err != nil {
		t.Fatalf("AddSource(main): %v", err)
	}
	if err := lib.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := lib.Run("main"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := out.String(), "5\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestMissingModule asserts an unresolvable import surfaces as a
// module.LinkError with Kind MissingModule rather than a generic error.
func TestMissingModule(t *testing.T) {
	var out bytes.Buffer
	lib := NewLibrary(&out)
	if err := lib.AddSource("main", []byte(`import nope.*;`)); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	err := lib.Compile()
	if err == nil {
		t.Fatal("Compile succeeded, want a link error")
	}
	linkErr, ok := err.(LinkError)
	if !ok {
		t.Fatalf("error type = %T, want LinkError", err)
	}
	if linkErr.Kind != MissingModule {
		t.Errorf("Kind = %v, want MissingModule", linkErr.Kind)
	}
}

// TestDuplicateModule asserts registering the same module name twice
// is rejected immediately, before Compile is ever called.
func TestDuplicateModule(t *testing.T) {
	lib := NewLibrary(&bytes.Buffer{})
	if err := lib.AddSource("main", []byte(`var x: i32 = 1;`)); err != nil {
		t.Fatalf("first AddSource: %v", err)
	}
	err := lib.AddSource("main", []byte(`var y: i32 = 2;`))
	if err == nil {
		t.Fatal("second AddSource succeeded, want a duplicate-module error")
	}
	if linkErr, ok := err.(LinkError); !ok || linkErr.Kind != DuplicateModule {
		t.Errorf("got %v, want LinkError{Kind: DuplicateModule}", err)
	}
}

// TestASTLogPrintsRealIdentifiers exercises SetASTLog's wiring into
// ast.Printer end to end, guarding against the identifier-rendering bug
// fixed in printer.go (Token carries no lexeme, so printing must go
// through the module's own source buffer).
func TestASTLogPrintsRealIdentifiers(t *testing.T) {
	var out, log bytes.Buffer
	lib := NewLibrary(&out)
	lib.SetASTLog(&log)
	if err := lib.AddSource("main", []byte(`var distinctiveName: i32 = 1;`)); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if err := lib.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	text := log.String()
	if !bytes.Contains(log.Bytes(), []byte("distinctiveName")) {
		t.Errorf("AST log = %q, want it to contain the real identifier %q", text, "distinctiveName")
	}
	if !bytes.Contains(log.Bytes(), []byte("main (parsed)")) || !bytes.Contains(log.Bytes(), []byte("main (analyzed)")) {
		t.Errorf("AST log = %q, want both a parsed and an analyzed checkpoint for module 'main'", text)
	}
}

// TestDisassembleEntry exercises the compiled Entry chunk's
// disassembly path without requiring a Run -- a regression guard for
// the Entry-as-synthetic-function design (DESIGN.md's "Module
// top-level as entry function").
func TestDisassembleEntry(t *testing.T) {
	var out bytes.Buffer
	lib := NewLibrary(&out)
	if err := lib.AddSource("main", []byte(`var x: i32 = 1 + 2;`)); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if err := lib.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	m, ok := lib.Module("main")
	if !ok {
		t.Fatal("Module(\"main\") not found")
	}
	if m.Entry == nil {
		t.Fatal("m.Entry is nil")
	}
	var dis bytes.Buffer
	m.Entry.Disassemble(&dis)
	if dis.Len() == 0 {
		t.Error("Disassemble produced no output")
	}
}
