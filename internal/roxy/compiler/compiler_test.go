package compiler

import (
	"testing"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/bytecode"
	"github.com/xyproto/roxy/internal/roxy/parser"
	"github.com/xyproto/roxy/internal/roxy/scanner"
	"github.com/xyproto/roxy/internal/roxy/sema"
	"github.com/xyproto/roxy/internal/roxy/strtab"
)

// compileEntry parses, analyzes, and compiles src's module-level entry
// function, returning the chunk and its unresolved call targets.
func compileEntry(t *testing.T, src string) (*bytecode.Chunk, []CallTarget) {
	t.Helper()
	p := parser.New(scanner.New([]byte(src)), "main")
	mod, perrs := p.Parse()
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}
	sema.ScanDependencies(mod)
	a := sema.New(mod, []byte(src), nil)
	if errs := a.Analyze(); len(errs) != 0 {
		t.Fatalf("unexpected sema errors: %v", errs)
	}
	chunk, targets, cerrs := CompileFunction(mod.Entry, "main", strtab.New(), []byte(src), nil)
	if len(cerrs) != 0 {
		t.Fatalf("unexpected compile errors: %v", cerrs)
	}
	return chunk, targets
}

func TestCompileFunctionDedupsCallTargets(t *testing.T) {
	src := `
fun helper() { }
helper();
helper();
helper();
`
	_, targets := compileEntry(t, src)
	if len(targets) != 1 {
		t.Fatalf("len(targets) = %d, want 1 (three identical calls should dedup to one table slot)", len(targets))
	}
	if targets[0].Module != "main" || targets[0].Name != "helper" {
		t.Errorf("targets[0] = %+v, want {Module: main, Name: helper}", targets[0])
	}
}

func TestCompileFunctionDistinctCallsGetDistinctSlots(t *testing.T) {
	src := `
fun a() { }
fun b() { }
a();
b();
`
	_, targets := compileEntry(t, src)
	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}
	names := map[string]bool{targets[0].Name: true, targets[1].Name: true}
	if !names["a"] || !names["b"] {
		t.Errorf("targets = %+v, want one each for a and b", targets)
	}
}

func TestCompileStringConcatUsesBuiltinNative(t *testing.T) {
	src := `var s: string = "a" + "b";`
	_, targets := compileEntry(t, src)
	if len(targets) != 1 {
		t.Fatalf("len(targets) = %d, want 1", len(targets))
	}
	if !targets[0].IsNative || targets[0].Module != "builtin" || targets[0].Name != "concat" {
		t.Errorf("targets[0] = %+v, want the builtin concat native", targets[0])
	}
}

func TestCompileFunctionEmitsTrailingRet(t *testing.T) {
	chunk, _ := compileEntry(t, `var x: i32 = 1;`)
	if len(chunk.Bytecode) == 0 {
		t.Fatal("chunk has no bytecode")
	}
	last := chunk.Bytecode[len(chunk.Bytecode)-1]
	if bytecode.OpCode(last) != bytecode.Ret {
		t.Errorf("last emitted opcode = %s, want ret", bytecode.OpCode(last))
	}
}

func TestCompileUnreachableError(t *testing.T) {
	src := `fun f(): i32 { var x: i32 = 1; }`
	p := parser.New(scanner.New([]byte(src)), "main")
	mod, perrs := p.Parse()
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}
	sema.ScanDependencies(mod)
	a := sema.New(mod, []byte(src), nil)
	if errs := a.Analyze(); len(errs) != 0 {
		t.Fatalf("unexpected sema errors: %v", errs)
	}
	fd := mod.Decls[0].(*ast.FunDecl)
	_, _, cerrs := CompileFunction(fd, "main", strtab.New(), []byte(src), nil)
	if len(cerrs) != 1 {
		t.Fatalf("len(cerrs) = %d, want 1", len(cerrs))
	}
	if cerrs[0].Kind != Unreachable {
		t.Errorf("Kind = %v, want Unreachable", cerrs[0].Kind)
	}
}

func TestLayoutLocalsAssignsOneSlotPerLocalRegardlessOfWidth(t *testing.T) {
	chunk, _ := compileEntry(t, `
var a: i32 = 0;
var b: i64;
var c: string = "x";
var d: i32 = 0;
`)
	if len(chunk.Locals) != 4 {
		t.Fatalf("len(Locals) = %d, want 4", len(chunk.Locals))
	}
	for i, l := range chunk.Locals {
		if int(l.Start) != i {
			t.Errorf("Locals[%d].Start = %d, want %d (one slot per local, not width-scaled)", i, l.Start, i)
		}
	}
	if chunk.Locals[1].Kind != bytecode.LocalInt64 {
		t.Errorf("Locals[1].Kind = %v, want LocalInt64", chunk.Locals[1].Kind)
	}
	if chunk.Locals[2].Kind != bytecode.LocalRef {
		t.Errorf("Locals[2].Kind = %v, want LocalRef", chunk.Locals[2].Kind)
	}
}

func TestCompileIntConstWidthSelection(t *testing.T) {
	chunk, _ := compileEntry(t, `
var a: i32 = 3;
var b: i32 = 100;
var c: i32 = 100000;
`)
	if bytecode.OpCode(chunk.Bytecode[0]) != bytecode.Iconst3 {
		t.Errorf("first const op = %s, want iconst_3 for small literal 3", bytecode.OpCode(chunk.Bytecode[0]))
	}
}
