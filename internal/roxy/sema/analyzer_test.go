package sema

import (
	"testing"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/parser"
	"github.com/xyproto/roxy/internal/roxy/scanner"
)

func analyzeModule(t *testing.T, src string, importMap map[string]*ast.FunDecl) (*ast.ModuleStmt, []Error) {
	t.Helper()
	p := parser.New(scanner.New([]byte(src)), "test")
	mod, perrs := p.Parse()
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}
	ScanDependencies(mod)
	a := New(mod, []byte(src), importMap)
	return mod, a.Analyze()
}

func TestAnalyzeValidLocalsAndArithmetic(t *testing.T) {
	_, errs := analyzeModule(t, `
var a: i32 = 1;
var b: i32 = a + 2;
`, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestAnalyzeUndefinedVariable(t *testing.T) {
	_, errs := analyzeModule(t, `var a: i32 = b;`, nil)
	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1", len(errs))
	}
	if errs[0].Kind != UndefinedVariable {
		t.Errorf("Kind = %v, want UndefinedVariable", errs[0].Kind)
	}
}

func TestAnalyzeIncompatibleTypes(t *testing.T) {
	_, errs := analyzeModule(t, `
var a: i32 = 1;
var b: bool = true;
var c: i32 = a + b;
`, nil)
	if len(errs) == 0 {
		t.Fatal("expected an IncompatibleTypes error")
	}
	found := false
	for _, e := range errs {
		if e.Kind == IncompatibleTypes {
			found = true
		}
	}
	if !found {
		t.Errorf("errs = %v, want at least one IncompatibleTypes", errs)
	}
}

func TestScanDependenciesExportsPubFuncsOnly(t *testing.T) {
	p := parser.New(scanner.New([]byte(`
pub fun a() { }
fun b() { }
pub fun c() { }
`)), "test")
	mod, perrs := p.Parse()
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}
	ScanDependencies(mod)
	if len(mod.Exports) != 2 {
		t.Fatalf("len(Exports) = %d, want 2", len(mod.Exports))
	}
	for _, fd := range mod.Exports {
		if fd.Module != "test" {
			t.Errorf("Module = %q, want %q", fd.Module, "test")
		}
	}
}

func TestAnalyzeImportMapResolvesCall(t *testing.T) {
	libSrc := `pub fun helper(): i32 { return 1; }`
	libP := parser.New(scanner.New([]byte(libSrc)), "lib")
	libMod, perrs := libP.Parse()
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}
	ScanDependencies(libMod)

	// keyed by bare call-site name, matching module.Library's import map convention.
	importMap := map[string]*ast.FunDecl{"helper": libMod.Exports[0]}

	_, errs := analyzeModule(t, `var x: i32 = helper();`, importMap)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestAnalyzeUnaryMinusPreservesNumericType(t *testing.T) {
	_, errs := analyzeModule(t, `
var a: i32 = 5;
var b: i32 = -a + 1;
`, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v (unary minus should preserve the operand's numeric type, not coerce to bool)", errs)
	}
}

func TestBuildEntryExcludesFuncsAndStructs(t *testing.T) {
	mod, _ := analyzeModule(t, `
struct Point { x: i32; }
fun helper() { }
var a: i32 = 1;
`, nil)
	if mod.Entry == nil {
		t.Fatal("Entry is nil")
	}
	for _, s := range mod.Entry.Body.Stmts {
		switch s.(type) {
		case *ast.FunDecl, *ast.StructStmt:
			t.Errorf("Entry body should not contain %T", s)
		}
	}
}
