package parser

import (
	"testing"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/scanner"
)

func parseModule(t *testing.T, src string) *ast.ModuleStmt {
	t.Helper()
	p := New(scanner.New([]byte(src)), "test")
	mod, errs := p.Parse()
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return mod
}

func TestParseVarDeclWithInit(t *testing.T) {
	mod := parseModule(t, `var x: i32 = 1 + 2;`)
	if len(mod.Decls) != 1 {
		t.Fatalf("len(Decls) = %d, want 1", len(mod.Decls))
	}
	stmt, ok := mod.Decls[0].(*ast.VarStmt)
	if !ok {
		t.Fatalf("Decls[0] = %T, want *ast.VarStmt", mod.Decls[0])
	}
	if stmt.Init == nil {
		t.Fatal("VarStmt.Init is nil")
	}
	if _, ok := stmt.Init.(*ast.BinaryExpr); !ok {
		t.Errorf("VarStmt.Init = %T, want *ast.BinaryExpr", stmt.Init)
	}
}

func TestParseFunDeclExported(t *testing.T) {
	mod := parseModule(t, `pub fun add(a: i32, b: i32): i32 { return a + b; }`)
	if len(mod.Decls) != 1 {
		t.Fatalf("len(Decls) = %d, want 1", len(mod.Decls))
	}
	fd, ok := mod.Decls[0].(*ast.FunDecl)
	if !ok {
		t.Fatalf("Decls[0] = %T, want *ast.FunDecl", mod.Decls[0])
	}
	if !fd.Pub {
		t.Error("FunDecl.Pub = false, want true")
	}
	if len(fd.Params) != 2 {
		t.Errorf("len(Params) = %d, want 2", len(fd.Params))
	}
	if len(mod.Exports) != 1 || mod.Exports[0] != fd {
		t.Errorf("mod.Exports = %v, want [fd]", mod.Exports)
	}
}

func TestParseNativeFunDecl(t *testing.T) {
	mod := parseModule(t, `native fun clock(): f64;`)
	fd, ok := mod.Decls[0].(*ast.FunDecl)
	if !ok {
		t.Fatalf("Decls[0] = %T, want *ast.FunDecl", mod.Decls[0])
	}
	if !fd.IsNative {
		t.Error("FunDecl.IsNative = false, want true")
	}
	if fd.Body != nil {
		t.Error("native FunDecl.Body should be nil")
	}
}

func TestParseWildcardImport(t *testing.T) {
	mod := parseModule(t, `import lib.*;`)
	if len(mod.Imports) != 1 {
		t.Fatalf("len(Imports) = %d, want 1", len(mod.Imports))
	}
	imp := mod.Imports[0]
	if !imp.IsWildcard() {
		t.Error("ImportStmt.IsWildcard() = false, want true")
	}
	if len(imp.PackagePath) != 1 {
		t.Errorf("len(PackagePath) = %d, want 1", len(imp.PackagePath))
	}
}

func TestParseSelectiveImport(t *testing.T) {
	mod := parseModule(t, `import a.b.c;`)
	imp := mod.Imports[0]
	if imp.IsWildcard() {
		t.Error("ImportStmt.IsWildcard() = true, want false")
	}
	if len(imp.PackagePath) != 2 {
		t.Errorf("len(PackagePath) = %d, want 2 (a, b)", len(imp.PackagePath))
	}
	if len(imp.ImportSymbols) != 1 {
		t.Errorf("len(ImportSymbols) = %d, want 1 (c)", len(imp.ImportSymbols))
	}
}

func TestParseImportBraceList(t *testing.T) {
	mod := parseModule(t, `import a.{b, c};`)
	imp := mod.Imports[0]
	if len(imp.PackagePath) != 1 {
		t.Errorf("len(PackagePath) = %d, want 1 (a)", len(imp.PackagePath))
	}
	if len(imp.ImportSymbols) != 2 {
		t.Errorf("len(ImportSymbols) = %d, want 2 (b, c)", len(imp.ImportSymbols))
	}
}

func TestParsePrecedence(t *testing.T) {
	mod := parseModule(t, `var x: i32 = 1 + 2 * 3;`)
	stmt := mod.Decls[0].(*ast.VarStmt)
	bin := stmt.Init.(*ast.BinaryExpr)
	if _, ok := bin.Right.(*ast.BinaryExpr); !ok {
		t.Errorf("expected 1 + (2 * 3), right operand = %T", bin.Right)
	}
	if _, ok := bin.Left.(*ast.LiteralExpr); !ok {
		t.Errorf("expected left operand to be the literal 1, got %T", bin.Left)
	}
}

func TestParseShortCircuitOperators(t *testing.T) {
	mod := parseModule(t, `var x: bool = true && false || true;`)
	stmt := mod.Decls[0].(*ast.VarStmt)
	if _, ok := stmt.Init.(*ast.BinaryExpr); !ok {
		t.Fatalf("Init = %T, want *ast.BinaryExpr", stmt.Init)
	}
}

func TestParseIfElseAndWhile(t *testing.T) {
	mod := parseModule(t, `
fun f() {
	if (true) { } else { }
	while (false) { }
}
`)
	fd := mod.Decls[0].(*ast.FunDecl)
	body := fd.Body
	if len(body.Stmts) != 2 {
		t.Fatalf("len(body.Stmts) = %d, want 2", len(body.Stmts))
	}
	ifStmt, ok := body.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.IfStmt", body.Stmts[0])
	}
	if ifStmt.Else == nil {
		t.Error("IfStmt.Else is nil, want a present empty block")
	}
	if _, ok := body.Stmts[1].(*ast.WhileStmt); !ok {
		t.Errorf("Stmts[1] = %T, want *ast.WhileStmt", body.Stmts[1])
	}
}

func TestParseStructDecl(t *testing.T) {
	mod := parseModule(t, `
struct Point {
	x: i32;
	y: i32;
}
`)
	st, ok := mod.Decls[0].(*ast.StructStmt)
	if !ok {
		t.Fatalf("Decls[0] = %T, want *ast.StructStmt", mod.Decls[0])
	}
	if len(st.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(st.Fields))
	}
	if st.Fields[0].Name != "x" || st.Fields[1].Name != "y" {
		t.Errorf("Fields = %+v, want x then y", st.Fields)
	}
}

func TestParseErrorRecovery(t *testing.T) {
	p := New(scanner.New([]byte(`var ; var y: i32 = 1;`)), "test")
	mod, errs := p.Parse()
	if len(errs) == 0 {
		t.Fatal("expected at least one parse error for 'var ;'")
	}
	if len(mod.Decls) != 2 {
		t.Fatalf("len(Decls) = %d, want 2 (recovery should still parse the second decl)", len(mod.Decls))
	}
}
