package ast

import (
	"fmt"
	"strings"

	"github.com/xyproto/roxy/internal/roxy/token"
)

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

type stmtBase struct {
	Location token.SourceLocation
}

func (s *stmtBase) Loc() token.SourceLocation { return s.Location }
func (s *stmtBase) stmtNode()                 {}

// SetLoc records the statement's source span, mirroring exprBase.SetLoc.
func (s *stmtBase) SetLoc(loc token.SourceLocation) { s.Location = loc }

// ErrorStmt marks a parse failure synchronized at the next statement
// boundary; see parser panic-mode recovery (spec.md §4.4).
type ErrorStmt struct {
	stmtBase
	Message string
}

func (s *ErrorStmt) String() string { return "<error: " + s.Message + ">" }

// BlockStmt is `{ stmts... }`; it introduces a lexical scope.
type BlockStmt struct {
	stmtBase
	Stmts []Stmt
}

func (s *BlockStmt) String() string {
	parts := make([]string, len(s.Stmts))
	for i, st := range s.Stmts {
		parts[i] = st.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

// ImportStmt is `import a.b.c;` (selective, ImportSymbols non-empty) or
// `import a.b.*;` (wildcard, Wildcard true). PackagePath is the
// dotted-name path before the final selector.
type ImportStmt struct {
	stmtBase
	PackagePath   []token.Token
	Wildcard      bool
	ImportSymbols []token.Token
}

func (s *ImportStmt) IsWildcard() bool { return s.Wildcard }

func (s *ImportStmt) String() string {
	var sb strings.Builder
	sb.WriteString("import ")
	for i, p := range s.PackagePath {
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(p.Type.String())
	}
	if s.Wildcard {
		sb.WriteString(".*")
	}
	sb.WriteString(";")
	return sb.String()
}

// ModuleStmt is the synthetic root statement produced by parsing one
// source file / module: a flat sequence of top-level declarations plus
// the accumulated import and export lists the link step needs.
type ModuleStmt struct {
	stmtBase
	Name    string
	Imports []*ImportStmt
	Decls   []Stmt
	// Exports holds every *FunDecl marked `pub` at the top level,
	// filled by the parser and rebuilt during Phase A (dependency scan).
	Exports []*FunDecl
	// Entry is a synthetic, unexported FunDecl wrapping every top-level
	// statement that is not itself a FunDecl/StructStmt (var decls,
	// expression statements, control flow run at module scope),
	// populated during Phase B (sema.Analyzer.Analyze) so the compiler
	// can lower a module's top-level code the same way it lowers any
	// other function body.
	Entry *FunDecl
}

func (s *ModuleStmt) String() string {
	parts := make([]string, len(s.Decls))
	for i, d := range s.Decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

// ExpressionStmt wraps a bare expression used as a statement.
type ExpressionStmt struct {
	stmtBase
	Expr Expr
}

func (s *ExpressionStmt) String() string { return s.Expr.String() + ";" }

// StructStmt declares a struct type at module scope.
type StructStmt struct {
	stmtBase
	Name   token.Token
	Fields []FieldDecl
	// Resolved is populated by the analyzer's Phase B (Analyze).
	Resolved *StructType
}

func (s *StructStmt) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Name + ": " + f.Type.String()
	}
	return "struct " + s.Name.Type.String() + " { " + strings.Join(parts, "; ") + " }"
}

// ParamDecl is one function parameter: name plus declared type.
type ParamDecl struct {
	Name token.Token
	Type Type
}

// VarDecl is a resolved local variable or parameter: a name, a type
// (filled in by the analyzer if it was inferred), and a stable
// local-slot index assigned in source order within its enclosing
// function (parameters first). The compiler's FnLocalEnv consumes the
// flat ordered list of these hanging off each FunDecl.
type VarDecl struct {
	Name       token.Token
	Type       Type
	LocalIndex int
	IsParam    bool
}

// FunDecl is `fun name(params): ret { body }` or, when IsNative is set,
// `native fun name(params): ret;` (no body). Pub marks it exported for
// cross-module import. Locals is the flat ordered list of every
// Var/param declaration reachable in this function's body, assigned
// during semantic analysis.
type FunDecl struct {
	stmtBase
	Name     token.Token
	Params   []ParamDecl
	RetType  Type
	Body     *BlockStmt // nil when IsNative
	IsNative bool
	Pub      bool
	// Module is the owning module's name, populated for `pub` functions
	// by sema.ScanDependencies (Phase A) so an exported FunDecl carries
	// enough context to resolve a cross-module call after compilation.
	Module string
	Locals []*VarDecl
	// Resolved is the analyzer's computed signature.
	Resolved *FunctionType
}

func (s *FunDecl) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.Name.Type.String() + ": " + p.Type.String()
	}
	prefix := "fun "
	if s.IsNative {
		prefix = "native fun "
	}
	if s.Pub {
		prefix = "pub " + prefix
	}
	head := prefix + s.Name.Type.String() + "(" + strings.Join(params, ", ") + ")"
	if s.RetType != nil {
		head += ": " + s.RetType.String()
	}
	if s.Body == nil {
		return head + ";"
	}
	return head + " " + s.Body.String()
}

// IfStmt is `if (cond) then [else else_]`.
type IfStmt struct {
	stmtBase
	Cond Expr
	Then Stmt
	Else Stmt // nil if absent
}

func (s *IfStmt) String() string {
	if s.Else == nil {
		return fmt.Sprintf("if (%s) %s", s.Cond, s.Then)
	}
	return fmt.Sprintf("if (%s) %s else %s", s.Cond, s.Then, s.Else)
}

// VarStmt is `var name [: T] [= init];`.
type VarStmt struct {
	stmtBase
	Decl *VarDecl
	Init Expr // nil if absent
}

func (s *VarStmt) String() string {
	head := "var " + s.Decl.Name.Type.String()
	if s.Decl.Type != nil {
		head += ": " + s.Decl.Type.String()
	}
	if s.Init != nil {
		head += " = " + s.Init.String()
	}
	return head + ";"
}

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	stmtBase
	Cond Expr
	Body Stmt
}

func (s *WhileStmt) String() string { return fmt.Sprintf("while (%s) %s", s.Cond, s.Body) }

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	stmtBase
	Value Expr // nil for a bare `return;`
}

func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return;"
	}
	return "return " + s.Value.String() + ";"
}

// BreakStmt is `break;`.
type BreakStmt struct{ stmtBase }

func (s *BreakStmt) String() string { return "break;" }

// ContinueStmt is `continue;`.
type ContinueStmt struct{ stmtBase }

func (s *ContinueStmt) String() string { return "continue;" }
