package ast

import (
	"fmt"
	"strings"

	"github.com/xyproto/roxy/internal/roxy/token"
)

// Printer renders a parsed/analyzed module back to a deterministic,
// fully-parenthesized text form, grounded on the link step's use of an
// AstPrinter to log both the parsed and analyzed shape of every module
// (original_source/src/roxy/library.cpp calls AstPrinter(...).to_string
// once after parsing and again after typechecking).
//
// Node.String() is not enough for this: it has no access to the source
// buffer, so every identifier-bearing Token renders as its lexical
// category ("identifier") rather than its actual name. Printer walks
// the tree itself so it can resolve each Token's real text against
// Source.
type Printer struct {
	Source []byte
}

func (p Printer) tok(t token.Token) string { return t.Str(p.Source) }

// ToString renders mod deterministically, one top-level declaration per
// line.
func (p Printer) ToString(mod *ModuleStmt) string {
	parts := make([]string, len(mod.Decls))
	for i, d := range mod.Decls {
		parts[i] = p.stmt(d)
	}
	return strings.Join(parts, "\n")
}

func (p Printer) stmt(s Stmt) string {
	switch s := s.(type) {
	case *ErrorStmt:
		return "<error: " + s.Message + ">"
	case *BlockStmt:
		parts := make([]string, len(s.Stmts))
		for i, st := range s.Stmts {
			parts[i] = p.stmt(st)
		}
		return "{ " + strings.Join(parts, " ") + " }"
	case *ImportStmt:
		var sb strings.Builder
		sb.WriteString("import ")
		for i, t := range s.PackagePath {
			if i > 0 {
				sb.WriteString(".")
			}
			sb.WriteString(p.tok(t))
		}
		if s.Wildcard {
			sb.WriteString(".*")
		} else {
			for i, t := range s.ImportSymbols {
				if i > 0 || len(s.PackagePath) > 0 {
					sb.WriteString(".")
				}
				sb.WriteString(p.tok(t))
			}
		}
		sb.WriteString(";")
		return sb.String()
	case *ExpressionStmt:
		return p.expr(s.Expr) + ";"
	case *StructStmt:
		parts := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			parts[i] = f.Name + ": " + f.Type.String()
		}
		return "struct " + p.tok(s.Name) + " { " + strings.Join(parts, "; ") + " }"
	case *FunDecl:
		return p.funDecl(s)
	case *IfStmt:
		if s.Else == nil {
			return fmt.Sprintf("if (%s) %s", p.expr(s.Cond), p.stmt(s.Then))
		}
		return fmt.Sprintf("if (%s) %s else %s", p.expr(s.Cond), p.stmt(s.Then), p.stmt(s.Else))
	case *VarStmt:
		head := "var " + p.tok(s.Decl.Name)
		if s.Decl.Type != nil {
			head += ": " + s.Decl.Type.String()
		}
		if s.Init != nil {
			head += " = " + p.expr(s.Init)
		}
		return head + ";"
	case *WhileStmt:
		return fmt.Sprintf("while (%s) %s", p.expr(s.Cond), p.stmt(s.Body))
	case *ReturnStmt:
		if s.Value == nil {
			return "return;"
		}
		return "return " + p.expr(s.Value) + ";"
	case *BreakStmt:
		return "break;"
	case *ContinueStmt:
		return "continue;"
	default:
		return s.String()
	}
}

func (p Printer) funDecl(s *FunDecl) string {
	params := make([]string, len(s.Params))
	for i, prm := range s.Params {
		params[i] = p.tok(prm.Name) + ": " + prm.Type.String()
	}
	prefix := "fun "
	if s.IsNative {
		prefix = "native fun "
	}
	if s.Pub {
		prefix = "pub " + prefix
	}
	head := prefix + p.tok(s.Name) + "(" + strings.Join(params, ", ") + ")"
	if s.RetType != nil {
		head += ": " + s.RetType.String()
	}
	if s.Body == nil {
		return head + ";"
	}
	return head + " " + p.stmt(s.Body)
}

func (p Printer) expr(e Expr) string {
	switch e := e.(type) {
	case *ErrorExpr:
		return "<error: " + e.Message + ">"
	case *AssignExpr:
		return fmt.Sprintf("(%s = %s)", p.tok(e.Name), p.expr(e.Value))
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", p.expr(e.Left), e.Operator.Type, p.expr(e.Right))
	case *TernaryExpr:
		return fmt.Sprintf("(%s ? %s : %s)", p.expr(e.Cond), p.expr(e.Then), p.expr(e.Else))
	case *GroupingExpr:
		return fmt.Sprintf("(group %s)", p.expr(e.Inner))
	case *LiteralExpr:
		return e.String()
	case *UnaryExpr:
		return fmt.Sprintf("(%s%s)", e.Operator.Type, p.expr(e.Operand))
	case *VariableExpr:
		return p.tok(e.Name)
	case *CallExpr:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = p.expr(a)
		}
		return fmt.Sprintf("%s(%s)", p.expr(e.Callee), strings.Join(parts, ", "))
	case *GetExpr:
		return fmt.Sprintf("%s.%s", p.expr(e.Object), p.tok(e.Name))
	case *SetExpr:
		return fmt.Sprintf("%s.%s = %s", p.expr(e.Object), p.tok(e.Name), p.expr(e.Value))
	default:
		return e.String()
	}
}
