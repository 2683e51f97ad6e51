// Package ast defines Roxy's typed-AST node shapes as tagged sums
// expressed through Go interfaces with a sealing marker method --
// flapc's Node/Statement/Expression interface-plus-marker idiom
// (ast.go), generalized so a visitor becomes an exhaustive type switch
// over the concrete node type instead of a CRTP-style visitor class.
package ast

import (
	"fmt"
	"strings"

	"github.com/xyproto/roxy/internal/roxy/token"
)

// Node is the root of every AST node: every node knows its own source
// span and renders to a deterministic string (used by AstPrinter and by
// error messages).
type Node interface {
	fmt.Stringer
	Loc() token.SourceLocation
}

// Expr is any expression node. Every non-Error expression gains a
// resolved Type once semantic analysis succeeds (ResolvedType returns
// nil beforehand).
type Expr interface {
	Node
	exprNode()
	ResolvedType() Type
	SetResolvedType(Type)
}

// exprBase factors the fields every concrete Expr shares: its source
// span and its post-analysis resolved type.
type exprBase struct {
	Location token.SourceLocation
	Type_    Type
}

func (e *exprBase) Loc() token.SourceLocation  { return e.Location }
func (e *exprBase) ResolvedType() Type         { return e.Type_ }
func (e *exprBase) SetResolvedType(t Type)     { e.Type_ = t }
func (e *exprBase) exprNode()                  {}

// SetLoc records the node's source span. Not part of the Expr
// interface (callers that only need to read it use Loc); the parser
// sets it once after a node's operands are fully parsed. Most nodes
// span their first token through the last consumed token; a call or
// field access starts at its '(' or '.', a binary or ternary node
// reuses its left operand's span, and a variable or assignment uses
// its name token's span.
func (e *exprBase) SetLoc(loc token.SourceLocation) { e.Location = loc }

// ErrorExpr marks a parse failure; downstream stages skip it rather
// than typecheck it, but its presence lets the parser return a
// complete-shaped AST even after an error (panic-mode recovery).
type ErrorExpr struct {
	exprBase
	Message string
}

func (e *ErrorExpr) String() string { return "<error: " + e.Message + ">" }

// AssignExpr is `target = value`. Target must resolve (by the analyzer)
// to an AstVarDecl; it is not itself a general lvalue expression in
// this design (no GetExpr/SetExpr compound targets are implemented --
// see the compiler's Unimplemented error kind).
type AssignExpr struct {
	exprBase
	Name  token.Token
	Value Expr
	// Resolved is populated by the semantic analyzer: the local
	// declaration this assignment targets.
	Resolved *VarDecl
}

func (e *AssignExpr) String() string {
	return fmt.Sprintf("(%s = %s)", e.Name.Type, e.Value)
}

// BinaryExpr is `left op right` for arithmetic, comparison, equality,
// and logical operators.
type BinaryExpr struct {
	exprBase
	Left     Expr
	Operator token.Token
	Right    Expr
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Operator.Type, e.Right)
}

// TernaryExpr is `cond ? then : else`.
type TernaryExpr struct {
	exprBase
	Cond, Then, Else Expr
}

func (e *TernaryExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.Cond, e.Then, e.Else)
}

// GroupingExpr is a parenthesized sub-expression, kept distinct from its
// inner expression only to preserve source fidelity for the printer.
type GroupingExpr struct {
	exprBase
	Inner Expr
}

func (e *GroupingExpr) String() string { return fmt.Sprintf("(group %s)", e.Inner) }

// LiteralKind discriminates LiteralExpr's payload.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
	LitNil
)

// LiteralExpr is a literal int/float/string/bool/nil value as written in
// source.
type LiteralExpr struct {
	exprBase
	Kind    LiteralKind
	IntVal  int64
	FltVal  float64
	StrVal  string
	BoolVal bool
}

func (e *LiteralExpr) String() string {
	switch e.Kind {
	case LitInt:
		return fmt.Sprintf("%d", e.IntVal)
	case LitFloat:
		return fmt.Sprintf("%g", e.FltVal)
	case LitString:
		return fmt.Sprintf("%q", e.StrVal)
	case LitBool:
		return fmt.Sprintf("%t", e.BoolVal)
	default:
		return "nil"
	}
}

// UnaryExpr is `op operand` for `-` and `!`.
type UnaryExpr struct {
	exprBase
	Operator token.Token
	Operand  Expr
}

func (e *UnaryExpr) String() string { return fmt.Sprintf("(%s%s)", e.Operator.Type, e.Operand) }

// VariableExpr references a name. Resolved is populated by the semantic
// analyzer: either a *VarDecl (local/param) or a *FunDecl (callable).
// After a successful analysis pass, every VariableExpr has a non-nil
// resolution (one of the two fields below).
type VariableExpr struct {
	exprBase
	Name         token.Token
	ResolvedVar  *VarDecl
	ResolvedFunc *FunDecl
}

func (e *VariableExpr) String() string { return e.Name.Type.String() }

// CallExpr is `callee(args...)`. Only direct calls to a named function
// (Callee is a VariableExpr resolving to a FunDecl) are implemented;
// calling a function-valued expression is a compiler Unimplemented gap
// (spec.md §4.7).
type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func (e *CallExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(parts, ", "))
}

// GetExpr is `object.field`. Lowering is an acknowledged gap (compiler
// emits Unimplemented); the node exists so the parser and analyzer have
// a complete surface to build on.
type GetExpr struct {
	exprBase
	Object Expr
	Name   token.Token
}

func (e *GetExpr) String() string { return fmt.Sprintf("%s.%s", e.Object, e.Name.Type) }

// SetExpr is `object.field = value`. Same Unimplemented-gap status as GetExpr.
type SetExpr struct {
	exprBase
	Object Expr
	Name   token.Token
	Value  Expr
}

func (e *SetExpr) String() string { return fmt.Sprintf("%s.%s = %s", e.Object, e.Name.Type, e.Value) }
