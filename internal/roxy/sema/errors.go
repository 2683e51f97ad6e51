// Package sema implements Roxy's two-phase semantic analyzer: a
// dependency scan that registers each module's exported symbols, and a
// typecheck pass that resolves names, infers types, and mutates the AST
// with resolved types and local-slot indices.
//
// Grounded on original_source/src/roxy/sema.cpp for the operator
// compatibility rules (is_type_same/is_type_compatible, per-ExprType
// get_type rules) -- ported with one deliberate correction: the
// original's unary `-` handler sets the result type to Bool, which
// looks like a transcription bug against its own stated contract
// ("Unary Minus requires number"); Roxy's analyzer preserves the
// operand's numeric type instead, per spec.md §4.5.
package sema

import (
	"fmt"

	"github.com/xyproto/roxy/internal/roxy/token"
)

// ErrorKind discriminates the four semantic-error categories spec.md
// §7 names.
type ErrorKind uint8

const (
	UndefinedVariable ErrorKind = iota
	IncompatibleTypes
	CannotInferType
	Misc
)

func (k ErrorKind) String() string {
	switch k {
	case UndefinedVariable:
		return "UndefinedVariable"
	case IncompatibleTypes:
		return "IncompatibleTypes"
	case CannotInferType:
		return "CannotInferType"
	default:
		return "Misc"
	}
}

// Error is one semantic-analysis diagnostic. All errors produced while
// analyzing one module are collected before that module's compilation
// is abandoned (spec.md §7 propagation rule).
type Error struct {
	Kind    ErrorKind
	Loc     token.SourceLocation
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ToLine renders `[line L] Error at 'lexeme': message` given the
// module's source and scanner-style line lookup, matching the
// library-level error text format from library.cpp.
func (e Error) ToLine(source []byte, lineOf func(token.SourceLocation) uint32) string {
	lexeme := ""
	if int(e.Loc.Offset)+int(e.Loc.Length) <= len(source) {
		lexeme = string(source[e.Loc.Offset : e.Loc.Offset+uint32(e.Loc.Length)])
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", lineOf(e.Loc), lexeme, e.Message)
}
