package parser

import (
	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/token"
)

// parseType parses a type annotation: a bare identifier naming either a
// primitive (i32, f64, string, ...) or a user struct. Primitive names
// are not reserved keywords -- see original_source/include/roxy/token.hpp
// -- so resolution against the fixed primitive-name table happens here
// at parse time for primitives, while struct names are left as
// UnassignedType for the semantic analyzer to resolve against the
// module's struct table.
func (p *Parser) parseType() ast.Type {
	name := p.consume(token.Identifier, "Expected type name.")
	text := p.lexeme(name)
	if kind, ok := ast.LookupPrim(text); ok {
		return ast.PrimSingleton(kind)
	}
	return &ast.UnassignedType{Name: text}
}
