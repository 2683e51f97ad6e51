// Package parser implements Roxy's Pratt expression parser and
// recursive-descent statement parser.
//
// Grounded on original_source/src/roxy/parser.cpp (the s_parse_rules
// precedence table) and flapc/parser.go for the general recursive-
// descent statement-parser shape; spec.md §4.4 is authoritative where
// it differs from the original (notably: `%` sits in the Factor tier
// alongside `* /`, not in Term as the original C++ parser has it).
package parser

import (
	"fmt"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/scanner"
	"github.com/xyproto/roxy/internal/roxy/token"
)

// ParseError is one parse-stage diagnostic. Error renders it as
// `Error at 'lexeme': message`, without a line number; Loc holds the
// byte offset of the offending token.
type ParseError struct {
	Loc     token.SourceLocation
	Lexeme  string
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("Error at '%s': %s", e.Lexeme, e.Message)
}

// Precedence orders binding strength from loosest to tightest, per
// spec.md §4.4: None < Assignment < Ternary < LogicalOr < LogicalAnd <
// Equality < Comparison < Term < Factor < Unary < Call < Primary.
type Precedence uint8

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecTernary
	PrecLogicalOr
	PrecLogicalAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type (
	prefixFn func(p *Parser, canAssign bool) ast.Expr
	infixFn  func(p *Parser, left ast.Expr, canAssign bool) ast.Expr
)

type parseRule struct {
	prefix prefixFn
	infix  infixFn
	prec   Precedence
}

// rules is the static parse-rule table mapping every token kind to its
// {prefix rule, infix rule, precedence}, ported in structure from
// s_parse_rules in original_source/src/roxy/parser.cpp.
var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:     {prefix: (*Parser).grouping, infix: (*Parser).call, prec: PrecCall},
		token.Dot:           {infix: (*Parser).dot, prec: PrecCall},
		token.Minus:         {prefix: (*Parser).unary, infix: (*Parser).binary, prec: PrecTerm},
		token.Plus:          {infix: (*Parser).binary, prec: PrecTerm},
		token.Slash:         {infix: (*Parser).binary, prec: PrecFactor},
		token.Star:          {infix: (*Parser).binary, prec: PrecFactor},
		token.Percent:       {infix: (*Parser).binary, prec: PrecFactor},
		token.Bang:          {prefix: (*Parser).unary},
		token.BangEqual:     {infix: (*Parser).binary, prec: PrecEquality},
		token.EqualEqual:    {infix: (*Parser).binary, prec: PrecEquality},
		token.Greater:       {infix: (*Parser).binary, prec: PrecComparison},
		token.GreaterEqual:  {infix: (*Parser).binary, prec: PrecComparison},
		token.Less:          {infix: (*Parser).binary, prec: PrecComparison},
		token.LessEqual:     {infix: (*Parser).binary, prec: PrecComparison},
		token.AmpAmp:        {infix: (*Parser).binary, prec: PrecLogicalAnd},
		token.BarBar:        {infix: (*Parser).binary, prec: PrecLogicalOr},
		token.QuestionMark:  {infix: (*Parser).ternary, prec: PrecTernary},
		token.Identifier:    {prefix: (*Parser).variable},
		token.String:        {prefix: (*Parser).stringLiteral},
		token.NumberInt:     {prefix: (*Parser).intLiteral},
		token.NumberFloat:   {prefix: (*Parser).floatLiteral},
		token.True:          {prefix: (*Parser).boolLiteral},
		token.False:         {prefix: (*Parser).boolLiteral},
		token.Nil:           {prefix: (*Parser).nilLiteral},
	}
}

func getRule(t token.Type) parseRule {
	return rules[t]
}

// Parser drives both the Pratt expression parser and the surrounding
// statement grammar over a single module's token stream.
type Parser struct {
	scan    *scanner.Scanner
	source  []byte
	current token.Token
	prev    token.Token

	hadError   bool
	panicMode  bool
	errors     []ParseError
	moduleName string
}

// New creates a Parser over sc for a module named moduleName.
func New(sc *scanner.Scanner, moduleName string) *Parser {
	return &Parser{scan: sc, source: sc.Source(), moduleName: moduleName}
}

// Parse consumes the entire token stream and returns the module's AST
// root plus any accumulated parse errors. The returned ModuleStmt is
// always structurally complete (Error nodes mark failure points) so
// that later stages may still run partially, per spec.md §4.4.
func (p *Parser) Parse() (*ast.ModuleStmt, []ParseError) {
	p.advance()
	mod := &ast.ModuleStmt{Name: p.moduleName}
	for !p.check(token.Eof) {
		if p.check(token.Import) {
			mod.Imports = append(mod.Imports, p.importDecl())
			continue
		}
		decl := p.declaration()
		mod.Decls = append(mod.Decls, decl)
		if fd, ok := decl.(*ast.FunDecl); ok && fd.Pub {
			mod.Exports = append(mod.Exports, fd)
		}
	}
	return mod, p.errors
}

// --- token plumbing ---

func (p *Parser) advance() {
	p.prev = p.current
	for {
		p.current = p.scan.NextToken()
		if !p.current.IsError() {
			break
		}
		p.errorAtCurrent(p.current.Type.String())
	}
}

func (p *Parser) check(t token.Type) bool { return p.current.Type == t }

func (p *Parser) match(t token.Type) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(t token.Type, message string) token.Token {
	if p.current.Type == t {
		tok := p.current
		p.advance()
		return tok
	}
	p.errorAtCurrent(message)
	return p.current
}

func (p *Parser) lexeme(t token.Token) string { return t.Str(p.source) }

func (p *Parser) errorAtCurrent(message string) { p.errorAt(p.current, message) }
func (p *Parser) error(message string)          { p.errorAt(p.prev, message) }

func (p *Parser) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true
	p.errors = append(p.errors, ParseError{Loc: tok.Loc(), Lexeme: p.lexeme(tok), Message: message})
}

// synchronize implements panic-mode recovery: skip tokens until a
// statement boundary (a semicolon, or a leading statement keyword) is
// found, per spec.md §4.4.
func (p *Parser) synchronize() {
	p.panicMode = false
	for p.current.Type != token.Eof {
		if p.prev.Type == token.Semicolon {
			return
		}
		switch p.current.Type {
		case token.Struct, token.Fun, token.Var, token.For, token.If,
			token.While, token.Return, token.Break, token.Continue, token.Import, token.Native:
			return
		}
		p.advance()
	}
}

func (p *Parser) loc(start token.Token) token.SourceLocation {
	return token.FromStartEnd(start.Offset, p.prev.Offset+uint32(p.prev.Length))
}
