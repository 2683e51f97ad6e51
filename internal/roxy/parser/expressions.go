package parser

import (
	"strconv"
	"strings"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/token"
)

// withLoc stamps e's source span and returns it, so every node
// constructor can build-then-return in one expression.
func withLoc(e ast.Expr, loc token.SourceLocation) ast.Expr {
	e.(interface{ SetLoc(token.SourceLocation) }).SetLoc(loc)
	return e
}

// expression parses at Assignment precedence, the lowest tier where an
// expression (rather than a declaration) may start.
func (p *Parser) expression() ast.Expr {
	return p.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the Pratt driver: parse a prefix expression, then
// repeatedly fold in infix operators whose precedence is at least prec.
// Assignment targets are validated inside the variable prefix handler
// and dot's infix handler,
// which only fire when canAssign (precedence <= Assignment) is true --
// spec.md §4.4.
func (p *Parser) parsePrecedence(prec Precedence) ast.Expr {
	p.advance()
	rule := getRule(p.prev.Type)
	if rule.prefix == nil {
		p.error("Expected expression.")
		return withLoc(p.errorExpr("expected expression"), p.prev.Loc())
	}
	canAssign := prec <= PrecAssignment
	left := rule.prefix(p, canAssign)

	for prec <= getRule(p.current.Type).prec {
		p.advance()
		infixRule := getRule(p.prev.Type)
		left = infixRule.infix(p, left, canAssign)
	}

	if canAssign && p.match(token.Equal) {
		p.error("Invalid assignment target.")
	}
	return left
}

func (p *Parser) errorExpr(message string) ast.Expr {
	return &ast.ErrorExpr{Message: message}
}

func (p *Parser) grouping(canAssign bool) ast.Expr {
	start := p.prev
	inner := p.expression()
	p.consume(token.RightParen, "Expected ')' after expression.")
	return withLoc(&ast.GroupingExpr{Inner: inner}, p.loc(start))
}

// call parses `callee(args...)`, the infix form triggered by `(`.
func (p *Parser) call(left ast.Expr, canAssign bool) ast.Expr {
	start := p.prev
	var args []ast.Expr
	if !p.check(token.RightParen) {
		for {
			args = append(args, p.expression())
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.RightParen, "Expected ')' after arguments.")
	return withLoc(&ast.CallExpr{Callee: left, Args: args}, p.loc(start))
}

// dot parses `object.field` (Get), or `object.field = value` (Set) when
// canAssign and an `=` follows.
func (p *Parser) dot(left ast.Expr, canAssign bool) ast.Expr {
	start := p.prev
	name := p.consume(token.Identifier, "Expected property name after '.'.")
	if canAssign && p.match(token.Equal) {
		value := p.expression()
		return withLoc(&ast.SetExpr{Object: left, Name: name, Value: value}, p.loc(start))
	}
	return withLoc(&ast.GetExpr{Object: left, Name: name}, p.loc(start))
}

func (p *Parser) unary(canAssign bool) ast.Expr {
	op := p.prev
	operand := p.parsePrecedence(PrecUnary)
	return withLoc(&ast.UnaryExpr{Operator: op, Operand: operand}, p.loc(op))
}

func (p *Parser) binary(left ast.Expr, canAssign bool) ast.Expr {
	op := p.prev
	rule := getRule(op.Type)
	// All binary operators in this table are left-associative, so the
	// right operand parses at one precedence tier tighter than the
	// operator's own.
	right := p.parsePrecedence(rule.prec + 1)
	return withLoc(&ast.BinaryExpr{Left: left, Operator: op, Right: right}, left.Loc())
}

// ternary parses `cond ? then : else`, right-associative like assignment.
func (p *Parser) ternary(cond ast.Expr, canAssign bool) ast.Expr {
	thenExpr := p.parsePrecedence(PrecTernary)
	p.consume(token.Colon, "Expected ':' in ternary expression.")
	elseExpr := p.parsePrecedence(PrecAssignment)
	return withLoc(&ast.TernaryExpr{Cond: cond, Then: thenExpr, Else: elseExpr}, cond.Loc())
}

func (p *Parser) variable(canAssign bool) ast.Expr {
	name := p.prev
	if canAssign && p.match(token.Equal) {
		value := p.expression()
		return withLoc(&ast.AssignExpr{Name: name, Value: value}, name.Loc())
	}
	return withLoc(&ast.VariableExpr{Name: name}, name.Loc())
}

func (p *Parser) stringLiteral(canAssign bool) ast.Expr {
	tok := p.prev
	raw := p.lexeme(tok)
	text := strings.TrimSuffix(strings.TrimPrefix(raw, `"`), `"`)
	return withLoc(&ast.LiteralExpr{Kind: ast.LitString, StrVal: text}, tok.Loc())
}

func (p *Parser) intLiteral(canAssign bool) ast.Expr {
	tok := p.prev
	text := trimNumericSuffix(p.lexeme(tok), "uUiIlL")
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// Suffix letters like 'u'/'U' may widen beyond int64 range in
		// pathological inputs; fall back to unsigned parsing so the
		// literal still carries a usable bit pattern.
		uv, uerr := strconv.ParseUint(text, 10, 64)
		if uerr == nil {
			v = int64(uv)
		}
	}
	return withLoc(&ast.LiteralExpr{Kind: ast.LitInt, IntVal: v}, tok.Loc())
}

func (p *Parser) floatLiteral(canAssign bool) ast.Expr {
	tok := p.prev
	text := trimNumericSuffix(p.lexeme(tok), "fFdD")
	v, _ := strconv.ParseFloat(text, 64)
	return withLoc(&ast.LiteralExpr{Kind: ast.LitFloat, FltVal: v}, tok.Loc())
}

func trimNumericSuffix(s string, suffixChars string) string {
	for len(s) > 0 && strings.ContainsRune(suffixChars, rune(s[len(s)-1])) {
		s = s[:len(s)-1]
	}
	return s
}

func (p *Parser) boolLiteral(canAssign bool) ast.Expr {
	tok := p.prev
	return withLoc(&ast.LiteralExpr{Kind: ast.LitBool, BoolVal: tok.Type == token.True}, tok.Loc())
}

func (p *Parser) nilLiteral(canAssign bool) ast.Expr {
	tok := p.prev
	return withLoc(&ast.LiteralExpr{Kind: ast.LitNil}, tok.Loc())
}
