package parser

import (
	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/token"
)

func withStmtLoc(s ast.Stmt, loc token.SourceLocation) ast.Stmt {
	s.(interface{ SetLoc(token.SourceLocation) }).SetLoc(loc)
	return s
}

// declaration parses one top-level or block-level declaration,
// synchronizing to the next statement boundary on a parse error so the
// rest of the module can still be parsed (panic-mode recovery,
// spec.md §4.4).
func (p *Parser) declaration() ast.Stmt {
	start := p.current
	var stmt ast.Stmt
	switch {
	case p.match(token.Native):
		stmt = p.nativeFunDecl(start, false)
	case p.check(token.Pub):
		p.advance()
		if p.match(token.Native) {
			stmt = p.nativeFunDecl(start, true)
		} else {
			p.consume(token.Fun, "Expected 'fun' after 'pub'.")
			stmt = p.funDecl(start, true)
		}
	case p.match(token.Fun):
		stmt = p.funDecl(start, false)
	case p.match(token.Struct):
		stmt = p.structDecl(start)
	default:
		stmt = p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
	return stmt
}

func (p *Parser) statement() ast.Stmt {
	start := p.current
	switch {
	case p.match(token.LeftBrace):
		return p.block(start)
	case p.match(token.Var):
		return p.varDecl(start)
	case p.match(token.If):
		return p.ifStmt(start)
	case p.match(token.While):
		return p.whileStmt(start)
	case p.match(token.Return):
		return p.returnStmt(start)
	case p.match(token.Break):
		p.consume(token.Semicolon, "Expected ';' after 'break'.")
		return withStmtLoc(&ast.BreakStmt{}, p.loc(start))
	case p.match(token.Continue):
		p.consume(token.Semicolon, "Expected ';' after 'continue'.")
		return withStmtLoc(&ast.ContinueStmt{}, p.loc(start))
	default:
		return p.expressionStmt(start)
	}
}

func (p *Parser) block(start token.Token) ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RightBrace) && !p.check(token.Eof) {
		stmts = append(stmts, p.declaration())
	}
	p.consume(token.RightBrace, "Expected '}' after block.")
	return withStmtLoc(&ast.BlockStmt{Stmts: stmts}, p.loc(start))
}

func (p *Parser) varDecl(start token.Token) ast.Stmt {
	name := p.consume(token.Identifier, "Expected variable name.")
	var typ ast.Type
	if p.match(token.Colon) {
		typ = p.parseType()
	} else {
		typ = &ast.InferredType{}
	}
	var init ast.Expr
	if p.match(token.Equal) {
		init = p.expression()
	}
	p.consume(token.Semicolon, "Expected ';' after variable declaration.")
	decl := &ast.VarDecl{Name: name, Type: typ}
	return withStmtLoc(&ast.VarStmt{Decl: decl, Init: init}, p.loc(start))
}

func (p *Parser) ifStmt(start token.Token) ast.Stmt {
	p.consume(token.LeftParen, "Expected '(' after 'if'.")
	cond := p.expression()
	p.consume(token.RightParen, "Expected ')' after condition.")
	then := p.statement()
	var elseStmt ast.Stmt
	if p.match(token.Else) {
		elseStmt = p.statement()
	}
	return withStmtLoc(&ast.IfStmt{Cond: cond, Then: then, Else: elseStmt}, p.loc(start))
}

func (p *Parser) whileStmt(start token.Token) ast.Stmt {
	p.consume(token.LeftParen, "Expected '(' after 'while'.")
	cond := p.expression()
	p.consume(token.RightParen, "Expected ')' after condition.")
	body := p.statement()
	return withStmtLoc(&ast.WhileStmt{Cond: cond, Body: body}, p.loc(start))
}

func (p *Parser) returnStmt(start token.Token) ast.Stmt {
	var value ast.Expr
	if !p.check(token.Semicolon) {
		value = p.expression()
	}
	p.consume(token.Semicolon, "Expected ';' after return value.")
	return withStmtLoc(&ast.ReturnStmt{Value: value}, p.loc(start))
}

func (p *Parser) expressionStmt(start token.Token) ast.Stmt {
	expr := p.expression()
	p.consume(token.Semicolon, "Expected ';' after expression.")
	return withStmtLoc(&ast.ExpressionStmt{Expr: expr}, p.loc(start))
}

func (p *Parser) params() []ast.ParamDecl {
	var params []ast.ParamDecl
	p.consume(token.LeftParen, "Expected '(' after function name.")
	if !p.check(token.RightParen) {
		for {
			name := p.consume(token.Identifier, "Expected parameter name.")
			p.consume(token.Colon, "Expected ':' after parameter name.")
			typ := p.parseType()
			params = append(params, ast.ParamDecl{Name: name, Type: typ})
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.RightParen, "Expected ')' after parameters.")
	return params
}

func (p *Parser) funDecl(start token.Token, pub bool) ast.Stmt {
	name := p.consume(token.Identifier, "Expected function name.")
	params := p.params()
	var ret ast.Type = ast.TypeVoid
	if p.match(token.Colon) {
		ret = p.parseType()
	}
	p.consume(token.LeftBrace, "Expected '{' before function body.")
	body := p.block(p.prev).(*ast.BlockStmt)
	return withStmtLoc(&ast.FunDecl{
		Name: name, Params: params, RetType: ret, Body: body, Pub: pub,
	}, p.loc(start))
}

func (p *Parser) nativeFunDecl(start token.Token, pub bool) ast.Stmt {
	p.consume(token.Fun, "Expected 'fun' after 'native'.")
	name := p.consume(token.Identifier, "Expected function name.")
	params := p.params()
	var ret ast.Type = ast.TypeVoid
	if p.match(token.Colon) {
		ret = p.parseType()
	}
	p.consume(token.Semicolon, "Expected ';' after native function declaration.")
	return withStmtLoc(&ast.FunDecl{
		Name: name, Params: params, RetType: ret, IsNative: true, Pub: pub,
	}, p.loc(start))
}

func (p *Parser) structDecl(start token.Token) ast.Stmt {
	name := p.consume(token.Identifier, "Expected struct name.")
	p.consume(token.LeftBrace, "Expected '{' after struct name.")
	var fields []ast.FieldDecl
	for !p.check(token.RightBrace) && !p.check(token.Eof) {
		fieldName := p.consume(token.Identifier, "Expected field name.")
		p.consume(token.Colon, "Expected ':' after field name.")
		fieldType := p.parseType()
		p.consume(token.Semicolon, "Expected ';' after field declaration.")
		fields = append(fields, ast.FieldDecl{Name: p.lexeme(fieldName), Type: fieldType})
	}
	p.consume(token.RightBrace, "Expected '}' after struct fields.")
	return withStmtLoc(&ast.StructStmt{Name: name, Fields: fields}, p.loc(start))
}

// importDecl parses `import a.b.c;` (selective) or `import a.b.*;`
// (wildcard). The single trailing identifier/star distinguishes the two
// forms: `import a.b.{c,d};` style selective-list import also uses this
// entry point via braces.
func (p *Parser) importDecl() *ast.ImportStmt {
	start := p.current
	p.consume(token.Import, "Expected 'import'.")
	var path []token.Token
	path = append(path, p.consume(token.Identifier, "Expected package name."))
	wildcard := false
	var symbols []token.Token
	for p.match(token.Dot) {
		if p.match(token.Star) {
			wildcard = true
			break
		}
		if p.match(token.LeftBrace) {
			for {
				symbols = append(symbols, p.consume(token.Identifier, "Expected imported symbol name."))
				if !p.match(token.Comma) {
					break
				}
			}
			p.consume(token.RightBrace, "Expected '}' after import list.")
			break
		}
		path = append(path, p.consume(token.Identifier, "Expected package name component."))
	}
	p.consume(token.Semicolon, "Expected ';' after import declaration.")
	if len(symbols) == 0 && !wildcard {
		// `import a.b.c;` with no braces selects the single trailing
		// component as the imported symbol, and the remainder of path
		// as the package.
		if len(path) > 1 {
			symbols = append(symbols, path[len(path)-1])
			path = path[:len(path)-1]
		}
	}
	stmt := &ast.ImportStmt{PackagePath: path, Wildcard: wildcard, ImportSymbols: symbols}
	stmt.SetLoc(p.loc(start))
	return stmt
}
