package sema

import "github.com/xyproto/roxy/internal/roxy/ast"

// scope is a parent-chained symbol table for local variables, one per
// block. Lookup walks outward to the enclosing function's parameter
// scope, matching the lexical nesting the parser's block() builds.
type scope struct {
	parent *scope
	vars   map[string]*ast.VarDecl
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]*ast.VarDecl)}
}

func (s *scope) define(name string, decl *ast.VarDecl) {
	s.vars[name] = decl
}

func (s *scope) resolve(name string) (*ast.VarDecl, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.vars[name]; ok {
			return d, true
		}
	}
	return nil, false
}
