package sema

import (
	"fmt"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/token"
)

// ScanDependencies is Phase A: walk mod's top-level declarations and
// record every `pub` function as an export, without inspecting any
// body. The link step (module.Library) calls this on every module
// before building cross-module import maps, mirroring
// library.cpp's two-pass "scan then resolve" structure.
func ScanDependencies(mod *ast.ModuleStmt) {
	mod.Exports = mod.Exports[:0]
	for _, d := range mod.Decls {
		if fd, ok := d.(*ast.FunDecl); ok && fd.Pub {
			fd.Module = mod.Name
			mod.Exports = append(mod.Exports, fd)
		}
	}
}

// Analyzer runs Phase B: name resolution, type inference, and local
// slot assignment over one already-parsed module. One Analyzer
// instance handles exactly one module; the link step constructs a
// fresh Analyzer per module so errors from one module never bleed
// into another's diagnostic list.
type Analyzer struct {
	mod     *ast.ModuleStmt
	source  []byte
	errors  []Error
	structs map[string]*ast.StructType
	// funcs holds every function name callable from this module:
	// its own top-level fun/native fun declarations plus whatever the
	// link step's import map supplied (builtins, selective imports,
	// wildcard imports).
	funcs map[string]*ast.FunDecl

	curFunc    *ast.FunDecl
	localIndex int
	loopDepth  int
}

// New constructs an Analyzer for mod. importMap supplies every
// function name this module may call beyond its own top-level
// declarations -- the builtin native table plus whatever its import
// statements pulled in -- keyed by the bare name used at call sites.
func New(mod *ast.ModuleStmt, source []byte, importMap map[string]*ast.FunDecl) *Analyzer {
	a := &Analyzer{
		mod:     mod,
		source:  source,
		structs: make(map[string]*ast.StructType),
		funcs:   make(map[string]*ast.FunDecl),
	}
	for name, fd := range importMap {
		a.funcs[name] = fd
	}
	return a
}

// Errors returns every diagnostic collected during Analyze.
func (a *Analyzer) Errors() []Error { return a.errors }

func (a *Analyzer) errorf(kind ErrorKind, loc token.SourceLocation, format string, args ...any) {
	a.errors = append(a.errors, Error{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// Analyze runs Phase B over the module: resolves struct field types,
// then typechecks every non-native function body. It mutates the AST
// in place (ResolvedType/ResolvedVar/ResolvedFunc/LocalIndex/Locals)
// and returns every error encountered; a non-empty result means the
// module must not proceed to compilation (spec.md §7).
func (a *Analyzer) Analyze() []Error {
	a.registerStructNames()
	a.resolveStructFields()
	a.registerModuleFuncs()

	for _, d := range a.mod.Decls {
		fd, ok := d.(*ast.FunDecl)
		if !ok || fd.IsNative {
			continue
		}
		a.analyzeFunc(fd)
	}

	a.mod.Entry = a.buildEntry()
	a.analyzeFunc(a.mod.Entry)

	return a.errors
}

// buildEntry collects every top-level statement that is not itself a
// function or struct declaration into a synthetic void FunDecl, so the
// module's top-level code analyzes (and later compiles) exactly like
// any other function body. Its Name token is never rendered -- the
// link step names the resulting chunk directly.
func (a *Analyzer) buildEntry() *ast.FunDecl {
	var stmts []ast.Stmt
	for _, d := range a.mod.Decls {
		switch d.(type) {
		case *ast.FunDecl, *ast.StructStmt:
			continue
		default:
			stmts = append(stmts, d)
		}
	}
	body := &ast.BlockStmt{Stmts: stmts}
	return &ast.FunDecl{RetType: ast.TypeVoid, Body: body}
}

func (a *Analyzer) registerStructNames() {
	for _, d := range a.mod.Decls {
		if sd, ok := d.(*ast.StructStmt); ok {
			name := a.lexeme(sd.Name)
			st := &ast.StructType{Name: name}
			sd.Resolved = st
			a.structs[name] = st
		}
	}
}

func (a *Analyzer) resolveStructFields() {
	for _, d := range a.mod.Decls {
		sd, ok := d.(*ast.StructStmt)
		if !ok {
			continue
		}
		fields := make([]ast.FieldDecl, len(sd.Fields))
		for i, f := range sd.Fields {
			fields[i] = ast.FieldDecl{Name: f.Name, Type: a.resolveType(f.Type, sd.Loc())}
		}
		sd.Resolved.Fields = fields
	}
}

// resolveType replaces an UnassignedType leaf with its concrete
// resolution (struct lookup); primitive and already-concrete types
// pass through unchanged. Unresolvable names become a Misc error and
// resolve to TypeVoid so downstream checks have a concrete type to
// compare against rather than cascading nil-pointer faults.
func (a *Analyzer) resolveType(t ast.Type, loc token.SourceLocation) ast.Type {
	u, ok := t.(*ast.UnassignedType)
	if !ok {
		return t
	}
	if st, ok := a.structs[u.Name]; ok {
		return st
	}
	a.errorf(Misc, loc, "undefined type '%s'", u.Name)
	return ast.TypeVoid
}

func (a *Analyzer) registerModuleFuncs() {
	for _, d := range a.mod.Decls {
		fd, ok := d.(*ast.FunDecl)
		if !ok {
			continue
		}
		params := make([]ast.Type, len(fd.Params))
		for i, p := range fd.Params {
			p.Type = a.resolveType(p.Type, fd.Loc())
			fd.Params[i] = p
			params[i] = p.Type
		}
		fd.RetType = a.resolveType(fd.RetType, fd.Loc())
		fd.Resolved = &ast.FunctionType{Params: params, Return: fd.RetType}
		a.funcs[a.lexeme(fd.Name)] = fd
	}
}

func (a *Analyzer) analyzeFunc(fd *ast.FunDecl) {
	prevFunc, prevIdx := a.curFunc, a.localIndex
	a.curFunc = fd
	a.localIndex = 0
	fd.Locals = nil

	env := newScope(nil)
	for i := range fd.Params {
		p := &fd.Params[i]
		decl := &ast.VarDecl{Name: p.Name, Type: p.Type, IsParam: true, LocalIndex: a.localIndex}
		a.localIndex++
		fd.Locals = append(fd.Locals, decl)
		env.define(a.lexeme(p.Name), decl)
	}

	a.checkStmt(fd.Body, env)

	a.curFunc, a.localIndex = prevFunc, prevIdx
}

func (a *Analyzer) lexeme(t token.Token) string {
	return t.Str(a.source)
}
