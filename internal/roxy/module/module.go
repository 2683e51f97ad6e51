// Package module implements Roxy's compilation unit (Module) and the
// Library link step that wires a set of modules' cross-module calls
// together into an executable whole.
//
// Grounded on original_source/include/roxy/module.hpp (the function/
// native-function table split, kept unresolved until the link step
// fills them by (module, symbol) lookup) and library.cpp's two-pass
// compile_from_files driver.
package module

import (
	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/bytecode"
	"github.com/xyproto/roxy/internal/roxy/compiler"
	"github.com/xyproto/roxy/internal/roxy/parser"
	"github.com/xyproto/roxy/internal/roxy/scanner"
	"github.com/xyproto/roxy/internal/roxy/sema"
	"github.com/xyproto/roxy/internal/roxy/strtab"
	"github.com/xyproto/roxy/internal/roxy/token"
)

// Module is one compilation unit: a name, its source bytes, the
// parsed/analyzed AST, and every Chunk the compiler produced for it --
// one per top-level function plus Entry, the synthetic chunk for the
// module's top-level statements (spec.md §4.7's "for each function
// (and the module top level)").
type Module struct {
	Name   string
	Source []byte

	AST *ast.ModuleStmt
	sc  *scanner.Scanner

	Entry     *bytecode.Chunk
	Functions map[string]*bytecode.Chunk

	// callTargets records, per compiled chunk, the unresolved call
	// targets the link step must still fill into that chunk's
	// FunctionTable/NativeFunctionTable.
	callTargets map[*bytecode.Chunk][]compiler.CallTarget

	parseErrors   []parser.ParseError
	semaErrors    []sema.Error
	compileErrors []compiler.Error
}

func newModule(name string, source []byte) *Module {
	return &Module{
		Name:        name,
		Source:      source,
		Functions:   make(map[string]*bytecode.Chunk),
		callTargets: make(map[*bytecode.Chunk][]compiler.CallTarget),
	}
}

func (m *Module) lexeme(t token.Token) string { return t.Str(m.Source) }

func (m *Module) lineOf(loc token.SourceLocation) uint32 { return m.sc.LineOf(loc) }

// parse runs the scanner and parser over m.Source, recording m.AST.
func (m *Module) parse() {
	m.sc = scanner.New(m.Source)
	p := parser.New(m.sc, m.Name)
	mod, errs := p.Parse()
	m.AST = mod
	m.parseErrors = errs
}

// analyzeAndCompile runs Phase B (sema.Analyzer.Analyze) with importMap,
// then -- only if analysis is clean -- lowers every non-native
// top-level function plus the module's synthetic Entry into Chunks.
// fd.Locals / ResolvedType / ResolvedFunc mutations land directly on
// m.AST from this call, per spec.md §4.5's side-effect contract.
func (m *Module) analyzeAndCompile(importMap map[string]*ast.FunDecl, interner *strtab.Interner) {
	analyzer := sema.New(m.AST, m.Source, importMap)
	m.semaErrors = analyzer.Analyze()
	if len(m.semaErrors) > 0 {
		return
	}

	for _, d := range m.AST.Decls {
		fd, ok := d.(*ast.FunDecl)
		if !ok || fd.IsNative {
			continue
		}
		chunk, targets, errs := compiler.CompileFunction(fd, m.Name, interner, m.Source, m.lineOf)
		m.compileErrors = append(m.compileErrors, errs...)
		m.Functions[m.lexeme(fd.Name)] = chunk
		m.callTargets[chunk] = targets
	}

	entryChunk, targets, errs := compiler.CompileFunction(m.AST.Entry, m.Name, interner, m.Source, m.lineOf)
	entryChunk.Name = m.Name + ".$main"
	m.compileErrors = append(m.compileErrors, errs...)
	m.Entry = entryChunk
	m.callTargets[entryChunk] = targets
}

// chunks returns every chunk this module compiled, Entry included, so
// the link step can walk them uniformly.
func (m *Module) chunks() []*bytecode.Chunk {
	out := make([]*bytecode.Chunk, 0, len(m.Functions)+1)
	for _, c := range m.Functions {
		out = append(out, c)
	}
	if m.Entry != nil {
		out = append(out, m.Entry)
	}
	return out
}
