package module

import (
	"fmt"
	"io"
	"strings"

	"github.com/xyproto/roxy/internal/roxy/arena"
	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/bytecode"
	"github.com/xyproto/roxy/internal/roxy/sema"
	"github.com/xyproto/roxy/internal/roxy/strtab"
	"github.com/xyproto/roxy/internal/roxy/token"
	"github.com/xyproto/roxy/internal/roxy/vm"
)

// builtinSource is parsed as an ordinary module named "builtin", the
// same trick library.cpp's s_builtin_module_src plays: native
// declarations flow through the normal scan/typecheck path instead of
// being hand-built as AST nodes, so the import map needs no special
// case beyond "always include this module's exports".
const builtinSource = `
pub native fun print_i32(value: i32);
pub native fun print_i64(value: i64);
pub native fun print_u32(value: u32);
pub native fun print_u64(value: u64);
pub native fun print_f32(value: f32);
pub native fun print_f64(value: f64);
pub native fun print(value: string);
pub native fun concat(a: string, b: string): string;
pub native fun clock(): f64;
`

// DeriveModuleName derives a module name from a source file's path
// relative to its compilation root, per spec.md §6: subdirectory
// separators become '.', the extension is stripped.
func DeriveModuleName(relPath string) string {
	if i := strings.LastIndex(relPath, "."); i >= 0 {
		relPath = relPath[:i]
	}
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	return strings.ReplaceAll(relPath, "/", ".")
}

// Library collects every module in one compilation, links their
// cross-module calls, and runs a module's entry chunk. Grounded on
// library.cpp's Library class and its compile_from_files driver.
type Library struct {
	interner    *strtab.Interner
	natives     map[string]bytecode.NativeFunc
	sourceArena *arena.BumpAllocator[byte]

	modules []*Module
	byName  map[string]*Module
	builtin *Module

	machine *vm.VM

	// astLog, when non-nil, receives an ast.Printer dump of each
	// module's tree once after parsing and again after typechecking --
	// the same two checkpoints library.cpp's compile_from_files logs
	// through AstPrinter. Set via SetASTLog; nil by default (no-op).
	astLog io.Writer
}

// SetASTLog enables verbose AST dumping to w ("" disables it by passing
// nil). Intended for a CLI's -v flag, mirroring bytecode.Chunk.Disassemble's
// role for post-compile dumps.
func (l *Library) SetASTLog(w io.Writer) { l.astLog = w }

func (l *Library) logAST(m *Module, phase string) {
	if l.astLog == nil {
		return
	}
	fmt.Fprintf(l.astLog, "-- %s (%s) --\n%s\n", m.Name, phase, ast.Printer{Source: m.Source}.ToString(m.AST))
}

// NewLibrary creates an empty Library whose native print/clock/concat
// trampolines write to out.
func NewLibrary(out io.Writer) *Library {
	l := &Library{
		interner:    strtab.New(),
		sourceArena: arena.New[byte](),
		byName:      make(map[string]*Module),
		machine:     vm.New(),
	}
	l.natives = vm.Builtins(out, l.interner)
	return l
}

// AddSource registers one module's source under name, copying source
// into the Library's shared byte arena so every module's buffer has a
// single owner for the Library's lifetime (original_source's
// m_source_allocator role).
func (l *Library) AddSource(name string, source []byte) error {
	if _, exists := l.byName[name]; exists {
		return LinkError{Kind: DuplicateModule, Module: name}
	}
	ref := l.sourceArena.AllocBytes(source)
	owned := l.sourceArena.Slice(ref, len(source))
	m := newModule(name, owned)
	l.modules = append(l.modules, m)
	l.byName[name] = m
	return nil
}

// Compile runs every module through Scanner -> Parser -> Analyzer
// Phase A -> (import map) -> Analyzer Phase B -> Compiler, then links
// the result. It returns the first error encountered, in stage order
// (a parse error always takes priority over a sema error in a
// later-ordered module, etc.), matching the "short-circuit on the
// first fatal category" propagation rule of spec.md §7.
func (l *Library) Compile() error {
	if _, ok := l.byName["builtin"]; !ok {
		if err := l.AddSource("builtin", []byte(builtinSource)); err != nil {
			return err
		}
	}
	l.builtin = l.byName["builtin"]

	for _, m := range l.modules {
		m.parse()
		if len(m.parseErrors) > 0 {
			return m.parseErrors[0]
		}
		l.logAST(m, "parsed")
	}

	for _, m := range l.modules {
		sema.ScanDependencies(m.AST)
	}

	for _, m := range l.modules {
		importMap, err := l.buildImportMap(m)
		if err != nil {
			return err
		}
		m.analyzeAndCompile(importMap, l.interner)
		if len(m.semaErrors) > 0 {
			return m.semaErrors[0]
		}
		if len(m.compileErrors) > 0 {
			return m.compileErrors[0]
		}
		l.logAST(m, "analyzed")
	}

	return l.link()
}

// buildImportMap computes the (symbol -> declaration) map Phase B
// needs for m: every builtin export unconditionally, then each of m's
// import statements resolved relative to m's own parent package,
// mirroring compile_from_files's parent_module_name stripping (a
// module's imports are resolved relative to the directory it lives
// in, not to the compilation root).
func (l *Library) buildImportMap(m *Module) (map[string]*ast.FunDecl, error) {
	importMap := make(map[string]*ast.FunDecl)
	if m != l.builtin {
		for _, fd := range l.builtin.AST.Exports {
			importMap[l.builtin.lexeme(fd.Name)] = fd
		}
	}

	parent := parentModule(m.Name)
	for _, imp := range m.AST.Imports {
		importName := joinImportPath(parent, imp.PackagePath, m.Source)
		target, ok := l.byName[importName]
		if !ok {
			return nil, LinkError{Kind: MissingModule, Module: importName}
		}
		if imp.IsWildcard() {
			for _, fd := range target.AST.Exports {
				importMap[target.lexeme(fd.Name)] = fd
			}
			continue
		}
		for _, symTok := range imp.ImportSymbols {
			sym := symTok.Str(m.Source)
			fd := findExport(target, sym)
			if fd == nil {
				return nil, LinkError{Kind: MissingSymbol, Module: importName, Symbol: sym}
			}
			importMap[sym] = fd
		}
	}
	return importMap, nil
}

func findExport(m *Module, name string) *ast.FunDecl {
	for _, fd := range m.AST.Exports {
		if m.lexeme(fd.Name) == name {
			return fd
		}
	}
	return nil
}

// parentModule returns the package a module's own imports resolve
// relative to: everything before its name's last '.', or "" for a
// module with no enclosing package.
func parentModule(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return ""
}

func joinImportPath(parent string, path []token.Token, source []byte) string {
	var sb strings.Builder
	if parent != "" {
		sb.WriteString(parent)
		sb.WriteString(".")
	}
	for i, t := range path {
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(t.Str(source))
	}
	return sb.String()
}

// link fills every compiled chunk's FunctionTable/NativeFunctionTable
// by resolving each of its recorded CallTargets against the now fully-
// compiled module set, then computes each chunk's reference-local
// offsets. CompileFunction packs a chunk's combined target list as
// [call targets..., native targets...] with FunctionTable/
// NativeFunctionTable sized to match, so splitting the list at
// len(FunctionTable) recovers the two original buckets in order.
func (l *Library) link() error {
	for _, m := range l.modules {
		for chunk, targets := range m.callTargets {
			funcTargets := targets[:len(chunk.FunctionTable)]
			nativeTargets := targets[len(chunk.FunctionTable):]

			for i, t := range funcTargets {
				target, ok := l.byName[t.Module]
				if !ok {
					return LinkError{Kind: MissingModule, Module: t.Module}
				}
				fn, ok := target.Functions[t.Name]
				if !ok {
					return LinkError{Kind: MissingSymbol, Module: t.Module, Symbol: t.Name}
				}
				chunk.FunctionTable[i] = fn
			}

			for i, t := range nativeTargets {
				native, ok := l.natives[t.Name]
				if !ok {
					return LinkError{Kind: MissingSymbol, Module: t.Module, Symbol: t.Name}
				}
				chunk.NativeFunctionTable[i] = native
			}
		}
	}

	for _, m := range l.modules {
		for _, chunk := range m.chunks() {
			findRefLocalOffsets(chunk)
		}
	}
	return nil
}

// findRefLocalOffsets scans chunk's local table for reference-typed
// slots, populating RefLocalOffsets for the VM's frame-teardown decref
// pass (spec.md §4.8, §4.9).
func findRefLocalOffsets(chunk *bytecode.Chunk) {
	chunk.RefLocalOffsets = chunk.RefLocalOffsets[:0]
	for _, entry := range chunk.Locals {
		if entry.Kind == bytecode.LocalRef {
			chunk.RefLocalOffsets = append(chunk.RefLocalOffsets, entry.Start)
		}
	}
}

// Run executes moduleName's entry chunk (its top-level statements) to
// completion and returns its value (void for an ordinary script).
func (l *Library) Run(moduleName string) (vm.Value, error) {
	m, ok := l.byName[moduleName]
	if !ok {
		return vm.Value{}, LinkError{Kind: MissingModule, Module: moduleName}
	}
	return l.machine.Run(m.Entry)
}

// Module looks up a compiled module by name, e.g. for disassembly.
func (l *Library) Module(name string) (*Module, bool) {
	m, ok := l.byName[name]
	return m, ok
}
