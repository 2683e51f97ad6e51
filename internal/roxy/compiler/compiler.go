package compiler

import (
	"fmt"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/bytecode"
	"github.com/xyproto/roxy/internal/roxy/strtab"
	"github.com/xyproto/roxy/internal/roxy/token"
)

// CallTarget describes one `call`/`callnative` operand's symbol,
// recorded in emission order so the link step can fill
// Chunk.FunctionTable / Chunk.NativeFunctionTable by index after every
// module has compiled (module.Library's two-pass resolution, spec.md
// §4.8). IsNative entries resolve against the native function
// registry; the rest resolve against another module's compiled Chunk.
type CallTarget struct {
	IsNative bool
	Module   string
	Name     string
}

// loopCtx tracks one enclosing loop's patch lists: break jumps patch
// to just past the loop, continue jumps patch to the condition
// re-check (loopStart).
type loopCtx struct {
	loopStart     int
	breakJumps    []int
	continueJumps []int
}

// Compiler lowers a single function body into a bytecode.Chunk. One
// Compiler handles exactly one FunDecl; module.Module.analyzeAndCompile
// drives one per function in a module.
type Compiler struct {
	chunk    *bytecode.Chunk
	interner *strtab.Interner
	source   []byte
	fd       *ast.FunDecl
	module   string
	lineOf   func(token.SourceLocation) uint32

	slotOf        map[*ast.VarDecl]uint16
	callTargets   []CallTarget
	nativeTargets []CallTarget
	errors        []Error

	loopStack []*loopCtx
}

func (c *Compiler) lexeme(t token.Token) string { return t.Str(c.source) }

func (c *Compiler) line(loc token.SourceLocation) uint32 {
	if c.lineOf != nil {
		return c.lineOf(loc)
	}
	return loc.Offset
}

func (c *Compiler) errorf(kind ErrorKind, format string, args ...any) {
	c.errors = append(c.errors, Error{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// CompileFunction lowers fd's body (which must be non-nil; native
// functions have nothing to compile) into a Chunk named
// "<module>.<fn>". It returns the chunk, the call targets the link
// step must resolve to fill FunctionTable/NativeFunctionTable, and any
// compile errors encountered.
func CompileFunction(fd *ast.FunDecl, moduleName string, interner *strtab.Interner, source []byte, lineOf func(token.SourceLocation) uint32) (*bytecode.Chunk, []CallTarget, []Error) {
	chunk := bytecode.New(moduleName + "." + fd.Name.Str(source))
	c := &Compiler{chunk: chunk, interner: interner, source: source, fd: fd, module: moduleName, lineOf: lineOf}

	c.layoutLocals()
	c.compileStmt(fd.Body)

	if !isVoidType(fd.RetType) && !stmtAlwaysReturns(fd.Body) {
		c.errorf(Unreachable, "function '%s' may fall off the end without returning a value", c.lexeme(fd.Name))
	}
	c.chunk.EmitOp(bytecode.Ret, 0)

	c.chunk.FunctionTable = make([]*bytecode.Chunk, len(c.callTargets))
	c.chunk.NativeFunctionTable = make([]bytecode.NativeFunc, len(c.nativeTargets))

	allTargets := append(append([]CallTarget{}, c.callTargets...), c.nativeTargets...)
	return c.chunk, allTargets, c.errors
}

func isVoidType(t ast.Type) bool {
	p, ok := t.(*ast.PrimitiveType)
	return ok && p.Kind == ast.Void
}

// stmtAlwaysReturns is a conservative reachability check: it only
// recognizes a return statement, a block holding such a statement at
// any position, and an if/else whose every arm returns. Anything
// else -- loops in particular -- is treated as "might fall through",
// which only produces a false-positive Unreachable warning, never a
// missed one.
func stmtAlwaysReturns(s ast.Stmt) bool {
	switch v := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BlockStmt:
		for _, st := range v.Stmts {
			if stmtAlwaysReturns(st) {
				return true
			}
		}
		return false
	case *ast.IfStmt:
		if v.Else == nil {
			return false
		}
		return stmtAlwaysReturns(v.Then) && stmtAlwaysReturns(v.Else)
	default:
		return false
	}
}

// resolveTarget dedups a call target by (IsNative, Module, Name) so a
// function called twice from the same body gets one table slot,
// mirroring ConstantTable.AddString's dedup contract, and returns the
// operand index into the table `call`/`callnative` will read --
// Chunk.FunctionTable for a plain call, Chunk.NativeFunctionTable for
// a native one. The CompileFunction caller must walk the returned
// []CallTarget bucketing by IsNative in order to reproduce these same
// two index spaces when filling the chunk's tables at link time.
func (c *Compiler) resolveTarget(target CallTarget) uint16 {
	list := &c.callTargets
	if target.IsNative {
		list = &c.nativeTargets
	}
	for i, t := range *list {
		if t == target {
			return uint16(i)
		}
	}
	*list = append(*list, target)
	return uint16(len(*list) - 1)
}
