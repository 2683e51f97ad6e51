package compiler

import (
	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/bytecode"
)

// slotClass reports which of the VM's three storage classes a type
// occupies: a 32-bit value, a 64-bit value, or a reference. Struct
// types have no class (ok=false) -- the compiler's local-layout and
// load/store opcode selection both refuse a struct-typed local via the
// Unimplemented error rather than guess at a representation.
func slotClass(t ast.Type) (kind bytecode.LocalTypeKind, width uint16, ok bool) {
	p, isPrim := t.(*ast.PrimitiveType)
	if !isPrim {
		return 0, 0, false
	}
	switch {
	case p.Kind == ast.Str:
		return bytecode.LocalRef, 2, true
	case p.Kind.Is64():
		return bytecode.LocalInt64, 2, true
	default:
		return bytecode.LocalInt32, 1, true
	}
}

func primKindOf(t ast.Type) ast.PrimKind {
	if p, ok := t.(*ast.PrimitiveType); ok {
		return p.Kind
	}
	return ast.Void
}

// layoutLocals assigns each of fd's locals (parameters first, then
// declared variables, in the source order the analyzer already
// recorded on fd.Locals) a slot index, and records the resulting
// layout in c.chunk.Locals for the VM's reference-lifecycle bookkeeping
// (spec.md §4.9).
//
// The VM backs both locals and operand-stack temporaries with a single
// array of tagged values (see vm.Value) rather than a raw array of
// 32-bit words, since the instruction set's one-size-fits-all `pop`/
// `dup` give the VM no width operand to know how many raw words a
// stack-resident value spans. Slot indices are therefore assigned one
// per local regardless of its width; Size still records each local's
// width in 32-bit units for disassembly and the local-table accounting
// invariant, it just no longer drives the next local's offset.
func (c *Compiler) layoutLocals() {
	var slot uint16
	c.slotOf = make(map[*ast.VarDecl]uint16, len(c.fd.Locals))
	for _, decl := range c.fd.Locals {
		kind, width, ok := slotClass(decl.Type)
		if !ok {
			c.errorf(Unimplemented, "local '%s' has unsupported type %s for the bytecode VM", c.lexeme(decl.Name), decl.Type)
			continue
		}
		c.slotOf[decl] = slot
		c.chunk.Locals = append(c.chunk.Locals, bytecode.LocalTableEntry{
			Start: slot, Size: width, Kind: kind, PrimKind: primKindOf(decl.Type), Name: c.lexeme(decl.Name),
		})
		slot++
	}
	c.chunk.ParamCount = len(c.fd.Params)
}
