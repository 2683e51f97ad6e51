package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/strtab"
)

func TestConstantTableDedup(t *testing.T) {
	interner := strtab.New()
	var ct ConstantTable

	i1 := ct.AddString(interner, "hello")
	i2 := ct.AddString(interner, "world")
	i3 := ct.AddString(interner, "hello")

	if i1 != i3 {
		t.Errorf("AddString(\"hello\") returned %d then %d, want identical index", i1, i3)
	}
	if i1 == i2 {
		t.Errorf("distinct strings got the same index %d", i1)
	}
	if got := ct.GetString(i1).Chars; got != "hello" {
		t.Errorf("GetString(%d) = %q, want %q", i1, got, "hello")
	}
	if got := ct.GetString(i2).Chars; got != "world" {
		t.Errorf("GetString(%d) = %q, want %q", i2, got, "world")
	}
}

func TestEmitJumpPatchJump(t *testing.T) {
	c := New("test")
	c.EmitOp(Iconst, 1)
	c.EmitU32(1, 1)
	pos := c.EmitJump(BrFalse, 1)
	c.EmitOp(Pop, 2)
	c.PatchJump(pos)

	patched := int32(uint32(c.Bytecode[pos]) | uint32(c.Bytecode[pos+1])<<8 |
		uint32(c.Bytecode[pos+2])<<16 | uint32(c.Bytecode[pos+3])<<24)
	want := int32(len(c.Bytecode) - pos - 4)
	if patched != want {
		t.Errorf("patched jump offset = %d, want %d", patched, want)
	}
}

func TestEmitLoopBackwardOffset(t *testing.T) {
	c := New("test")
	loopStart := len(c.Bytecode)
	c.EmitOp(Iconst, 1)
	c.EmitU32(0, 1)
	c.EmitLoop(Loop, loopStart, 2)

	if got := c.Bytecode[loopStart]; OpCode(got) != Iconst {
		t.Fatalf("loopStart offset does not point at the expected first instruction")
	}
	// The VM reads the operand, then subtracts it from ip (now at the
	// end of the chunk), which must land back on loopStart.
	pos := len(c.Bytecode) - 4
	offset := int(uint32(c.Bytecode[pos]) | uint32(c.Bytecode[pos+1])<<8 |
		uint32(c.Bytecode[pos+2])<<16 | uint32(c.Bytecode[pos+3])<<24)
	if got := len(c.Bytecode) - offset; got != loopStart {
		t.Errorf("loop offset %d lands at %d, want loopStart %d", offset, got, loopStart)
	}
}

func TestLocalsSlotSize(t *testing.T) {
	c := New("test")
	c.Locals = []LocalTableEntry{
		{Start: 0, Size: 1, Kind: LocalInt32},
		{Start: 1, Size: 2, Kind: LocalInt64},
		{Start: 3, Size: 1, Kind: LocalRef},
	}
	if got, want := c.LocalsSlotSize(), uint16(4); got != want {
		t.Errorf("LocalsSlotSize() = %d, want %d", got, want)
	}
}

func TestGetLineOutOfRange(t *testing.T) {
	c := New("test")
	c.EmitOp(Pop, 5)
	if got := c.GetLine(0); got != 5 {
		t.Errorf("GetLine(0) = %d, want 5", got)
	}
	if got := c.GetLine(99); got != 0 {
		t.Errorf("GetLine(99) = %d, want 0", got)
	}
	if got := c.GetLine(-1); got != 0 {
		t.Errorf("GetLine(-1) = %d, want 0", got)
	}
}

func TestOpcodeAddSubPickFloatOverIs64(t *testing.T) {
	// F64 satisfies PrimKind.Is64() too (it is two slots wide), so the
	// float cases must be matched first or add/sub silently become
	// integer-long ops on the raw bit pattern.
	if got := OpcodeAdd(ast.F64); got != Dadd {
		t.Errorf("OpcodeAdd(F64) = %s, want %s", got, Dadd)
	}
	if got := OpcodeSub(ast.F64); got != Dsub {
		t.Errorf("OpcodeSub(F64) = %s, want %s", got, Dsub)
	}
	if got := OpcodeAdd(ast.F32); got != Fadd {
		t.Errorf("OpcodeAdd(F32) = %s, want %s", got, Fadd)
	}
	if got := OpcodeAdd(ast.I64); got != Ladd {
		t.Errorf("OpcodeAdd(I64) = %s, want %s", got, Ladd)
	}
	if got := OpcodeSub(ast.I64); got != Lsub {
		t.Errorf("OpcodeSub(I64) = %s, want %s", got, Lsub)
	}
}

func TestDisassembleDecodesOperandWidths(t *testing.T) {
	c := New("main")
	c.EmitOp(Iconst, 1)
	c.EmitU32(42, 1)
	c.EmitOp(IloadS, 2)
	c.EmitByte(3, 2)
	c.EmitOp(Lconst, 3)
	c.EmitU64(1, 3)
	c.EmitOp(Ret, 4)

	var out bytes.Buffer
	c.Disassemble(&out)
	text := out.String()

	if !strings.HasPrefix(text, "== main ==\n") {
		t.Errorf("Disassemble output missing header, got %q", text)
	}
	for _, want := range []string{"iconst", "42", "iload_s", "3", "lconst", "1", "ret"} {
		if !strings.Contains(text, want) {
			t.Errorf("Disassemble output %q missing %q", text, want)
		}
	}
}
