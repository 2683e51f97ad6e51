package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/strtab"
)

// LocalTypeKind discriminates a local slot's storage class for the VM's
// reference-counting bookkeeping: plain 32-bit value, 64-bit value, or
// reference (string/object pointer).
type LocalTypeKind uint8

const (
	LocalInt32 LocalTypeKind = iota
	LocalInt64
	LocalRef
)

// LocalTableEntry describes one local variable's slot placement: a
// 32-bit-unit start offset, a 32-bit-unit size, its storage class, the
// concrete primitive kind (for disassembly/debugging), and its source
// name.
type LocalTableEntry struct {
	Start    uint16
	Size     uint16
	Kind     LocalTypeKind
	PrimKind ast.PrimKind
	Name     string
}

// ConstantTable holds a chunk's interned string constants, indexed by
// the operand `ldstr` reads.
type ConstantTable struct {
	strings []*strtab.ObjString
}

// AddString interns s (via interner) and returns its constant index,
// reusing an existing entry for an identical string instead of
// duplicating it -- mirroring ConstantTable::add_string's dedup
// contract in the original chunk.hpp.
func (c *ConstantTable) AddString(interner *strtab.Interner, s string) uint32 {
	obj := interner.Intern(s)
	for i, existing := range c.strings {
		if existing == obj {
			return uint32(i)
		}
	}
	c.strings = append(c.strings, obj)
	return uint32(len(c.strings) - 1)
}

// GetString returns the constant at index idx.
func (c *ConstantTable) GetString(idx uint32) *strtab.ObjString {
	return c.strings[idx]
}

// Chunk is one compiled function body (or a module's top-level code): a
// byte sequence, a per-byte line map, a local table, and the runtime
// function/native-function tables the link step populates.
type Chunk struct {
	Name string

	Bytecode []byte
	Lines    []uint32

	Constants  ConstantTable
	Locals     []LocalTableEntry
	ParamCount int

	// RefLocalOffsets holds every local slot-start (in 32-bit units)
	// whose LocalTypeKind is LocalRef, populated by the link step
	// (module's findRefLocalOffsets) by scanning Locals. The VM
	// decrements every one of these slots when a frame using this
	// chunk returns, per spec.md §4.9's reference lifecycle rule.
	RefLocalOffsets []uint16

	// FunctionTable and NativeFunctionTable are resolved by the link
	// step: index i here corresponds to the i-th `call`/`callnative`
	// operand emitted for a cross-module or same-module reference
	// recorded during compilation (see compiler.CallTarget).
	FunctionTable       []*Chunk
	NativeFunctionTable []NativeFunc
}

// NativeFunc is the Go-side implementation of a native trampoline;
// see vm.ArgStack for its calling convention.
type NativeFunc func(args ArgStackView)

// ArgStackView is implemented by vm.ArgStack; bytecode only needs the
// type name to describe NativeFunc's signature without importing vm
// (which itself imports bytecode), avoiding an import cycle.
type ArgStackView interface {
	PopI32() int32
	PopI64() int64
	PopU32() uint32
	PopU64() uint64
	PopF32() float32
	PopF64() float64
	PopRef() *strtab.ObjString
	PushI32(int32)
	PushI64(int64)
	PushU32(uint32)
	PushU64(uint64)
	PushF32(float32)
	PushF64(float64)
	PushRef(*strtab.ObjString)
}

// New creates an empty Chunk named name.
func New(name string) *Chunk {
	return &Chunk{Name: name}
}

// EmitByte appends a raw byte with its source line.
func (c *Chunk) EmitByte(b byte, line uint32) {
	c.Bytecode = append(c.Bytecode, b)
	c.Lines = append(c.Lines, line)
}

// EmitOp appends an opcode byte with its source line.
func (c *Chunk) EmitOp(op OpCode, line uint32) {
	c.EmitByte(byte(op), line)
}

// EmitU16 appends a little-endian u16 operand, replicating every byte's
// line for the per-byte line table.
func (c *Chunk) EmitU16(v uint16, line uint32) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	c.EmitByte(buf[0], line)
	c.EmitByte(buf[1], line)
}

// EmitU32 appends a little-endian u32 operand.
func (c *Chunk) EmitU32(v uint32, line uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	for _, b := range buf {
		c.EmitByte(b, line)
	}
}

// EmitU64 appends a little-endian u64 operand.
func (c *Chunk) EmitU64(v uint64, line uint32) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	for _, b := range buf {
		c.EmitByte(b, line)
	}
}

// EmitJump appends op followed by a 4-byte placeholder offset
// (0xffffffff) and returns the placeholder's byte position, to be
// passed to PatchJump once the branch target is known -- the
// forward-jump protocol of spec.md §4.7.
func (c *Chunk) EmitJump(op OpCode, line uint32) int {
	c.EmitOp(op, line)
	pos := len(c.Bytecode)
	c.EmitU32(0xffffffff, line)
	return pos
}

// PatchJump writes target-relative-to-(pos+4) as a little-endian i32 at
// the placeholder recorded by EmitJump.
func (c *Chunk) PatchJump(pos int) {
	jump := int32(len(c.Bytecode) - pos - 4)
	binary.LittleEndian.PutUint32(c.Bytecode[pos:pos+4], uint32(jump))
}

// EmitLoop appends a `loop`/`loop_s` with its backward offset computed
// from loopStart, the bytecode position the loop's condition began at.
func (c *Chunk) EmitLoop(op OpCode, loopStart int, line uint32) {
	c.EmitOp(op, line)
	offset := uint32(len(c.Bytecode) - loopStart + 4)
	c.EmitU32(offset, line)
}

// GetLine returns the source line recorded for the byte at offset.
func (c *Chunk) GetLine(offset int) uint32 {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// LocalsSlotSize returns the total number of 32-bit slots the local
// table occupies -- used by testable property 4(b) (the highest slot
// referenced by any load/store must be covered by this sum).
func (c *Chunk) LocalsSlotSize() uint16 {
	var total uint16
	for _, l := range c.Locals {
		if end := l.Start + l.Size; end > total {
			total = end
		}
	}
	return total
}

// Disassemble writes one line per instruction: byte offset, source
// line, mnemonic, and decoded operand. This is additive debug tooling
// (SPEC_FULL.md §4.6) grounded on Chunk::print_disassembly /
// disassemble_instruction in original_source/include/roxy/chunk.hpp; it
// does not affect compiled semantics.
func (c *Chunk) Disassemble(w io.Writer) {
	fmt.Fprintf(w, "== %s ==\n", c.Name)
	offset := 0
	for offset < len(c.Bytecode) {
		offset = c.disassembleInstruction(w, offset)
	}
}

func (c *Chunk) disassembleInstruction(w io.Writer, offset int) int {
	op := OpCode(c.Bytecode[offset])
	line := c.GetLine(offset)
	switch op {
	case IloadS, IstoreS, LloadS, LstoreS, RloadS, RstoreS, IconstS, JmpS, LoopS,
		BrFalseS, BrTrueS, BrIcmpeqS, BrIcmpneS, BrIcmpgeS, BrIcmpgtS, BrIcmpleS, BrIcmpltS,
		BrEqS, BrNeS, BrGeS, BrGtS, BrLeS, BrLtS:
		operand := c.Bytecode[offset+1]
		fmt.Fprintf(w, "%04d %4d %-14s %d\n", offset, line, op, operand)
		return offset + 2
	case Iload, Istore, Lload, Lstore, Rload, Rstore, Call, CallNative:
		operand := binary.LittleEndian.Uint16(c.Bytecode[offset+1:])
		fmt.Fprintf(w, "%04d %4d %-14s %d\n", offset, line, op, operand)
		return offset + 3
	case Iconst, Jmp, Loop, BrFalse, BrTrue, BrIcmpeq, BrIcmpne, BrIcmpge, BrIcmpgt,
		BrIcmple, BrIcmplt, BrEq, BrNe, BrGe, BrGt, BrLe, BrLt, Ldstr:
		operand := int32(binary.LittleEndian.Uint32(c.Bytecode[offset+1:]))
		fmt.Fprintf(w, "%04d %4d %-14s %d\n", offset, line, op, operand)
		return offset + 5
	case Lconst, Dconst:
		operand := binary.LittleEndian.Uint64(c.Bytecode[offset+1:])
		fmt.Fprintf(w, "%04d %4d %-14s %d\n", offset, line, op, operand)
		return offset + 9
	case Fconst:
		operand := binary.LittleEndian.Uint32(c.Bytecode[offset+1:])
		fmt.Fprintf(w, "%04d %4d %-14s %d\n", offset, line, op, operand)
		return offset + 5
	default:
		fmt.Fprintf(w, "%04d %4d %s\n", offset, line, op)
		return offset + 1
	}
}
