// Package bytecode defines Roxy's instruction set and the per-function
// Chunk container the compiler emits into and the VM executes.
//
// The opcode list and dispatch-helper functions are ported in meaning
// from original_source/include/roxy/opcode.hpp, the authoritative
// enumeration; names are kept identical to that list since they are
// also the VM's disassembly mnemonics (spec.md §6).
package bytecode

import (
	"fmt"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/token"
)

// OpCode is one VM instruction's leading byte.
type OpCode uint8

const (
	Nop OpCode = iota
	Brk

	IloadFast0
	IloadFast1
	IloadFast2
	IloadFast3
	IstoreFast0
	IstoreFast1
	IstoreFast2
	IstoreFast3
	Iload
	IloadS
	Istore
	IstoreS

	LloadFast0
	LloadFast1
	LloadFast2
	LloadFast3
	LstoreFast0
	LstoreFast1
	LstoreFast2
	LstoreFast3
	Lload
	LloadS
	Lstore
	LstoreS

	RloadFast0
	RloadFast1
	RloadFast2
	RloadFast3
	RstoreFast0
	RstoreFast1
	RstoreFast2
	RstoreFast3
	Rload
	RloadS
	Rstore
	RstoreS

	IconstNil
	IconstM1
	Iconst0
	Iconst1
	Iconst2
	Iconst3
	Iconst4
	Iconst5
	Iconst6
	Iconst7
	Iconst8
	IconstS
	Iconst
	Lconst
	Fconst
	Dconst

	Dup
	Pop

	Call
	CallNative
	Ret
	Iret
	Lret
	Rret

	JmpS
	LoopS
	BrFalseS
	BrTrueS
	BrIcmpeqS
	BrIcmpneS
	BrIcmpgeS
	BrIcmpgtS
	BrIcmpleS
	BrIcmpltS
	BrEqS
	BrNeS
	BrGeS
	BrGtS
	BrLeS
	BrLtS

	Jmp
	Loop
	BrFalse
	BrTrue
	BrIcmpeq
	BrIcmpne
	BrIcmpge
	BrIcmpgt
	BrIcmple
	BrIcmplt
	BrEq
	BrNe
	BrGe
	BrGt
	BrLe
	BrLt

	Swch

	Iadd
	Isub
	Imul
	Uimul
	Idiv
	Uidiv
	Irem
	Uirem

	Ladd
	Lsub
	Lmul
	Ulmul
	Ldiv
	Uldiv
	Lrem
	Ulrem

	Fadd
	Fsub
	Fmul
	Fdiv

	Dadd
	Dsub
	Dmul
	Ddiv

	Lcmp
	Rcmp
	Fcmpl
	Fcmpg
	Dcmpl
	Dcmpg

	Band
	Bor
	Bxor
	Bshl
	Bshr
	BshrUn
	Bneg
	Bnot

	Ldstr

	opcodeCount
	Invalid OpCode = 255
)

var opcodeNames = [...]string{
	Nop: "nop", Brk: "brk",
	IloadFast0: "iload_0", IloadFast1: "iload_1", IloadFast2: "iload_2", IloadFast3: "iload_3",
	IstoreFast0: "istore_0", IstoreFast1: "istore_1", IstoreFast2: "istore_2", IstoreFast3: "istore_3",
	Iload: "iload", IloadS: "iload_s", Istore: "istore", IstoreS: "istore_s",
	LloadFast0: "lload_0", LloadFast1: "lload_1", LloadFast2: "lload_2", LloadFast3: "lload_3",
	LstoreFast0: "lstore_0", LstoreFast1: "lstore_1", LstoreFast2: "lstore_2", LstoreFast3: "lstore_3",
	Lload: "lload", LloadS: "lload_s", Lstore: "lstore", LstoreS: "lstore_s",
	RloadFast0: "rload_0", RloadFast1: "rload_1", RloadFast2: "rload_2", RloadFast3: "rload_3",
	RstoreFast0: "rstore_0", RstoreFast1: "rstore_1", RstoreFast2: "rstore_2", RstoreFast3: "rstore_3",
	Rload: "rload", RloadS: "rload_s", Rstore: "rstore", RstoreS: "rstore_s",
	IconstNil: "iconst_nil", IconstM1: "iconst_m1",
	Iconst0: "iconst_0", Iconst1: "iconst_1", Iconst2: "iconst_2", Iconst3: "iconst_3",
	Iconst4: "iconst_4", Iconst5: "iconst_5", Iconst6: "iconst_6", Iconst7: "iconst_7", Iconst8: "iconst_8",
	IconstS: "iconst_s", Iconst: "iconst", Lconst: "lconst", Fconst: "fconst", Dconst: "dconst",
	Dup: "dup", Pop: "pop",
	Call: "call", CallNative: "callnative", Ret: "ret", Iret: "iret", Lret: "lret", Rret: "rret",
	JmpS: "jmp_s", LoopS: "loop_s", BrFalseS: "br_false_s", BrTrueS: "br_true_s",
	BrIcmpeqS: "br_icmpeq_s", BrIcmpneS: "br_icmpne_s", BrIcmpgeS: "br_icmpge_s",
	BrIcmpgtS: "br_icmpgt_s", BrIcmpleS: "br_icmple_s", BrIcmpltS: "br_icmplt_s",
	BrEqS: "br_eq_s", BrNeS: "br_ne_s", BrGeS: "br_ge_s", BrGtS: "br_gt_s", BrLeS: "br_le_s", BrLtS: "br_lt_s",
	Jmp: "jmp", Loop: "loop", BrFalse: "br_false", BrTrue: "br_true",
	BrIcmpeq: "br_icmpeq", BrIcmpne: "br_icmpne", BrIcmpge: "br_icmpge",
	BrIcmpgt: "br_icmpgt", BrIcmple: "br_icmple", BrIcmplt: "br_icmplt",
	BrEq: "br_eq", BrNe: "br_ne", BrGe: "br_ge", BrGt: "br_gt", BrLe: "br_le", BrLt: "br_lt",
	Swch: "swch",
	Iadd: "iadd", Isub: "isub", Imul: "imul", Uimul: "uimul", Idiv: "idiv", Uidiv: "uidiv", Irem: "irem", Uirem: "uirem",
	Ladd: "ladd", Lsub: "lsub", Lmul: "lmul", Ulmul: "ulmul", Ldiv: "ldiv", Uldiv: "uldiv", Lrem: "lrem", Ulrem: "ulrem",
	Fadd: "fadd", Fsub: "fsub", Fmul: "fmul", Fdiv: "fdiv",
	Dadd: "dadd", Dsub: "dsub", Dmul: "dmul", Ddiv: "ddiv",
	Lcmp: "lcmp", Rcmp: "rcmp", Fcmpl: "fcmpl", Fcmpg: "fcmpg", Dcmpl: "dcmpl", Dcmpg: "dcmpg",
	Band: "band", Bor: "bor", Bxor: "bxor", Bshl: "bshl", Bshr: "bshr", BshrUn: "bshr_un", Bneg: "bneg", Bnot: "bnot",
	Ldstr: "ldstr",
}

func (op OpCode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	if op == Invalid {
		return "invalid"
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

// OpcodeAdd selects the typed add instruction for kind.
func OpcodeAdd(kind ast.PrimKind) OpCode {
	switch {
	case kind == ast.F32:
		return Fadd
	case kind == ast.F64:
		return Dadd
	case kind.Is64():
		return Ladd
	case kind.IsInteger():
		return Iadd
	default:
		return Invalid
	}
}

// OpcodeSub selects the typed subtract instruction for kind.
func OpcodeSub(kind ast.PrimKind) OpCode {
	switch {
	case kind == ast.F32:
		return Fsub
	case kind == ast.F64:
		return Dsub
	case kind.Is64():
		return Lsub
	case kind.IsInteger():
		return Isub
	default:
		return Invalid
	}
}

// OpcodeMul selects the typed multiply instruction for kind, choosing
// the unsigned variant for unsigned integer kinds.
func OpcodeMul(kind ast.PrimKind) OpCode {
	switch {
	case kind == ast.U64:
		return Ulmul
	case kind == ast.I64:
		return Lmul
	case kind == ast.F32:
		return Fmul
	case kind == ast.F64:
		return Dmul
	case kind.IsUnsigned():
		return Uimul
	case kind.IsInteger():
		return Imul
	default:
		return Invalid
	}
}

// OpcodeDiv selects the typed divide instruction for kind.
func OpcodeDiv(kind ast.PrimKind) OpCode {
	switch {
	case kind == ast.Bool:
		return Invalid
	case kind == ast.U64:
		return Uldiv
	case kind == ast.I64:
		return Ldiv
	case kind == ast.F32:
		return Fdiv
	case kind == ast.F64:
		return Ddiv
	case kind.IsUnsigned():
		return Uidiv
	case kind.IsInteger():
		return Idiv
	default:
		return Invalid
	}
}

// OpcodeRem selects the typed remainder instruction for kind (no
// floating-point remainder instruction exists, matching the original).
func OpcodeRem(kind ast.PrimKind) OpCode {
	switch {
	case kind == ast.U64:
		return Ulrem
	case kind == ast.I64:
		return Lrem
	case kind.IsUnsigned():
		return Uirem
	case kind.IsInteger():
		return Irem
	default:
		return Invalid
	}
}

// OpcodeArithmetic dispatches a binary arithmetic token to its typed
// opcode for kind.
func OpcodeArithmetic(kind ast.PrimKind, op token.Type) OpCode {
	switch op {
	case token.Plus:
		return OpcodeAdd(kind)
	case token.Minus:
		return OpcodeSub(kind)
	case token.Star:
		return OpcodeMul(kind)
	case token.Slash:
		return OpcodeDiv(kind)
	case token.Percent:
		return OpcodeRem(kind)
	default:
		return Invalid
	}
}

// OpcodeIntegerBrCmp selects the short or long compare-and-branch
// opcode for a comparison token. When opposite is true, the branch
// fires on the negated condition -- used by the condition-to-branch
// lowerer to jump over a then-branch when the source condition is
// false.
func OpcodeIntegerBrCmp(op token.Type, shortened bool, opposite bool) OpCode {
	if opposite {
		switch op {
		case token.EqualEqual:
			return pick(shortened, BrIcmpneS, BrIcmpne)
		case token.BangEqual:
			return pick(shortened, BrIcmpeqS, BrIcmpeq)
		case token.Less:
			return pick(shortened, BrIcmpgeS, BrIcmpge)
		case token.LessEqual:
			return pick(shortened, BrIcmpgtS, BrIcmpgt)
		case token.Greater:
			return pick(shortened, BrIcmpleS, BrIcmple)
		case token.GreaterEqual:
			return pick(shortened, BrIcmpltS, BrIcmplt)
		default:
			return Invalid
		}
	}
	switch op {
	case token.EqualEqual:
		return pick(shortened, BrIcmpeqS, BrIcmpeq)
	case token.BangEqual:
		return pick(shortened, BrIcmpneS, BrIcmpne)
	case token.Less:
		return pick(shortened, BrIcmpltS, BrIcmplt)
	case token.LessEqual:
		return pick(shortened, BrIcmpleS, BrIcmple)
	case token.Greater:
		return pick(shortened, BrIcmpgtS, BrIcmpgt)
	case token.GreaterEqual:
		return pick(shortened, BrIcmpgeS, BrIcmpge)
	default:
		return Invalid
	}
}

// OpcodeFloatingCmp selects fcmpl/fcmpg or dcmpl/dcmpg for kind; the
// greater flag picks the NaN-handling variant (g treats NaN as greater,
// l treats NaN as less), matching spec.md §4.6's rule #4.
func OpcodeFloatingCmp(kind ast.PrimKind, greater bool) OpCode {
	if kind == ast.F32 {
		return pick(greater, Fcmpg, Fcmpl)
	}
	if kind == ast.F64 {
		return pick(greater, Dcmpg, Dcmpl)
	}
	return Invalid
}

func pick(cond bool, a, b OpCode) OpCode {
	if cond {
		return a
	}
	return b
}
