package vm

import (
	"encoding/binary"

	"github.com/xyproto/roxy/internal/roxy/bytecode"
	"github.com/xyproto/roxy/internal/roxy/strtab"
)

// frame is one call's activation record: the chunk it is executing,
// its instruction pointer, and the base slot index its locals are
// addressed relative to.
type frame struct {
	chunk    *bytecode.Chunk
	ip       int
	slotBase int
}

// VM is one bytecode execution context. It is not safe for concurrent
// use (spec.md §5's single-threaded-per-run model).
type VM struct {
	st     slots
	frames []frame
}

// New creates an idle VM ready for Run.
func New() *VM { return &VM{} }

// Run executes chunk as the top-level entry point with no arguments
// and returns its return value (the zero Value for a void chunk) once
// every frame it pushes has returned.
func (vm *VM) Run(chunk *bytecode.Chunk) (Value, error) {
	slotBase := vm.st.sp
	vm.reserveLocals(slotBase, 0, len(chunk.Locals))
	vm.frames = append(vm.frames, frame{chunk: chunk, slotBase: slotBase})
	baseDepth := len(vm.frames) - 1
	return vm.dispatch(baseDepth)
}

// reserveLocals zero-clears every local slot from paramCount up to
// localCount (the slots a callee's own var declarations will fill in)
// and moves the operand-stack top above the whole local region. Locals
// and operand-stack temporaries share one backing array, so without
// this the first expression a callee evaluates would momentarily
// overwrite an already-initialized parameter or earlier local at the
// same low index before its own store instruction moves it to its
// final slot.
func (vm *VM) reserveLocals(slotBase, paramCount, localCount int) {
	for i := paramCount; i < localCount; i++ {
		vm.st.write(uint16(slotBase+i), Value{})
	}
	vm.st.sp = slotBase + localCount
}

func (vm *VM) errDivZero() error {
	return RuntimeError{Kind: DivisionByZero, Message: "division by zero"}
}

func (vm *VM) errOpcode(op bytecode.OpCode) error {
	return RuntimeError{Kind: InvalidOpcode, Message: "unhandled opcode " + op.String()}
}

// dispatch runs frames until the frame at stack depth baseDepth
// returns, and reports its return value.
func (vm *VM) dispatch(baseDepth int) (Value, error) {
	var result Value
	for {
		f := &vm.frames[len(vm.frames)-1]
		code := f.chunk.Bytecode
		if f.ip >= len(code) {
			return result, RuntimeError{Kind: InvalidOpcode, Message: "instruction pointer ran off the end of the chunk"}
		}
		op := bytecode.OpCode(code[f.ip])
		f.ip++

		switch op {
		case bytecode.Nop, bytecode.Brk:
			// no-op

		case bytecode.IloadFast0, bytecode.IloadFast1, bytecode.IloadFast2, bytecode.IloadFast3:
			if err := vm.st.push(vm.st.read(uint16(f.slotBase) + uint16(op-bytecode.IloadFast0))); err != nil {
				return result, err
			}
		case bytecode.IloadS:
			idx := uint16(f.slotBase) + uint16(vm.readByte(f))
			if err := vm.st.push(vm.st.read(idx)); err != nil {
				return result, err
			}
		case bytecode.Iload:
			idx := uint16(f.slotBase) + vm.readU16(f)
			if err := vm.st.push(vm.st.read(idx)); err != nil {
				return result, err
			}

		case bytecode.IstoreFast0, bytecode.IstoreFast1, bytecode.IstoreFast2, bytecode.IstoreFast3:
			idx := uint16(f.slotBase) + uint16(op-bytecode.IstoreFast0)
			vm.st.write(idx, vm.st.pop())
		case bytecode.IstoreS:
			idx := uint16(f.slotBase) + uint16(vm.readByte(f))
			vm.st.write(idx, vm.st.pop())
		case bytecode.Istore:
			idx := uint16(f.slotBase) + vm.readU16(f)
			vm.st.write(idx, vm.st.pop())

		case bytecode.LloadFast0, bytecode.LloadFast1, bytecode.LloadFast2, bytecode.LloadFast3:
			if err := vm.st.push(vm.st.read(uint16(f.slotBase) + uint16(op-bytecode.LloadFast0))); err != nil {
				return result, err
			}
		case bytecode.LloadS:
			idx := uint16(f.slotBase) + uint16(vm.readByte(f))
			if err := vm.st.push(vm.st.read(idx)); err != nil {
				return result, err
			}
		case bytecode.Lload:
			idx := uint16(f.slotBase) + vm.readU16(f)
			if err := vm.st.push(vm.st.read(idx)); err != nil {
				return result, err
			}
		case bytecode.LstoreFast0, bytecode.LstoreFast1, bytecode.LstoreFast2, bytecode.LstoreFast3:
			idx := uint16(f.slotBase) + uint16(op-bytecode.LstoreFast0)
			vm.st.write(idx, vm.st.pop())
		case bytecode.LstoreS:
			idx := uint16(f.slotBase) + uint16(vm.readByte(f))
			vm.st.write(idx, vm.st.pop())
		case bytecode.Lstore:
			idx := uint16(f.slotBase) + vm.readU16(f)
			vm.st.write(idx, vm.st.pop())

		case bytecode.RloadFast0, bytecode.RloadFast1, bytecode.RloadFast2, bytecode.RloadFast3:
			if err := vm.loadRef(f, uint16(f.slotBase)+uint16(op-bytecode.RloadFast0)); err != nil {
				return result, err
			}
		case bytecode.RloadS:
			idx := uint16(f.slotBase) + uint16(vm.readByte(f))
			if err := vm.loadRef(f, idx); err != nil {
				return result, err
			}
		case bytecode.Rload:
			idx := uint16(f.slotBase) + vm.readU16(f)
			if err := vm.loadRef(f, idx); err != nil {
				return result, err
			}
		case bytecode.RstoreFast0, bytecode.RstoreFast1, bytecode.RstoreFast2, bytecode.RstoreFast3:
			vm.storeRef(uint16(f.slotBase) + uint16(op-bytecode.RstoreFast0))
		case bytecode.RstoreS:
			idx := uint16(f.slotBase) + uint16(vm.readByte(f))
			vm.storeRef(idx)
		case bytecode.Rstore:
			idx := uint16(f.slotBase) + vm.readU16(f)
			vm.storeRef(idx)

		case bytecode.IconstNil:
			if err := vm.st.push(Value{}); err != nil {
				return result, err
			}
		case bytecode.IconstM1:
			if err := vm.st.push(i32Value(-1)); err != nil {
				return result, err
			}
		case bytecode.Iconst0, bytecode.Iconst1, bytecode.Iconst2, bytecode.Iconst3, bytecode.Iconst4,
			bytecode.Iconst5, bytecode.Iconst6, bytecode.Iconst7, bytecode.Iconst8:
			if err := vm.st.push(i32Value(int32(op - bytecode.Iconst0))); err != nil {
				return result, err
			}
		case bytecode.IconstS:
			v := int8(vm.readByte(f))
			if err := vm.st.push(i32Value(int32(v))); err != nil {
				return result, err
			}
		case bytecode.Iconst:
			v := int32(vm.readU32(f))
			if err := vm.st.push(i32Value(v)); err != nil {
				return result, err
			}
		case bytecode.Lconst:
			v := vm.readU64(f)
			if err := vm.st.push(u64Value(v)); err != nil {
				return result, err
			}
		case bytecode.Fconst:
			v := vm.readU32(f)
			if err := vm.st.push(Value{bits: uint64(v)}); err != nil {
				return result, err
			}
		case bytecode.Dconst:
			v := vm.readU64(f)
			if err := vm.st.push(Value{bits: v}); err != nil {
				return result, err
			}

		case bytecode.Dup:
			v := vm.st.peek()
			if v.ref != nil {
				v.ref.Incref()
			}
			if err := vm.st.push(v); err != nil {
				return result, err
			}
		case bytecode.Pop:
			v := vm.st.pop()
			if v.ref != nil {
				v.ref.Decref()
			}

		case bytecode.Call:
			if err := vm.execCall(f); err != nil {
				return result, err
			}
		case bytecode.CallNative:
			vm.execCallNative(f)

		case bytecode.Ret:
			done, v, err := vm.execReturn(f, false)
			if err != nil {
				return result, err
			}
			if done {
				if len(vm.frames) <= baseDepth {
					return v, nil
				}
			}
			continue
		case bytecode.Iret, bytecode.Lret, bytecode.Rret:
			done, v, err := vm.execReturn(f, true)
			if err != nil {
				return result, err
			}
			if done && len(vm.frames) <= baseDepth {
				return v, nil
			}
			continue

		case bytecode.JmpS:
			off := int8(vm.readByte(f))
			f.ip += int(off)
		case bytecode.LoopS:
			off := int8(vm.readByte(f))
			f.ip -= int(off)
		case bytecode.Jmp:
			off := int32(vm.readU32(f))
			f.ip += int(off)
		case bytecode.Loop:
			off := int32(vm.readU32(f))
			f.ip -= int(off)

		case bytecode.BrFalseS:
			off := int8(vm.readByte(f))
			if !vm.st.peek().asBool() {
				f.ip += int(off)
			}
		case bytecode.BrTrueS:
			off := int8(vm.readByte(f))
			if vm.st.peek().asBool() {
				f.ip += int(off)
			}
		case bytecode.BrFalse:
			off := int32(vm.readU32(f))
			if !vm.st.peek().asBool() {
				f.ip += int(off)
			}
		case bytecode.BrTrue:
			off := int32(vm.readU32(f))
			if vm.st.peek().asBool() {
				f.ip += int(off)
			}

		case bytecode.BrIcmpeqS, bytecode.BrIcmpneS, bytecode.BrIcmpgeS, bytecode.BrIcmpgtS, bytecode.BrIcmpleS, bytecode.BrIcmpltS:
			off := int8(vm.readByte(f))
			if vm.intCmpBranch(op) {
				f.ip += int(off)
			}
		case bytecode.BrIcmpeq, bytecode.BrIcmpne, bytecode.BrIcmpge, bytecode.BrIcmpgt, bytecode.BrIcmple, bytecode.BrIcmplt:
			off := int32(vm.readU32(f))
			if vm.intCmpBranch(op) {
				f.ip += int(off)
			}

		case bytecode.BrEqS, bytecode.BrNeS, bytecode.BrGeS, bytecode.BrGtS, bytecode.BrLeS, bytecode.BrLtS:
			off := int8(vm.readByte(f))
			if vm.zeroCmpBranch(op) {
				f.ip += int(off)
			}
		case bytecode.BrEq, bytecode.BrNe, bytecode.BrGe, bytecode.BrGt, bytecode.BrLe, bytecode.BrLt:
			off := int32(vm.readU32(f))
			if vm.zeroCmpBranch(op) {
				f.ip += int(off)
			}

		case bytecode.Swch:
			return result, vm.errOpcode(op)

		case bytecode.Iadd:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			vm.st.push(i32Value(a + b))
		case bytecode.Isub:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			vm.st.push(i32Value(a - b))
		case bytecode.Imul:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			vm.st.push(i32Value(a * b))
		case bytecode.Uimul:
			b, a := vm.st.pop().asU32(), vm.st.pop().asU32()
			vm.st.push(u32Value(a * b))
		case bytecode.Idiv:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			if b == 0 {
				return result, vm.errDivZero()
			}
			vm.st.push(i32Value(a / b))
		case bytecode.Uidiv:
			b, a := vm.st.pop().asU32(), vm.st.pop().asU32()
			if b == 0 {
				return result, vm.errDivZero()
			}
			vm.st.push(u32Value(a / b))
		case bytecode.Irem:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			if b == 0 {
				return result, vm.errDivZero()
			}
			vm.st.push(i32Value(a % b))
		case bytecode.Uirem:
			b, a := vm.st.pop().asU32(), vm.st.pop().asU32()
			if b == 0 {
				return result, vm.errDivZero()
			}
			vm.st.push(u32Value(a % b))

		case bytecode.Ladd:
			b, a := vm.st.pop().asI64(), vm.st.pop().asI64()
			vm.st.push(i64Value(a + b))
		case bytecode.Lsub:
			b, a := vm.st.pop().asI64(), vm.st.pop().asI64()
			vm.st.push(i64Value(a - b))
		case bytecode.Lmul:
			b, a := vm.st.pop().asI64(), vm.st.pop().asI64()
			vm.st.push(i64Value(a * b))
		case bytecode.Ulmul:
			b, a := vm.st.pop().asU64(), vm.st.pop().asU64()
			vm.st.push(u64Value(a * b))
		case bytecode.Ldiv:
			b, a := vm.st.pop().asI64(), vm.st.pop().asI64()
			if b == 0 {
				return result, vm.errDivZero()
			}
			vm.st.push(i64Value(a / b))
		case bytecode.Uldiv:
			b, a := vm.st.pop().asU64(), vm.st.pop().asU64()
			if b == 0 {
				return result, vm.errDivZero()
			}
			vm.st.push(u64Value(a / b))
		case bytecode.Lrem:
			b, a := vm.st.pop().asI64(), vm.st.pop().asI64()
			if b == 0 {
				return result, vm.errDivZero()
			}
			vm.st.push(i64Value(a % b))
		case bytecode.Ulrem:
			b, a := vm.st.pop().asU64(), vm.st.pop().asU64()
			if b == 0 {
				return result, vm.errDivZero()
			}
			vm.st.push(u64Value(a % b))

		case bytecode.Fadd:
			b, a := vm.st.pop().asF32(), vm.st.pop().asF32()
			vm.st.push(f32Value(a + b))
		case bytecode.Fsub:
			b, a := vm.st.pop().asF32(), vm.st.pop().asF32()
			vm.st.push(f32Value(a - b))
		case bytecode.Fmul:
			b, a := vm.st.pop().asF32(), vm.st.pop().asF32()
			vm.st.push(f32Value(a * b))
		case bytecode.Fdiv:
			b, a := vm.st.pop().asF32(), vm.st.pop().asF32()
			vm.st.push(f32Value(a / b))

		case bytecode.Dadd:
			b, a := vm.st.pop().asF64(), vm.st.pop().asF64()
			vm.st.push(f64Value(a + b))
		case bytecode.Dsub:
			b, a := vm.st.pop().asF64(), vm.st.pop().asF64()
			vm.st.push(f64Value(a - b))
		case bytecode.Dmul:
			b, a := vm.st.pop().asF64(), vm.st.pop().asF64()
			vm.st.push(f64Value(a * b))
		case bytecode.Ddiv:
			b, a := vm.st.pop().asF64(), vm.st.pop().asF64()
			vm.st.push(f64Value(a / b))

		case bytecode.Lcmp:
			b, a := vm.st.pop().asI64(), vm.st.pop().asI64()
			vm.st.push(i32Value(cmp64(a, b)))
		case bytecode.Rcmp:
			b, a := vm.st.pop().asRef(), vm.st.pop().asRef()
			vm.st.push(i32Value(refCmp(a, b)))
		case bytecode.Fcmpl:
			b, a := vm.st.pop().asF32(), vm.st.pop().asF32()
			vm.st.push(i32Value(fcmp(float64(a), float64(b), false)))
		case bytecode.Fcmpg:
			b, a := vm.st.pop().asF32(), vm.st.pop().asF32()
			vm.st.push(i32Value(fcmp(float64(a), float64(b), true)))
		case bytecode.Dcmpl:
			b, a := vm.st.pop().asF64(), vm.st.pop().asF64()
			vm.st.push(i32Value(fcmp(a, b, false)))
		case bytecode.Dcmpg:
			b, a := vm.st.pop().asF64(), vm.st.pop().asF64()
			vm.st.push(i32Value(fcmp(a, b, true)))

		case bytecode.Band:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			vm.st.push(i32Value(a & b))
		case bytecode.Bor:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			vm.st.push(i32Value(a | b))
		case bytecode.Bxor:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			vm.st.push(i32Value(a ^ b))
		case bytecode.Bshl:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			vm.st.push(i32Value(a << uint32(b&31)))
		case bytecode.Bshr:
			b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
			vm.st.push(i32Value(a >> uint32(b&31)))
		case bytecode.BshrUn:
			b, a := vm.st.pop().asI32(), vm.st.pop().asU32()
			vm.st.push(u32Value(a >> uint32(b&31)))
		case bytecode.Bneg:
			a := vm.st.pop().asI32()
			vm.st.push(i32Value(^a + 1))
		case bytecode.Bnot:
			a := vm.st.pop().asBool()
			vm.st.push(boolValue(!a))

		case bytecode.Ldstr:
			idx := vm.readU32(f)
			s := f.chunk.Constants.GetString(idx)
			s.Incref()
			if err := vm.st.push(refValue(s)); err != nil {
				return result, err
			}

		default:
			return result, vm.errOpcode(op)
		}
	}
}

func (vm *VM) loadRef(f *frame, idx uint16) error {
	v := vm.st.read(idx)
	if v.ref != nil {
		v.ref.Incref()
	}
	return vm.st.push(v)
}

func (vm *VM) storeRef(idx uint16) {
	v := vm.st.pop()
	old := vm.st.read(idx)
	if old.ref != nil {
		old.ref.Decref()
	}
	vm.st.write(idx, v)
}

func (vm *VM) intCmpBranch(op bytecode.OpCode) bool {
	b, a := vm.st.pop().asI32(), vm.st.pop().asI32()
	switch op {
	case bytecode.BrIcmpeq, bytecode.BrIcmpeqS:
		return a == b
	case bytecode.BrIcmpne, bytecode.BrIcmpneS:
		return a != b
	case bytecode.BrIcmpge, bytecode.BrIcmpgeS:
		return a >= b
	case bytecode.BrIcmpgt, bytecode.BrIcmpgtS:
		return a > b
	case bytecode.BrIcmple, bytecode.BrIcmpleS:
		return a <= b
	case bytecode.BrIcmplt, bytecode.BrIcmpltS:
		return a < b
	default:
		return false
	}
}

func (vm *VM) zeroCmpBranch(op bytecode.OpCode) bool {
	a := vm.st.pop().asI32()
	switch op {
	case bytecode.BrEq, bytecode.BrEqS:
		return a == 0
	case bytecode.BrNe, bytecode.BrNeS:
		return a != 0
	case bytecode.BrGe, bytecode.BrGeS:
		return a >= 0
	case bytecode.BrGt, bytecode.BrGtS:
		return a > 0
	case bytecode.BrLe, bytecode.BrLeS:
		return a <= 0
	case bytecode.BrLt, bytecode.BrLtS:
		return a < 0
	default:
		return false
	}
}

func cmp64(a, b int64) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// refCmp reports ref identity, not bit-pattern equality: Value.bits is
// unset for a ref-typed slot, so only the ref field distinguishes one
// interned string from another. Only zero/non-zero is meaningful here
// (==/!= are the only string comparisons sema permits), but a signed
// three-way result keeps Rcmp a drop-in alongside lcmp/fcmpl/dcmpl for
// emitCompareToBool's shared bool-from-threeway lowering.
func refCmp(a, b *strtab.ObjString) int32 {
	if a == b {
		return 0
	}
	return 1
}

// fcmp produces the three-way result for a float compare; greater
// selects the NaN-handling variant (g treats NaN as greater than
// anything, l treats it as less), matching spec.md §4.6 rule #4.
func fcmp(a, b float64, greater bool) int32 {
	if a != a || b != b { // either operand is NaN
		if greater {
			return 1
		}
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// execCall pushes a new frame for a direct call: the callee's
// parameters are already the top paramCount values on the stack, so
// they become its locals in place with no copy.
func (vm *VM) execCall(f *frame) error {
	idx := vm.readU16(f)
	if int(idx) >= len(f.chunk.FunctionTable) {
		return vm.errOpcode(bytecode.Call)
	}
	callee := f.chunk.FunctionTable[idx]
	if len(vm.frames) >= MaxFrameSize {
		return RuntimeError{Kind: FrameOverflow, Message: "call depth exceeded"}
	}
	slotBase := vm.st.sp - callee.ParamCount
	vm.reserveLocals(slotBase, callee.ParamCount, len(callee.Locals))
	vm.frames = append(vm.frames, frame{chunk: callee, slotBase: slotBase})
	return nil
}

func (vm *VM) execCallNative(f *frame) {
	idx := vm.readU16(f)
	fn := f.chunk.NativeFunctionTable[idx]
	fn(ArgStack{s: &vm.st})
}

// execReturn tears down the current frame: decref every reference
// local the chunk declares, reset the stack to the frame's base
// (discarding locals and any leftover operand-stack content), pop the
// frame, and -- if hasValue -- transfer the return value onto the
// resumed caller's stack. It reports done=true once the outermost
// frame from this Run call has unwound.
func (vm *VM) execReturn(f *frame, hasValue bool) (done bool, value Value, err error) {
	var ret Value
	if hasValue {
		ret = vm.st.pop()
	}
	for _, off := range f.chunk.RefLocalOffsets {
		idx := uint16(f.slotBase) + off
		if v := vm.st.read(idx); v.ref != nil {
			v.ref.Decref()
		}
	}
	vm.st.sp = f.slotBase
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		return true, ret, nil
	}
	if hasValue {
		if pushErr := vm.st.push(ret); pushErr != nil {
			return true, ret, pushErr
		}
	}
	return false, ret, nil
}

func (vm *VM) readByte(f *frame) byte {
	b := f.chunk.Bytecode[f.ip]
	f.ip++
	return b
}

func (vm *VM) readU16(f *frame) uint16 {
	v := binary.LittleEndian.Uint16(f.chunk.Bytecode[f.ip:])
	f.ip += 2
	return v
}

func (vm *VM) readU32(f *frame) uint32 {
	v := binary.LittleEndian.Uint32(f.chunk.Bytecode[f.ip:])
	f.ip += 4
	return v
}

func (vm *VM) readU64(f *frame) uint64 {
	v := binary.LittleEndian.Uint64(f.chunk.Bytecode[f.ip:])
	f.ip += 8
	return v
}
