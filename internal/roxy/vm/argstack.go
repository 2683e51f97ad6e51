package vm

import "github.com/xyproto/roxy/internal/roxy/strtab"

// ArgStack is the view a native trampoline receives: the same operand
// stack the caller evaluated its arguments onto, so a native pops
// exactly the arguments it expects (right-to-left, since they were
// pushed left-to-right) and may push one result value before
// returning. It implements bytecode.ArgStackView.
//
// Popping here is a pure ownership transfer, same as any other stack
// pop -- a native that does not keep a popped reference beyond its own
// call must decref it itself (see Builtins in builtins.go), matching
// the transfer-vs-discard distinction the VM's dispatch loop applies
// to `rstore`/`ret` vs the explicit `pop` opcode.
type ArgStack struct {
	s *slots
}

func (a ArgStack) PopI32() int32             { return a.s.pop().asI32() }
func (a ArgStack) PopU32() uint32            { return a.s.pop().asU32() }
func (a ArgStack) PopI64() int64             { return a.s.pop().asI64() }
func (a ArgStack) PopU64() uint64            { return a.s.pop().asU64() }
func (a ArgStack) PopF32() float32           { return a.s.pop().asF32() }
func (a ArgStack) PopF64() float64           { return a.s.pop().asF64() }
func (a ArgStack) PopRef() *strtab.ObjString { return a.s.pop().asRef() }

func (a ArgStack) PushI32(v int32)             { a.s.push(i32Value(v)) }
func (a ArgStack) PushU32(v uint32)            { a.s.push(u32Value(v)) }
func (a ArgStack) PushI64(v int64)             { a.s.push(i64Value(v)) }
func (a ArgStack) PushU64(v uint64)            { a.s.push(u64Value(v)) }
func (a ArgStack) PushF32(v float32)           { a.s.push(f32Value(v)) }
func (a ArgStack) PushF64(v float64)           { a.s.push(f64Value(v)) }
func (a ArgStack) PushRef(v *strtab.ObjString) { a.s.push(refValue(v)) }
