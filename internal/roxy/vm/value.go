package vm

import (
	"math"

	"github.com/xyproto/roxy/internal/roxy/strtab"
)

// Value is one stack-resident or local-resident slot. The instruction
// set's `pop`/`dup` carry no width operand, so the VM represents every
// value -- 32-bit, 64-bit, or reference -- as one of these rather than
// as a variable-width run of raw 32-bit words; bits holds any numeric
// payload (reinterpreted by the opcode that reads it), ref holds a
// string reference when non-nil.
type Value struct {
	bits uint64
	ref  *strtab.ObjString
}

func i32Value(v int32) Value  { return Value{bits: uint64(uint32(v))} }
func u32Value(v uint32) Value { return Value{bits: uint64(v)} }
func i64Value(v int64) Value  { return Value{bits: uint64(v)} }
func u64Value(v uint64) Value { return Value{bits: v} }
func f32Value(v float32) Value { return Value{bits: uint64(math.Float32bits(v))} }
func f64Value(v float64) Value { return Value{bits: math.Float64bits(v)} }
func refValue(v *strtab.ObjString) Value { return Value{ref: v} }
func boolValue(b bool) Value {
	if b {
		return i32Value(1)
	}
	return i32Value(0)
}

func (v Value) asI32() int32    { return int32(uint32(v.bits)) }
func (v Value) asU32() uint32   { return uint32(v.bits) }
func (v Value) asI64() int64    { return int64(v.bits) }
func (v Value) asU64() uint64   { return v.bits }
func (v Value) asF32() float32  { return math.Float32frombits(uint32(v.bits)) }
func (v Value) asF64() float64  { return math.Float64frombits(v.bits) }
func (v Value) asBool() bool    { return v.bits != 0 }
func (v Value) asRef() *strtab.ObjString { return v.ref }
