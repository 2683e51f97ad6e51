// Package vm executes a linked bytecode.Chunk on a frame/operand-stack
// machine: a fixed-capacity array of tagged Values shared between
// locals and operand-stack temporaries, and a bounded call-frame stack.
//
// Grounded on original_source/include/roxy/vm.hpp's dispatch loop
// (MaxFrameSize=64, MaxStackSize=MaxFrameSize*256, CallFrame{ip,
// slot_base, chunk}) and module.cpp's native-call trampoline
// convention (an ArgStack view over the caller's top of stack).
package vm

import "fmt"

// RuntimeErrorKind discriminates the four ways `run` can abort, per
// spec.md §7.
type RuntimeErrorKind uint8

const (
	StackOverflow RuntimeErrorKind = iota
	FrameOverflow
	DivisionByZero
	InvalidOpcode
)

func (k RuntimeErrorKind) String() string {
	switch k {
	case StackOverflow:
		return "StackOverflow"
	case FrameOverflow:
		return "FrameOverflow"
	case DivisionByZero:
		return "DivisionByZero"
	default:
		return "InvalidOpcode"
	}
}

// RuntimeError is a fatal VM error; it always aborts the current run.
type RuntimeError struct {
	Kind    RuntimeErrorKind
	Message string
}

func (e RuntimeError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }
