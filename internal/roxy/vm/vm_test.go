package vm

import (
	"bytes"
	"testing"

	"github.com/xyproto/roxy/internal/roxy/bytecode"
	"github.com/xyproto/roxy/internal/roxy/strtab"
)

func TestRunArithmetic(t *testing.T) {
	c := bytecode.New("main")
	c.EmitOp(bytecode.Iconst2, 1)
	c.EmitOp(bytecode.Iconst3, 1)
	c.EmitOp(bytecode.Iadd, 1)
	c.EmitOp(bytecode.Iret, 1)

	got, err := New().Run(c)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.asI32() != 5 {
		t.Errorf("result = %d, want 5", got.asI32())
	}
}

func TestRunDivisionByZero(t *testing.T) {
	c := bytecode.New("main")
	c.EmitOp(bytecode.Iconst1, 1)
	c.EmitOp(bytecode.Iconst0, 1)
	c.EmitOp(bytecode.Idiv, 1)
	c.EmitOp(bytecode.Iret, 1)

	_, err := New().Run(c)
	rerr, ok := err.(RuntimeError)
	if !ok {
		t.Fatalf("error type = %T, want RuntimeError", err)
	}
	if rerr.Kind != DivisionByZero {
		t.Errorf("Kind = %v, want DivisionByZero", rerr.Kind)
	}
}

func TestRunBranchFalseSkipsThen(t *testing.T) {
	c := bytecode.New("main")
	c.EmitOp(bytecode.Iconst0, 1) // false condition
	skip := c.EmitJump(bytecode.BrFalse, 1)
	c.EmitOp(bytecode.Iconst1, 1)
	c.EmitOp(bytecode.Iret, 1)
	c.PatchJump(skip)
	c.EmitOp(bytecode.Iconst2, 1)
	c.EmitOp(bytecode.Iret, 1)

	got, err := New().Run(c)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.asI32() != 2 {
		t.Errorf("result = %d, want 2 (the false branch should have been taken)", got.asI32())
	}
}

func TestRunBrFalsePeeksConditionForTrailingPop(t *testing.T) {
	// Mirrors the compiler's if-statement lowering (stmt.go): BrFalse is
	// followed by an explicit Pop on both arms to discard the condition.
	// If BrFalse itself popped, that Pop would instead consume the
	// result of the true-branch local load below it.
	c := bytecode.New("main")
	c.Locals = []bytecode.LocalTableEntry{{Start: 0, Size: 1, Kind: bytecode.LocalInt32}}
	c.EmitOp(bytecode.Iconst0, 1)
	c.EmitOp(bytecode.IstoreFast0, 1)
	c.EmitOp(bytecode.Iconst1, 1) // condition: true
	elseJump := c.EmitJump(bytecode.BrFalse, 1)
	c.EmitOp(bytecode.Pop, 1) // discard the peeked condition on the taken arm
	c.EmitOp(bytecode.Iconst7, 1)
	c.EmitOp(bytecode.IstoreFast0, 1)
	endJump := c.EmitJump(bytecode.Jmp, 1)
	c.PatchJump(elseJump)
	c.EmitOp(bytecode.Pop, 1) // discard the peeked condition on the skipped arm
	c.EmitOp(bytecode.Iconst3, 1)
	c.EmitOp(bytecode.IstoreFast0, 1)
	c.PatchJump(endJump)
	c.EmitOp(bytecode.IloadFast0, 1)
	c.EmitOp(bytecode.Iret, 1)

	got, err := New().Run(c)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.asI32() != 7 {
		t.Errorf("result = %d, want 7 (a popping BrFalse corrupts the local instead)", got.asI32())
	}
}

func TestRunRcmpComparesRefIdentityNotBits(t *testing.T) {
	interner := strtab.New()
	a := interner.Intern("same")
	b := interner.Intern("same")
	other := interner.Intern("different")

	if a != b {
		t.Fatalf("interner did not dedup identical strings")
	}

	c := bytecode.New("main")
	c.EmitOp(bytecode.Rcmp, 1)
	c.EmitOp(bytecode.Iret, 1)

	vm := New()
	if err := vm.st.push(refValue(a)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := vm.st.push(refValue(other)); err != nil {
		t.Fatalf("push: %v", err)
	}
	vm.frames = append(vm.frames, frame{chunk: c})
	got, err := vm.dispatch(0)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.asI32() == 0 {
		t.Errorf("rcmp(%q, %q) = 0, want nonzero (distinct strings)", a.Chars, other.Chars)
	}
}

func TestRunCallAndReturn(t *testing.T) {
	callee := bytecode.New("main.sq")
	callee.ParamCount = 1
	callee.Locals = []bytecode.LocalTableEntry{{Start: 0, Size: 1, Kind: bytecode.LocalInt32}}
	callee.EmitOp(bytecode.IloadFast0, 1)
	callee.EmitOp(bytecode.IloadFast0, 1)
	callee.EmitOp(bytecode.Imul, 1)
	callee.EmitOp(bytecode.Iret, 1)

	caller := bytecode.New("main.$main")
	caller.EmitOp(bytecode.Iconst7, 1)
	caller.EmitOp(bytecode.Call, 1)
	caller.EmitU16(0, 1)
	caller.EmitOp(bytecode.Iret, 1)
	caller.FunctionTable = []*bytecode.Chunk{callee}

	got, err := New().Run(caller)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.asI32() != 49 {
		t.Errorf("result = %d, want 49", got.asI32())
	}
}

func TestRunCallNative(t *testing.T) {
	var out bytes.Buffer
	natives := Builtins(&out, strtab.New())

	c := bytecode.New("main")
	c.EmitOp(bytecode.Iconst8, 1)
	c.EmitOp(bytecode.CallNative, 1)
	c.EmitU16(0, 1)
	c.EmitOp(bytecode.Ret, 1)
	c.NativeFunctionTable = []bytecode.NativeFunc{natives["print_i32"]}

	if _, err := New().Run(c); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := out.String(), "8\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestDupIncrefsRefAndPopDecrefs(t *testing.T) {
	interner := strtab.New()
	obj := interner.Intern("hi")

	c := bytecode.New("main")
	c.EmitOp(bytecode.Dup, 1)
	c.EmitOp(bytecode.Pop, 1) // discard the duplicate, leaving the original on the stack
	c.EmitOp(bytecode.Ret, 1)

	vm := New()
	if err := vm.st.push(refValue(obj)); err != nil {
		t.Fatalf("push: %v", err)
	}
	vm.frames = append(vm.frames, frame{chunk: c})
	if _, err := vm.dispatch(0); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	// Dup (+1) then Pop on the duplicate (-1) nets back to the original count.
	if obj.RefCount != 1 {
		t.Errorf("RefCount after dup+pop = %d, want 1", obj.RefCount)
	}
}

func TestRunRefLocalDecrefOnReturn(t *testing.T) {
	interner := strtab.New()

	callee := bytecode.New("main.f")
	callee.ParamCount = 1
	callee.Locals = []bytecode.LocalTableEntry{{Start: 0, Size: 1, Kind: bytecode.LocalRef}}
	callee.RefLocalOffsets = []uint16{0}
	callee.EmitOp(bytecode.Ret, 1)

	caller := bytecode.New("main.$main")
	idx := caller.Constants.AddString(interner, "owned")
	obj := caller.Constants.GetString(idx)
	caller.EmitOp(bytecode.Ldstr, 1)
	caller.EmitU32(idx, 1)
	caller.EmitOp(bytecode.Call, 1)
	caller.EmitU16(0, 1)
	caller.EmitOp(bytecode.Ret, 1)
	caller.FunctionTable = []*bytecode.Chunk{callee}

	if _, err := New().Run(caller); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// AddString's intern created the object with RefCount 1; Ldstr's
	// Incref bumped it to 2 when pushed as the call argument; the
	// callee's return should decref its ref local back down to 1.
	if obj.RefCount != 1 {
		t.Errorf("RefCount after call returns = %d, want 1 (the ref param local should have been decref'd)", obj.RefCount)
	}
}
