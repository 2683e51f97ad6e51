package compiler

import (
	"math"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/bytecode"
	"github.com/xyproto/roxy/internal/roxy/token"
)

// compileExpr emits code that leaves exactly one value of e's resolved
// type on top of the operand stack; a call to a void function leaves
// nothing.
func (c *Compiler) compileExpr(e ast.Expr) {
	line := c.line(e.Loc())
	switch v := e.(type) {
	case *ast.ErrorExpr:
		c.errorf(Unimplemented, "cannot compile an expression that failed to parse: %s", v.Message)
	case *ast.LiteralExpr:
		c.compileLiteral(v, line)
	case *ast.GroupingExpr:
		c.compileExpr(v.Inner)
	case *ast.UnaryExpr:
		c.compileUnary(v, line)
	case *ast.BinaryExpr:
		c.compileBinary(v, line)
	case *ast.TernaryExpr:
		c.compileTernary(v, line)
	case *ast.VariableExpr:
		c.compileVariableLoad(v, line)
	case *ast.AssignExpr:
		c.compileAssign(v, line)
	case *ast.CallExpr:
		c.compileCall(v, line)
	case *ast.GetExpr, *ast.SetExpr:
		c.errorf(Unimplemented, "struct field access is not lowered by this compiler")
	default:
		c.errorf(Unimplemented, "unhandled expression kind %T", e)
	}
}

func (c *Compiler) compileLiteral(e *ast.LiteralExpr, line uint32) {
	switch e.Kind {
	case ast.LitInt:
		c.emitIntConst(e.IntVal, line)
	case ast.LitFloat:
		c.chunk.EmitOp(bytecode.Dconst, line)
		c.chunk.EmitU64(math.Float64bits(e.FltVal), line)
	case ast.LitString:
		idx := c.chunk.Constants.AddString(c.interner, e.StrVal)
		c.chunk.EmitOp(bytecode.Ldstr, line)
		c.chunk.EmitU32(idx, line)
	case ast.LitBool:
		if e.BoolVal {
			c.chunk.EmitOp(bytecode.Iconst1, line)
		} else {
			c.chunk.EmitOp(bytecode.Iconst0, line)
		}
	case ast.LitNil:
		c.chunk.EmitOp(bytecode.IconstNil, line)
	}
}

// emitIntConst picks the narrowest opcode that can hold v, matching
// the fast-path constants the instruction set reserves for small
// integers (spec.md §4.6).
func (c *Compiler) emitIntConst(v int64, line uint32) {
	switch {
	case v >= 0 && v <= 8:
		c.chunk.EmitOp(bytecode.OpCode(int(bytecode.Iconst0)+int(v)), line)
	case v == -1:
		c.chunk.EmitOp(bytecode.IconstM1, line)
	case v >= math.MinInt8 && v <= math.MaxInt8:
		c.chunk.EmitOp(bytecode.IconstS, line)
		c.chunk.EmitByte(byte(int8(v)), line)
	default:
		c.chunk.EmitOp(bytecode.Iconst, line)
		c.chunk.EmitU32(uint32(int32(v)), line)
	}
}

func (c *Compiler) compileUnary(e *ast.UnaryExpr, line uint32) {
	c.compileExpr(e.Operand)
	kind := primKindOf(e.ResolvedType())
	switch e.Operator.Type {
	case token.Minus:
		c.emitNegate(kind, line)
	case token.Bang:
		c.chunk.EmitOp(bytecode.Bnot, line)
	default:
		c.errorf(Unimplemented, "unhandled unary operator %s", e.Operator.Type)
	}
}

// emitNegate computes `x * -1` in the operand's own type. The
// instruction set has no dedicated unary-negate opcode and no
// reverse-subtract, so negation is synthesized as a multiply, which
// every numeric kind supports directly.
func (c *Compiler) emitNegate(kind ast.PrimKind, line uint32) {
	if !kind.IsNumeric() {
		c.errorf(Unimplemented, "cannot negate a value of kind %s", kind)
		return
	}
	switch {
	case kind.IsFloat():
		if kind == ast.F32 {
			c.chunk.EmitOp(bytecode.Fconst, line)
			c.chunk.EmitU32(math.Float32bits(-1), line)
		} else {
			c.chunk.EmitOp(bytecode.Dconst, line)
			c.chunk.EmitU64(math.Float64bits(-1), line)
		}
	default:
		if kind.Is64() {
			c.chunk.EmitOp(bytecode.Lconst, line)
			c.chunk.EmitU64(uint64(int64(-1)), line)
		} else {
			c.chunk.EmitOp(bytecode.IconstM1, line)
		}
	}
	op := bytecode.OpcodeMul(kind)
	c.chunk.EmitOp(op, line)
}

func (c *Compiler) compileBinary(e *ast.BinaryExpr, line uint32) {
	switch e.Operator.Type {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent:
		c.compileArithmetic(e, line)
	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual, token.EqualEqual, token.BangEqual:
		c.compileComparison(e, line)
	case token.AmpAmp:
		c.compileShortCircuit(e, false, line)
	case token.BarBar:
		c.compileShortCircuit(e, true, line)
	default:
		c.errorf(Unimplemented, "unhandled binary operator %s", e.Operator.Type)
	}
}

func (c *Compiler) compileArithmetic(e *ast.BinaryExpr, line uint32) {
	leftKind := primKindOf(e.Left.ResolvedType())
	if e.Operator.Type == token.Plus && leftKind == ast.Str {
		c.compileStringConcat(e, line)
		return
	}
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	op := bytecode.OpcodeArithmetic(leftKind, e.Operator.Type)
	if op == bytecode.Invalid {
		c.errorf(Unimplemented, "no arithmetic opcode for %s on %s", e.Operator.Type, leftKind)
		return
	}
	c.chunk.EmitOp(op, line)
}

// compileStringConcat lowers string `+` to a call against the
// builtin "concat" native, the one operator-overload spec.md §4.5
// grants strings.
func (c *Compiler) compileStringConcat(e *ast.BinaryExpr, line uint32) {
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	idx := c.resolveTarget(CallTarget{IsNative: true, Module: "builtin", Name: "concat"})
	c.chunk.EmitOp(bytecode.CallNative, line)
	c.chunk.EmitU16(idx, line)
}

func (c *Compiler) compileComparison(e *ast.BinaryExpr, line uint32) {
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	kind := primKindOf(e.Left.ResolvedType())

	if kind.IsFloat() {
		greater := e.Operator.Type == token.Greater || e.Operator.Type == token.GreaterEqual
		c.chunk.EmitOp(bytecode.OpcodeFloatingCmp(kind, greater), line)
		c.emitCompareToBool(e.Operator.Type, line)
		return
	}

	if kind == ast.Str {
		// String refs carry their payload in Value.ref, not Value.bits,
		// so they need their own pointer-identity compare rather than
		// lcmp's bit-pattern compare -- interning makes pointer equality
		// exact string equality.
		c.chunk.EmitOp(bytecode.Rcmp, line)
		c.emitCompareToBool(e.Operator.Type, line)
		return
	}

	if kind.Is64() {
		// The BrIcmp family compares only the low 32 bits of each
		// operand, too narrow for 64-bit ints; reduce to a
		// three-way result first and branch on that against zero
		// instead.
		c.chunk.EmitOp(bytecode.Lcmp, line)
		c.emitCompareToBool(e.Operator.Type, line)
		return
	}

	// Plain 32-bit int/bool comparisons use the compare-and-branch
	// family inverted into a plain boolean producer: push true, branch
	// past a push-false over the (negated) condition.
	falseJump := c.chunk.EmitJump(bytecode.OpcodeIntegerBrCmp(e.Operator.Type, false, true), line)
	c.chunk.EmitOp(bytecode.Iconst1, line)
	doneJump := c.chunk.EmitJump(bytecode.Jmp, line)
	c.chunk.PatchJump(falseJump)
	c.chunk.EmitOp(bytecode.Iconst0, line)
	c.chunk.PatchJump(doneJump)
}

// emitCompareToBool turns the lcmp/fcmpl/fcmpg-style three-way result
// already on the stack (negative/zero/positive) into a 0/1 bool for
// op, by comparing that result against the integer zero.
func (c *Compiler) emitCompareToBool(op token.Type, line uint32) {
	c.chunk.EmitOp(bytecode.Iconst0, line)
	falseJump := c.chunk.EmitJump(bytecode.OpcodeIntegerBrCmp(op, false, true), line)
	c.chunk.EmitOp(bytecode.Iconst1, line)
	doneJump := c.chunk.EmitJump(bytecode.Jmp, line)
	c.chunk.PatchJump(falseJump)
	c.chunk.EmitOp(bytecode.Iconst0, line)
	c.chunk.PatchJump(doneJump)
}

// compileShortCircuit lowers `&&`/`||` without evaluating the right
// operand unless necessary. isOr selects `||` behavior (short-circuit
// on true) vs `&&` (short-circuit on false).
func (c *Compiler) compileShortCircuit(e *ast.BinaryExpr, isOr bool, line uint32) {
	c.compileExpr(e.Left)
	branchOp := bytecode.BrFalse
	if isOr {
		branchOp = bytecode.BrTrue
	}
	shortCircuitJump := c.chunk.EmitJump(branchOp, line)
	c.chunk.EmitOp(bytecode.Pop, line)
	c.compileExpr(e.Right)
	endJump := c.chunk.EmitJump(bytecode.Jmp, line)
	c.chunk.PatchJump(shortCircuitJump)
	c.chunk.PatchJump(endJump)
}

func (c *Compiler) compileTernary(e *ast.TernaryExpr, line uint32) {
	c.compileExpr(e.Cond)
	elseJump := c.chunk.EmitJump(bytecode.BrFalse, line)
	c.chunk.EmitOp(bytecode.Pop, line)
	c.compileExpr(e.Then)
	doneJump := c.chunk.EmitJump(bytecode.Jmp, line)
	c.chunk.PatchJump(elseJump)
	c.chunk.EmitOp(bytecode.Pop, line)
	c.compileExpr(e.Else)
	c.chunk.PatchJump(doneJump)
}

func (c *Compiler) compileVariableLoad(e *ast.VariableExpr, line uint32) {
	if e.ResolvedVar == nil {
		c.errorf(Unimplemented, "referencing a function by name as a value is not supported")
		return
	}
	slot, ok := c.slotOf[e.ResolvedVar]
	if !ok {
		return // layoutLocals already reported this local's type as Unimplemented
	}
	kind, _, _ := slotClass(e.ResolvedVar.Type)
	c.emitLoad(kind, slot, line)
}

func (c *Compiler) emitLoad(kind bytecode.LocalTypeKind, slot uint16, line uint32) {
	fast, short, full := loadOpcodes(kind)
	c.emitSlotOp(fast, short, full, slot, line)
}

func (c *Compiler) emitStore(kind bytecode.LocalTypeKind, slot uint16, line uint32) {
	fast, short, full := storeOpcodes(kind)
	c.emitSlotOp(fast, short, full, slot, line)
}

// emitSlotOp picks the fast 0-3 immediate form, the 1-byte short form,
// or the full 2-byte form depending on slot, matching the three-tier
// encoding the opcode table reserves for local access.
func (c *Compiler) emitSlotOp(fast [4]bytecode.OpCode, short, full bytecode.OpCode, slot uint16, line uint32) {
	if slot < 4 {
		c.chunk.EmitOp(fast[slot], line)
		return
	}
	if slot < 256 {
		c.chunk.EmitOp(short, line)
		c.chunk.EmitByte(byte(slot), line)
		return
	}
	c.chunk.EmitOp(full, line)
	c.chunk.EmitU16(slot, line)
}

func loadOpcodes(kind bytecode.LocalTypeKind) ([4]bytecode.OpCode, bytecode.OpCode, bytecode.OpCode) {
	switch kind {
	case bytecode.LocalInt64:
		return [4]bytecode.OpCode{bytecode.LloadFast0, bytecode.LloadFast1, bytecode.LloadFast2, bytecode.LloadFast3}, bytecode.LloadS, bytecode.Lload
	case bytecode.LocalRef:
		return [4]bytecode.OpCode{bytecode.RloadFast0, bytecode.RloadFast1, bytecode.RloadFast2, bytecode.RloadFast3}, bytecode.RloadS, bytecode.Rload
	default:
		return [4]bytecode.OpCode{bytecode.IloadFast0, bytecode.IloadFast1, bytecode.IloadFast2, bytecode.IloadFast3}, bytecode.IloadS, bytecode.Iload
	}
}

func storeOpcodes(kind bytecode.LocalTypeKind) ([4]bytecode.OpCode, bytecode.OpCode, bytecode.OpCode) {
	switch kind {
	case bytecode.LocalInt64:
		return [4]bytecode.OpCode{bytecode.LstoreFast0, bytecode.LstoreFast1, bytecode.LstoreFast2, bytecode.LstoreFast3}, bytecode.LstoreS, bytecode.Lstore
	case bytecode.LocalRef:
		return [4]bytecode.OpCode{bytecode.RstoreFast0, bytecode.RstoreFast1, bytecode.RstoreFast2, bytecode.RstoreFast3}, bytecode.RstoreS, bytecode.Rstore
	default:
		return [4]bytecode.OpCode{bytecode.IstoreFast0, bytecode.IstoreFast1, bytecode.IstoreFast2, bytecode.IstoreFast3}, bytecode.IstoreS, bytecode.Istore
	}
}

func (c *Compiler) compileAssign(e *ast.AssignExpr, line uint32) {
	c.compileExpr(e.Value)
	if e.Resolved == nil {
		return // sema already reported the undefined-variable error
	}
	slot, ok := c.slotOf[e.Resolved]
	if !ok {
		return
	}
	kind, _, _ := slotClass(e.Resolved.Type)
	c.chunk.EmitOp(bytecode.Dup, line)
	c.emitStore(kind, slot, line)
}

func (c *Compiler) compileCall(e *ast.CallExpr, line uint32) {
	callee, ok := e.Callee.(*ast.VariableExpr)
	if !ok || callee.ResolvedFunc == nil {
		c.errorf(Unimplemented, "only direct calls to a named function are supported")
		return
	}
	for _, arg := range e.Args {
		c.compileExpr(arg)
	}
	fd := callee.ResolvedFunc
	// callee.Name, not fd.Name: fd may be declared in another module's
	// source buffer, but callee.Name is always a token in c.source (the
	// call site), and a call site's identifier text is always the same
	// as the name it resolved to.
	target := CallTarget{IsNative: fd.IsNative, Module: fd.Module, Name: c.lexeme(callee.Name)}
	if target.Module == "" {
		target.Module = c.module
	}
	idx := c.resolveTarget(target)
	if fd.IsNative {
		c.chunk.EmitOp(bytecode.CallNative, line)
	} else {
		c.chunk.EmitOp(bytecode.Call, line)
	}
	c.chunk.EmitU16(idx, line)
}
