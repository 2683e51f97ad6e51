package compiler

import (
	"encoding/binary"

	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/bytecode"
)

func (c *Compiler) compileStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ErrorStmt:
		c.errorf(Unimplemented, "cannot compile a statement that failed to parse: %s", s.Message)
	case *ast.BlockStmt:
		for _, st := range s.Stmts {
			c.compileStmt(st)
		}
	case *ast.VarStmt:
		c.compileVarStmt(s)
	case *ast.ExpressionStmt:
		c.compileExpr(s.Expr)
		// A void call leaves nothing on the stack to discard.
		if call, ok := s.Expr.(*ast.CallExpr); !ok || !isVoidType(call.ResolvedType()) {
			c.chunk.EmitOp(bytecode.Pop, c.line(s.Loc()))
		}
	case *ast.IfStmt:
		c.compileIfStmt(s)
	case *ast.WhileStmt:
		c.compileWhileStmt(s)
	case *ast.ReturnStmt:
		c.compileReturnStmt(s)
	case *ast.BreakStmt:
		c.compileBreak(s)
	case *ast.ContinueStmt:
		c.compileContinue(s)
	case *ast.FunDecl, *ast.StructStmt:
		// Nested declarations are not part of this language's grammar
		// for statement position; the parser never produces one here.
	default:
		c.errorf(Unimplemented, "unhandled statement kind %T", stmt)
	}
}

func (c *Compiler) compileVarStmt(s *ast.VarStmt) {
	line := c.line(s.Loc())
	slot, ok := c.slotOf[s.Decl]
	if !ok {
		return // layoutLocals already reported this local's type as Unimplemented
	}
	kind, _, _ := slotClass(s.Decl.Type)
	if s.Init != nil {
		c.compileExpr(s.Init)
	} else {
		c.emitZero(kind, line)
	}
	c.emitStore(kind, slot, line)
}

// emitZero pushes the zero value for a var declared without an
// initializer, so every local slot holds a well-defined value before
// it can be read.
func (c *Compiler) emitZero(kind bytecode.LocalTypeKind, line uint32) {
	switch kind {
	case bytecode.LocalInt64:
		c.chunk.EmitOp(bytecode.Lconst, line)
		c.chunk.EmitU64(0, line)
	case bytecode.LocalRef:
		c.chunk.EmitOp(bytecode.IconstNil, line)
	default:
		c.chunk.EmitOp(bytecode.Iconst0, line)
	}
}

func (c *Compiler) compileIfStmt(s *ast.IfStmt) {
	line := c.line(s.Loc())
	c.compileExpr(s.Cond)
	elseJump := c.chunk.EmitJump(bytecode.BrFalse, line)
	c.chunk.EmitOp(bytecode.Pop, line)
	c.compileStmt(s.Then)

	endJump := c.chunk.EmitJump(bytecode.Jmp, line)
	c.chunk.PatchJump(elseJump)
	c.chunk.EmitOp(bytecode.Pop, line)
	if s.Else != nil {
		c.compileStmt(s.Else)
	}
	c.chunk.PatchJump(endJump)
}

func (c *Compiler) compileWhileStmt(s *ast.WhileStmt) {
	line := c.line(s.Loc())
	loopStart := len(c.chunk.Bytecode)
	ctx := &loopCtx{loopStart: loopStart}
	c.loopStack = append(c.loopStack, ctx)

	c.compileExpr(s.Cond)
	exitJump := c.chunk.EmitJump(bytecode.BrFalse, line)
	c.chunk.EmitOp(bytecode.Pop, line)
	c.compileStmt(s.Body)

	c.chunk.EmitLoop(bytecode.Loop, loopStart, line)
	c.chunk.PatchJump(exitJump)
	c.chunk.EmitOp(bytecode.Pop, line)

	for _, pos := range ctx.breakJumps {
		c.chunk.PatchJump(pos)
	}
	for _, pos := range ctx.continueJumps {
		c.patchBackward(pos, loopStart)
	}

	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

// patchBackward writes a jump operand for a `continue` site (a plain
// Jmp emitted by EmitJump, pointing nowhere yet) so that it lands on
// target, which lies behind it in the instruction stream. Jmp's
// operand is a signed offset relative to the byte position right
// after the operand, same as PatchJump's forward case, so a negative
// value here is all a backward edge needs -- no separate opcode.
func (c *Compiler) patchBackward(pos int, target int) {
	jump := int32(target - (pos + 4))
	binary.LittleEndian.PutUint32(c.chunk.Bytecode[pos:pos+4], uint32(jump))
}

func (c *Compiler) compileReturnStmt(s *ast.ReturnStmt) {
	line := c.line(s.Loc())
	if s.Value == nil {
		c.chunk.EmitOp(bytecode.Ret, line)
		return
	}
	c.compileExpr(s.Value)
	kind, _, ok := slotClass(s.Value.ResolvedType())
	if !ok {
		c.errorf(Unimplemented, "cannot return a value of type %s", s.Value.ResolvedType())
		return
	}
	switch kind {
	case bytecode.LocalInt64:
		c.chunk.EmitOp(bytecode.Lret, line)
	case bytecode.LocalRef:
		c.chunk.EmitOp(bytecode.Rret, line)
	default:
		c.chunk.EmitOp(bytecode.Iret, line)
	}
}

func (c *Compiler) compileBreak(s *ast.BreakStmt) {
	if len(c.loopStack) == 0 {
		c.errorf(Unimplemented, "'break' outside of a loop")
		return
	}
	ctx := c.loopStack[len(c.loopStack)-1]
	pos := c.chunk.EmitJump(bytecode.Jmp, c.line(s.Loc()))
	ctx.breakJumps = append(ctx.breakJumps, pos)
}

func (c *Compiler) compileContinue(s *ast.ContinueStmt) {
	if len(c.loopStack) == 0 {
		c.errorf(Unimplemented, "'continue' outside of a loop")
		return
	}
	ctx := c.loopStack[len(c.loopStack)-1]
	pos := c.chunk.EmitJump(bytecode.Jmp, c.line(s.Loc()))
	ctx.continueJumps = append(ctx.continueJumps, pos)
}
