package sema

import (
	"github.com/xyproto/roxy/internal/roxy/ast"
	"github.com/xyproto/roxy/internal/roxy/token"
)

// checkStmt typechecks one statement in env, recursing into nested
// blocks with a child scope. It never returns a value; errors are
// accumulated on the Analyzer and resolved types/decls are written
// directly onto the AST nodes it visits.
func (a *Analyzer) checkStmt(stmt ast.Stmt, env *scope) {
	switch s := stmt.(type) {
	case *ast.ErrorStmt:
		// Already reported by the parser; nothing to typecheck.
	case *ast.BlockStmt:
		child := newScope(env)
		for _, st := range s.Stmts {
			a.checkStmt(st, child)
		}
	case *ast.VarStmt:
		a.checkVarStmt(s, env)
	case *ast.ExpressionStmt:
		a.getType(s.Expr, env)
	case *ast.IfStmt:
		condType := a.getType(s.Cond, env)
		if !isBool(condType) {
			a.errorf(IncompatibleTypes, s.Cond.Loc(), "if condition must be bool, got %s", condType)
		}
		a.checkStmt(s.Then, env)
		if s.Else != nil {
			a.checkStmt(s.Else, env)
		}
	case *ast.WhileStmt:
		condType := a.getType(s.Cond, env)
		if !isBool(condType) {
			a.errorf(IncompatibleTypes, s.Cond.Loc(), "while condition must be bool, got %s", condType)
		}
		a.loopDepth++
		a.checkStmt(s.Body, env)
		a.loopDepth--
	case *ast.ReturnStmt:
		a.checkReturnStmt(s, env)
	case *ast.BreakStmt:
		if a.loopDepth == 0 {
			a.errorf(Misc, s.Loc(), "'break' outside of a loop")
		}
	case *ast.ContinueStmt:
		if a.loopDepth == 0 {
			a.errorf(Misc, s.Loc(), "'continue' outside of a loop")
		}
	default:
		a.errorf(Misc, stmt.Loc(), "unhandled statement kind %T", stmt)
	}
}

func (a *Analyzer) checkVarStmt(s *ast.VarStmt, env *scope) {
	decl := s.Decl
	declared := a.resolveType(decl.Type, s.Loc())

	var initType ast.Type
	initErrs := len(a.errors)
	if s.Init != nil {
		initType = a.getType(s.Init, env)
	}

	switch declared.(type) {
	case *ast.InferredType:
		if s.Init == nil {
			a.errorf(CannotInferType, s.Loc(), "cannot infer type of '%s' without an initializer", a.lexeme(decl.Name))
			declared = ast.TypeVoid
		} else {
			declared = initType
		}
	default:
		// An initializer that already reported an error is not checked
		// again, so one bad name yields one diagnostic.
		if s.Init != nil && len(a.errors) == initErrs && !assignable(declared, initType) {
			a.errorf(IncompatibleTypes, s.Init.Loc(), "cannot assign %s to variable of type %s", initType, declared)
		}
	}

	decl.Type = declared
	decl.LocalIndex = a.localIndex
	a.localIndex++
	if a.curFunc != nil {
		a.curFunc.Locals = append(a.curFunc.Locals, decl)
	}
	env.define(a.lexeme(decl.Name), decl)
}

func (a *Analyzer) checkReturnStmt(s *ast.ReturnStmt, env *scope) {
	var want ast.Type = ast.TypeVoid
	if a.curFunc != nil {
		want = a.curFunc.RetType
	}
	if s.Value == nil {
		if !isVoid(want) {
			a.errorf(IncompatibleTypes, s.Loc(), "missing return value, function returns %s", want)
		}
		return
	}
	retType := a.getType(s.Value, env)
	if !assignable(want, retType) {
		a.errorf(IncompatibleTypes, s.Value.Loc(), "cannot return %s from function declared to return %s", retType, want)
	}
}

func isBool(t ast.Type) bool {
	p, ok := t.(*ast.PrimitiveType)
	return ok && p.Kind == ast.Bool
}

func isVoid(t ast.Type) bool {
	p, ok := t.(*ast.PrimitiveType)
	return ok && p.Kind == ast.Void
}

func isString(t ast.Type) bool {
	p, ok := t.(*ast.PrimitiveType)
	return ok && p.Kind == ast.Str
}

func isNumeric(t ast.Type) bool {
	p, ok := t.(*ast.PrimitiveType)
	return ok && p.Kind.IsNumeric()
}

// assignable reports whether a value of type from may be stored into a
// slot declared as type to. Roxy has no implicit numeric widening:
// exact primitive/struct match is required, with the single exception
// that a `nil` literal (typed Void by getType) is assignable to string,
// representing the absence of a reference.
func assignable(to, from ast.Type) bool {
	if to == nil || from == nil {
		return false
	}
	if isString(to) && isVoid(from) {
		return true
	}
	return to.Equal(from)
}

// getType resolves expr's type against env, mutating expr with its
// resolved type (and, for names, the declaration or function it
// refers to) before returning that type. Every case that cannot
// resolve records an error and still returns a concrete type (usually
// TypeVoid) so the caller never has to nil-check before continuing.
func (a *Analyzer) getType(expr ast.Expr, env *scope) ast.Type {
	switch e := expr.(type) {
	case *ast.ErrorExpr:
		e.SetResolvedType(ast.TypeVoid)
		return ast.TypeVoid
	case *ast.LiteralExpr:
		return a.getLiteralType(e)
	case *ast.GroupingExpr:
		t := a.getType(e.Inner, env)
		e.SetResolvedType(t)
		return t
	case *ast.UnaryExpr:
		return a.getUnaryType(e, env)
	case *ast.BinaryExpr:
		return a.getBinaryType(e, env)
	case *ast.TernaryExpr:
		return a.getTernaryType(e, env)
	case *ast.VariableExpr:
		return a.getVariableType(e, env)
	case *ast.AssignExpr:
		return a.getAssignType(e, env)
	case *ast.CallExpr:
		return a.getCallType(e, env)
	case *ast.GetExpr:
		return a.getGetType(e, env)
	case *ast.SetExpr:
		return a.getSetType(e, env)
	default:
		a.errorf(Misc, expr.Loc(), "unhandled expression kind %T", expr)
		return ast.TypeVoid
	}
}

func (a *Analyzer) getLiteralType(e *ast.LiteralExpr) ast.Type {
	var t ast.Type
	switch e.Kind {
	case ast.LitInt:
		t = ast.TypeI32
	case ast.LitFloat:
		t = ast.TypeF64
	case ast.LitString:
		t = ast.TypeString
	case ast.LitBool:
		t = ast.TypeBool
	default:
		t = ast.TypeVoid
	}
	e.SetResolvedType(t)
	return t
}

// getUnaryType resolves `-expr` and `!expr`. Unary minus preserves the
// operand's own numeric primitive kind; the original implementation
// this is ported from assigns the unary-minus result type Bool, which
// does not match its own stated "requires number" precondition, so
// that mistake is not carried over here.
func (a *Analyzer) getUnaryType(e *ast.UnaryExpr, env *scope) ast.Type {
	operandType := a.getType(e.Operand, env)
	var result ast.Type
	switch e.Operator.Type {
	case token.Minus:
		if !isNumeric(operandType) {
			a.errorf(IncompatibleTypes, e.Loc(), "unary '-' requires a numeric operand, got %s", operandType)
			result = ast.TypeVoid
		} else {
			result = operandType
		}
	case token.Bang:
		if !isBool(operandType) {
			a.errorf(IncompatibleTypes, e.Loc(), "unary '!' requires a bool operand, got %s", operandType)
		}
		result = ast.TypeBool
	default:
		a.errorf(Misc, e.Loc(), "unhandled unary operator %s", e.Operator.Type)
		result = ast.TypeVoid
	}
	e.SetResolvedType(result)
	return result
}

func (a *Analyzer) getBinaryType(e *ast.BinaryExpr, env *scope) ast.Type {
	leftType := a.getType(e.Left, env)
	rightType := a.getType(e.Right, env)
	var result ast.Type

	switch e.Operator.Type {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent:
		switch {
		case e.Operator.Type == token.Plus && isString(leftType) && isString(rightType):
			result = ast.TypeString
		case isNumeric(leftType) && leftType.Equal(rightType):
			result = leftType
		default:
			a.errorf(IncompatibleTypes, e.Loc(), "incompatible operand types for '%s': %s and %s", e.Operator.Type, leftType, rightType)
			result = leftType
		}
	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual:
		if !isNumeric(leftType) || !leftType.Equal(rightType) {
			a.errorf(IncompatibleTypes, e.Loc(), "incompatible operand types for '%s': %s and %s", e.Operator.Type, leftType, rightType)
		}
		result = ast.TypeBool
	case token.EqualEqual, token.BangEqual:
		if !leftType.Equal(rightType) {
			a.errorf(IncompatibleTypes, e.Loc(), "cannot compare %s with %s", leftType, rightType)
		}
		result = ast.TypeBool
	case token.AmpAmp, token.BarBar:
		if !isBool(leftType) || !isBool(rightType) {
			a.errorf(IncompatibleTypes, e.Loc(), "'%s' requires bool operands, got %s and %s", e.Operator.Type, leftType, rightType)
		}
		result = ast.TypeBool
	default:
		a.errorf(Misc, e.Loc(), "unhandled binary operator %s", e.Operator.Type)
		result = ast.TypeVoid
	}
	e.SetResolvedType(result)
	return result
}

func (a *Analyzer) getTernaryType(e *ast.TernaryExpr, env *scope) ast.Type {
	condType := a.getType(e.Cond, env)
	if !isBool(condType) {
		a.errorf(IncompatibleTypes, e.Cond.Loc(), "ternary condition must be bool, got %s", condType)
	}
	thenType := a.getType(e.Then, env)
	elseType := a.getType(e.Else, env)
	result := thenType
	if !thenType.Equal(elseType) {
		a.errorf(IncompatibleTypes, e.Loc(), "ternary branches must have the same type: %s and %s", thenType, elseType)
	}
	e.SetResolvedType(result)
	return result
}

func (a *Analyzer) getVariableType(e *ast.VariableExpr, env *scope) ast.Type {
	name := a.lexeme(e.Name)
	if decl, ok := env.resolve(name); ok {
		e.ResolvedVar = decl
		e.SetResolvedType(decl.Type)
		return decl.Type
	}
	if fd, ok := a.funcs[name]; ok {
		e.ResolvedFunc = fd
		e.SetResolvedType(fd.Resolved)
		return fd.Resolved
	}
	a.errorf(UndefinedVariable, e.Loc(), "undefined variable '%s'", name)
	e.SetResolvedType(ast.TypeVoid)
	return ast.TypeVoid
}

func (a *Analyzer) getAssignType(e *ast.AssignExpr, env *scope) ast.Type {
	name := a.lexeme(e.Name)
	valueType := a.getType(e.Value, env)
	decl, ok := env.resolve(name)
	if !ok {
		a.errorf(UndefinedVariable, e.Loc(), "undefined variable '%s'", name)
		e.SetResolvedType(ast.TypeVoid)
		return ast.TypeVoid
	}
	e.Resolved = decl
	if !assignable(decl.Type, valueType) {
		a.errorf(IncompatibleTypes, e.Value.Loc(), "cannot assign %s to '%s' of type %s", valueType, name, decl.Type)
	}
	e.SetResolvedType(decl.Type)
	return decl.Type
}

func (a *Analyzer) getCallType(e *ast.CallExpr, env *scope) ast.Type {
	callee, ok := e.Callee.(*ast.VariableExpr)
	if !ok {
		a.errorf(Misc, e.Loc(), "only direct calls to a named function are supported")
		e.SetResolvedType(ast.TypeVoid)
		return ast.TypeVoid
	}
	name := a.lexeme(callee.Name)
	fd, ok := a.funcs[name]
	if !ok {
		a.errorf(UndefinedVariable, e.Loc(), "undefined function '%s'", name)
		e.SetResolvedType(ast.TypeVoid)
		return ast.TypeVoid
	}
	callee.ResolvedFunc = fd
	callee.SetResolvedType(fd.Resolved)

	if len(e.Args) != len(fd.Params) {
		a.errorf(IncompatibleTypes, e.Loc(), "'%s' expects %d argument(s), got %d", name, len(fd.Params), len(e.Args))
	}
	for i, arg := range e.Args {
		argType := a.getType(arg, env)
		if i < len(fd.Params) && !assignable(fd.Params[i].Type, argType) {
			a.errorf(IncompatibleTypes, arg.Loc(), "argument %d to '%s': cannot use %s as %s", i+1, name, argType, fd.Params[i].Type)
		}
	}
	e.SetResolvedType(fd.RetType)
	return fd.RetType
}

// getGetType resolves `object.field`. Struct field access is fully
// typechecked here even though the bytecode compiler does not yet
// lower it (see compiler.Error of kind Unimplemented) -- the analyzer's
// job is name/type resolution regardless of what later stages can
// codegen.
func (a *Analyzer) getGetType(e *ast.GetExpr, env *scope) ast.Type {
	objType := a.getType(e.Object, env)
	st, ok := objType.(*ast.StructType)
	if !ok {
		a.errorf(IncompatibleTypes, e.Loc(), "cannot access field on non-struct type %s", objType)
		e.SetResolvedType(ast.TypeVoid)
		return ast.TypeVoid
	}
	fieldName := a.lexeme(e.Name)
	for _, f := range st.Fields {
		if f.Name == fieldName {
			e.SetResolvedType(f.Type)
			return f.Type
		}
	}
	a.errorf(Misc, e.Loc(), "struct '%s' has no field '%s'", st.Name, fieldName)
	e.SetResolvedType(ast.TypeVoid)
	return ast.TypeVoid
}

func (a *Analyzer) getSetType(e *ast.SetExpr, env *scope) ast.Type {
	objType := a.getType(e.Object, env)
	valueType := a.getType(e.Value, env)
	st, ok := objType.(*ast.StructType)
	if !ok {
		a.errorf(IncompatibleTypes, e.Loc(), "cannot access field on non-struct type %s", objType)
		e.SetResolvedType(ast.TypeVoid)
		return ast.TypeVoid
	}
	fieldName := a.lexeme(e.Name)
	for _, f := range st.Fields {
		if f.Name == fieldName {
			if !assignable(f.Type, valueType) {
				a.errorf(IncompatibleTypes, e.Value.Loc(), "cannot assign %s to field '%s' of type %s", valueType, fieldName, f.Type)
			}
			e.SetResolvedType(f.Type)
			return f.Type
		}
	}
	a.errorf(Misc, e.Loc(), "struct '%s' has no field '%s'", st.Name, fieldName)
	e.SetResolvedType(ast.TypeVoid)
	return ast.TypeVoid
}
