package ast

import "fmt"

// PrimKind enumerates Roxy's concrete primitive widths. There is no
// unified "Number" primitive -- see the design note on the collapsed
// numeric tower in SPEC_FULL.md; every arithmetic site is typed by one
// of these concrete kinds.
type PrimKind uint8

const (
	Void PrimKind = iota
	Bool
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	Str
)

var primNames = [...]string{
	Void: "void", Bool: "bool", I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", F32: "f32", F64: "f64", Str: "string",
}

func (k PrimKind) String() string { return primNames[k] }

// sizeTable and alignTable give the fixed byte size and alignment for
// every primitive, expressed in 32-bit-slot terms where needed by the
// compiler's local-layout algorithm (FnLocalEnv).
var sizeTable = [...]uint32{
	Void: 0, Bool: 4, I8: 4, I16: 4, I32: 4, I64: 8,
	U8: 4, U16: 4, U32: 4, U64: 8, F32: 4, F64: 8, Str: 8,
}

var alignTable = [...]uint32{
	Void: 1, Bool: 4, I8: 4, I16: 4, I32: 4, I64: 8,
	U8: 4, U16: 4, U32: 4, U64: 8, F32: 4, F64: 8, Str: 8,
}

// Size reports the primitive's size in bytes (32-bit slot granularity:
// every scalar is at minimum one 4-byte slot; 64-bit values and
// references occupy two).
func (k PrimKind) Size() uint32 { return sizeTable[k] }

// Align reports the primitive's required alignment in bytes.
func (k PrimKind) Align() uint32 { return alignTable[k] }

// IsInteger reports whether k is one of the signed/unsigned integer kinds.
func (k PrimKind) IsInteger() bool {
	switch k {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// IsUnsigned reports whether k is one of the unsigned integer kinds.
func (k PrimKind) IsUnsigned() bool {
	switch k {
	case U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether k is f32 or f64.
func (k PrimKind) IsFloat() bool { return k == F32 || k == F64 }

// Is64 reports whether k spans two 32-bit slots (i64/u64/f64).
func (k PrimKind) Is64() bool { return k == I64 || k == U64 || k == F64 }

// IsNumeric reports whether k is a primitive arithmetic operand, i.e.
// neither void, bool, nor string.
func (k PrimKind) IsNumeric() bool { return k != Void && k != Bool && k != Str }

// primNameToKind resolves a parsed type-name identifier to a PrimKind,
// used by the parser when it encounters a bare identifier in type
// position (primitive names are not reserved keywords in Roxy, exactly
// as in the original token grammar -- see original_source/token.hpp).
var primNameToKind = map[string]PrimKind{
	"void": Void, "bool": Bool, "i8": I8, "i16": I16, "i32": I32, "i64": I64,
	"u8": U8, "u16": U16, "u32": U32, "u64": U64, "f32": F32, "f64": F64, "string": Str,
}

// LookupPrim resolves name to a PrimKind, reporting ok=false if name is
// not a primitive type name.
func LookupPrim(name string) (PrimKind, bool) {
	k, ok := primNameToKind[name]
	return k, ok
}

// Type is the tagged-sum discriminant for Roxy's type system: Primitive,
// Struct, Function, Unassigned (a named reference before resolution),
// and Inferred (awaiting inference). Every Type is arena-owned; Expr
// nodes carry a *Type pointer once semantic analysis resolves them, and
// after a successful analysis pass no Unassigned/Inferred node remains
// reachable from a module root.
type Type interface {
	fmt.Stringer
	typeNode()
	// Equal reports structural equality: same Kind with identical
	// payload (same primitive kind, same struct name/fields, same
	// function signature).
	Equal(other Type) bool
}

// PrimitiveType is a primitive type singleton; see PrimSingleton.
type PrimitiveType struct {
	Kind PrimKind
}

func (*PrimitiveType) typeNode() {}
func (t *PrimitiveType) String() string { return t.Kind.String() }
func (t *PrimitiveType) Equal(other Type) bool {
	o, ok := other.(*PrimitiveType)
	return ok && o.Kind == t.Kind
}

// FieldDecl is one struct field: name plus its declared type.
type FieldDecl struct {
	Name string
	Type Type
}

// StructType names an aggregate with an ordered field list; size is the
// sum of field sizes with alignment padding, computed by the compiler's
// FnLocalEnv-style layout routine (SizeOf in this package).
type StructType struct {
	Name   string
	Fields []FieldDecl
}

func (*StructType) typeNode()      {}
func (t *StructType) String() string {
	s := "struct " + t.Name + " {"
	for i, f := range t.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ": " + f.Type.String()
	}
	return s + "}"
}
func (t *StructType) Equal(other Type) bool {
	o, ok := other.(*StructType)
	if !ok || o.Name != t.Name || len(o.Fields) != len(t.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
			return false
		}
	}
	return true
}

// SizeOf returns a struct's size in bytes: fields laid out in order,
// each aligned to its own alignment requirement.
func SizeOf(s *StructType) uint32 {
	var offset uint32
	var maxAlign uint32 = 1
	for _, f := range s.Fields {
		align := alignOf(f.Type)
		if align > maxAlign {
			maxAlign = align
		}
		offset = alignUp(offset, align) + sizeOf(f.Type)
	}
	return alignUp(offset, maxAlign)
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

func alignOf(t Type) uint32 {
	switch v := t.(type) {
	case *PrimitiveType:
		return v.Kind.Align()
	case *StructType:
		var maxAlign uint32 = 1
		for _, f := range v.Fields {
			if a := alignOf(f.Type); a > maxAlign {
				maxAlign = a
			}
		}
		return maxAlign
	case *FunctionType:
		return 8 // function values are reference-sized
	default:
		return 4
	}
}

func sizeOf(t Type) uint32 {
	switch v := t.(type) {
	case *PrimitiveType:
		return v.Kind.Size()
	case *StructType:
		return SizeOf(v)
	case *FunctionType:
		return 8
	default:
		return 4
	}
}

// FunctionType is a callable signature: parameter types in declaration
// order plus a return type (Void for statement-only functions).
type FunctionType struct {
	Params []Type
	Return Type
}

func (*FunctionType) typeNode() {}
func (t *FunctionType) String() string {
	s := "fun("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + "): " + t.Return.String()
}
func (t *FunctionType) Equal(other Type) bool {
	o, ok := other.(*FunctionType)
	if !ok || len(o.Params) != len(t.Params) || !o.Return.Equal(t.Return) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

// UnassignedType is a named type reference as written in source, before
// the semantic analyzer resolves it to a concrete Type (primitive or
// struct). No Unassigned node should be reachable once analysis
// succeeds.
type UnassignedType struct {
	Name string
}

func (*UnassignedType) typeNode()        {}
func (t *UnassignedType) String() string { return "unresolved(" + t.Name + ")" }
func (t *UnassignedType) Equal(other Type) bool {
	o, ok := other.(*UnassignedType)
	return ok && o.Name == t.Name
}

// InferredType marks a declaration awaiting local type inference (e.g.
// `var x = 1;` with no explicit annotation). No Inferred node should be
// reachable once analysis succeeds.
type InferredType struct{}

func (*InferredType) typeNode()        {}
func (t *InferredType) String() string { return "inferred" }
func (t *InferredType) Equal(other Type) bool {
	_, ok := other.(*InferredType)
	return ok
}

// Prim type singletons, returned from a fixed table rather than
// allocated per-use -- see the Arena design note on global singletons.
var (
	TypeVoid   = &PrimitiveType{Kind: Void}
	TypeBool   = &PrimitiveType{Kind: Bool}
	TypeI8     = &PrimitiveType{Kind: I8}
	TypeI16    = &PrimitiveType{Kind: I16}
	TypeI32    = &PrimitiveType{Kind: I32}
	TypeI64    = &PrimitiveType{Kind: I64}
	TypeU8     = &PrimitiveType{Kind: U8}
	TypeU16    = &PrimitiveType{Kind: U16}
	TypeU32    = &PrimitiveType{Kind: U32}
	TypeU64    = &PrimitiveType{Kind: U64}
	TypeF32    = &PrimitiveType{Kind: F32}
	TypeF64    = &PrimitiveType{Kind: F64}
	TypeString = &PrimitiveType{Kind: Str}
)

var primSingletons = map[PrimKind]*PrimitiveType{
	Void: TypeVoid, Bool: TypeBool, I8: TypeI8, I16: TypeI16, I32: TypeI32, I64: TypeI64,
	U8: TypeU8, U16: TypeU16, U32: TypeU32, U64: TypeU64, F32: TypeF32, F64: TypeF64, Str: TypeString,
}

// PrimSingleton returns the shared *PrimitiveType instance for kind.
func PrimSingleton(kind PrimKind) *PrimitiveType {
	return primSingletons[kind]
}
