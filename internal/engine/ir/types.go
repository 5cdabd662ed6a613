// # internal/engine/ir/types.go
package ir

import "strings"

// TypeKind names the variant of a Type.
type TypeKind string

const (
	KindPrimitive       TypeKind = "primitive"
	KindPointer         TypeKind = "pointer"
	KindArray           TypeKind = "array"
	KindFunctionPointer TypeKind = "function-pointer"
	KindCString         TypeKind = "c-string"
	KindStructRef       TypeKind = "struct-ref"
	KindEnumRef         TypeKind = "enum-ref"
	KindTypedefRef      TypeKind = "typedef-ref"
	KindUnknown         TypeKind = "unknown"
)

// Type is a resolved C type. The set of implementations is closed: only
// this package can add variants, through the unexported marker method.
type Type interface {
	Kind() TypeKind
	// Spelling is the descriptor the type was resolved from, verbatim.
	Spelling() string
	irType()
}

// Primitive is a builtin scalar type.
type Primitive struct {
	Name PrimitiveName
	Text string
}

// Pointer is a pointer to Elem. Const reports a const token anywhere in the
// descriptor, not only on the pointee.
type Pointer struct {
	Elem  Type
	Const bool
	Text  string
}

// Array is a fixed or unsized array. Length is nil unless a consumer fills
// it in; Extent keeps the raw bracket contents.
type Array struct {
	Elem   Type
	Length *int
	Extent string
	Text   string
}

// FunctionPointer is a pointer to a function. The call signature is not
// decomposed: Return is Unknown and Params holds the raw parameter text.
type FunctionPointer struct {
	Return Type
	Params []string
	Text   string
}

// CString is char * / const char *.
type CString struct {
	Const bool
	Text  string
}

// StructRef names a struct, class or union declared elsewhere.
type StructRef struct {
	Name  string
	Union bool
	Text  string
}

// EnumRef names an enum declared elsewhere.
type EnumRef struct {
	Name string
	Text string
}

// TypedefRef names a typedef (or an opaque handle) declared elsewhere.
type TypedefRef struct {
	Name string
	Text string
}

// Unknown is the fallback for descriptors nothing else matched.
type Unknown struct {
	Text string
}

func (Primitive) irType()       {}
func (Pointer) irType()         {}
func (Array) irType()           {}
func (FunctionPointer) irType() {}
func (CString) irType()         {}
func (StructRef) irType()       {}
func (EnumRef) irType()         {}
func (TypedefRef) irType()      {}
func (Unknown) irType()         {}

func (Primitive) Kind() TypeKind       { return KindPrimitive }
func (Pointer) Kind() TypeKind         { return KindPointer }
func (Array) Kind() TypeKind           { return KindArray }
func (FunctionPointer) Kind() TypeKind { return KindFunctionPointer }
func (CString) Kind() TypeKind         { return KindCString }
func (StructRef) Kind() TypeKind       { return KindStructRef }
func (EnumRef) Kind() TypeKind         { return KindEnumRef }
func (TypedefRef) Kind() TypeKind      { return KindTypedefRef }
func (Unknown) Kind() TypeKind         { return KindUnknown }

func (t Primitive) Spelling() string       { return t.Text }
func (t Pointer) Spelling() string         { return t.Text }
func (t Array) Spelling() string           { return t.Text }
func (t FunctionPointer) Spelling() string { return t.Text }
func (t CString) Spelling() string         { return t.Text }
func (t StructRef) Spelling() string       { return t.Text }
func (t EnumRef) Spelling() string         { return t.Text }
func (t TypedefRef) Spelling() string      { return t.Text }
func (t Unknown) Spelling() string         { return t.Text }

// PrimitiveName is the canonical name of a builtin type.
type PrimitiveName string

const (
	PrimVoid       PrimitiveName = "void"
	PrimBool       PrimitiveName = "bool"
	PrimChar       PrimitiveName = "char"
	PrimSChar      PrimitiveName = "schar"
	PrimUChar      PrimitiveName = "uchar"
	PrimShort      PrimitiveName = "short"
	PrimUShort     PrimitiveName = "ushort"
	PrimInt        PrimitiveName = "int"
	PrimUInt       PrimitiveName = "uint"
	PrimLong       PrimitiveName = "long"
	PrimULong      PrimitiveName = "ulong"
	PrimLongLong   PrimitiveName = "longlong"
	PrimULongLong  PrimitiveName = "ulonglong"
	PrimInt8       PrimitiveName = "int8"
	PrimInt16      PrimitiveName = "int16"
	PrimInt32      PrimitiveName = "int32"
	PrimInt64      PrimitiveName = "int64"
	PrimUInt8      PrimitiveName = "uint8"
	PrimUInt16     PrimitiveName = "uint16"
	PrimUInt32     PrimitiveName = "uint32"
	PrimUInt64     PrimitiveName = "uint64"
	PrimFloat      PrimitiveName = "float"
	PrimDouble     PrimitiveName = "double"
	PrimLongDouble PrimitiveName = "longdouble"
	PrimSize       PrimitiveName = "size_t"
	PrimSSize      PrimitiveName = "ssize_t"
	PrimPtrdiff    PrimitiveName = "ptrdiff_t"
	PrimIntptr     PrimitiveName = "intptr_t"
	PrimUintptr    PrimitiveName = "uintptr_t"
	PrimOffset     PrimitiveName = "off_t"
)

// IsInteger reports whether the primitive is integer-like for length and
// status-code purposes. Character and boolean types are excluded.
func (p PrimitiveName) IsInteger() bool {
	switch p {
	case PrimShort, PrimUShort, PrimInt, PrimUInt, PrimLong, PrimULong,
		PrimLongLong, PrimULongLong,
		PrimInt8, PrimInt16, PrimInt32, PrimInt64,
		PrimUInt8, PrimUInt16, PrimUInt32, PrimUInt64,
		PrimSize, PrimSSize, PrimPtrdiff, PrimIntptr, PrimUintptr, PrimOffset:
		return true
	default:
		return false
	}
}

// IsChar reports whether the primitive is one of the char types.
func (p PrimitiveName) IsChar() bool {
	return p == PrimChar || p == PrimSChar || p == PrimUChar
}

// IsIntegerType reports whether t is an integer-like primitive.
func IsIntegerType(t Type) bool {
	p, ok := t.(Primitive)
	return ok && p.Name.IsInteger()
}

// IsVoid reports whether t is the void primitive.
func IsVoid(t Type) bool {
	p, ok := t.(Primitive)
	return ok && p.Name == PrimVoid
}

// Pointee returns the element of a pointer, or nil.
func Pointee(t Type) Type {
	if p, ok := t.(Pointer); ok {
		return p.Elem
	}
	return nil
}

// IsMutablePointer reports a Pointer variant without const qualification.
func IsMutablePointer(t Type) bool {
	p, ok := t.(Pointer)
	return ok && !p.Const
}

// Describe renders t as a compact tree, e.g. pointer(const, primitive(char)).
func Describe(t Type) string {
	var b strings.Builder
	describe(&b, t)
	return b.String()
}

func describe(b *strings.Builder, t Type) {
	switch v := t.(type) {
	case nil:
		b.WriteString("<nil>")
	case Primitive:
		b.WriteString("primitive(" + string(v.Name) + ")")
	case Pointer:
		b.WriteString("pointer(")
		if v.Const {
			b.WriteString("const, ")
		}
		describe(b, v.Elem)
		b.WriteString(")")
	case Array:
		b.WriteString("array(")
		describe(b, v.Elem)
		if v.Extent != "" {
			b.WriteString(", extent=" + v.Extent)
		}
		b.WriteString(")")
	case FunctionPointer:
		b.WriteString("function-pointer(" + strings.Join(v.Params, ", ") + ")")
	case CString:
		if v.Const {
			b.WriteString("c-string(const)")
		} else {
			b.WriteString("c-string")
		}
	case StructRef:
		if v.Union {
			b.WriteString("struct-ref(union " + v.Name + ")")
		} else {
			b.WriteString("struct-ref(" + v.Name + ")")
		}
	case EnumRef:
		b.WriteString("enum-ref(" + v.Name + ")")
	case TypedefRef:
		b.WriteString("typedef-ref(" + v.Name + ")")
	case Unknown:
		b.WriteString("unknown(" + v.Text + ")")
	}
}
