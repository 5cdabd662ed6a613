package ctype

import "cirgen/internal/engine/ir"

// primitives is the closed table of builtin spellings. Lookups happen after
// a leading const has been stripped.
var primitives = map[string]ir.PrimitiveName{
	"void":  ir.PrimVoid,
	"bool":  ir.PrimBool,
	"_Bool": ir.PrimBool,

	"char":          ir.PrimChar,
	"signed char":   ir.PrimSChar,
	"unsigned char": ir.PrimUChar,

	"short":                  ir.PrimShort,
	"short int":              ir.PrimShort,
	"signed short":           ir.PrimShort,
	"signed short int":       ir.PrimShort,
	"unsigned short":         ir.PrimUShort,
	"unsigned short int":     ir.PrimUShort,
	"int":                    ir.PrimInt,
	"signed":                 ir.PrimInt,
	"signed int":             ir.PrimInt,
	"unsigned":               ir.PrimUInt,
	"unsigned int":           ir.PrimUInt,
	"long":                   ir.PrimLong,
	"long int":               ir.PrimLong,
	"signed long":            ir.PrimLong,
	"signed long int":        ir.PrimLong,
	"unsigned long":          ir.PrimULong,
	"unsigned long int":      ir.PrimULong,
	"long long":              ir.PrimLongLong,
	"long long int":          ir.PrimLongLong,
	"signed long long":       ir.PrimLongLong,
	"signed long long int":   ir.PrimLongLong,
	"unsigned long long":     ir.PrimULongLong,
	"unsigned long long int": ir.PrimULongLong,

	"int8_t":   ir.PrimInt8,
	"int16_t":  ir.PrimInt16,
	"int32_t":  ir.PrimInt32,
	"int64_t":  ir.PrimInt64,
	"uint8_t":  ir.PrimUInt8,
	"uint16_t": ir.PrimUInt16,
	"uint32_t": ir.PrimUInt32,
	"uint64_t": ir.PrimUInt64,

	"float":       ir.PrimFloat,
	"double":      ir.PrimDouble,
	"long double": ir.PrimLongDouble,

	"size_t":    ir.PrimSize,
	"ssize_t":   ir.PrimSSize,
	"ptrdiff_t": ir.PrimPtrdiff,
	"intptr_t":  ir.PrimIntptr,
	"uintptr_t": ir.PrimUintptr,
	"off_t":     ir.PrimOffset,
}

// LookupPrimitive reports the canonical name for a builtin spelling.
func LookupPrimitive(spelling string) (ir.PrimitiveName, bool) {
	name, ok := primitives[spelling]
	return name, ok
}
