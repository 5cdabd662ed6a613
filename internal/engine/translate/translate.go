// Package translate maps raw header declarations onto IR entities and
// assembles them into an ir.Module.
package translate

import (
	"cirgen/internal/engine/ctype"
	"cirgen/internal/engine/header"
	"cirgen/internal/engine/ir"
	"strconv"
	"strings"
)

// ResolveType resolves a declaration's type position. Missing types are
// void.
func ResolveType(spelling string) ir.Type {
	spelling = header.NormalizeSpelling(spelling)
	if spelling == "" {
		spelling = "void"
	}
	return ctype.Resolve(spelling)
}

// ParamDirection infers the data-flow direction of a parameter: const
// pointers and non-pointers are in, other pointers inout unless the name
// marks an output.
func ParamDirection(name string, t ir.Type) ir.Direction {
	if !ir.IsMutablePointer(t) {
		return ir.DirIn
	}
	if IsOutputName(name) {
		return ir.DirOut
	}
	return ir.DirInOut
}

// IsOutputName reports names such as out_value, result or ret_code.
func IsOutputName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "out") ||
		strings.Contains(lower, "result") ||
		strings.Contains(lower, "ret")
}

func TranslateParam(p header.Param) ir.Param {
	t := ResolveType(p.Type)
	return ir.Param{
		Name:      p.Name,
		Type:      t,
		Direction: ParamDirection(p.Name, t),
		Nullable:  p.Nullable,
		Declared:  declaredDirection(p.Direction),
	}
}

// declaredDirection maps a source annotation onto a Direction. Unknown
// annotations are ignored.
func declaredDirection(raw string) ir.Direction {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(raw), "_")) {
	case "in":
		return ir.DirIn
	case "out":
		return ir.DirOut
	case "inout", "in_out":
		return ir.DirInOut
	}
	return ""
}

func TranslateFunction(fn header.Function) *ir.Function {
	out := &ir.Function{
		Name:       fn.Name,
		ReturnType: ResolveType(fn.ReturnType),
		Variadic:   fn.Variadic,
		Doc:        strings.TrimSpace(fn.Doc),
	}
	if len(fn.Params) > 0 {
		out.Params = make([]ir.Param, 0, len(fn.Params))
	}
	for _, p := range fn.Params {
		out.Params = append(out.Params, TranslateParam(p))
	}
	return out
}

func TranslateStruct(s header.Struct) *ir.Struct {
	out := &ir.Struct{
		Name:  s.Name,
		Union: s.Union,
		Doc:   strings.TrimSpace(s.Doc),
	}
	for _, f := range s.Fields {
		out.Fields = append(out.Fields, ir.Field{Name: f.Name, Type: ResolveType(f.Type)})
	}
	return out
}

// TranslateEnum numbers constants the way a C compiler does when values
// are literals. Once a value is an expression the following implicit values
// are unknown.
func TranslateEnum(e header.Enum) *ir.Enum {
	out := &ir.Enum{Name: e.Name, Doc: strings.TrimSpace(e.Doc)}

	var (
		prev  int64
		known = true
		first = true
	)
	for _, c := range e.Constants {
		constant := ir.EnumConstant{Name: c.Name, Doc: strings.TrimSpace(c.Doc)}
		expr := strings.TrimSpace(c.Value)

		switch {
		case expr != "":
			constant.Expr = expr
			v, ok := ParseEnumValue(expr)
			known = ok
			if ok {
				prev = v
				constant.Value = &v
			}
		case first:
			prev, known = 0, true
			v := prev
			constant.Value = &v
		case known:
			prev++
			v := prev
			constant.Value = &v
		}
		first = false
		out.Constants = append(out.Constants, constant)
	}
	return out
}

// ParseEnumValue parses a decimal, hex or octal integer literal with
// optional u/l suffixes and a leading sign.
func ParseEnumValue(expr string) (int64, bool) {
	s := strings.TrimSpace(expr)
	for len(s) > 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.TrimRight(s, "uUlL")
	if s == "" {
		return 0, false
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = strings.TrimSpace(s[1:])
	case '+':
		s = strings.TrimSpace(s[1:])
	}
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, false
	}

	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(s, 0, 64)
		if uerr != nil || neg {
			return 0, false
		}
		v = int64(u)
	}
	if neg {
		v = -v
	}
	return v, true
}

func TranslateTypedef(td header.Typedef) *ir.Typedef {
	return &ir.Typedef{
		Name:       td.Name,
		Underlying: ResolveType(td.Underlying),
		Doc:        strings.TrimSpace(td.Doc),
	}
}
