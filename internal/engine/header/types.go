// # internal/engine/header/types.go
package header

import (
	"encoding/json"
	"io"
)

// Header is the raw declaration list for one header, as produced by a
// header parser. Type spellings are plain C descriptor text.
type Header struct {
	Name      string     `json:"name"`
	Path      string     `json:"path,omitempty"`
	Functions []Function `json:"functions"`
	Structs   []Struct   `json:"structs"`
	Enums     []Enum     `json:"enums"`
	Typedefs  []Typedef  `json:"typedefs"`
}

type Function struct {
	Name       string  `json:"name"`
	ReturnType string  `json:"returnType"`
	Params     []Param `json:"params"`
	Variadic   bool    `json:"variadic,omitempty"`
	Doc        string  `json:"doc,omitempty"`
	Line       int     `json:"line,omitempty"`
}

type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Nullable and Direction are optional annotations (e.g. _Nullable,
	// _Inout_) when the upstream parser understands them.
	Nullable  *bool  `json:"nullable,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// Struct is a struct, class or union. Name is empty or an
// "(anonymous at ...)" marker for unnamed bodies.
type Struct struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
	Union  bool    `json:"union,omitempty"`
	Doc    string  `json:"doc,omitempty"`
	Line   int     `json:"line,omitempty"`
}

type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Enum struct {
	Name      string         `json:"name"`
	Constants []EnumConstant `json:"constants"`
	Doc       string         `json:"doc,omitempty"`
	Line      int            `json:"line,omitempty"`
}

// EnumConstant carries the source value text; it may be empty, a numeric
// literal or an arbitrary expression.
type EnumConstant struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
	Doc   string `json:"doc,omitempty"`
}

type Typedef struct {
	Name       string `json:"name"`
	Underlying string `json:"underlying"`
	Doc        string `json:"doc,omitempty"`
	Line       int    `json:"line,omitempty"`
}

// DeclarationCount returns the number of top-level declarations.
func (h *Header) DeclarationCount() int {
	if h == nil {
		return 0
	}
	return len(h.Functions) + len(h.Structs) + len(h.Enums) + len(h.Typedefs)
}

// Filter returns a copy keeping only declarations whose name satisfies
// keep. Anonymous structs and enums are always kept so the translator can
// still pair them with their typedef.
func (h *Header) Filter(keep func(name string) bool) *Header {
	if h == nil || keep == nil {
		return h
	}
	out := &Header{Name: h.Name, Path: h.Path}
	for _, fn := range h.Functions {
		if keep(fn.Name) {
			out.Functions = append(out.Functions, fn)
		}
	}
	for _, s := range h.Structs {
		if IsAnonymousName(s.Name) || keep(s.Name) {
			out.Structs = append(out.Structs, s)
		}
	}
	for _, e := range h.Enums {
		if IsAnonymousName(e.Name) || keep(e.Name) {
			out.Enums = append(out.Enums, e)
		}
	}
	for _, td := range h.Typedefs {
		if keep(td.Name) {
			out.Typedefs = append(out.Typedefs, td)
		}
	}
	return out
}

// DecodeJSON reads a Header serialized with the field names above.
func DecodeJSON(r io.Reader) (*Header, error) {
	var h Header
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}
