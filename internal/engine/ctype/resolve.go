// Package ctype turns textual C type descriptors into ir.Type values.
//
// Descriptors arrive whitespace-normalized from the header front end, e.g.
// "const char *", "double [10]", "int (*)(int)" or "struct Foo *". The
// grammar is ambiguous without a fixed rule priority, so Resolve tries its
// rules in order and the first match wins. Resolve never fails: anything it
// cannot classify becomes ir.Unknown with the text preserved.
package ctype

import (
	"cirgen/internal/engine/ir"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type rule func(spelling string) (ir.Type, bool)

// rules is the resolution order. It is filled in init because the
// recursive rules call Resolve.
var rules []rule

func init() {
	rules = []rule{
		resolvePrimitive,
		resolveCString,
		resolveArray,
		resolveFunctionPointer,
		resolvePointer,
		resolveTagged,
		resolveTypedef,
	}
}

// Resolve converts one type descriptor into a Type whose Spelling equals
// the input.
func Resolve(spelling string) ir.Type {
	for _, r := range rules {
		if t, ok := r(spelling); ok {
			return t
		}
	}
	return ir.Unknown{Text: spelling}
}

func resolvePrimitive(spelling string) (ir.Type, bool) {
	name, ok := LookupPrimitive(stripLeadingConst(spelling))
	if !ok {
		return nil, false
	}
	return ir.Primitive{Name: name, Text: spelling}, true
}

func resolveCString(spelling string) (ir.Type, bool) {
	switch spelling {
	case "char *":
		return ir.CString{Text: spelling}, true
	case "const char *":
		return ir.CString{Const: true, Text: spelling}, true
	}
	return nil, false
}

func resolveArray(spelling string) (ir.Type, bool) {
	open := strings.Index(spelling, "[")
	if open < 0 || !strings.Contains(spelling, "]") {
		return nil, false
	}
	extent := ""
	if end := strings.Index(spelling[open:], "]"); end > 0 {
		extent = strings.TrimSpace(spelling[open+1 : open+end])
	}
	return ir.Array{
		Elem:   Resolve(strings.TrimSpace(spelling[:open])),
		Extent: extent,
		Text:   spelling,
	}, true
}

func resolveFunctionPointer(spelling string) (ir.Type, bool) {
	star := strings.Index(spelling, "(*")
	if star < 0 || !strings.Contains(spelling, ")") {
		return nil, false
	}
	return ir.FunctionPointer{
		Return: ir.Unknown{Text: strings.TrimSpace(spelling[:star])},
		Params: rawParams(spelling),
		Text:   spelling,
	}, true
}

// rawParams splits the last parenthesized group on top-level commas.
func rawParams(spelling string) []string {
	end := strings.LastIndex(spelling, ")")
	if end < 0 {
		return nil
	}
	depth := 0
	start := -1
	for i := end; i >= 0; i-- {
		switch spelling[i] {
		case ')':
			depth++
		case '(':
			depth--
		}
		if depth == 0 {
			start = i
			break
		}
	}
	if start < 0 || start+1 > end {
		return nil
	}
	inner := strings.TrimSpace(spelling[start+1 : end])
	if inner == "" || inner == "*" {
		return nil
	}

	var params []string
	depth = 0
	last := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(inner[last:i]))
				last = i + 1
			}
		}
	}
	return append(params, strings.TrimSpace(inner[last:]))
}

func resolvePointer(spelling string) (ir.Type, bool) {
	if !strings.HasSuffix(spelling, "*") {
		return nil, false
	}
	pointee := stripConstTokens(strings.TrimSuffix(spelling, "*"))
	return ir.Pointer{
		Elem:  Resolve(pointee),
		Const: hasConstToken(spelling),
		Text:  spelling,
	}, true
}

func resolveTagged(spelling string) (ir.Type, bool) {
	switch {
	case strings.HasPrefix(spelling, "enum "):
		return ir.EnumRef{Name: strings.TrimSpace(spelling[len("enum "):]), Text: spelling}, true
	case strings.HasPrefix(spelling, "struct "):
		return ir.StructRef{Name: strings.TrimSpace(spelling[len("struct "):]), Text: spelling}, true
	case strings.HasPrefix(spelling, "class "):
		return ir.StructRef{Name: strings.TrimSpace(spelling[len("class "):]), Text: spelling}, true
	case strings.HasPrefix(spelling, "union "):
		return ir.StructRef{Name: strings.TrimSpace(spelling[len("union "):]), Union: true, Text: spelling}, true
	}
	return nil, false
}

func resolveTypedef(spelling string) (ir.Type, bool) {
	if !identifierPattern.MatchString(spelling) {
		return nil, false
	}
	return ir.TypedefRef{Name: spelling, Text: spelling}, true
}

func stripLeadingConst(spelling string) string {
	if strings.HasPrefix(spelling, "const ") {
		return strings.TrimSpace(spelling[len("const "):])
	}
	return spelling
}

// stripConstTokens removes every const token and re-normalizes whitespace.
func stripConstTokens(spelling string) string {
	tokens := tokenize(spelling)
	kept := tokens[:0]
	for _, tok := range tokens {
		if tok != "const" {
			kept = append(kept, tok)
		}
	}
	return join(kept)
}

func hasConstToken(spelling string) bool {
	for _, tok := range tokenize(spelling) {
		if tok == "const" {
			return true
		}
	}
	return false
}

// tokenize splits a descriptor into identifier words and single punctuation
// characters, so "char*const*" yields [char * const *].
func tokenize(spelling string) []string {
	var tokens []string
	word := -1
	for i := 0; i < len(spelling); i++ {
		c := spelling[i]
		if isIdentByte(c) {
			if word < 0 {
				word = i
			}
			continue
		}
		if word >= 0 {
			tokens = append(tokens, spelling[word:i])
			word = -1
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			tokens = append(tokens, string(c))
		}
	}
	if word >= 0 {
		tokens = append(tokens, spelling[word:])
	}
	return tokens
}

// join rebuilds the normalized spelling: words separated by one space,
// a star attached to a preceding star ("char **").
func join(tokens []string) string {
	var b strings.Builder
	prev := ""
	for _, tok := range tokens {
		if b.Len() > 0 && !(tok == "*" && prev == "*") {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
		prev = tok
	}
	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
