package header

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// CExtractor turns a tree-sitter C syntax tree into a Header. It reads
// declarations only: function bodies are skipped and macros are not
// expanded.
type CExtractor struct {
	engine *ExtractorEngine
}

func NewCExtractor() *CExtractor {
	x := &CExtractor{}
	x.engine = NewExtractorEngine(map[string]NodeHandler{
		"function_definition": x.handleFunctionDefinition,
		"declaration":         x.handleDeclaration,
		"type_definition":     x.handleTypeDefinition,
		"struct_specifier":    x.handleRecord,
		"union_specifier":     x.handleRecord,
		"enum_specifier":      x.handleEnum,
		"compound_statement":  skipSubtree,
	})
	return x
}

// Extract walks root and returns the declarations it found, in source order
// per declaration kind.
func (x *CExtractor) Extract(root *sitter.Node, source []byte, path string) (*Header, error) {
	ctx := &ExtractionContext{
		Source: source,
		Header: &Header{Path: path},
	}
	x.engine.Walk(ctx, root)
	return ctx.Header, nil
}

func skipSubtree(*ExtractionContext, *sitter.Node) bool { return true }

func (x *CExtractor) handleFunctionDefinition(ctx *ExtractionContext, node *sitter.Node) bool {
	base := x.baseType(ctx, node)
	if fn, ok := x.function(ctx, base, node.ChildByFieldName("declarator")); ok {
		fn.Doc = ctx.DocFor(node)
		fn.Line = ctx.Line(node)
		ctx.Header.Functions = append(ctx.Header.Functions, fn)
	}
	return true
}

func (x *CExtractor) handleDeclaration(ctx *ExtractionContext, node *sitter.Node) bool {
	x.walkInlineBody(ctx, node.ChildByFieldName("type"))

	base := x.baseType(ctx, node)
	for _, d := range childrenByField(node, "declarator") {
		fn, ok := x.function(ctx, base, d)
		if !ok {
			// Variables and function pointer objects are not part of the API surface.
			continue
		}
		fn.Doc = ctx.DocFor(node)
		fn.Line = ctx.Line(node)
		ctx.Header.Functions = append(ctx.Header.Functions, fn)
	}
	return true
}

func (x *CExtractor) handleTypeDefinition(ctx *ExtractionContext, node *sitter.Node) bool {
	x.walkInlineBody(ctx, node.ChildByFieldName("type"))

	base := x.baseType(ctx, node)
	doc := ctx.DocFor(node)
	for _, d := range childrenByField(node, "declarator") {
		name, spelling := x.declare(ctx, base, d)
		if name == "" {
			continue
		}
		ctx.Header.Typedefs = append(ctx.Header.Typedefs, Typedef{
			Name:       name,
			Underlying: spelling,
			Doc:        doc,
			Line:       ctx.Line(node),
		})
	}
	return true
}

// handleRecord records struct and union definitions. Bare references such
// as "struct Foo *p" have no body and are ignored.
func (x *CExtractor) handleRecord(ctx *ExtractionContext, node *sitter.Node) bool {
	body := node.ChildByFieldName("body")
	if body == nil {
		return true
	}

	rec := Struct{
		Name:  x.recordName(ctx, node),
		Union: node.Kind() == "union_specifier",
		Doc:   x.recordDoc(ctx, node),
		Line:  ctx.Line(node),
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		if member.Kind() != "field_declaration" {
			continue
		}
		x.walkInlineBody(ctx, member.ChildByFieldName("type"))

		base := x.baseType(ctx, member)
		declarators := childrenByField(member, "declarator")
		if len(declarators) == 0 {
			// Anonymous member struct/union.
			rec.Fields = append(rec.Fields, Field{Type: base})
			continue
		}
		for _, d := range declarators {
			name, spelling := x.declare(ctx, base, d)
			rec.Fields = append(rec.Fields, Field{Name: name, Type: spelling})
		}
	}
	ctx.Header.Structs = append(ctx.Header.Structs, rec)
	return true
}

func (x *CExtractor) handleEnum(ctx *ExtractionContext, node *sitter.Node) bool {
	body := node.ChildByFieldName("body")
	if body == nil {
		return true
	}

	enum := Enum{
		Name: x.recordName(ctx, node),
		Doc:  x.recordDoc(ctx, node),
		Line: ctx.Line(node),
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		item := body.NamedChild(i)
		if item.Kind() != "enumerator" {
			continue
		}
		constant := EnumConstant{
			Name: ctx.Text(item.ChildByFieldName("name")),
			Doc:  ctx.DocFor(item),
		}
		if value := item.ChildByFieldName("value"); value != nil {
			constant.Value = NormalizeSpelling(ctx.Text(value))
		}
		enum.Constants = append(enum.Constants, constant)
	}
	ctx.Header.Enums = append(ctx.Header.Enums, enum)
	return true
}

// walkInlineBody records a struct/union/enum defined inline in a typedef,
// declaration or field.
func (x *CExtractor) walkInlineBody(ctx *ExtractionContext, typeNode *sitter.Node) {
	if typeNode == nil {
		return
	}
	switch typeNode.Kind() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		x.engine.Walk(ctx, typeNode)
	}
}

func (x *CExtractor) recordName(ctx *ExtractionContext, node *sitter.Node) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return ctx.Text(name)
	}
	return ctx.anonymousName(node)
}

// recordDoc reads the comment above a specifier, or above the typedef or
// declaration that wraps it.
func (x *CExtractor) recordDoc(ctx *ExtractionContext, node *sitter.Node) string {
	if doc := ctx.DocFor(node); doc != "" {
		return doc
	}
	if parent := node.Parent(); parent != nil {
		switch parent.Kind() {
		case "type_definition", "declaration":
			return ctx.DocFor(parent)
		}
	}
	return ""
}

// baseType renders the declaration specifiers of node (qualifiers plus the
// type field) as a normalized spelling. Only const survives among the
// qualifiers; storage classes and attributes are dropped.
func (x *CExtractor) baseType(ctx *ExtractionContext, node *sitter.Node) string {
	var parts []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "type_qualifier" && ctx.Text(child) == "const" {
			parts = append(parts, "const")
			break
		}
	}

	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		// Implicit int.
		return strings.Join(append(parts, "int"), " ")
	}
	switch typeNode.Kind() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		keyword := strings.TrimSuffix(typeNode.Kind(), "_specifier")
		parts = append(parts, keyword, x.recordName(ctx, typeNode))
	default:
		parts = append(parts, NormalizeSpelling(ctx.Text(typeNode)))
	}
	return strings.Join(parts, " ")
}

// function unwraps the declarator of a function prototype or definition.
// The returned function has its return type built from base plus any
// pointer declarators wrapped around the function declarator.
func (x *CExtractor) function(ctx *ExtractionContext, base string, d *sitter.Node) (Function, bool) {
	for d != nil {
		switch d.Kind() {
		case "pointer_declarator":
			base = pointerTo(base)
			d = d.ChildByFieldName("declarator")
		case "parenthesized_declarator":
			d = firstNamedChild(d)
		case "function_declarator":
			inner := d.ChildByFieldName("declarator")
			if inner != nil && inner.Kind() == "identifier" {
				fn := Function{Name: ctx.Text(inner), ReturnType: base}
				fn.Params, fn.Variadic = x.params(ctx, d.ChildByFieldName("parameters"))
				return fn, true
			}
			// "R (*name(args))(params)" returns a function pointer. A pointer
			// that ends at an identifier is a variable and is skipped below.
			ptr := unwrapParens(inner)
			if ptr == nil || ptr.Kind() != "pointer_declarator" {
				return Function{}, false
			}
			base = base + " (*)(" + x.paramTypes(ctx, d.ChildByFieldName("parameters")) + ")"
			d = ptr.ChildByFieldName("declarator")
		default:
			return Function{}, false
		}
	}
	return Function{}, false
}

func unwrapParens(d *sitter.Node) *sitter.Node {
	for d != nil && d.Kind() == "parenthesized_declarator" {
		d = firstNamedChild(d)
	}
	return d
}

func (x *CExtractor) params(ctx *ExtractionContext, list *sitter.Node) ([]Param, bool) {
	if list == nil {
		return nil, false
	}
	var params []Param
	variadic := false
	for i := uint(0); i < list.NamedChildCount(); i++ {
		p := list.NamedChild(i)
		switch p.Kind() {
		case "parameter_declaration":
			name, spelling := x.declare(ctx, x.baseType(ctx, p), p.ChildByFieldName("declarator"))
			params = append(params, Param{Name: name, Type: spelling})
		case "variadic_parameter":
			variadic = true
		}
	}
	// "(void)" declares no parameters.
	if len(params) == 1 && params[0].Name == "" && params[0].Type == "void" {
		params = nil
	}
	return params, variadic
}

// declare folds a declarator chain onto base and returns the declared name
// and the normalized type spelling ("char **", "double [10]",
// "void (*)(int, void *)").
func (x *CExtractor) declare(ctx *ExtractionContext, base string, d *sitter.Node) (string, string) {
	suffix := ""
	finish := func(name string) (string, string) {
		if suffix == "" {
			return name, base
		}
		return name, base + " " + suffix
	}

	for d != nil {
		switch d.Kind() {
		case "identifier", "field_identifier", "type_identifier", "primitive_type":
			return finish(ctx.Text(d))
		case "pointer_declarator", "abstract_pointer_declarator":
			base = pointerTo(base)
			d = d.ChildByFieldName("declarator")
		case "array_declarator", "abstract_array_declarator":
			extent := ""
			if size := d.ChildByFieldName("size"); size != nil {
				extent = NormalizeSpelling(ctx.Text(size))
			}
			suffix = "[" + extent + "]" + suffix
			d = d.ChildByFieldName("declarator")
		case "function_declarator", "abstract_function_declarator":
			base = base + " (*)(" + x.paramTypes(ctx, d.ChildByFieldName("parameters")) + ")"
			return finish(declaredName(ctx, d.ChildByFieldName("declarator")))
		case "parenthesized_declarator", "abstract_parenthesized_declarator":
			d = firstNamedChild(d)
		default:
			return finish("")
		}
	}
	return finish("")
}

// paramTypes renders a parameter list as its types only: "int, void *".
func (x *CExtractor) paramTypes(ctx *ExtractionContext, list *sitter.Node) string {
	if list == nil {
		return ""
	}
	var types []string
	for i := uint(0); i < list.NamedChildCount(); i++ {
		p := list.NamedChild(i)
		switch p.Kind() {
		case "parameter_declaration":
			_, spelling := x.declare(ctx, x.baseType(ctx, p), p.ChildByFieldName("declarator"))
			types = append(types, spelling)
		case "variadic_parameter":
			types = append(types, "...")
		}
	}
	return strings.Join(types, ", ")
}

// declaredName finds the identifier at the bottom of a declarator.
func declaredName(ctx *ExtractionContext, d *sitter.Node) string {
	for d != nil {
		switch d.Kind() {
		case "identifier", "field_identifier", "type_identifier":
			return ctx.Text(d)
		case "parenthesized_declarator", "abstract_parenthesized_declarator":
			d = firstNamedChild(d)
		default:
			d = d.ChildByFieldName("declarator")
		}
	}
	return ""
}

func pointerTo(base string) string {
	if strings.HasSuffix(base, "*") {
		return base + "*"
	}
	return base + " *"
}
