package report

import (
	"cirgen/internal/engine/ir"
	"fmt"
	"io"
	"strings"
)

// WriteType prints spelling with its resolved type as an indented tree.
func WriteType(w io.Writer, spelling string, t ir.Type) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(spelling) + "\n")
	writeTypeNode(&b, t, 1)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTypeNode(b *strings.Builder, t ir.Type, depth int) {
	if t == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	label := string(t.Kind())
	if t.Kind() == ir.KindUnknown {
		label = warnStyle.Render(label)
	}
	fmt.Fprintf(b, "%s%s  %s\n", indent, label, ir.Describe(t))

	switch v := t.(type) {
	case ir.Pointer:
		writeTypeNode(b, v.Elem, depth+1)
	case ir.Array:
		writeTypeNode(b, v.Elem, depth+1)
	case ir.FunctionPointer:
		writeTypeNode(b, v.Return, depth+1)
	}
}
