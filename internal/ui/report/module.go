package report

import (
	"cirgen/internal/engine/ir"
	"fmt"
	"io"
	"strings"
)

// WriteModule prints the inferred contract of each function in m: its
// patterns, error convention and release function.
func WriteModule(w io.Writer, m *ir.Module) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Name) + "\n")
	if len(m.Functions) == 0 {
		b.WriteString(cachedStyle.Render("no functions") + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	rows := make([][]string, 0, len(m.Functions))
	for _, f := range m.Functions {
		patterns := make([]string, 0, len(f.Patterns))
		for _, p := range f.Patterns {
			patterns = append(patterns, fmt.Sprintf("%s(%s)", p.Kind(), p.Key()))
		}
		tags := strings.Join(patterns, ", ")
		if tags == "" {
			tags = cachedStyle.Render("-")
		}

		semantics := string(f.Semantics.ErrorConvention)
		if semantics == "" {
			semantics = "-"
		}
		if f.Semantics.FreedBy != "" {
			semantics += ", freed by " + f.Semantics.FreedBy
		}
		rows = append(rows, []string{f.Name, f.ReturnType.Spelling(), tags, semantics})
	}
	b.WriteString(table(rows))
	_, err := io.WriteString(w, b.String())
	return err
}
