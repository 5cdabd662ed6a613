// Package report renders build summaries, snapshot history and resolved
// types for the terminal.
package report

import (
	"cirgen/internal/core/app"
	"cirgen/internal/core/errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	cachedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))
)

// WriteSummary prints one line per built module followed by failures and
// a totals line.
func WriteSummary(w io.Writer, s app.Summary) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("cirgen build") + "\n")

	rows := make([][]string, 0, len(s.Results))
	for _, r := range s.Results {
		state := successStyle.Render("built")
		if r.Cached {
			state = cachedStyle.Render("cached")
		}
		unknown := fmt.Sprintf("%d unknown", r.Stats.UnknownTypes)
		if r.Stats.UnknownTypes > 0 {
			unknown = warnStyle.Render(unknown)
		}
		rows = append(rows, []string{
			state,
			r.Module,
			fmt.Sprintf("%d functions", r.Stats.Functions),
			fmt.Sprintf("%d patterns", r.Stats.Patterns),
			unknown,
			r.Output,
		})
	}
	b.WriteString(table(rows))

	for _, f := range s.Failures {
		fmt.Fprintf(&b, "%s  %s  %s\n", failureStyle.Render("failed"), f.Path, f.Err)
	}

	cached := 0
	var elapsed time.Duration
	for _, r := range s.Results {
		if r.Cached {
			cached++
		}
		elapsed += r.Duration
	}
	fmt.Fprintf(&b, "%d built, %d cached, %d failed (%s build time)\n",
		len(s.Results)-cached, cached, len(s.Failures), elapsed.Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteBuild prints a single watch-mode rebuild.
func WriteBuild(w io.Writer, r app.BuildResult, err error) error {
	var line string
	switch {
	case err != nil:
		line = fmt.Sprintf("%s  %s  [%s]", failureStyle.Render("failed"), r.Path, errors.CodeOf(err))
	case r.Cached:
		line = fmt.Sprintf("%s  %s", cachedStyle.Render("cached"), r.Module)
	default:
		line = fmt.Sprintf("%s  %s  %d functions, %d patterns", successStyle.Render("built"),
			r.Module, r.Stats.Functions, r.Stats.Patterns)
	}
	_, werr := io.WriteString(w, line+"\n")
	return werr
}

// table aligns rows into columns. Widths are measured with lipgloss.Width
// so styled cells line up.
func table(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
