package report

import (
	"cirgen/internal/data/store"
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteHistory lists stored snapshots, newest first.
func WriteHistory(w io.Writer, snapshots []store.Snapshot) error {
	var b strings.Builder
	if len(snapshots) == 0 {
		b.WriteString(cachedStyle.Render("no snapshots") + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString(titleStyle.Render("snapshots") + "\n")
	rows := make([][]string, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, []string{
			s.Timestamp.UTC().Format(time.RFC3339),
			s.Module,
			"schema " + s.SchemaVersion,
			fmt.Sprintf("%d functions", s.Functions),
			fmt.Sprintf("%d patterns", s.Patterns),
			shortHash(s.ContentHash),
			s.ID,
		})
	}
	b.WriteString(table(rows))
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHistoryTSV is the machine-readable form of WriteHistory.
func WriteHistoryTSV(w io.Writer, snapshots []store.Snapshot) error {
	var b strings.Builder
	b.WriteString("id\tmodule\ttimestamp\tschema_version\tfunctions\tpatterns\tunknown_types\tcontent_hash\tsource_path\n")
	for _, s := range snapshots {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			s.ID, s.Module, s.Timestamp.UTC().Format(time.RFC3339Nano), s.SchemaVersion,
			s.Functions, s.Patterns, s.UnknownTypes, s.ContentHash, tsvEscape(s.SourcePath))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func tsvEscape(value string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(value)
}
