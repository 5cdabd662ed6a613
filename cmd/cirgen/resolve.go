package main

import (
	"cirgen/internal/engine/ir"
	"cirgen/internal/engine/translate"
	"cirgen/internal/ui/report"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <spelling>...",
		Short: "Show how type spellings resolve",
		Example: `  cirgen resolve "const char *" "double [10]" "void (*)(int, void *)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runResolve,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	w := cmd.OutOrStdout()
	switch format {
	case "pretty":
		for _, spelling := range args {
			if err := report.WriteType(w, spelling, translate.ResolveType(spelling)); err != nil {
				return err
			}
		}
		return nil
	case "json":
		out := make([]ir.TypeDoc, 0, len(args))
		for _, spelling := range args {
			out = append(out, ir.EncodeType(translate.ResolveType(spelling)))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
