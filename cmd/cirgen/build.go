package main

import (
	"cirgen/internal/core/app"
	"cirgen/internal/ui/report"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [paths...]",
		Short: "Build IR documents for headers",
		Long:  `Build parses every header under the given paths (or [input].paths from the config) and writes one <module>.ir.json per header.`,
		RunE:  runBuild,
	}
	cmd.Flags().String("out", "", "output directory (overrides [output].dir)")
	cmd.Flags().String("module", "", "module name override for a single header")
	cmd.Flags().Bool("no-store", false, "do not read or write the snapshot store")
	cmd.Flags().Bool("pretty", false, "indent JSON output")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	if out != "" {
		cfg.Output.Dir = out
	}
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		cfg.Output.Pretty = true
	}

	var opts []app.Option
	if module, _ := cmd.Flags().GetString("module"); module != "" {
		opts = append(opts, app.WithModuleName(module))
	}
	if noStore, _ := cmd.Flags().GetBool("no-store"); noStore {
		opts = append(opts, app.WithoutStore())
	}

	if len(args) == 0 && len(cfg.Input.Paths) == 0 {
		return fmt.Errorf("no input paths: pass paths or set [input].paths")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	defer startTracing(ctx, cfg)()

	a, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.BuildAll(ctx, args)
	if err != nil {
		return err
	}
	if err := report.WriteSummary(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	return summary.Err()
}
