package main

import (
	"cirgen/internal/core/app"
	"cirgen/internal/ui/report"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Rebuild IR documents whenever headers change",
		RunE:  runWatch,
	}
	cmd.Flags().String("out", "", "output directory (overrides [output].dir)")
	cmd.Flags().Bool("no-store", false, "do not read or write the snapshot store")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.Output.Dir = out
	}

	w := cmd.OutOrStdout()
	opts := []app.Option{
		app.WithBuildHook(func(res app.BuildResult, err error) {
			_ = report.WriteBuild(w, res, err)
		}),
	}
	if cfgPath != "" {
		opts = append(opts, app.WithConfigPath(cfgPath))
	}
	if noStore, _ := cmd.Flags().GetBool("no-store"); noStore {
		opts = append(opts, app.WithoutStore())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer startTracing(ctx, cfg)()

	a, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Watch(ctx, args)
}
