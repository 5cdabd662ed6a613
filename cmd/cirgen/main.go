// # cmd/cirgen/main.go
package main

import (
	"cirgen/internal/core/config"
	"cirgen/internal/shared/observability"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

const VERSION = "1.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cirgen",
		Short:         "Build annotated IR documents from C headers",
		Long:          `cirgen reads C headers (or their JSON declaration dumps), resolves every type spelling and infers API usage patterns for binding generators.`,
		Version:       VERSION,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogging(cmd.ErrOrStderr(), verbose)
		},
	}

	root.PersistentFlags().String("config", config.DefaultFile, "path to config file")
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newResolveCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads --config, applies CIRGEN_* overrides and resolves
// relative paths against the config file's directory.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", path, err)
	}
	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}

	if _, statErr := os.Stat(path); statErr == nil {
		abs, err := filepath.Abs(path)
		if err == nil {
			config.ResolvePaths(cfg, filepath.Dir(abs))
			return cfg, abs, nil
		}
	}
	return cfg, "", nil
}

// startTracing installs the OTLP exporter when configured and returns a
// flush function for deferred use.
func startTracing(ctx context.Context, cfg *config.Config) func() {
	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		return func() {}
	}
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("trace flush failed", "error", err)
		}
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cirgen version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cirgen v%s\n", VERSION)
			return err
		},
	}
}
