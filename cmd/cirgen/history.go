package main

import (
	"cirgen/internal/data/store"
	"cirgen/internal/ui/report"
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [module]",
		Short: "List stored IR snapshots",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 20, "maximum number of snapshots to list (0 = all)")
	cmd.Flags().String("format", "pretty", "output format (pretty|tsv)")
	cmd.Flags().Int("prune", -1, "keep only the newest N snapshots of the module")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Store.IsEnabled() {
		return fmt.Errorf("snapshot store is disabled in config")
	}

	module := ""
	if len(args) == 1 {
		module = args[0]
	}
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	prune, _ := cmd.Flags().GetInt("prune")

	s, err := store.Open(cfg.Store.Path, cfg.Store.BusyTimeout)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if prune >= 0 {
		if module == "" {
			return fmt.Errorf("--prune needs a module argument")
		}
		deleted, err := s.Prune(ctx, module, prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d snapshots of %s\n", deleted, module)
	}

	snapshots, err := s.List(ctx, module, limit)
	if err != nil {
		return err
	}
	switch format {
	case "pretty":
		return report.WriteHistory(cmd.OutOrStdout(), snapshots)
	case "tsv":
		return report.WriteHistoryTSV(cmd.OutOrStdout(), snapshots)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
