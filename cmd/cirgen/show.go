package main

import (
	"cirgen/internal/data/store"
	"cirgen/internal/engine/ir"
	"cirgen/internal/ui/report"
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <module>",
		Short: "Print the inferred contracts of a stored module",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	cmd.Flags().String("snapshot", "", "snapshot id to show instead of the newest")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Store.IsEnabled() {
		return fmt.Errorf("snapshot store is disabled in config")
	}
	id, _ := cmd.Flags().GetString("snapshot")

	s, err := store.Open(cfg.Store.Path, cfg.Store.BusyTimeout)
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		snap store.Snapshot
		doc  ir.Document
	)
	if id != "" {
		snap, doc, err = s.Get(cmd.Context(), id)
	} else {
		snap, doc, err = s.Latest(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}
	if snap.Module != args[0] {
		return fmt.Errorf("snapshot %s belongs to module %s", snap.ID, snap.Module)
	}

	m, err := ir.Decode(doc)
	if err != nil {
		return fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return report.WriteModule(cmd.OutOrStdout(), m)
}
