package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"liquidityKeeper/internal/config"
	"liquidityKeeper/internal/storage"
)

func runPositions(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	records, err := storage.NewPositionFile(cfg.Positions).Load()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
