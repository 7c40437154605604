package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"liquidityKeeper/internal/lb"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	binID, err := cmd.Flags().GetUint32("bin-id")
	if err != nil {
		return err
	}
	binStep, err := cmd.Flags().GetUint16("bin-step")
	if err != nil {
		return err
	}
	if binStep == 0 {
		return fmt.Errorf("bin step must be positive")
	}
	fmt.Fprintln(cmd.OutOrStdout(), lb.FormatPrice(lb.Price(binID, binStep)))
	return nil
}
