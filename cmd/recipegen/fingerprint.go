package main

import (
	"fmt"

	"ai-recipe-engine/internal/core/ai/fingerprint"

	"github.com/spf13/cobra"
)

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <ingredient>...",
		Short: "Print the cache fingerprint of an ingredient list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), fingerprint.Derive(args))
			return err
		},
	}
}
