package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var params common.GenerationParameters

	cmd := &cobra.Command{
		Use:   "generate <ingredient>...",
		Short: "Generate a recipe, reusing the cached one for the same ingredients (needs a persistent cache driver across runs)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if a.Config.Cache.Driver == config.CacheDriverMemory {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: memory cache driver, the result will not be reused by later runs")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			result, err := a.Service.Generate(ctx, args, params)
			if err != nil {
				return err
			}

			source := "generated"
			if result.CacheHit {
				source = "cache"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "fingerprint: %s (%s)\n", result.Fingerprint, source)
			return common.WriteJSONIndent(cmd.OutOrStdout(), result.Recipe)
		},
	}

	cmd.Flags().StringVar(&params.DietaryRestrictions, "diet", "", "dietary restrictions")
	cmd.Flags().StringVar(&params.CuisinePreference, "cuisine", "", "cuisine preference")
	cmd.Flags().StringVar(&params.Difficulty, "difficulty", "", "difficulty level")
	return cmd
}
