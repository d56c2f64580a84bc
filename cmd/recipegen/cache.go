package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"ai-recipe-engine/internal/core/ai/cache"
	"ai-recipe-engine/internal/pkg/common"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect a persistent recipe cache (sqlite or redis)",
	}

	getCmd := &cobra.Command{
		Use:   "get <ingredient>...",
		Short: "Show the cached entry for an ingredient list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadPersistentApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			entry, err := a.Service.Lookup(context.Background(), args)
			if errors.Is(err, cache.ErrNotFound) {
				return fmt.Errorf("no cached recipe for [%s]", common.StringSliceToString(args))
			}
			if err != nil {
				return err
			}
			return common.WriteJSONIndent(cmd.OutOrStdout(), entry)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadPersistentApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			stats, err := a.Service.CacheStats(context.Background())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DRIVER\tENTRIES\tHITS\tMISSES\tHIT RATE")
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\n", stats.Driver, stats.Entries, stats.Hits, stats.Misses, stats.HitRate)
			return w.Flush()
		},
	}

	cmd.AddCommand(getCmd, statsCmd)
	return cmd
}
