package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entries: %d\nHits:    %d\nMisses:  %d\n", stats.Entries, stats.Hits, stats.Misses)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.cache.Clear(cmd.Context(), expiredOnly)
			if err != nil {
				return err
			}
			if expiredOnly {
				fmt.Fprintf(cmd.OutOrStdout(), "Expired cache entries cleared (%d).\n", n)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "All cache entries cleared (%d).\n", n)
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
