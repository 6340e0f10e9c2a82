package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bachat-dev/bachat/internal/cli"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the price cache",
	}

	cmd.AddCommand(cacheStatsCmd())
	cmd.AddCommand(cacheClearCmd())
	cmd.AddCommand(cacheClearEstimatesCmd())

	return cmd
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show price cache statistics",
		RunE: func(_ *cobra.Command, _ []string) error {
			cache, err := initCache()
			if err != nil {
				return fmt.Errorf("failed to open price cache: %w", err)
			}
			defer func() { _ = cache.Close() }()

			stats := cache.Stats()
			fmt.Fprintln(os.Stdout, cli.FormatTitle("Price Cache"))
			fmt.Fprintln(os.Stdout, cli.RenderStats(
				stats.Total, stats.Estimated, stats.Captured, stats.Platforms))
			return nil
		},
	}
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached price",
		RunE: func(_ *cobra.Command, _ []string) error {
			cache, err := initCache()
			if err != nil {
				return fmt.Errorf("failed to open price cache: %w", err)
			}
			defer func() { _ = cache.Close() }()

			cache.ClearAll()
			fmt.Fprintln(os.Stdout, cli.FormatSuccess("Price cache cleared"))
			return nil
		},
	}
}

func cacheClearEstimatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-estimates",
		Short: "Remove cached estimates, keeping captured prices",
		RunE: func(_ *cobra.Command, _ []string) error {
			cache, err := initCache()
			if err != nil {
				return fmt.Errorf("failed to open price cache: %w", err)
			}
			defer func() { _ = cache.Close() }()

			removed := cache.ClearEstimates()
			fmt.Fprintln(os.Stdout, cli.FormatSuccess(
				fmt.Sprintf("Removed %d estimates", removed)))
			return nil
		},
	}
}
