package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bachat-dev/bachat/internal/cli"
	"github.com/bachat-dev/bachat/internal/model"
	"github.com/bachat-dev/bachat/internal/resolver"
)

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <item>",
		Short: "Resolve a single item's price",
		Long: `Resolve one item's price on one platform (or all platforms),
walking the usual fallback chain: captured price, semantic match,
cached estimate, fresh estimate.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runResolve,
	}

	cmd.Flags().String("platform", "", "Platform to resolve on (default: all)")
	cmd.Flags().Bool("no-match", false, "Disable semantic matching")

	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	item := strings.Join(args, " ")
	platformFlag, _ := cmd.Flags().GetString("platform")
	noMatch, _ := cmd.Flags().GetBool("no-match")

	cache, err := initCache()
	if err != nil {
		return fmt.Errorf("failed to open price cache: %w", err)
	}
	defer func() { _ = cache.Close() }()

	res, closeLLM, err := initResolver(cache)
	if err != nil {
		return err
	}
	defer closeLLM()

	platforms := model.AllPlatforms()
	if platformFlag != "" {
		p := model.ParsePlatform(platformFlag)
		if !p.IsKnown() {
			return fmt.Errorf("unknown platform: %s", platformFlag)
		}
		platforms = []model.Platform{p}
	}

	opts := resolver.Options{AllowSemanticMatch: !noMatch}
	for _, p := range platforms {
		obs := res.ResolvePrice(ctx, p, item, opts)

		line := fmt.Sprintf("%-12s ₹%.2f / %s", string(p), obs.Price, obs.Unit)
		if obs.IsEstimate {
			fmt.Fprintln(os.Stdout, line+"  "+cli.SubtleStyle.Render("(estimate)"))
			continue
		}
		fmt.Fprintln(os.Stdout, line+"  "+cli.SubtleStyle.Render(obs.DisplayName(item)))
	}

	return nil
}
