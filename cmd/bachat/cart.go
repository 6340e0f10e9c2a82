package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bachat-dev/bachat/internal/cart"
	"github.com/bachat-dev/bachat/internal/cli"
	"github.com/bachat-dev/bachat/internal/model"
)

func cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Build a cart manifest for a platform",
		Long: `Resolve the shopping list into the search manifest the cart
driver consumes: for each item, the captured product name to search
for (when one is known) and the platform search URL.

With --json the manifest is printed as JSON for machine consumption.`,
		RunE: runCart,
	}

	cmd.Flags().String("platform", "", "Platform to build the cart for (required)")
	cmd.Flags().Int64("plan", 0, "Meal plan ID (default: latest plan)")
	cmd.Flags().Bool("json", false, "Emit the manifest as JSON")
	_ = cmd.MarkFlagRequired("platform")

	return cmd
}

func runCart(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	platformFlag, _ := cmd.Flags().GetString("platform")
	planID, _ := cmd.Flags().GetInt64("plan")
	asJSON, _ := cmd.Flags().GetBool("json")

	platform := model.ParsePlatform(platformFlag)
	if !platform.IsKnown() {
		return fmt.Errorf("unknown platform: %s", platformFlag)
	}

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	plan, err := loadPlan(ctx, store, planID)
	if err != nil {
		return err
	}

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

	planner := cart.NewPlanner(res, nil)
	manifest, err := planner.BuildManifest(ctx, platform, plan.Data.ShoppingList)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	}

	fmt.Fprintln(os.Stdout, cli.FormatTitle(fmt.Sprintf("Cart manifest for %s", platform)))
	for _, entry := range manifest {
		fmt.Fprintf(os.Stdout, "%s (%s)\n", cli.BoldStyle.Render(entry.Item), entry.Qty)
		if entry.SearchName != entry.Item {
			fmt.Fprintf(os.Stdout, "  search: %s\n", entry.SearchName)
		}
		fmt.Fprintf(os.Stdout, "  %s\n", cli.SubtleStyle.Render(entry.SearchURL))
	}
	return nil
}
