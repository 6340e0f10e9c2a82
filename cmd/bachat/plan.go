package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bachat-dev/bachat/internal/cli"
	"github.com/bachat-dev/bachat/internal/model"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage stored meal plans",
	}

	cmd.AddCommand(planImportCmd())
	cmd.AddCommand(planShowCmd())

	return cmd
}

func planImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import --file plan.json",
		Short: "Import a meal plan document",
		Long: `Store a plan document produced by the meal generator. The file
holds the plan data object: shopping list, total cost and any prior
price comparison.`,
		RunE: runPlanImport,
	}

	cmd.Flags().String("file", "", "Plan JSON file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runPlanImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	file, _ := cmd.Flags().GetString("file")

	raw, err := os.ReadFile(file) // #nosec G304 -- user-supplied plan file
	if err != nil {
		return fmt.Errorf("failed to read plan file: %w", err)
	}

	var data model.PlanData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse plan file: %w", err)
	}
	data.RecomputeTotalCost()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	userID := viper.GetString("user.id")
	if userID == "" {
		userID = "default"
	}

	plan, err := store.CreateMealPlan(ctx, userID, data)
	if err != nil {
		return fmt.Errorf("failed to store meal plan: %w", err)
	}

	fmt.Fprintln(os.Stdout, cli.FormatSuccess(
		fmt.Sprintf("Imported plan %d (%d items, ₹%.2f)",
			plan.ID, len(data.ShoppingList), data.TotalCost)))
	return nil
}

func planShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a stored meal plan's shopping list",
		RunE:  runPlanShow,
	}

	cmd.Flags().Int64("plan", 0, "Meal plan ID (default: latest plan)")

	return cmd
}

func runPlanShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	planID, _ := cmd.Flags().GetInt64("plan")

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	plan, err := loadPlan(ctx, store, planID)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(cli.SubtitleStyle.Render(fmt.Sprintf("Created %s for %s",
		plan.CreatedAt.Format("2006-01-02"), plan.UserID)))
	b.WriteString("\n")
	for _, item := range plan.Data.ShoppingList {
		b.WriteString(fmt.Sprintf("%-24s %-10s ₹%.2f\n", item.Item, item.Qty, item.Price))
	}
	b.WriteString(fmt.Sprintf("\nTotal: ₹%.2f", plan.Data.TotalCost))
	fmt.Fprintln(os.Stdout, cli.RenderBox(fmt.Sprintf("Plan %d", plan.ID), b.String()))

	if plan.Data.ShoppingListStale {
		fmt.Fprintln(os.Stdout, cli.FormatWarning("Shopping list changed since the last comparison"))
	}
	if comp := plan.Data.PriceComparison; comp != nil {
		fmt.Fprintf(os.Stdout, "Last compared: %s\n", comp.LastUpdated.Format("2006-01-02 15:04"))
	}
	return nil
}
