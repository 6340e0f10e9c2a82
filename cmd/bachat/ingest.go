package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bachat-dev/bachat/internal/cli"
	"github.com/bachat-dev/bachat/internal/resolver"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store captured prices in the cache",
		Long: `Store real price observations, as captured by the browser
extension, into the price cache.

Pass a single capture with --platform, --name and --price, or a batch
with --file pointing at a JSON array of captures:

  [{"platform": "blinkit", "name": "Amul Taaza Milk 500ml",
    "price": 33, "unit": "500 ml"}]`,
		RunE: runIngest,
	}

	cmd.Flags().String("platform", "", "Platform the price was captured on")
	cmd.Flags().String("name", "", "Product name as shown on the platform")
	cmd.Flags().Float64("price", 0, "Captured price")
	cmd.Flags().String("unit", "", "Pack size (default: 1 unit)")
	cmd.Flags().String("file", "", "JSON file with a batch of captures")

	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")

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

	if file != "" {
		return runIngestFile(res, file)
	}

	platform, _ := cmd.Flags().GetString("platform")
	name, _ := cmd.Flags().GetString("name")
	price, _ := cmd.Flags().GetFloat64("price")
	unit, _ := cmd.Flags().GetString("unit")

	key, err := res.IngestPrice(resolver.IngestRequest{
		Platform: platform,
		Name:     name,
		Price:    price,
		Unit:     unit,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, cli.FormatSuccess(fmt.Sprintf("Saved %s", key)))
	return nil
}

func runIngestFile(res *resolver.Resolver, file string) error {
	raw, err := os.ReadFile(file) // #nosec G304 -- user-supplied batch file
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	var reqs []resolver.IngestRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return fmt.Errorf("failed to parse batch file: %w", err)
	}

	result := res.IngestBulk(reqs)
	fmt.Fprintln(os.Stdout, cli.FormatSuccess(
		fmt.Sprintf("Saved %d/%d prices", result.Saved, result.Total)))
	return nil
}
