package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate a product's rules over many input rows",
	RunE:  runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().String("product", "", "product ID")
	batchCmd.Flags().String("input", "", "JSON file with an array of input rows")
	batchCmd.MarkFlagRequired("product")
	batchCmd.MarkFlagRequired("input")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	productID, _ := cmd.Flags().GetString("product")
	inputPath, _ := cmd.Flags().GetString("input")

	rows, err := readBatchInputs(inputPath)
	if err != nil {
		return err
	}
	p, closeStore, err := loadProduct(cfg, productID)
	if err != nil {
		return err
	}
	defer closeStore()

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	br, err := eng.BatchEvaluate(ctx, p, rows)
	if err != nil {
		if br == nil {
			return fmt.Errorf("batch evaluation failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "batch interrupted: %v\n", err)
	}
	if err := printJSON(br); err != nil {
		return err
	}
	if br.FailureCount > 0 {
		return fmt.Errorf("%d of %d row(s) failed", br.FailureCount, len(br.Results))
	}
	return nil
}

func readBatchInputs(path string) ([]map[string]types.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	v, err := types.ParseJSONValue(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}
	arr, ok := v.AsArray()
	if !ok {
		return nil, fmt.Errorf("input file must contain a JSON array of objects")
	}
	rows := make([]map[string]types.Value, 0, len(arr))
	for i, el := range arr {
		obj, ok := el.AsObject()
		if !ok {
			return nil, fmt.Errorf("row %d is not a JSON object", i)
		}
		rows = append(rows, obj)
	}
	return rows, nil
}
