package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a product's rules against input attributes",
	RunE:  runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().String("product", "", "product ID")
	evaluateCmd.Flags().String("input", "", "JSON file with input attribute values")
	evaluateCmd.MarkFlagRequired("product")
	evaluateCmd.MarkFlagRequired("input")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	productID, _ := cmd.Flags().GetString("product")
	inputPath, _ := cmd.Flags().GetString("input")

	inputs, err := readInputs(inputPath)
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
	res, err := eng.Evaluate(ctx, p, inputs)
	if err != nil {
		if res == nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		// Partial result from a cancelled run still prints.
		fmt.Fprintf(os.Stderr, "evaluation interrupted: %v\n", err)
	}
	if err := printJSON(res); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d rule(s) failed", len(res.Errors))
	}
	return nil
}
