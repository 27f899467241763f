package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/engine"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the execution plan for a product's enabled rules",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().String("product", "", "product ID")
	planCmd.MarkFlagRequired("product")
}

type planLevel struct {
	Level int            `json:"level"`
	Rules []types.RuleID `json:"rules"`
}

type planView struct {
	ProductID   types.ProductID `json:"productId"`
	RuleSetHash string          `json:"ruleSetHash"`
	RuleCount   int             `json:"ruleCount"`
	Levels      []planLevel     `json:"levels"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	productID, _ := cmd.Flags().GetString("product")

	p, closeStore, err := loadProduct(cfg, productID)
	if err != nil {
		return err
	}
	defer closeStore()

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	plan, err := eng.Plan(p)
	if err != nil {
		return err
	}

	view := planView{
		ProductID:   p.ID,
		RuleSetHash: engine.RuleSetHash(p.EnabledRules()),
		RuleCount:   plan.RuleCount(),
	}
	for _, lvl := range plan.Levels {
		view.Levels = append(view.Levels, planLevel{Level: lvl.Index, Rules: lvl.Rules})
	}
	return printJSON(view)
}
