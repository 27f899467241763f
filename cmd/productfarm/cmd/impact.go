package cmd

import (
	"github.com/spf13/cobra"
)

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Analyze the dependency impact of an attribute path",
	RunE:  runImpact,
}

func init() {
	rootCmd.AddCommand(impactCmd)
	impactCmd.Flags().String("product", "", "product ID")
	impactCmd.Flags().String("path", "", "attribute path to analyze")
	impactCmd.Flags().Bool("check", false, "report only whether the attribute may be modified in place")
	impactCmd.MarkFlagRequired("product")
	impactCmd.MarkFlagRequired("path")
}

func runImpact(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	productID, _ := cmd.Flags().GetString("product")
	path, _ := cmd.Flags().GetString("path")
	check, _ := cmd.Flags().GetBool("check")

	p, closeStore, err := loadProduct(cfg, productID)
	if err != nil {
		return err
	}
	defer closeStore()

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	if check {
		mc, err := eng.CheckModification(p, path)
		if err != nil {
			return err
		}
		return printJSON(mc)
	}
	ia, err := eng.Analyze(p, path)
	if err != nil {
		return err
	}
	return printJSON(ia)
}
