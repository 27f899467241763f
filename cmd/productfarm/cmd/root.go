package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/config"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/engine"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/op"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/store"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
)

var rootCmd = &cobra.Command{
	Use:   "productfarm",
	Short: "ProductFarm rule evaluation engine",
	Long:  `ProductFarm evaluates JSON-Logic attribute rules over product definitions, with dependency-ordered parallel execution.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig applies the flag > environment > file precedence.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("--db-url or PF_DATABASE_URL required")
	}
	return store.Open(cfg.DatabaseURL)
}

func newEngine(cfg *config.Config) (*engine.Engine, error) {
	return engine.New(op.Default(), engine.Config{
		PromotionThreshold: cfg.PromotionThreshold,
		RuleCacheSize:      cfg.RuleCacheSize,
		PlanCacheSize:      cfg.PlanCacheSize,
		Workers:            cfg.Workers,
		BatchWorkers:       cfg.BatchWorkers,
	})
}

// loadProduct opens the store and fetches one product definition.
func loadProduct(cfg *config.Config, rawID string) (*types.Product, func(), error) {
	productID, err := types.ParseProductID(rawID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid product id %q: %w", rawID, err)
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.New(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	p, err := s.LoadProduct(productID)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}
	return p, func() { db.Close() }, nil
}

// readInputs decodes a JSON object file into attribute values, keeping
// integers and decimals distinct.
func readInputs(path string) (map[string]types.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	v, err := types.ParseJSONValue(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("input file must contain a JSON object")
	}
	return obj, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
