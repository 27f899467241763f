// Package config loads engine and store configuration with the
// precedence CLI flags > environment > config file > defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the CLI needs to wire a store and an engine.
type Config struct {
	DatabaseURL        string
	PromotionThreshold int
	RuleCacheSize      int
	PlanCacheSize      int
	Workers            int
	BatchWorkers       int
}

// Default values. Workers 0 means one worker per CPU.
const (
	DefaultPromotionThreshold = 100
	DefaultRuleCacheSize      = 1024
	DefaultPlanCacheSize      = 128
)

// Load reads configuration via viper. Environment variables use the PF_
// prefix with underscores (PF_ENGINE_WORKERS, PF_DATABASE_URL).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.url", "")
	v.SetDefault("engine.promotion_threshold", DefaultPromotionThreshold)
	v.SetDefault("engine.rule_cache_size", DefaultRuleCacheSize)
	v.SetDefault("engine.plan_cache_size", DefaultPlanCacheSize)
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.batch_workers", 0)

	v.SetEnvPrefix("PF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:        v.GetString("database.url"),
		PromotionThreshold: v.GetInt("engine.promotion_threshold"),
		RuleCacheSize:      v.GetInt("engine.rule_cache_size"),
		PlanCacheSize:      v.GetInt("engine.plan_cache_size"),
		Workers:            v.GetInt("engine.workers"),
		BatchWorkers:       v.GetInt("engine.batch_workers"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PromotionThreshold < 0 {
		return fmt.Errorf("engine.promotion_threshold must be >= 0, got %d", c.PromotionThreshold)
	}
	if c.RuleCacheSize <= 0 {
		return fmt.Errorf("engine.rule_cache_size must be positive, got %d", c.RuleCacheSize)
	}
	if c.PlanCacheSize <= 0 {
		return fmt.Errorf("engine.plan_cache_size must be positive, got %d", c.PlanCacheSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("engine.workers must be >= 0, got %d", c.Workers)
	}
	if c.BatchWorkers < 0 {
		return fmt.Errorf("engine.batch_workers must be >= 0, got %d", c.BatchWorkers)
	}
	return nil
}
