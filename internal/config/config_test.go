package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.PromotionThreshold != DefaultPromotionThreshold {
		t.Errorf("PromotionThreshold = %d, want %d", cfg.PromotionThreshold, DefaultPromotionThreshold)
	}
	if cfg.RuleCacheSize != DefaultRuleCacheSize {
		t.Errorf("RuleCacheSize = %d, want %d", cfg.RuleCacheSize, DefaultRuleCacheSize)
	}
	if cfg.PlanCacheSize != DefaultPlanCacheSize {
		t.Errorf("PlanCacheSize = %d, want %d", cfg.PlanCacheSize, DefaultPlanCacheSize)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PF_ENGINE_WORKERS", "4")
	os.Setenv("PF_DATABASE_URL", "sqlite://test.db")
	defer os.Unsetenv("PF_ENGINE_WORKERS")
	defer os.Unsetenv("PF_DATABASE_URL")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4 (from environment)", cfg.Workers)
	}
	if cfg.DatabaseURL != "sqlite://test.db" {
		t.Errorf("DatabaseURL = %q, want sqlite://test.db", cfg.DatabaseURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "engine:\n  promotion_threshold: 10\n  rule_cache_size: 32\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v, want nil", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.PromotionThreshold != 10 {
		t.Errorf("PromotionThreshold = %d, want 10 (from file)", cfg.PromotionThreshold)
	}
	if cfg.RuleCacheSize != 32 {
		t.Errorf("RuleCacheSize = %d, want 32 (from file)", cfg.RuleCacheSize)
	}
	// Unset keys keep defaults.
	if cfg.PlanCacheSize != DefaultPlanCacheSize {
		t.Errorf("PlanCacheSize = %d, want default %d", cfg.PlanCacheSize, DefaultPlanCacheSize)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	os.Setenv("PF_ENGINE_RULE_CACHE_SIZE", "-1")
	defer os.Unsetenv("PF_ENGINE_RULE_CACHE_SIZE")

	if _, err := Load(""); err == nil {
		t.Error("Load() error = nil, want validation failure")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load(absent) error = nil, want read failure")
	}
}
