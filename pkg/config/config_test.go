package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.DBPath != "burndown.db" {
		t.Errorf("expected default db path, got %s", cfg.DBPath)
	}
	if cfg.Plan != PlanTier1 {
		t.Errorf("expected tier1 default plan, got %s", cfg.Plan)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("expected UTC default timezone, got %s", cfg.Timezone)
	}
	if cfg.Monitor.Interval != 3*time.Second {
		t.Errorf("expected 3s monitor interval, got %v", cfg.Monitor.Interval)
	}
	if len(cfg.Budget.AlertThresholds) != 3 {
		t.Errorf("expected 3 default thresholds, got %v", cfg.Budget.AlertThresholds)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Plan != PlanTier1 {
		t.Errorf("expected defaults for missing file, got plan %s", cfg.Plan)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
db_path: /var/lib/burndown/ledger.db
plan: tier3
timezone: America/New_York
monitor:
  rollup_spec: "*/5 * * * *"
budget:
  monthly_limit: 25.0
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/var/lib/burndown/ledger.db" {
		t.Errorf("db_path not applied: %s", cfg.DBPath)
	}
	if cfg.Plan != PlanTier3 {
		t.Errorf("plan not applied: %s", cfg.Plan)
	}
	if cfg.Monitor.RollupSpec != "*/5 * * * *" {
		t.Errorf("rollup_spec not applied: %s", cfg.Monitor.RollupSpec)
	}
	if cfg.Monitor.Interval != 3*time.Second {
		t.Errorf("expected default interval to survive partial override, got %v", cfg.Monitor.Interval)
	}
	if cfg.Budget.MonthlyLimit != 25.0 {
		t.Errorf("monthly_limit not applied: %v", cfg.Budget.MonthlyLimit)
	}
	// Unset keys keep their defaults.
	if cfg.APIBaseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base URL, got %s", cfg.APIBaseURL)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_BURNDOWN_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "api_key: ${TEST_BURNDOWN_KEY}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-from-env" {
		t.Errorf("expected expanded api key, got %q", cfg.APIKey)
	}
}

func TestEnvFallbackForAPIKey(t *testing.T) {
	t.Setenv("BURNDOWN_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-openai" {
		t.Errorf("expected OPENAI_API_KEY fallback, got %q", cfg.APIKey)
	}

	t.Setenv("BURNDOWN_API_KEY", "sk-burndown")
	cfg, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-burndown" {
		t.Errorf("expected BURNDOWN_API_KEY to win, got %q", cfg.APIKey)
	}
}

func TestTokenLimit(t *testing.T) {
	cases := []struct {
		plan   Plan
		custom int64
		want   int64
	}{
		{PlanTier1, 0, 100_000},
		{PlanTier2, 0, 500_000},
		{PlanTier3, 0, 1_000_000},
		{PlanTier4, 0, 5_000_000},
		{PlanTier5, 0, 50_000_000},
		{PlanCustom, 250_000, 250_000},
		{PlanCustom, 0, 100_000}, // custom without a limit falls back
		{Plan("bogus"), 0, 100_000},
	}
	for _, tc := range cases {
		cfg := Config{Plan: tc.plan, CustomLimit: tc.custom}
		if got := cfg.TokenLimit(); got != tc.want {
			t.Errorf("plan %s custom %d: expected %d, got %d", tc.plan, tc.custom, tc.want, got)
		}
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Setenv("BURNDOWN_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Default()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}

	cfg.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}
