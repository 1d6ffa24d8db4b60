package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when live monitoring is requested without
// a credential configured.
var ErrMissingAPIKey = errors.New("api key required: set api_key in config or the BURNDOWN_API_KEY environment variable")

// Plan selects a monthly token limit tier.
type Plan string

const (
	PlanTier1  Plan = "tier1"
	PlanTier2  Plan = "tier2"
	PlanTier3  Plan = "tier3"
	PlanTier4  Plan = "tier4"
	PlanTier5  Plan = "tier5"
	PlanCustom Plan = "custom"
)

// tierLimits maps plan tiers to approximate monthly token limits.
var tierLimits = map[Plan]int64{
	PlanTier1: 100_000,
	PlanTier2: 500_000,
	PlanTier3: 1_000_000,
	PlanTier4: 5_000_000,
	PlanTier5: 50_000_000,
}

// MonitorConfig controls the periodic driver loop.
type MonitorConfig struct {
	Interval      time.Duration `yaml:"interval"`
	RollupSpec    string        `yaml:"rollup_spec"`
	MetricsListen string        `yaml:"metrics_listen"`
}

// BudgetConfig holds the configured alert thresholds and monthly dollar
// budget applied when a budget row is written.
type BudgetConfig struct {
	MonthlyLimit    float64   `yaml:"monthly_limit"`
	AlertThresholds []float64 `yaml:"alert_thresholds"`
}

// Config holds all burndown configuration. Components receive the
// values they need at construction; nothing reads this globally.
type Config struct {
	DBPath      string        `yaml:"db_path"`
	APIKey      string        `yaml:"api_key"`
	APIBaseURL  string        `yaml:"api_base_url"`
	Plan        Plan          `yaml:"plan"`
	CustomLimit int64         `yaml:"custom_limit"`
	Timezone    string        `yaml:"timezone"`
	LogEnv      string        `yaml:"log_env"`
	LogLevel    string        `yaml:"log_level"`
	Monitor     MonitorConfig `yaml:"monitor"`
	Budget      BudgetConfig  `yaml:"budget"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		DBPath:     "burndown.db",
		APIBaseURL: "https://api.openai.com/v1",
		Plan:       PlanTier1,
		Timezone:   "UTC",
		LogEnv:     "dev",
		Monitor: MonitorConfig{
			Interval:   3 * time.Second,
			RollupSpec: "*/10 * * * *",
		},
		Budget: BudgetConfig{
			AlertThresholds: []float64{0.5, 0.75, 0.9},
		},
	}
}

// Load reads a YAML config file and expands environment variables.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("BURNDOWN_API_KEY")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// TokenLimit resolves the monthly token limit for the configured plan.
// An unknown plan falls back to tier1.
func (c *Config) TokenLimit() int64 {
	if c.Plan == PlanCustom && c.CustomLimit > 0 {
		return c.CustomLimit
	}
	if limit, ok := tierLimits[c.Plan]; ok {
		return limit
	}
	return tierLimits[PlanTier1]
}

// Validate checks that live monitoring can start.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
