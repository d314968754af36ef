package extension

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the benefits extension configuration.
// Fields can be set programmatically via Option functions, loaded from
// Forge configuration (under "extensions.benefits" or "benefits" keys), or
// read by standalone hosts with LoadConfig.
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate" env:"BENEFITS_DISABLE_MIGRATE"`

	// BillingInterval is how often the billing worker checks whether the
	// day's cycle has run (default: 1h). Negative disables the worker.
	BillingInterval time.Duration `json:"billing_interval" mapstructure:"billing_interval" yaml:"billing_interval" env:"BENEFITS_BILLING_INTERVAL" env-default:"1h"`

	// BillingConcurrency bounds the subscriptions debited in parallel
	// (default: 8).
	BillingConcurrency int `json:"billing_concurrency" mapstructure:"billing_concurrency" yaml:"billing_concurrency" env:"BENEFITS_BILLING_CONCURRENCY" env-default:"8"`

	// DefaultCurrency is the currency of new wallets (default: "usd").
	DefaultCurrency string `json:"default_currency" mapstructure:"default_currency" yaml:"default_currency" env:"BENEFITS_DEFAULT_CURRENCY" env-default:"usd"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BillingInterval:    time.Hour,
		BillingConcurrency: 8,
		DefaultCurrency:    "usd",
	}
}

// Validate reports settings the engine cannot run with.
func (c Config) Validate() error {
	if c.BillingConcurrency < 0 {
		return fmt.Errorf("billing_concurrency must not be negative (got %d)", c.BillingConcurrency)
	}
	if c.DefaultCurrency != "" && len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("default_currency must be an ISO 4217 code (got %q)", c.DefaultCurrency)
	}
	return nil
}

// LoadConfig reads configuration for hosts running without Forge.
// Priority: ENV > YAML > defaults (via env-default tags). An empty path, or
// a path that does not exist, loads from ENV and defaults only.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	_, statErr := os.Stat(path)
	switch {
	case path != "" && statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("benefits: read config %s: %w", path, err)
		}
	case path == "" || errors.Is(statErr, os.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("benefits: read config env: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("benefits: config file %s: %w", path, statErr)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("benefits: validate config: %w", err)
	}
	return cfg, nil
}
