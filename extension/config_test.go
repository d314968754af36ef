package extension

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "benefits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.BillingInterval)
	assert.Equal(t, 8, cfg.BillingConcurrency)
	assert.Equal(t, "usd", cfg.DefaultCurrency)
	assert.False(t, cfg.DisableMigrate)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, "billing_concurrency: 4\ndefault_currency: gbp\ndisable_migrate: true\n")
	t.Setenv("BENEFITS_DEFAULT_CURRENCY", "eur")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.BillingConcurrency)
	assert.Equal(t, "eur", cfg.DefaultCurrency, "env wins over the file")
	assert.True(t, cfg.DisableMigrate)
	assert.Equal(t, time.Hour, cfg.BillingInterval)
}

func TestLoadConfigMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("BENEFITS_BILLING_CONCURRENCY", "3")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.BillingConcurrency)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "default_currency: dollars\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestMergeConfigurations(t *testing.T) {
	yamlCfg := Config{BillingConcurrency: 2}
	programmatic := Config{
		DisableMigrate:     true,
		BillingConcurrency: 16,
		DefaultCurrency:    "eur",
	}

	got := mergeConfigurations(yamlCfg, programmatic)

	assert.Equal(t, 2, got.BillingConcurrency, "file value kept")
	assert.Equal(t, "eur", got.DefaultCurrency, "programmatic fills the gap")
	assert.True(t, got.DisableMigrate)
	assert.Equal(t, time.Hour, got.BillingInterval, "default fills the rest")
}

func TestBuildEngineOpts(t *testing.T) {
	e := New(WithBillingInterval(time.Minute), WithDisableMigrate())
	e.config = mergeWithDefaults(e.config)

	// schedule, concurrency, currency, migrate
	assert.Len(t, e.buildEngineOpts(), 4)
}
