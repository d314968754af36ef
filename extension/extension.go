// Package extension provides the Forge extension adapter for benefits.
//
// It implements the forge.Extension interface to integrate the benefits
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.benefits" or
// "benefits" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/benefits"
	"github.com/xraph/benefits/store"
	"github.com/xraph/benefits/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "benefits"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Employee benefits enrollment and wallet billing engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the benefits engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *benefits.Engine
	store      store.Store
	engineOpts []benefits.Option
}

// New creates a new benefits Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *benefits.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = benefits.New(e.store, e.buildEngineOpts()...)

	return vessel.Provide(fapp.Container(), func() (*benefits.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("benefits: extension not initialized")
	}
	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("benefits: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs benefits.Option values from the resolved
// config. Pass-through options come last so they win.
func (e *Extension) buildEngineOpts() []benefits.Option {
	opts := make([]benefits.Option, 0, len(e.engineOpts)+4)

	if e.config.BillingInterval > 0 {
		opts = append(opts, benefits.WithBillingSchedule(e.config.BillingInterval))
	}
	if e.config.BillingConcurrency > 0 {
		opts = append(opts, benefits.WithBillingConcurrency(e.config.BillingConcurrency))
	}
	if e.config.DefaultCurrency != "" {
		opts = append(opts, benefits.WithDefaultCurrency(e.config.DefaultCurrency))
	}
	if e.config.DisableMigrate {
		opts = append(opts, benefits.WithoutMigrate())
	}

	return append(opts, e.engineOpts...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("benefits: configuration is required but not found in config files; " +
				"ensure 'extensions.benefits' or 'benefits' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	if err := e.config.Validate(); err != nil {
		return errors.Join(errors.New("benefits: invalid configuration"), err)
	}

	e.Logger().Debug("benefits: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("billing_interval", e.config.BillingInterval),
		forge.F("billing_concurrency", e.config.BillingConcurrency),
		forge.F("default_currency", e.config.DefaultCurrency),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.benefits", "benefits"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("benefits: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("benefits: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BillingInterval == 0 {
		cfg.BillingInterval = defaults.BillingInterval
	}
	if cfg.BillingConcurrency == 0 {
		cfg.BillingConcurrency = defaults.BillingConcurrency
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = defaults.DefaultCurrency
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.DefaultCurrency == "" && programmaticConfig.DefaultCurrency != "" {
		yamlConfig.DefaultCurrency = programmaticConfig.DefaultCurrency
	}
	if yamlConfig.BillingInterval == 0 && programmaticConfig.BillingInterval != 0 {
		yamlConfig.BillingInterval = programmaticConfig.BillingInterval
	}
	if yamlConfig.BillingConcurrency == 0 && programmaticConfig.BillingConcurrency != 0 {
		yamlConfig.BillingConcurrency = programmaticConfig.BillingConcurrency
	}

	return mergeWithDefaults(yamlConfig)
}
