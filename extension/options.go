package extension

import (
	"time"

	"github.com/xraph/benefits"
	"github.com/xraph/benefits/plugin"
	"github.com/xraph/benefits/store"
)

// Option configures the benefits Forge extension.
type Option func(*Extension)

// WithStore sets the store for the benefits engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a benefits.Option through to the underlying engine.
func WithEngineOption(opt benefits.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a benefits plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, benefits.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithBillingInterval sets how often the billing worker checks for the day's cycle.
func WithBillingInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.BillingInterval = d }
}

// WithBillingConcurrency bounds the subscriptions debited in parallel.
func WithBillingConcurrency(n int) Option {
	return func(e *Extension) { e.config.BillingConcurrency = n }
}

// WithDefaultCurrency sets the currency of new wallets.
func WithDefaultCurrency(currency string) Option {
	return func(e *Extension) { e.config.DefaultCurrency = currency }
}
