package benefits

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/xraph/benefits/onboarding"
	"github.com/xraph/benefits/plugin"
	"github.com/xraph/benefits/store"
)

// Engine administers benefit plans, subscriptions and wallets on top of a
// store.Store.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	documents onboarding.DocumentIntake
	verifier  onboarding.IdentityVerifier

	// Background billing
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Configuration
	billingConcurrency int
	billingInterval    time.Duration
	defaultCurrency    string
	skipMigrate        bool
}

// New creates a new Engine.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		clock:              time.Now,
		stopChan:           make(chan struct{}),
		billingConcurrency: 8,
		defaultCurrency:    "usd",
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithDocumentIntake sets the collaborator reporting uploaded documents.
func WithDocumentIntake(d onboarding.DocumentIntake) Option {
	return func(e *Engine) { e.documents = d }
}

// WithIdentityVerifier sets the collaborator verifying demographics.
func WithIdentityVerifier(v onboarding.IdentityVerifier) Option {
	return func(e *Engine) { e.verifier = v }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithBillingConcurrency bounds the subscriptions debited in parallel by a
// billing cycle.
func WithBillingConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.billingConcurrency = n
		}
	}
}

// WithBillingSchedule starts a background worker on Start that checks every
// interval and runs the billing cycle once per calendar day. Zero disables it.
func WithBillingSchedule(interval time.Duration) Option {
	return func(e *Engine) { e.billingInterval = interval }
}

// WithDefaultCurrency sets the currency of new wallets and statistics.
func WithDefaultCurrency(currency string) Option {
	return func(e *Engine) {
		if currency != "" {
			e.defaultCurrency = strings.ToLower(currency)
		}
	}
}

// WithoutMigrate makes Start skip store migration, for hosts that manage the
// schema themselves.
func WithoutMigrate() Option {
	return func(e *Engine) { e.skipMigrate = true }
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start migrates the store, initializes plugins and starts the billing
// worker when scheduled.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	e.plugins.EmitInit(ctx, e)

	if e.billingInterval > 0 {
		e.wg.Add(1)
		go e.billingWorker(context.WithoutCancel(ctx))
	}

	e.logger.Info("benefits engine started",
		"billing_interval", e.billingInterval,
		"billing_concurrency", e.billingConcurrency,
		"default_currency", e.defaultCurrency,
		"plugins", e.plugins.Count(),
	)

	return nil
}

// Stop shuts down the engine and closes the store.
func (e *Engine) Stop() error {
	e.stopOnce.Do(func() { close(e.stopChan) })
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// billingWorker runs the billing cycle the first time it ticks on each day.
func (e *Engine) billingWorker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.billingInterval)
	defer ticker.Stop()

	var lastRun string
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			today := e.now().Format(time.DateOnly)
			if today == lastRun {
				continue
			}
			_, err := e.RunBillingCycle(ctx, e.now())
			var partial MultiError
			switch {
			case err == nil:
			case errors.As(err, &partial):
				e.logger.Error("scheduled billing cycle had failures", "date", today, "failed", len(partial.Errors))
			default:
				// Retried on the next tick.
				e.logger.Error("scheduled billing cycle failed", "date", today, "error", err)
				continue
			}
			lastRun = today
		}
	}
}

func (e *Engine) now() time.Time { return e.clock().UTC() }
