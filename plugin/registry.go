package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/benefits/onboarding"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/wallet"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and dispatches hooks to them.
// Hook implementations are discovered once, at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                   []OnInit
	onShutdown               []OnShutdown
	onPlanCreated            []OnPlanCreated
	onSubscriptionCreated    []OnSubscriptionCreated
	onStepCompleted          []OnStepCompleted
	onSubscriptionActivated  []OnSubscriptionActivated
	onSubscriptionTerminated []OnSubscriptionTerminated
	onWalletDebited          []OnWalletDebited
	onWalletCredited         []OnWalletCredited
	onBillingCycleCompleted  []OnBillingCycleCompleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPlanCreated); ok {
		r.onPlanCreated = append(r.onPlanCreated, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
	}
	if v, ok := p.(OnStepCompleted); ok {
		r.onStepCompleted = append(r.onStepCompleted, v)
	}
	if v, ok := p.(OnSubscriptionActivated); ok {
		r.onSubscriptionActivated = append(r.onSubscriptionActivated, v)
	}
	if v, ok := p.(OnSubscriptionTerminated); ok {
		r.onSubscriptionTerminated = append(r.onSubscriptionTerminated, v)
	}
	if v, ok := p.(OnWalletDebited); ok {
		r.onWalletDebited = append(r.onWalletDebited, v)
	}
	if v, ok := p.(OnWalletCredited); ok {
		r.onWalletCredited = append(r.onWalletCredited, v)
	}
	if v, ok := p.(OnBillingCycleCompleted); ok {
		r.onBillingCycleCompleted = append(r.onBillingCycleCompleted, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name  string
	iface reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnPlanCreated", reflect.TypeFor[OnPlanCreated]()},
	{"OnSubscriptionCreated", reflect.TypeFor[OnSubscriptionCreated]()},
	{"OnStepCompleted", reflect.TypeFor[OnStepCompleted]()},
	{"OnSubscriptionActivated", reflect.TypeFor[OnSubscriptionActivated]()},
	{"OnSubscriptionTerminated", reflect.TypeFor[OnSubscriptionTerminated]()},
	{"OnWalletDebited", reflect.TypeFor[OnWalletDebited]()},
	{"OnWalletCredited", reflect.TypeFor[OnWalletCredited]()},
	{"OnBillingCycleCompleted", reflect.TypeFor[OnBillingCycleCompleted]()},
}

// implementedInterfaces returns the hook names p implements.
func implementedInterfaces(p Plugin) []string {
	var names []string
	t := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if t.Implements(h.iface) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitPlanCreated emits a plan created event.
func (r *Registry) EmitPlanCreated(ctx context.Context, pl *plan.Plan) {
	r.mu.RLock()
	plugins := r.onPlanCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnPlanCreated", p.Name(), func() error {
			return p.OnPlanCreated(ctx, pl)
		})
	}
}

// EmitSubscriptionCreated emits a subscription created event.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) {
	r.mu.RLock()
	plugins := r.onSubscriptionCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionCreated", p.Name(), func() error {
			return p.OnSubscriptionCreated(ctx, sub)
		})
	}
}

// EmitStepCompleted emits a step completed event.
func (r *Registry) EmitStepCompleted(ctx context.Context, sub *subscription.Subscription, result onboarding.StepResult) {
	r.mu.RLock()
	plugins := r.onStepCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnStepCompleted", p.Name(), func() error {
			return p.OnStepCompleted(ctx, sub, result)
		})
	}
}

// EmitSubscriptionActivated emits a subscription activated event.
func (r *Registry) EmitSubscriptionActivated(ctx context.Context, sub *subscription.Subscription) {
	r.mu.RLock()
	plugins := r.onSubscriptionActivated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionActivated", p.Name(), func() error {
			return p.OnSubscriptionActivated(ctx, sub)
		})
	}
}

// EmitSubscriptionTerminated emits a subscription terminated event.
func (r *Registry) EmitSubscriptionTerminated(ctx context.Context, sub *subscription.Subscription) {
	r.mu.RLock()
	plugins := r.onSubscriptionTerminated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionTerminated", p.Name(), func() error {
			return p.OnSubscriptionTerminated(ctx, sub)
		})
	}
}

// EmitWalletDebited emits a wallet debited event.
func (r *Registry) EmitWalletDebited(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) {
	r.mu.RLock()
	plugins := r.onWalletDebited
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnWalletDebited", p.Name(), func() error {
			return p.OnWalletDebited(ctx, w, tx)
		})
	}
}

// EmitWalletCredited emits a wallet credited event.
func (r *Registry) EmitWalletCredited(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) {
	r.mu.RLock()
	plugins := r.onWalletCredited
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnWalletCredited", p.Name(), func() error {
			return p.OnWalletCredited(ctx, w, tx)
		})
	}
}

// EmitBillingCycleCompleted emits a billing cycle completed event.
func (r *Registry) EmitBillingCycleCompleted(ctx context.Context, summary BillingCycleSummary) {
	r.mu.RLock()
	plugins := r.onBillingCycleCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnBillingCycleCompleted", p.Name(), func() error {
			return p.OnBillingCycleCompleted(ctx, summary)
		})
	}
}

// dispatch runs one hook and logs its failure. Hook errors never reach the
// caller of the engine operation.
func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- fmt.Errorf("plugin panic: %s: %v", pluginName, v)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
