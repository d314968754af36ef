// Package plugin provides an extensible plugin system for the benefits engine.
// Plugins hook into lifecycle events by implementing any of the hook
// interfaces below; the Registry discovers them at registration time.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/benefits/onboarding"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/wallet"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *benefits.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Plan hooks
// ──────────────────────────────────────────────────

// OnPlanCreated is called when a new plan is created.
type OnPlanCreated interface {
	Plugin
	OnPlanCreated(ctx context.Context, p *plan.Plan) error
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated is called when a subscription is created in its
// initial state.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error
}

// OnStepCompleted is called when an onboarding step advances a subscription.
// Redelivered completions do not fire it.
type OnStepCompleted interface {
	Plugin
	OnStepCompleted(ctx context.Context, sub *subscription.Subscription, result onboarding.StepResult) error
}

// OnSubscriptionActivated is called when a subscription becomes active.
type OnSubscriptionActivated interface {
	Plugin
	OnSubscriptionActivated(ctx context.Context, sub *subscription.Subscription) error
}

// OnSubscriptionTerminated is called when a subscription is terminated.
type OnSubscriptionTerminated interface {
	Plugin
	OnSubscriptionTerminated(ctx context.Context, sub *subscription.Subscription) error
}

// ──────────────────────────────────────────────────
// Wallet hooks
// ──────────────────────────────────────────────────

// OnWalletDebited is called after a subscription debit is recorded.
type OnWalletDebited interface {
	Plugin
	OnWalletDebited(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) error
}

// OnWalletCredited is called after a wallet is credited.
type OnWalletCredited interface {
	Plugin
	OnWalletCredited(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) error
}

// BillingCycleSummary describes one run of the billing cycle.
type BillingCycleSummary struct {
	Date          time.Time
	Due           int
	Debited       int
	AlreadyBilled int
	Insufficient  int
	Failed        int
	Elapsed       time.Duration
}

// OnBillingCycleCompleted is called when a billing cycle run finishes,
// including runs with per-subscription failures.
type OnBillingCycleCompleted interface {
	Plugin
	OnBillingCycleCompleted(ctx context.Context, summary BillingCycleSummary) error
}
