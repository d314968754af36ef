// Package observability provides a metrics extension for the benefits engine
// that records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/benefits/onboarding"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/plugin"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/wallet"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                   = (*MetricsExtension)(nil)
	_ plugin.OnPlanCreated            = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated    = (*MetricsExtension)(nil)
	_ plugin.OnStepCompleted          = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionActivated  = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionTerminated = (*MetricsExtension)(nil)
	_ plugin.OnWalletCredited         = (*MetricsExtension)(nil)
	_ plugin.OnWalletDebited          = (*MetricsExtension)(nil)
	_ plugin.OnBillingCycleCompleted  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a benefits plugin to track enrollment and billing.
type MetricsExtension struct {
	factory MetricFactory

	// Plan metrics
	PlanCreated Counter

	// Subscription metrics
	SubscriptionCreated    Counter
	StepCompleted          Counter
	SubscriptionActivated  Counter
	SubscriptionTerminated Counter

	// Wallet metrics
	WalletCredited     Counter
	WalletDebited      Counter
	WalletOverdrawn    Counter
	CreditAmount       Histogram
	DebitAmount        Histogram
	OverdrawnShortfall Histogram

	// Billing metrics
	BillingCycles         Counter
	BillingDue            Counter
	BillingAlreadyBilled  Counter
	BillingFailures       Counter
	BillingCycleLatency   Histogram
	BillingCycleBatchSize Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewOTelFactory elsewhere.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		PlanCreated: factory.Counter("benefits.plan.created"),

		SubscriptionCreated:    factory.Counter("benefits.subscription.created"),
		StepCompleted:          factory.Counter("benefits.subscription.step_completed"),
		SubscriptionActivated:  factory.Counter("benefits.subscription.activated"),
		SubscriptionTerminated: factory.Counter("benefits.subscription.terminated"),

		WalletCredited:     factory.Counter("benefits.wallet.credited"),
		WalletDebited:      factory.Counter("benefits.wallet.debited"),
		WalletOverdrawn:    factory.Counter("benefits.wallet.overdrawn"),
		CreditAmount:       factory.Histogram("benefits.wallet.credit.amount_minor"),
		DebitAmount:        factory.Histogram("benefits.wallet.debit.amount_minor"),
		OverdrawnShortfall: factory.Histogram("benefits.wallet.overdrawn.shortfall_minor"),

		BillingCycles:         factory.Counter("benefits.billing.cycles"),
		BillingDue:            factory.Counter("benefits.billing.due"),
		BillingAlreadyBilled:  factory.Counter("benefits.billing.already_billed"),
		BillingFailures:       factory.Counter("benefits.billing.failures"),
		BillingCycleLatency:   factory.Histogram("benefits.billing.cycle.latency_ms"),
		BillingCycleBatchSize: factory.Histogram("benefits.billing.cycle.due"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ──────────────────────────────────────────────────
// Plan hooks
// ──────────────────────────────────────────────────

// OnPlanCreated implements plugin.OnPlanCreated.
func (m *MetricsExtension) OnPlanCreated(_ context.Context, _ *plan.Plan) error {
	m.PlanCreated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnStepCompleted implements plugin.OnStepCompleted.
func (m *MetricsExtension) OnStepCompleted(_ context.Context, _ *subscription.Subscription, _ onboarding.StepResult) error {
	m.StepCompleted.Inc()
	return nil
}

// OnSubscriptionActivated implements plugin.OnSubscriptionActivated.
func (m *MetricsExtension) OnSubscriptionActivated(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionActivated.Inc()
	return nil
}

// OnSubscriptionTerminated implements plugin.OnSubscriptionTerminated.
func (m *MetricsExtension) OnSubscriptionTerminated(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionTerminated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Wallet hooks
// ──────────────────────────────────────────────────

// OnWalletCredited implements plugin.OnWalletCredited.
func (m *MetricsExtension) OnWalletCredited(_ context.Context, _ *wallet.Wallet, tx *wallet.Transaction) error {
	m.WalletCredited.Inc()
	m.CreditAmount.Observe(float64(tx.Amount.Amount))
	return nil
}

// OnWalletDebited implements plugin.OnWalletDebited.
func (m *MetricsExtension) OnWalletDebited(_ context.Context, _ *wallet.Wallet, tx *wallet.Transaction) error {
	m.WalletDebited.Inc()
	m.DebitAmount.Observe(float64(tx.Amount.Amount))
	if !tx.Sufficient {
		m.WalletOverdrawn.Inc()
		if tx.BalanceAfter.IsNegative() {
			m.OverdrawnShortfall.Observe(float64(-tx.BalanceAfter.Amount))
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnBillingCycleCompleted implements plugin.OnBillingCycleCompleted.
func (m *MetricsExtension) OnBillingCycleCompleted(_ context.Context, summary plugin.BillingCycleSummary) error {
	m.BillingCycles.Inc()
	m.BillingDue.Add(float64(summary.Due))
	m.BillingAlreadyBilled.Add(float64(summary.AlreadyBilled))
	m.BillingFailures.Add(float64(summary.Failed))
	m.BillingCycleBatchSize.Observe(float64(summary.Due))
	m.BillingCycleLatency.Observe(float64(summary.Elapsed.Milliseconds()))
	return nil
}
