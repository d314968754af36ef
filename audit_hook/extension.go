// Package audithook bridges benefits lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/benefits/onboarding"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/plugin"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/wallet"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                   = (*Extension)(nil)
	_ plugin.OnPlanCreated            = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated    = (*Extension)(nil)
	_ plugin.OnStepCompleted          = (*Extension)(nil)
	_ plugin.OnSubscriptionActivated  = (*Extension)(nil)
	_ plugin.OnSubscriptionTerminated = (*Extension)(nil)
	_ plugin.OnWalletCredited         = (*Extension)(nil)
	_ plugin.OnWalletDebited          = (*Extension)(nil)
	_ plugin.OnBillingCycleCompleted  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges benefits lifecycle events to an audit trail backend.
type Extension struct {
	recorder    Recorder
	enabled     map[string]bool // nil = all enabled
	disabled    map[string]bool
	minSeverity int
	logger      *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Plan hooks
// ──────────────────────────────────────────────────

// OnPlanCreated implements plugin.OnPlanCreated.
func (e *Extension) OnPlanCreated(ctx context.Context, p *plan.Plan) error {
	return e.record(ctx, ActionPlanCreated, SeverityInfo, OutcomeSuccess,
		ResourcePlan, p.ID.String(), CategoryPlan, nil,
		"company_id", p.CompanyID,
		"name", p.Name,
		"currency", p.Currency,
	)
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategoryEnrollment, nil,
		"company_id", sub.CompanyID,
		"employee_id", sub.EmployeeID.String(),
		"plan_id", sub.PlanID.String(),
		"type", string(sub.Type),
		"status", string(sub.Status),
		"members", len(sub.Items),
	)
}

// OnStepCompleted implements plugin.OnStepCompleted.
func (e *Extension) OnStepCompleted(ctx context.Context, sub *subscription.Subscription, result onboarding.StepResult) error {
	return e.record(ctx, ActionStepCompleted, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategoryEnrollment, nil,
		"step", string(result.Step),
		"from", string(result.From),
		"to", string(result.To),
	)
}

// OnSubscriptionActivated implements plugin.OnSubscriptionActivated.
func (e *Extension) OnSubscriptionActivated(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionActivated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategoryEnrollment, nil,
		"employee_id", sub.EmployeeID.String(),
		"plan_id", sub.PlanID.String(),
	)
}

// OnSubscriptionTerminated implements plugin.OnSubscriptionTerminated.
func (e *Extension) OnSubscriptionTerminated(ctx context.Context, sub *subscription.Subscription) error {
	kv := []any{
		"employee_id", sub.EmployeeID.String(),
		"plan_id", sub.PlanID.String(),
	}
	if sub.EndDate != nil {
		kv = append(kv, "end_date", sub.EndDate.UTC())
	}
	return e.record(ctx, ActionSubscriptionTerminated, SeverityWarning, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategoryEnrollment, nil,
		kv...,
	)
}

// ──────────────────────────────────────────────────
// Wallet hooks
// ──────────────────────────────────────────────────

// OnWalletCredited implements plugin.OnWalletCredited.
func (e *Extension) OnWalletCredited(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) error {
	return e.record(ctx, ActionWalletCredited, SeverityInfo, OutcomeSuccess,
		ResourceWallet, w.ID.String(), CategoryPayment, nil,
		"employee_id", w.EmployeeID.String(),
		"transaction_id", tx.ID.String(),
		"amount", tx.Amount.String(),
		"balance", tx.BalanceAfter.String(),
	)
}

// OnWalletDebited implements plugin.OnWalletDebited. A debit that drove the
// balance below zero is recorded as an overdraft.
func (e *Extension) OnWalletDebited(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) error {
	action, severity := ActionWalletDebited, SeverityInfo
	if !tx.Sufficient {
		action, severity = ActionWalletOverdrawn, SeverityWarning
	}
	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceWallet, w.ID.String(), CategoryPayment, nil,
		"employee_id", w.EmployeeID.String(),
		"subscription_id", tx.SubscriptionID.String(),
		"period", tx.Period,
		"transaction_id", tx.ID.String(),
		"amount", tx.Amount.String(),
		"balance", tx.BalanceAfter.String(),
	)
}

// OnBillingCycleCompleted implements plugin.OnBillingCycleCompleted.
func (e *Extension) OnBillingCycleCompleted(ctx context.Context, summary plugin.BillingCycleSummary) error {
	action, severity, outcome := ActionBillingCycleRun, SeverityInfo, OutcomeSuccess
	var err error
	if summary.Failed > 0 {
		action, severity, outcome = ActionBillingCycleError, SeverityError, OutcomePartial
		err = fmt.Errorf("%d of %d subscriptions failed", summary.Failed, summary.Due)
	}
	return e.record(ctx, action, severity, outcome,
		ResourceBillingCycle, summary.Date.Format("2006-01-02"), CategoryBilling, err,
		"due", summary.Due,
		"debited", summary.Debited,
		"already_billed", summary.AlreadyBilled,
		"insufficient", summary.Insufficient,
		"failed", summary.Failed,
		"elapsed_ms", summary.Elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func (e *Extension) wants(action, severity string) bool {
	if e.enabled != nil && !e.enabled[action] {
		return false
	}
	if e.disabled[action] {
		return false
	}
	return severityRank[severity] >= e.minSeverity
}

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged and never surface to the engine.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if !e.wants(action, severity) {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
