package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions restricts auditing to actions. Without it every
// action in AllActions is audited.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, action := range actions {
			e.enabled[action] = true
		}
	}
}

// WithDisabledActions skips actions. It applies on top of WithEnabledActions.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.disabled == nil {
			e.disabled = make(map[string]bool, len(actions))
		}
		for _, action := range actions {
			e.disabled[action] = true
		}
	}
}

// WithMinSeverity drops events below severity, e.g. SeverityWarning keeps
// overdrafts, terminations and failed billing cycles only.
func WithMinSeverity(severity string) Option {
	return func(e *Extension) { e.minSeverity = severityRank[severity] }
}

var severityRank = map[string]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

// AllActions returns every action the extension can emit.
func AllActions() []string {
	return []string{
		ActionPlanCreated,
		ActionSubscriptionCreated,
		ActionStepCompleted,
		ActionSubscriptionActivated,
		ActionSubscriptionTerminated,
		ActionWalletCredited,
		ActionWalletDebited,
		ActionWalletOverdrawn,
		ActionBillingCycleRun,
		ActionBillingCycleError,
	}
}
