package audithook

// Action constants for audit events.
const (
	// Plan actions
	ActionPlanCreated = "plan.created"

	// Subscription actions
	ActionSubscriptionCreated    = "subscription.created"
	ActionStepCompleted          = "subscription.step_completed"
	ActionSubscriptionActivated  = "subscription.activated"
	ActionSubscriptionTerminated = "subscription.terminated"

	// Wallet actions
	ActionWalletCredited    = "wallet.credited"
	ActionWalletDebited     = "wallet.debited"
	ActionWalletOverdrawn   = "wallet.overdrawn"
	ActionBillingCycleRun   = "billing.cycle_completed"
	ActionBillingCycleError = "billing.cycle_failed"
)

// Resource constants for audit events.
const (
	ResourcePlan         = "plan"
	ResourceSubscription = "subscription"
	ResourceWallet       = "wallet"
	ResourceBillingCycle = "billing_cycle"
)

// Category constants for audit events.
const (
	CategoryPlan       = "plan"
	CategoryEnrollment = "enrollment"
	CategoryPayment    = "payment"
	CategoryBilling    = "billing"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
