package benefits

import (
	"errors"
	"fmt"

	"github.com/xraph/benefits/onboarding"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
	"github.com/xraph/benefits/wallet"
)

// Sentinel errors for common failure scenarios.
var (
	// Validation errors. Surfaced to the caller; never retried.
	ErrInvalidRole              = types.ErrInvalidRole
	ErrInvalidPlanConfiguration = plan.ErrInvalidConfiguration
	ErrInvalidItems             = subscription.ErrInvalidItems
	ErrCurrencyMismatch         = types.ErrCurrencyMismatch
	ErrInvalidAmount            = wallet.ErrInvalidAmount
	ErrInvalidInput             = errors.New("benefits: invalid input")

	// Workflow errors. Out-of-order and duplicate events are expected traffic.
	ErrInvalidTransition     = subscription.ErrInvalidTransition
	ErrAlreadyCompleted      = subscription.ErrAlreadyCompleted
	ErrSubscriptionNotActive = errors.New("benefits: subscription not active")
	ErrPlanInUse             = errors.New("benefits: plan is in use by active subscriptions")
	ErrPlanArchived          = errors.New("benefits: plan is archived")

	// Reference errors. Each not-found error matches ErrInsufficientReference.
	ErrInsufficientReference = errors.New("benefits: insufficient reference")
	ErrPlanNotFound          = fmt.Errorf("%w: plan not found", ErrInsufficientReference)
	ErrEmployeeNotFound      = fmt.Errorf("%w: employee not found", ErrInsufficientReference)
	ErrPersonNotFound        = fmt.Errorf("%w: person not found", ErrInsufficientReference)
	ErrSubscriptionNotFound  = fmt.Errorf("%w: subscription not found", ErrInsufficientReference)
	ErrWalletNotFound        = fmt.Errorf("%w: wallet not found", ErrInsufficientReference)
	ErrTransactionNotFound   = errors.New("benefits: transaction not found")

	// Collaborator errors. Retried by the caller.
	ErrCollaboratorUnavailable = onboarding.ErrCollaboratorUnavailable
	ErrNoDocumentIntake        = fmt.Errorf("%w: no document intake configured", ErrCollaboratorUnavailable)
	ErrNoIdentityVerifier      = fmt.Errorf("%w: no identity verifier configured", ErrCollaboratorUnavailable)

	// Store errors
	ErrAlreadyExists    = errors.New("benefits: already exists")
	ErrConcurrentUpdate = errors.New("benefits: concurrent update")
	ErrStoreNotReady    = errors.New("benefits: store not ready")
	ErrStoreClosed      = errors.New("benefits: store is closed")
	ErrMigrationFailed  = errors.New("benefits: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("benefits: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets ValidationError match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "benefits: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("benefits: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound reports whether err names an unknown record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInsufficientReference) || errors.Is(err, ErrTransactionNotFound)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrInvalidPlanConfiguration) ||
		errors.Is(err, ErrInvalidItems) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientReference) ||
		errors.Is(err, ErrPlanArchived)
}

// IsWorkflowError reports whether err is an out-of-order or stale event.
func IsWorkflowError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadyCompleted) ||
		errors.Is(err, ErrSubscriptionNotActive)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCollaboratorUnavailable) ||
		errors.Is(err, ErrConcurrentUpdate) ||
		errors.Is(err, ErrStoreNotReady)
}
