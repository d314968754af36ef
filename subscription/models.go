// Package subscription defines healthcare subscriptions and the lifecycle
// state machine that moves them through onboarding.
package subscription

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/types"
)

// ErrInvalidItems is returned for an item set that breaks the coverage rules.
var ErrInvalidItems = errors.New("benefits: invalid subscription items")

type Status string

const (
	StatusDemographicVerificationPending Status = "demographic_verification_pending"
	StatusDocumentUploadPending          Status = "document_upload_pending"
	StatusPlanActivationPending          Status = "plan_activation_pending"
	StatusActive                         Status = "active"
	StatusTerminated                     Status = "terminated"
)

// Pending reports whether the subscription is still onboarding.
func (s Status) Pending() bool {
	switch s {
	case StatusDemographicVerificationPending, StatusDocumentUploadPending, StatusPlanActivationPending:
		return true
	}
	return false
}

// Type is derived from the item set and never set independently.
type Type string

const (
	TypeIndividual Type = "individual"
	TypeFamily     Type = "family"
)

// Item is one covered member.
type Item struct {
	Role     types.Role  `json:"role"`
	PersonID id.PersonID `json:"person_id"`
}

type StepType string

const (
	StepDemographicVerification StepType = "demographic_verification"
	StepDocumentUpload          StepType = "document_upload"
	StepPlanActivation          StepType = "plan_activation"
)

// Steps lists the onboarding steps in workflow order.
var Steps = []StepType{StepDemographicVerification, StepDocumentUpload, StepPlanActivation}

// Valid reports whether t is a known step.
func (t StepType) Valid() bool { return slices.Contains(Steps, t) }

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
)

// StepRecord tracks one onboarding step independently of the overall status.
type StepRecord struct {
	Type        StepType   `json:"type"`
	Status      StepStatus `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Completed reports whether the step has been completed.
func (r StepRecord) Completed() bool { return r.Status == StepCompleted }

type Subscription struct {
	types.Entity
	ID         id.SubscriptionID `json:"id"`
	CompanyID  string            `json:"company_id"`
	EmployeeID id.EmployeeID     `json:"employee_id"`
	PlanID     id.PlanID         `json:"plan_id"`
	Type       Type              `json:"type"`
	Items      []Item            `json:"items"`
	Status     Status            `json:"status"`
	Steps      []StepRecord      `json:"steps"`
	StartDate  time.Time         `json:"start_date"`
	EndDate    *time.Time        `json:"end_date,omitempty"`
	// BillingAnchor is the day of month (1-31) debits fall on, clamped to
	// the length of the billed month.
	BillingAnchor int               `json:"billing_anchor"`
	Version       int64             `json:"version"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// DeriveType returns individual iff items is exactly {employee}.
func DeriveType(items []Item) Type {
	if len(items) == 1 && items[0].Role == types.RoleEmployee {
		return TypeIndividual
	}
	return TypeFamily
}

// ValidateItems checks the coverage rules: exactly one employee, at most one
// spouse, any number of children, each person covered once.
func ValidateItems(items []Item) error {
	var employees, spouses int
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		switch it.Role {
		case types.RoleEmployee:
			employees++
		case types.RoleSpouse:
			spouses++
		case types.RoleChild:
		default:
			return fmt.Errorf("%w: %q", types.ErrInvalidRole, it.Role)
		}
		if it.PersonID.IsNil() {
			return fmt.Errorf("%w: %s item without person", ErrInvalidItems, it.Role)
		}
		key := it.PersonID.String()
		if seen[key] {
			return fmt.Errorf("%w: person %s covered twice", ErrInvalidItems, key)
		}
		seen[key] = true
	}
	if employees != 1 {
		return fmt.Errorf("%w: want exactly one employee item, got %d", ErrInvalidItems, employees)
	}
	if spouses > 1 {
		return fmt.Errorf("%w: want at most one spouse item, got %d", ErrInvalidItems, spouses)
	}
	return nil
}

// Validate checks items, the declared type against the derived type, and the
// billing anchor.
func (s *Subscription) Validate() error {
	if err := ValidateItems(s.Items); err != nil {
		return err
	}
	if derived := DeriveType(s.Items); s.Type != derived {
		return fmt.Errorf("%w: declared type %q, items make it %q", ErrInvalidItems, s.Type, derived)
	}
	if s.BillingAnchor < 1 || s.BillingAnchor > 31 {
		return fmt.Errorf("%w: billing anchor %d outside 1-31", ErrInvalidItems, s.BillingAnchor)
	}
	return nil
}

// Step returns the record for t, or nil when the subscription has none.
func (s *Subscription) Step(t StepType) *StepRecord {
	for i := range s.Steps {
		if s.Steps[i].Type == t {
			return &s.Steps[i]
		}
	}
	return nil
}

// DueOn reports whether date is the subscription's billing day in its month.
func (s *Subscription) DueOn(date time.Time) bool {
	return date.Day() == BillingDay(s.BillingAnchor, date.Year(), date.Month())
}

// BillingDay clamps anchor to the number of days in the month.
func BillingDay(anchor, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return min(anchor, last)
}

// Clone returns a deep copy safe to mutate.
func (s *Subscription) Clone() *Subscription {
	c := *s
	c.Items = slices.Clone(s.Items)
	c.Steps = slices.Clone(s.Steps)
	c.Metadata = maps.Clone(s.Metadata)
	return &c
}
