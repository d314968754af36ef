// Package plan defines healthcare plans and their per-role rates.
package plan

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/types"
)

// ErrInvalidConfiguration is returned for a plan whose rates cannot be billed.
var ErrInvalidConfiguration = errors.New("benefits: invalid plan configuration")

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

var hundred = decimal.NewFromInt(100)

// Rate is the monthly cost of covering one member of a role and the share of
// it paid by the employer, as a percentage in [0, 100].
type Rate struct {
	MonthlyCost     types.Money     `json:"monthly_cost"`
	EmployerPercent decimal.Decimal `json:"employer_percent"`
}

// Validate checks that the rate is billable in currency.
func (r Rate) Validate(currency string) error {
	if r.MonthlyCost.Currency != currency {
		return fmt.Errorf("%w: rate currency %q, plan currency %q", ErrInvalidConfiguration, r.MonthlyCost.Currency, currency)
	}
	if r.MonthlyCost.IsNegative() {
		return fmt.Errorf("%w: negative monthly cost %s", ErrInvalidConfiguration, r.MonthlyCost)
	}
	if r.EmployerPercent.IsNegative() || r.EmployerPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: employer percent %s outside [0,100]", ErrInvalidConfiguration, r.EmployerPercent)
	}
	return nil
}

// Plan is a healthcare plan offered by a company. Once an active subscription
// references it, its rates are frozen; changes go into a new plan.
type Plan struct {
	types.Entity
	ID          id.PlanID `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Currency    string    `json:"currency"`
	Status      Status    `json:"status"`

	Employee Rate `json:"employee"`
	Spouse   Rate `json:"spouse"`
	Child    Rate `json:"child"`

	// RequiredDocuments lists the document types an enrollee must upload.
	// An empty list skips the document upload step.
	RequiredDocuments []string          `json:"required_documents,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// RateFor returns the rate charged for covering a member with role.
func (p *Plan) RateFor(role types.Role) (Rate, error) {
	switch role {
	case types.RoleEmployee:
		return p.Employee, nil
	case types.RoleSpouse:
		return p.Spouse, nil
	case types.RoleChild:
		return p.Child, nil
	default:
		return Rate{}, fmt.Errorf("%w: %q", types.ErrInvalidRole, role)
	}
}

// Validate checks every rate of the plan.
func (p *Plan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfiguration)
	}
	if p.CompanyID == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidConfiguration)
	}
	if p.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidConfiguration)
	}
	for _, role := range types.Roles {
		r, _ := p.RateFor(role) //nolint:errcheck // role is from the known set
		if err := r.Validate(p.Currency); err != nil {
			return fmt.Errorf("%s rate: %w", role, err)
		}
	}
	return nil
}

// RequiresDocuments reports whether enrollment needs a document upload step.
func (p *Plan) RequiresDocuments() bool { return len(p.RequiredDocuments) > 0 }

// Clone returns a deep copy safe to mutate.
func (p *Plan) Clone() *Plan {
	c := *p
	c.RequiredDocuments = slices.Clone(p.RequiredDocuments)
	c.Metadata = maps.Clone(p.Metadata)
	return &c
}
