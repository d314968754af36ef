// Package cost apportions a plan's monthly cost between employer and
// employee for a set of covered members.
//
// Compute is a pure function of its inputs. For every item the employer
// share is the base cost times the employer percentage, rounded half-up to
// the minor unit, and the employee share is the remainder, so the two always
// add up to the base cost.
package cost

import (
	"fmt"

	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
)

// Line is the cost of covering a single member.
type Line struct {
	Item     subscription.Item `json:"item"`
	Total    types.Money       `json:"total"`
	Employer types.Money       `json:"employer"`
	Employee types.Money       `json:"employee"`
}

// Breakdown is the monthly cost of a subscription.
type Breakdown struct {
	Total    types.Money `json:"total"`
	Employer types.Money `json:"employer"`
	Employee types.Money `json:"employee"`
	Lines    []Line      `json:"lines"`
}

// Compute returns the monthly cost of covering items under p.
func Compute(p *plan.Plan, items []subscription.Item) (*Breakdown, error) {
	b := &Breakdown{
		Total:    types.Zero(p.Currency),
		Employer: types.Zero(p.Currency),
		Employee: types.Zero(p.Currency),
		Lines:    make([]Line, 0, len(items)),
	}

	for _, it := range items {
		rate, err := p.RateFor(it.Role)
		if err != nil {
			return nil, err
		}
		if err := rate.Validate(p.Currency); err != nil {
			return nil, fmt.Errorf("plan %s %s rate: %w", p.ID, it.Role, err)
		}

		employer := rate.MonthlyCost.Percent(rate.EmployerPercent)
		line := Line{
			Item:     it,
			Total:    rate.MonthlyCost,
			Employer: employer,
			Employee: rate.MonthlyCost.Subtract(employer),
		}
		b.Lines = append(b.Lines, line)
		b.Total = b.Total.Add(line.Total)
		b.Employer = b.Employer.Add(line.Employer)
		b.Employee = b.Employee.Add(line.Employee)
	}
	return b, nil
}

// ForSubscription computes the cost of s under p.
func ForSubscription(p *plan.Plan, s *subscription.Subscription) (*Breakdown, error) {
	if s.PlanID.String() != p.ID.String() {
		return nil, fmt.Errorf("%w: subscription %s is on plan %s, not %s",
			plan.ErrInvalidConfiguration, s.ID, s.PlanID, p.ID)
	}
	return Compute(p, s.Items)
}
