// Package spending rolls subscription costs up into company statistics.
package spending

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xraph/benefits/cost"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
)

// Totals is a monthly cost triple.
type Totals struct {
	Total    types.Money `json:"total"`
	Employer types.Money `json:"employer"`
	Employee types.Money `json:"employee"`
}

func zeroTotals(currency string) Totals {
	return Totals{Total: types.Zero(currency), Employer: types.Zero(currency), Employee: types.Zero(currency)}
}

func (t *Totals) add(b *cost.Breakdown) {
	t.Total = t.Total.Add(b.Total)
	t.Employer = t.Employer.Add(b.Employer)
	t.Employee = t.Employee.Add(b.Employee)
}

type EmployeeSpending struct {
	EmployeeID id.EmployeeID `json:"employee_id"`
	Totals
	Subscriptions int `json:"subscriptions"`
}

type PlanSpending struct {
	PlanID   id.PlanID `json:"plan_id"`
	PlanName string    `json:"plan_name"`
	Totals
	Subscriptions int `json:"subscriptions"`
}

// Statistics is a snapshot of a company's recurring benefits spend.
// Breakdowns are ordered by id.
type Statistics struct {
	CompanyID string `json:"company_id"`
	Currency  string `json:"currency"`
	Totals
	Subscriptions int                `json:"subscriptions"`
	Projected     int                `json:"projected"`
	ByEmployee    []EmployeeSpending `json:"by_employee"`
	ByPlan        []PlanSpending     `json:"by_plan"`
}

// Entry pairs a subscription with the plan it is billed under.
type Entry struct {
	Subscription *subscription.Subscription
	Plan         *plan.Plan
	// Projected counts the subscription even though it is not active.
	Projected bool
}

// Aggregate computes statistics over entries. Only active subscriptions and
// projected entries are counted. All counted plans must bill in currency.
func Aggregate(companyID, currency string, entries []Entry) (*Statistics, error) {
	stats := &Statistics{
		CompanyID: companyID,
		Currency:  currency,
		Totals:    zeroTotals(currency),
	}
	byEmployee := make(map[string]*EmployeeSpending)
	byPlan := make(map[string]*PlanSpending)

	for _, e := range entries {
		sub := e.Subscription
		counted := sub.Status == subscription.StatusActive || (e.Projected && sub.Status != subscription.StatusTerminated)
		if !counted {
			continue
		}
		if e.Plan.Currency != currency {
			return nil, fmt.Errorf("%w: plan %s bills in %s, statistics in %s",
				types.ErrCurrencyMismatch, e.Plan.ID, e.Plan.Currency, currency)
		}

		b, err := cost.ForSubscription(e.Plan, sub)
		if err != nil {
			return nil, fmt.Errorf("subscription %s: %w", sub.ID, err)
		}

		stats.add(b)
		stats.Subscriptions++
		if sub.Status != subscription.StatusActive {
			stats.Projected++
		}

		es, ok := byEmployee[sub.EmployeeID.String()]
		if !ok {
			es = &EmployeeSpending{EmployeeID: sub.EmployeeID, Totals: zeroTotals(currency)}
			byEmployee[sub.EmployeeID.String()] = es
		}
		es.add(b)
		es.Subscriptions++

		ps, ok := byPlan[e.Plan.ID.String()]
		if !ok {
			ps = &PlanSpending{PlanID: e.Plan.ID, PlanName: e.Plan.Name, Totals: zeroTotals(currency)}
			byPlan[e.Plan.ID.String()] = ps
		}
		ps.add(b)
		ps.Subscriptions++
	}

	stats.ByEmployee = make([]EmployeeSpending, 0, len(byEmployee))
	for _, es := range byEmployee {
		stats.ByEmployee = append(stats.ByEmployee, *es)
	}
	slices.SortFunc(stats.ByEmployee, func(a, b EmployeeSpending) int {
		return strings.Compare(a.EmployeeID.String(), b.EmployeeID.String())
	})

	stats.ByPlan = make([]PlanSpending, 0, len(byPlan))
	for _, ps := range byPlan {
		stats.ByPlan = append(stats.ByPlan, *ps)
	}
	slices.SortFunc(stats.ByPlan, func(a, b PlanSpending) int {
		return strings.Compare(a.PlanID.String(), b.PlanID.String())
	})
	return stats, nil
}

// ForEmployee returns the breakdown of employeeID, if counted.
func (s *Statistics) ForEmployee(employeeID id.EmployeeID) (EmployeeSpending, bool) {
	for _, es := range s.ByEmployee {
		if es.EmployeeID.String() == employeeID.String() {
			return es, true
		}
	}
	return EmployeeSpending{}, false
}

// ForPlan returns the breakdown of planID, if counted.
func (s *Statistics) ForPlan(planID id.PlanID) (PlanSpending, bool) {
	for _, ps := range s.ByPlan {
		if ps.PlanID.String() == planID.String() {
			return ps, true
		}
	}
	return PlanSpending{}, false
}
