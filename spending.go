package benefits

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/spending"
	"github.com/xraph/benefits/subscription"
)

// SpendingOpts are the optional parameters of GetCompanySpendingStatistics.
type SpendingOpts struct {
	// IncludeSubscriptions projects these not-yet-active subscriptions into
	// the totals. Active subscriptions are always counted.
	IncludeSubscriptions []id.SubscriptionID
	// Currency defaults to the engine's default currency.
	Currency string
}

// GetCompanySpendingStatistics computes the monthly spend of a company's
// active subscriptions, broken down by employee and by plan. It is
// recomputed from the current subscription set on every call.
func (e *Engine) GetCompanySpendingStatistics(ctx context.Context, companyID string, opts SpendingOpts) (*spending.Statistics, error) {
	currency := strings.ToLower(opts.Currency)
	if currency == "" {
		currency = e.defaultCurrency
	}

	subs, err := e.store.ListSubscriptions(ctx, companyID, subscription.ListOpts{Status: subscription.StatusActive})
	if err != nil {
		return nil, err
	}

	plans := make(map[string]*plan.Plan)
	entries := make([]spending.Entry, 0, len(subs)+len(opts.IncludeSubscriptions))
	add := func(sub *subscription.Subscription, projected bool) error {
		p, ok := plans[sub.PlanID.String()]
		if !ok {
			var err error
			if p, err = e.store.GetPlan(ctx, sub.PlanID); err != nil {
				return fmt.Errorf("subscription %s: %w", sub.ID, err)
			}
			plans[sub.PlanID.String()] = p
		}
		entries = append(entries, spending.Entry{Subscription: sub, Plan: p, Projected: projected})
		return nil
	}

	counted := make(map[string]bool, len(subs))
	for _, sub := range subs {
		counted[sub.ID.String()] = true
		if err := add(sub, false); err != nil {
			return nil, err
		}
	}
	for _, subID := range opts.IncludeSubscriptions {
		if counted[subID.String()] {
			continue
		}
		sub, err := e.store.GetSubscription(ctx, subID)
		if err != nil {
			return nil, err
		}
		if sub.CompanyID != companyID {
			return nil, fmt.Errorf("%w: subscription %s belongs to another company", ErrInsufficientReference, subID)
		}
		counted[subID.String()] = true
		if err := add(sub, true); err != nil {
			return nil, err
		}
	}

	return spending.Aggregate(companyID, currency, entries)
}
