package benefits

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/benefits/cost"
	"github.com/xraph/benefits/employee"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plugin"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
	"github.com/xraph/benefits/wallet"
)

// DebitOutcome is the typed result of debiting a subscription for a period.
type DebitOutcome string

const (
	DebitApplied DebitOutcome = "debited"
	// DebitAlreadyBilled means the period was debited before; nothing moved.
	DebitAlreadyBilled DebitOutcome = "already_billed"
)

// DebitResult reports one subscription debit.
type DebitResult struct {
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	EmployeeID     id.EmployeeID     `json:"employee_id"`
	Period         string            `json:"period"`
	Outcome        DebitOutcome      `json:"outcome"`
	Amount         types.Money       `json:"amount"`
	NewBalance     types.Money       `json:"new_balance"`
	// Sufficient reports whether the balance before the debit covered it.
	Sufficient    bool             `json:"sufficient"`
	TransactionID id.TransactionID `json:"transaction_id"`
}

func debitResultOf(tx *wallet.Transaction, outcome DebitOutcome) DebitResult {
	return DebitResult{
		SubscriptionID: tx.SubscriptionID,
		EmployeeID:     tx.EmployeeID,
		Period:         tx.Period,
		Outcome:        outcome,
		Amount:         tx.Amount,
		NewBalance:     tx.BalanceAfter,
		Sufficient:     tx.Sufficient,
		TransactionID:  tx.ID,
	}
}

// DebitSubscription debits an active subscription's monthly total from the
// employee's wallet for the billing period containing date. The debit always
// applies, so the balance may go negative. Each period is debited at most
// once; repeats report DebitAlreadyBilled.
func (e *Engine) DebitSubscription(ctx context.Context, subID id.SubscriptionID, date time.Time) (DebitResult, error) {
	sub, err := e.store.GetSubscription(ctx, subID)
	if err != nil {
		return DebitResult{}, err
	}
	if sub.Status != subscription.StatusActive {
		return DebitResult{}, fmt.Errorf("%w: %s is %s", ErrSubscriptionNotActive, subID, sub.Status)
	}
	p, err := e.store.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return DebitResult{}, err
	}
	b, err := cost.ForSubscription(p, sub)
	if err != nil {
		return DebitResult{}, err
	}

	period := wallet.Period(date.UTC())
	if prior, err := e.store.GetDebit(ctx, subID, period); err == nil {
		return debitResultOf(prior, DebitAlreadyBilled), nil
	} else if !errors.Is(err, ErrTransactionNotFound) {
		return DebitResult{}, err
	}

	now := e.now()
	w, tx, err := e.store.UpdateWallet(ctx, sub.EmployeeID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		res, err := wallet.Debit(w, b.Total, now)
		if err != nil {
			return nil, err
		}
		return &wallet.Transaction{
			Entity:         types.NewEntity(now),
			ID:             id.NewTransactionID(),
			WalletID:       w.ID,
			EmployeeID:     w.EmployeeID,
			Kind:           wallet.KindDebit,
			Amount:         b.Total,
			BalanceAfter:   res.NewBalance,
			Sufficient:     res.Sufficient,
			SubscriptionID: sub.ID,
			Period:         period,
			Description:    fmt.Sprintf("%s %s", p.Name, period),
		}, nil
	})
	if errors.Is(err, ErrAlreadyExists) {
		// Lost a race with a concurrent cycle for the same period.
		prior, gerr := e.store.GetDebit(ctx, subID, period)
		if gerr != nil {
			return DebitResult{}, gerr
		}
		return debitResultOf(prior, DebitAlreadyBilled), nil
	}
	if err != nil {
		return DebitResult{}, err
	}

	if !tx.Sufficient {
		e.logger.Warn("wallet debit insufficient",
			"subscription_id", subID,
			"employee_id", sub.EmployeeID,
			"amount", tx.Amount,
			"balance", tx.BalanceAfter,
		)
	}
	e.plugins.EmitWalletDebited(ctx, w, tx)
	return debitResultOf(tx, DebitApplied), nil
}

// RunBillingCycle debits every active subscription due on date: those whose
// billing anchor, clamped to the month length, falls on date's day and whose
// start date is not after date. Subscriptions are debited in parallel.
// Results are ordered by subscription ID. Per-subscription failures are
// collected into a MultiError returned alongside the successful results.
func (e *Engine) RunBillingCycle(ctx context.Context, date time.Time) ([]DebitResult, error) {
	started := time.Now()
	date = date.UTC()

	active, err := e.store.ListSubscriptionsByStatus(ctx, subscription.StatusActive)
	if err != nil {
		return nil, err
	}
	due := make([]*subscription.Subscription, 0, len(active))
	for _, sub := range active {
		if sub.DueOn(date) && !sub.StartDate.After(endOfDay(date)) {
			due = append(due, sub)
		}
	}

	var (
		mu      sync.Mutex
		results = make([]DebitResult, 0, len(due))
		errs    MultiError
	)
	var g errgroup.Group
	g.SetLimit(e.billingConcurrency)
	for _, sub := range due {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				errs.Add(fmt.Errorf("subscription %s: %w", sub.ID, err))
				mu.Unlock()
				return nil
			}
			res, err := e.DebitSubscription(ctx, sub.ID, date)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger.Error("billing subscription failed", "subscription_id", sub.ID, "error", err)
				errs.Add(fmt.Errorf("subscription %s: %w", sub.ID, err))
				return nil
			}
			results = append(results, res)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers report through errs

	slices.SortFunc(results, func(a, b DebitResult) int {
		return strings.Compare(a.SubscriptionID.String(), b.SubscriptionID.String())
	})

	summary := plugin.BillingCycleSummary{
		Date:    date,
		Due:     len(due),
		Failed:  len(errs.Errors),
		Elapsed: time.Since(started),
	}
	for _, r := range results {
		switch r.Outcome {
		case DebitApplied:
			summary.Debited++
			if !r.Sufficient {
				summary.Insufficient++
			}
		case DebitAlreadyBilled:
			summary.AlreadyBilled++
		}
	}

	e.logger.Info("billing cycle completed",
		"date", date.Format(time.DateOnly),
		"due", summary.Due,
		"debited", summary.Debited,
		"already_billed", summary.AlreadyBilled,
		"insufficient", summary.Insufficient,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed,
	)
	e.plugins.EmitBillingCycleCompleted(ctx, summary)

	if errs.HasErrors() {
		return results, errs
	}
	return results, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
}

// CreditWallet adds funds to an employee's wallet.
func (e *Engine) CreditWallet(ctx context.Context, employeeID id.EmployeeID, amount types.Money, description string) (*wallet.Wallet, error) {
	now := e.now()
	w, tx, err := e.store.UpdateWallet(ctx, employeeID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		balance, err := wallet.Credit(w, amount, now)
		if err != nil {
			return nil, err
		}
		return &wallet.Transaction{
			Entity:       types.NewEntity(now),
			ID:           id.NewTransactionID(),
			WalletID:     w.ID,
			EmployeeID:   w.EmployeeID,
			Kind:         wallet.KindCredit,
			Amount:       amount,
			BalanceAfter: balance,
			Sufficient:   true,
			Description:  description,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("wallet credited", "employee_id", employeeID, "amount", amount, "balance", w.Balance)
	e.plugins.EmitWalletCredited(ctx, w, tx)
	return w, nil
}

// GetWallet retrieves an employee's wallet.
func (e *Engine) GetWallet(ctx context.Context, employeeID id.EmployeeID) (*wallet.Wallet, error) {
	return e.store.GetWallet(ctx, employeeID)
}

// ListTransactions lists the ledger entries of an employee's wallet in the
// order they were applied.
func (e *Engine) ListTransactions(ctx context.Context, employeeID id.EmployeeID, opts wallet.ListOpts) ([]*wallet.Transaction, error) {
	return e.store.ListTransactions(ctx, employeeID, opts)
}

// ListEmployeesByPaymentStatus lists a company's employees whose latest
// debit was sufficient or overdue. Employees never debited count as
// sufficient.
func (e *Engine) ListEmployeesByPaymentStatus(ctx context.Context, companyID string, status wallet.PaymentStatus) ([]*employee.Employee, error) {
	if status != wallet.PaymentSufficient && status != wallet.PaymentOverdue {
		return nil, ValidationError{Field: "status", Message: fmt.Sprintf("unknown payment status %q", status)}
	}

	wallets, err := e.store.ListWallets(ctx, companyID)
	if err != nil {
		return nil, err
	}
	matching := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		if w.PaymentStatus() == status {
			matching[w.EmployeeID.String()] = true
		}
	}

	employees, err := e.store.ListEmployees(ctx, companyID)
	if err != nil {
		return nil, err
	}
	result := make([]*employee.Employee, 0, len(matching))
	for _, emp := range employees {
		if matching[emp.ID.String()] {
			result = append(result, emp)
		}
	}
	return result, nil
}
