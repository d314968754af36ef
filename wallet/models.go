// Package wallet holds the per-employee prepaid balance and the ledger
// operations that move it.
//
// A debit always applies, so the balance may go negative. Whether the debit
// was covered is reported separately as sufficiency, measured against the
// balance before the debit. A negative balance means the employee is
// overdue; it is never a rejected transaction.
package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/types"
)

// ErrInvalidAmount is returned for a negative debit or a non-positive credit.
var ErrInvalidAmount = errors.New("benefits: invalid amount")

// PaymentStatus summarises the outcome of an employee's latest debit.
type PaymentStatus string

const (
	PaymentSufficient PaymentStatus = "sufficient"
	PaymentOverdue    PaymentStatus = "overdue"
)

type Wallet struct {
	types.Entity
	ID         id.WalletID   `json:"id"`
	EmployeeID id.EmployeeID `json:"employee_id"`
	CompanyID  string        `json:"company_id"`
	Balance    types.Money   `json:"balance"`
	// LastDebitSufficient is nil until the first debit.
	LastDebitSufficient *bool `json:"last_debit_sufficient,omitempty"`
	Version             int64 `json:"version"`
}

// New returns an empty wallet for an employee.
func New(employeeID id.EmployeeID, companyID, currency string, at time.Time) *Wallet {
	return &Wallet{
		Entity:     types.NewEntity(at),
		ID:         id.NewWalletID(),
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Balance:    types.Zero(currency),
	}
}

// Currency is the currency of the balance.
func (w *Wallet) Currency() string { return w.Balance.Currency }

// PaymentStatus reports sufficient until a debit is found insufficient.
func (w *Wallet) PaymentStatus() PaymentStatus {
	if w.LastDebitSufficient != nil && !*w.LastDebitSufficient {
		return PaymentOverdue
	}
	return PaymentSufficient
}

// DebitResult is the outcome of a debit.
type DebitResult struct {
	NewBalance types.Money `json:"new_balance"`
	// Sufficient reports whether the balance before the debit covered it.
	Sufficient bool `json:"sufficient"`
}

// Debit takes amount from w unconditionally.
func Debit(w *Wallet, amount types.Money, at time.Time) (DebitResult, error) {
	if err := w.Balance.CheckCurrency(amount); err != nil {
		return DebitResult{}, err
	}
	if amount.IsNegative() {
		return DebitResult{}, fmt.Errorf("%w: debit amount %s is negative", ErrInvalidAmount, amount)
	}

	sufficient := w.Balance.GreaterOrEqual(amount)
	w.Balance = w.Balance.Subtract(amount)
	w.LastDebitSufficient = &sufficient
	w.Touch(at)
	return DebitResult{NewBalance: w.Balance, Sufficient: sufficient}, nil
}

// Credit adds amount to w and returns the new balance.
func Credit(w *Wallet, amount types.Money, at time.Time) (types.Money, error) {
	if err := w.Balance.CheckCurrency(amount); err != nil {
		return types.Money{}, err
	}
	if !amount.IsPositive() {
		return types.Money{}, fmt.Errorf("%w: credit amount %s must be positive", ErrInvalidAmount, amount)
	}
	w.Balance = w.Balance.Add(amount)
	w.Touch(at)
	return w.Balance, nil
}

// Clone returns a copy safe to mutate.
func (w *Wallet) Clone() *Wallet {
	c := *w
	if w.LastDebitSufficient != nil {
		v := *w.LastDebitSufficient
		c.LastDebitSufficient = &v
	}
	return &c
}

type TransactionKind string

const (
	KindDebit  TransactionKind = "debit"
	KindCredit TransactionKind = "credit"
)

// Transaction is one entry in a wallet's ledger.
type Transaction struct {
	types.Entity
	ID         id.TransactionID `json:"id"`
	WalletID   id.WalletID      `json:"wallet_id"`
	EmployeeID id.EmployeeID    `json:"employee_id"`
	Kind       TransactionKind  `json:"kind"`
	Amount     types.Money      `json:"amount"`
	// BalanceAfter is the wallet balance once the entry applied.
	BalanceAfter types.Money `json:"balance_after"`
	// Sufficient is meaningful for debits only.
	Sufficient bool `json:"sufficient"`
	// SubscriptionID and Period identify the billed subscription month.
	SubscriptionID id.SubscriptionID `json:"subscription_id,omitempty"`
	Period         string            `json:"period,omitempty"`
	Description    string            `json:"description,omitempty"`
}

// Period formats the billing period containing t, "2026-03".
func Period(t time.Time) string { return t.Format("2006-01") }
