package wallet

import (
	"context"

	"github.com/xraph/benefits/id"
)

// UpdateFunc mutates a wallet inside an atomic read-modify-write and returns
// the ledger entry recording the change. The entry is stored with the update.
type UpdateFunc func(w *Wallet) (*Transaction, error)

type Store interface {
	CreateWallet(ctx context.Context, w *Wallet) error
	GetWallet(ctx context.Context, employeeID id.EmployeeID) (*Wallet, error)
	ListWallets(ctx context.Context, companyID string) ([]*Wallet, error)
	// UpdateWallet serializes concurrent updates of one wallet. A debit entry
	// for a subscription period that is already recorded fails the whole
	// update with an already-exists error.
	UpdateWallet(ctx context.Context, employeeID id.EmployeeID, fn UpdateFunc) (*Wallet, *Transaction, error)

	ListTransactions(ctx context.Context, employeeID id.EmployeeID, opts ListOpts) ([]*Transaction, error)
	// GetDebit returns the debit of subID for period, or a not-found error.
	GetDebit(ctx context.Context, subID id.SubscriptionID, period string) (*Transaction, error)
}

type ListOpts struct {
	Kind   TransactionKind
	Limit  int
	Offset int
}
