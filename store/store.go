package store

import (
	"context"
	"time"

	"github.com/xraph/benefits/employee"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/wallet"
)

// Store is the unified storage interface for all benefits records.
// Methods are declared explicitly rather than by embedding the entity
// stores, so a backend satisfies each of them as well.
type Store interface {
	// Plan methods
	CreatePlan(ctx context.Context, p *plan.Plan) error
	GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error)
	ListPlans(ctx context.Context, companyID string, opts plan.ListOpts) ([]*plan.Plan, error)
	UpdatePlan(ctx context.Context, p *plan.Plan) error

	// Employee methods
	CreateEmployee(ctx context.Context, e *employee.Employee) error
	GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*employee.Employee, error)
	ListEmployees(ctx context.Context, companyID string) ([]*employee.Employee, error)
	CreatePerson(ctx context.Context, p *employee.Person) error
	GetPerson(ctx context.Context, personID id.PersonID) (*employee.Person, error)
	MarkPersonVerified(ctx context.Context, personID id.PersonID, at time.Time) error

	// Subscription methods
	CreateSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error)
	ListSubscriptions(ctx context.Context, companyID string, opts subscription.ListOpts) ([]*subscription.Subscription, error)
	ListSubscriptionsByStatus(ctx context.Context, status subscription.Status) ([]*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, subID id.SubscriptionID, fn subscription.UpdateFunc) (*subscription.Subscription, error)

	// Wallet methods
	CreateWallet(ctx context.Context, w *wallet.Wallet) error
	GetWallet(ctx context.Context, employeeID id.EmployeeID) (*wallet.Wallet, error)
	ListWallets(ctx context.Context, companyID string) ([]*wallet.Wallet, error)
	UpdateWallet(ctx context.Context, employeeID id.EmployeeID, fn wallet.UpdateFunc) (*wallet.Wallet, *wallet.Transaction, error)
	ListTransactions(ctx context.Context, employeeID id.EmployeeID, opts wallet.ListOpts) ([]*wallet.Transaction, error)
	GetDebit(ctx context.Context, subID id.SubscriptionID, period string) (*wallet.Transaction, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Compile-time checks that Store covers every entity store.
var (
	_ plan.Store         = Store(nil)
	_ employee.Store     = Store(nil)
	_ subscription.Store = Store(nil)
	_ wallet.Store       = Store(nil)
)

// MaxUpdateAttempts bounds the compare-and-swap retries of backends that
// implement atomic updates optimistically.
const MaxUpdateAttempts = 8
