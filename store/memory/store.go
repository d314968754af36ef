package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xraph/benefits"
	"github.com/xraph/benefits/employee"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plan"
	benefitsstore "github.com/xraph/benefits/store"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/wallet"
)

// compile-time interface check
var _ benefitsstore.Store = (*Store)(nil)

// Store keeps every record in maps guarded by one mutex. Records are cloned
// on the way in and out, so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	plans         map[string]*plan.Plan
	employees     map[string]*employee.Employee
	persons       map[string]*employee.Person
	subscriptions map[string]*subscription.Subscription

	// Wallets are keyed by employee id.
	wallets      map[string]*wallet.Wallet
	transactions []*wallet.Transaction
	// Debit entries keyed by subscription id and period.
	debits map[string]*wallet.Transaction

	closed bool
}

func New() *Store {
	return &Store{
		plans:         make(map[string]*plan.Plan),
		employees:     make(map[string]*employee.Employee),
		persons:       make(map[string]*employee.Person),
		subscriptions: make(map[string]*subscription.Subscription),
		wallets:       make(map[string]*wallet.Wallet),
		transactions:  make([]*wallet.Transaction, 0),
		debits:        make(map[string]*wallet.Transaction),
	}
}

// Plan Store implementation
func (s *Store) CreatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID.String()]; exists {
		return benefits.ErrAlreadyExists
	}
	s.plans[p.ID.String()] = p.Clone()
	return nil
}

func (s *Store) GetPlan(_ context.Context, planID id.PlanID) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.plans[planID.String()]; ok {
		return p.Clone(), nil
	}
	return nil, benefits.ErrPlanNotFound
}

func (s *Store) ListPlans(_ context.Context, companyID string, opts plan.ListOpts) ([]*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*plan.Plan, 0)
	for _, p := range s.plans {
		if p.CompanyID == companyID {
			if opts.Status == "" || p.Status == opts.Status {
				result = append(result, p.Clone())
			}
		}
	}
	sortByID(result, func(p *plan.Plan) id.ID { return p.ID })
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID.String()]; !exists {
		return benefits.ErrPlanNotFound
	}
	s.plans[p.ID.String()] = p.Clone()
	return nil
}

// Employee Store implementation
func (s *Store) CreateEmployee(_ context.Context, e *employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employees[e.ID.String()]; exists {
		return benefits.ErrAlreadyExists
	}
	s.employees[e.ID.String()] = e.Clone()
	return nil
}

func (s *Store) GetEmployee(_ context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.employees[employeeID.String()]; ok {
		return e.Clone(), nil
	}
	return nil, benefits.ErrEmployeeNotFound
}

func (s *Store) ListEmployees(_ context.Context, companyID string) ([]*employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*employee.Employee, 0)
	for _, e := range s.employees {
		if e.CompanyID == companyID {
			result = append(result, e.Clone())
		}
	}
	sortByID(result, func(e *employee.Employee) id.ID { return e.ID })
	return result, nil
}

func (s *Store) CreatePerson(_ context.Context, p *employee.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.persons[p.ID.String()]; exists {
		return benefits.ErrAlreadyExists
	}
	s.persons[p.ID.String()] = p.Clone()
	return nil
}

func (s *Store) GetPerson(_ context.Context, personID id.PersonID) (*employee.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.persons[personID.String()]; ok {
		return p.Clone(), nil
	}
	return nil, benefits.ErrPersonNotFound
}

func (s *Store) MarkPersonVerified(_ context.Context, personID id.PersonID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.persons[personID.String()]
	if !ok {
		return benefits.ErrPersonNotFound
	}
	if p.VerifiedAt == nil {
		t := at.UTC()
		p.VerifiedAt = &t
		p.Touch(at)
	}
	return nil
}

// Subscription Store implementation
func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID.String()]; exists {
		return benefits.ErrAlreadyExists
	}
	s.subscriptions[sub.ID.String()] = sub.Clone()
	return nil
}

func (s *Store) GetSubscription(_ context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[subID.String()]; ok {
		return sub.Clone(), nil
	}
	return nil, benefits.ErrSubscriptionNotFound
}

func (s *Store) ListSubscriptions(_ context.Context, companyID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.CompanyID != companyID {
			continue
		}
		if opts.Status != "" && sub.Status != opts.Status {
			continue
		}
		if !opts.EmployeeID.IsNil() && sub.EmployeeID.String() != opts.EmployeeID.String() {
			continue
		}
		if !opts.PlanID.IsNil() && sub.PlanID.String() != opts.PlanID.String() {
			continue
		}
		result = append(result, sub.Clone())
	}
	sortByID(result, func(sub *subscription.Subscription) id.ID { return sub.ID })
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ListSubscriptionsByStatus(_ context.Context, status subscription.Status) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.Status == status {
			result = append(result, sub.Clone())
		}
	}
	sortByID(result, func(sub *subscription.Subscription) id.ID { return sub.ID })
	return result, nil
}

func (s *Store) UpdateSubscription(_ context.Context, subID id.SubscriptionID, fn subscription.UpdateFunc) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.subscriptions[subID.String()]
	if !ok {
		return nil, benefits.ErrSubscriptionNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Version = cur.Version + 1
	s.subscriptions[subID.String()] = next
	return next.Clone(), nil
}

// Wallet Store implementation
func (s *Store) CreateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[w.EmployeeID.String()]; exists {
		return benefits.ErrAlreadyExists
	}
	s.wallets[w.EmployeeID.String()] = w.Clone()
	return nil
}

func (s *Store) GetWallet(_ context.Context, employeeID id.EmployeeID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.wallets[employeeID.String()]; ok {
		return w.Clone(), nil
	}
	return nil, benefits.ErrWalletNotFound
}

func (s *Store) ListWallets(_ context.Context, companyID string) ([]*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*wallet.Wallet, 0)
	for _, w := range s.wallets {
		if w.CompanyID == companyID {
			result = append(result, w.Clone())
		}
	}
	sortByID(result, func(w *wallet.Wallet) id.ID { return w.EmployeeID })
	return result, nil
}

func (s *Store) UpdateWallet(_ context.Context, employeeID id.EmployeeID, fn wallet.UpdateFunc) (*wallet.Wallet, *wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.wallets[employeeID.String()]
	if !ok {
		return nil, nil, benefits.ErrWalletNotFound
	}
	next := cur.Clone()
	tx, err := fn(next)
	if err != nil {
		return nil, nil, err
	}

	var key string
	if tx != nil && tx.Kind == wallet.KindDebit && !tx.SubscriptionID.IsNil() {
		key = debitKey(tx.SubscriptionID, tx.Period)
		if _, exists := s.debits[key]; exists {
			return nil, nil, benefits.ErrAlreadyExists
		}
		sub, ok := s.subscriptions[tx.SubscriptionID.String()]
		if !ok {
			return nil, nil, benefits.ErrSubscriptionNotFound
		}
		if sub.Status != subscription.StatusActive {
			return nil, nil, fmt.Errorf("%w: %s is %s", benefits.ErrSubscriptionNotActive, sub.ID, sub.Status)
		}
	}

	next.Version = cur.Version + 1
	s.wallets[employeeID.String()] = next
	if tx != nil {
		stored := *tx
		s.transactions = append(s.transactions, &stored)
		if key != "" {
			s.debits[key] = &stored
		}
		out := stored
		tx = &out
	}
	return next.Clone(), tx, nil
}

func (s *Store) ListTransactions(_ context.Context, employeeID id.EmployeeID, opts wallet.ListOpts) ([]*wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*wallet.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.EmployeeID.String() != employeeID.String() {
			continue
		}
		if opts.Kind != "" && tx.Kind != opts.Kind {
			continue
		}
		c := *tx
		result = append(result, &c)
	}
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) GetDebit(_ context.Context, subID id.SubscriptionID, period string) (*wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tx, ok := s.debits[debitKey(subID, period)]; ok {
		c := *tx
		return &c, nil
	}
	return nil, benefits.ErrTransactionNotFound
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return benefits.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Helper functions
func debitKey(subID id.SubscriptionID, period string) string {
	return subID.String() + "|" + period
}

func sortByID[T any](items []T, key func(T) id.ID) {
	slices.SortFunc(items, func(a, b T) int {
		return strings.Compare(key(a).String(), key(b).String())
	})
}

func page[T any](items []T, offset, limit int) []T {
	start := max(0, min(offset, len(items)))
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return items[start:end]
}
