package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

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

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("benefits/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: sqlite: %w", benefits.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Plan Store ====================

func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	_, err := s.sdb.NewInsert(toPlanModel(p)).Exec(ctx)
	return err
}

func (s *Store) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	m := new(planModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", planID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, benefits.ErrPlanNotFound
		}
		return nil, err
	}
	return fromPlanModel(m)
}

func (s *Store) ListPlans(ctx context.Context, companyID string, opts plan.ListOpts) ([]*plan.Plan, error) {
	var models []planModel
	q := s.sdb.NewSelect(&models).Where("company_id = ?", companyID)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*plan.Plan, len(models))
	for i := range models {
		p, err := fromPlanModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdatePlan(ctx context.Context, p *plan.Plan) error {
	res, err := s.sdb.NewUpdate(toPlanModel(p)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return benefits.ErrPlanNotFound
	}
	return nil
}

// ==================== Employee Store ====================

func (s *Store) CreateEmployee(ctx context.Context, e *employee.Employee) error {
	_, err := s.sdb.NewInsert(toEmployeeModel(e)).Exec(ctx)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	m := new(employeeModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", employeeID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, benefits.ErrEmployeeNotFound
		}
		return nil, err
	}
	return fromEmployeeModel(m)
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]*employee.Employee, error) {
	var models []employeeModel
	err := s.sdb.NewSelect(&models).
		Where("company_id = ?", companyID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*employee.Employee, len(models))
	for i := range models {
		e, err := fromEmployeeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) CreatePerson(ctx context.Context, p *employee.Person) error {
	_, err := s.sdb.NewInsert(toPersonModel(p)).Exec(ctx)
	return err
}

func (s *Store) GetPerson(ctx context.Context, personID id.PersonID) (*employee.Person, error) {
	m := new(personModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", personID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, benefits.ErrPersonNotFound
		}
		return nil, err
	}
	return fromPersonModel(m)
}

func (s *Store) MarkPersonVerified(ctx context.Context, personID id.PersonID, at time.Time) error {
	at = at.UTC()
	res, err := s.sdb.NewUpdate((*personModel)(nil)).
		Set("verified_at = COALESCE(verified_at, ?)", at).
		Set("updated_at = ?", at).
		Where("id = ?", personID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return benefits.ErrPersonNotFound
	}
	return nil
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.sdb.NewInsert(toSubscriptionModel(sub)).Exec(ctx)
	return err
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", subID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, benefits.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) ListSubscriptions(ctx context.Context, companyID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	q := s.sdb.NewSelect(&models).Where("company_id = ?", companyID)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if !opts.EmployeeID.IsNil() {
		q = q.Where("employee_id = ?", opts.EmployeeID.String())
	}
	if !opts.PlanID.IsNil() {
		q = q.Where("plan_id = ?", opts.PlanID.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return fromSubscriptionModels(models)
}

func (s *Store) ListSubscriptionsByStatus(ctx context.Context, status subscription.Status) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	err := s.sdb.NewSelect(&models).
		Where("status = ?", string(status)).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromSubscriptionModels(models)
}

// UpdateSubscription applies fn with optimistic locking on the version
// column, re-reading and retrying when another writer got there first.
func (s *Store) UpdateSubscription(ctx context.Context, subID id.SubscriptionID, fn subscription.UpdateFunc) (*subscription.Subscription, error) {
	for range benefitsstore.MaxUpdateAttempts {
		sub, err := s.GetSubscription(ctx, subID)
		if err != nil {
			return nil, err
		}
		prev := sub.Version
		if err := fn(sub); err != nil {
			return nil, err
		}
		sub.Version = prev + 1

		m := toSubscriptionModel(sub)
		res, err := s.sdb.NewUpdate((*subscriptionModel)(nil)).
			Set("type = ?", m.Type).
			Set("items = ?", m.Items).
			Set("status = ?", m.Status).
			Set("steps = ?", m.Steps).
			Set("end_date = ?", m.EndDate).
			Set("billing_anchor = ?", m.BillingAnchor).
			Set("metadata = ?", m.Metadata).
			Set("version = ?", m.Version).
			Set("updated_at = ?", m.UpdatedAt).
			Where("id = ?", m.ID).
			Where("version = ?", prev).
			Exec(ctx)
		if err != nil {
			return nil, err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rows == 1 {
			return sub, nil
		}
	}
	return nil, fmt.Errorf("%w: subscription %s", benefits.ErrConcurrentUpdate, subID)
}

func fromSubscriptionModels(models []subscriptionModel) ([]*subscription.Subscription, error) {
	result := make([]*subscription.Subscription, len(models))
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sub
	}
	return result, nil
}

// ==================== Wallet Store ====================

func (s *Store) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	_, err := s.sdb.NewInsert(toWalletModel(w)).Exec(ctx)
	return err
}

func (s *Store) GetWallet(ctx context.Context, employeeID id.EmployeeID) (*wallet.Wallet, error) {
	m := new(walletModel)
	err := s.sdb.NewSelect(m).
		Where("employee_id = ?", employeeID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, benefits.ErrWalletNotFound
		}
		return nil, err
	}
	return fromWalletModel(m)
}

func (s *Store) ListWallets(ctx context.Context, companyID string) ([]*wallet.Wallet, error) {
	var models []walletModel
	err := s.sdb.NewSelect(&models).
		Where("company_id = ?", companyID).
		OrderExpr("employee_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*wallet.Wallet, len(models))
	for i := range models {
		w, err := fromWalletModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = w
	}
	return result, nil
}

// UpdateWallet records the ledger entry returned by fn, then moves the
// balance with optimistic locking on the version column. The entry insert
// claims the subscription period; when the balance write loses a race the
// entry is withdrawn and the update retried.
// A debit claim is kept only while its subscription is active.
func (s *Store) UpdateWallet(ctx context.Context, employeeID id.EmployeeID, fn wallet.UpdateFunc) (*wallet.Wallet, *wallet.Transaction, error) {
	for range benefitsstore.MaxUpdateAttempts {
		w, err := s.GetWallet(ctx, employeeID)
		if err != nil {
			return nil, nil, err
		}
		prev := w.Version
		tx, err := fn(w)
		if err != nil {
			return nil, nil, err
		}
		w.Version = prev + 1

		if tx != nil {
			if err := s.insertTransaction(ctx, tx); err != nil {
				return nil, nil, err
			}
			if err := s.keepClaim(ctx, tx); err != nil {
				return nil, nil, err
			}
		}

		m := toWalletModel(w)
		res, err := s.sdb.NewUpdate((*walletModel)(nil)).
			Set("balance = ?", m.Balance).
			Set("last_debit_sufficient = ?", m.LastDebitSufficient).
			Set("version = ?", m.Version).
			Set("updated_at = ?", m.UpdatedAt).
			Where("employee_id = ?", m.EmployeeID).
			Where("version = ?", prev).
			Exec(ctx)
		if err == nil {
			var rows int64
			if rows, err = res.RowsAffected(); err == nil && rows == 1 {
				return w, tx, nil
			}
		}
		if tx != nil {
			if derr := s.deleteTransaction(ctx, tx.ID); derr != nil {
				return nil, nil, errors.Join(err, derr)
			}
		}
		if err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, fmt.Errorf("%w: wallet of employee %s", benefits.ErrConcurrentUpdate, employeeID)
}

// insertTransaction stores tx unless its subscription period is already
// debited, which is reported as benefits.ErrAlreadyExists.
func (s *Store) insertTransaction(ctx context.Context, tx *wallet.Transaction) error {
	res, err := s.sdb.NewInsert(toTransactionModel(tx)).
		OnConflict("(subscription_id, period) WHERE kind = 'debit' DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: debit of %s for %s", benefits.ErrAlreadyExists, tx.SubscriptionID, tx.Period)
	}
	return nil
}

func (s *Store) deleteTransaction(ctx context.Context, txID id.TransactionID) error {
	_, err := s.sdb.NewDelete((*transactionModel)(nil)).
		Where("id = ?", txID.String()).
		Exec(ctx)
	return err
}

// keepClaim re-reads the subscription of a debit after its period is claimed.
// A subscription that left active before the claim landed gets the entry
// withdrawn and benefits.ErrSubscriptionNotActive; a later termination is
// ordered after the debit.
func (s *Store) keepClaim(ctx context.Context, tx *wallet.Transaction) error {
	if tx.Kind != wallet.KindDebit || tx.SubscriptionID.IsNil() {
		return nil
	}
	sub, err := s.GetSubscription(ctx, tx.SubscriptionID)
	if err == nil && sub.Status == subscription.StatusActive {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("%w: %s is %s", benefits.ErrSubscriptionNotActive, sub.ID, sub.Status)
	}
	if derr := s.deleteTransaction(ctx, tx.ID); derr != nil {
		return errors.Join(err, derr)
	}
	return err
}

func (s *Store) ListTransactions(ctx context.Context, employeeID id.EmployeeID, opts wallet.ListOpts) ([]*wallet.Transaction, error) {
	var models []transactionModel
	q := s.sdb.NewSelect(&models).Where("employee_id = ?", employeeID.String())

	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*wallet.Transaction, len(models))
	for i := range models {
		tx, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = tx
	}
	return result, nil
}

func (s *Store) GetDebit(ctx context.Context, subID id.SubscriptionID, period string) (*wallet.Transaction, error) {
	m := new(transactionModel)
	err := s.sdb.NewSelect(m).
		Where("subscription_id = ?", subID.String()).
		Where("period = ?", period).
		Where("kind = ?", string(wallet.KindDebit)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, benefits.ErrTransactionNotFound
		}
		return nil, err
	}
	return fromTransactionModel(m)
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
