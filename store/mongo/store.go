package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/benefits"
	"github.com/xraph/benefits/employee"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plan"
	benefitsstore "github.com/xraph/benefits/store"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/wallet"
)

// Collection name constants.
const (
	colPlans         = "benefits_plans"
	colEmployees     = "benefits_employees"
	colPersons       = "benefits_persons"
	colSubscriptions = "benefits_subscriptions"
	colWallets       = "benefits_wallets"
	colTransactions  = "benefits_transactions"
)

// compile-time interface check
var _ benefitsstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all benefits collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("%w: mongo: %s indexes: %w", benefits.ErrMigrationFailed, col, err)
		}
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
	_, err := s.mdb.NewInsert(toPlanModel(p)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return benefits.ErrAlreadyExists
		}
		return fmt.Errorf("benefits/mongo: create plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	var m planModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": planID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, benefits.ErrPlanNotFound
		}
		return nil, fmt.Errorf("benefits/mongo: get plan: %w", err)
	}
	return fromPlanModel(&m)
}

func (s *Store) ListPlans(ctx context.Context, companyID string, opts plan.ListOpts) ([]*plan.Plan, error) {
	var models []planModel

	filter := bson.M{"company_id": companyID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("benefits/mongo: list plans: %w", err)
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
	m := toPlanModel(p)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("benefits/mongo: update plan: %w", err)
	}
	if res.MatchedCount() == 0 {
		return benefits.ErrPlanNotFound
	}
	return nil
}

// ==================== Employee Store ====================

func (s *Store) CreateEmployee(ctx context.Context, e *employee.Employee) error {
	_, err := s.mdb.NewInsert(toEmployeeModel(e)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return benefits.ErrAlreadyExists
		}
		return fmt.Errorf("benefits/mongo: create employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	var m employeeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": employeeID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, benefits.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("benefits/mongo: get employee: %w", err)
	}
	return fromEmployeeModel(&m)
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]*employee.Employee, error) {
	var models []employeeModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"company_id": companyID}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("benefits/mongo: list employees: %w", err)
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
	_, err := s.mdb.NewInsert(toPersonModel(p)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return benefits.ErrAlreadyExists
		}
		return fmt.Errorf("benefits/mongo: create person: %w", err)
	}
	return nil
}

func (s *Store) GetPerson(ctx context.Context, personID id.PersonID) (*employee.Person, error) {
	var m personModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": personID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, benefits.ErrPersonNotFound
		}
		return nil, fmt.Errorf("benefits/mongo: get person: %w", err)
	}
	return fromPersonModel(&m)
}

// MarkPersonVerified stamps the person once; later calls keep the first stamp.
func (s *Store) MarkPersonVerified(ctx context.Context, personID id.PersonID, at time.Time) error {
	at = at.UTC()
	res, err := s.mdb.NewUpdate((*personModel)(nil)).
		Filter(bson.M{"_id": personID.String(), "verified_at": nil}).
		Set("verified_at", at).
		Set("updated_at", at).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("benefits/mongo: mark person verified: %w", err)
	}
	if res.MatchedCount() == 0 {
		// Either already verified or missing.
		if _, err := s.GetPerson(ctx, personID); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.mdb.NewInsert(toSubscriptionModel(sub)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return benefits.ErrAlreadyExists
		}
		return fmt.Errorf("benefits/mongo: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": subID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, benefits.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("benefits/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) ListSubscriptions(ctx context.Context, companyID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	var models []subscriptionModel

	filter := bson.M{"company_id": companyID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if !opts.EmployeeID.IsNil() {
		filter["employee_id"] = opts.EmployeeID.String()
	}
	if !opts.PlanID.IsNil() {
		filter["plan_id"] = opts.PlanID.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("benefits/mongo: list subscriptions: %w", err)
	}
	return fromSubscriptionModels(models)
}

func (s *Store) ListSubscriptionsByStatus(ctx context.Context, status subscription.Status) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"status": string(status)}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("benefits/mongo: list subscriptions by status: %w", err)
	}
	return fromSubscriptionModels(models)
}

// UpdateSubscription applies fn and writes the document back only while its
// version is unchanged, retrying against a fresh read otherwise.
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
		res, err := s.mdb.NewUpdate(m).
			Filter(bson.M{"_id": m.ID, "version": prev}).
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("benefits/mongo: update subscription: %w", err)
		}
		if res.MatchedCount() == 1 {
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
	_, err := s.mdb.NewInsert(toWalletModel(w)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return benefits.ErrAlreadyExists
		}
		return fmt.Errorf("benefits/mongo: create wallet: %w", err)
	}
	return nil
}

func (s *Store) GetWallet(ctx context.Context, employeeID id.EmployeeID) (*wallet.Wallet, error) {
	var m walletModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"employee_id": employeeID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, benefits.ErrWalletNotFound
		}
		return nil, fmt.Errorf("benefits/mongo: get wallet: %w", err)
	}
	return fromWalletModel(&m)
}

func (s *Store) ListWallets(ctx context.Context, companyID string) ([]*wallet.Wallet, error) {
	var models []walletModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"company_id": companyID}).
		Sort(bson.D{{Key: "employee_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("benefits/mongo: list wallets: %w", err)
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

// UpdateWallet inserts the ledger entry returned by fn, then moves the
// balance only while the wallet version is unchanged. The unique debit index
// makes the insert the claim on a subscription period. A lost balance write
// withdraws the entry before retrying.
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
		res, err := s.mdb.NewUpdate((*walletModel)(nil)).
			Filter(bson.M{"employee_id": m.EmployeeID, "version": prev}).
			Set("balance", m.Balance).
			Set("last_debit_sufficient", m.LastDebitSufficient).
			Set("version", m.Version).
			Set("updated_at", m.UpdatedAt).
			Exec(ctx)
		if err == nil && res.MatchedCount() == 1 {
			return w, tx, nil
		}
		if err != nil {
			err = fmt.Errorf("benefits/mongo: update wallet: %w", err)
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

func (s *Store) insertTransaction(ctx context.Context, tx *wallet.Transaction) error {
	_, err := s.mdb.NewInsert(toTransactionModel(tx)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: debit of %s for %s", benefits.ErrAlreadyExists, tx.SubscriptionID, tx.Period)
		}
		return fmt.Errorf("benefits/mongo: insert transaction: %w", err)
	}
	return nil
}

func (s *Store) deleteTransaction(ctx context.Context, txID id.TransactionID) error {
	_, err := s.mdb.NewDelete((*transactionModel)(nil)).
		Filter(bson.M{"_id": txID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("benefits/mongo: withdraw transaction: %w", err)
	}
	return nil
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

	filter := bson.M{"employee_id": employeeID.String()}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("benefits/mongo: list transactions: %w", err)
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
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"subscription_id": subID.String(),
			"period":          period,
			"kind":            string(wallet.KindDebit),
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, benefits.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("benefits/mongo: get debit: %w", err)
	}
	return fromTransactionModel(&m)
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all benefits collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPlans: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		colEmployees: {
			{Keys: bson.D{{Key: "company_id", Value: 1}}},
		},
		colPersons: {
			{Keys: bson.D{{Key: "employee_id", Value: 1}}},
		},
		colSubscriptions: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "employee_id", Value: 1}}},
			{Keys: bson.D{{Key: "plan_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		colWallets: {
			{
				Keys:    bson.D{{Key: "employee_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "company_id", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{
				Keys: bson.D{{Key: "subscription_id", Value: 1}, {Key: "period", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"kind": string(wallet.KindDebit)}),
			},
		},
	}
}
