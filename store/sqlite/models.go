package sqlite

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/benefits/employee"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
	"github.com/xraph/benefits/wallet"
)

// ==================== Plan models ====================

type planModel struct {
	grove.BaseModel `grove:"table:benefits_plans"`

	ID                string    `grove:"id,pk"`
	CompanyID         string    `grove:"company_id"`
	Name              string    `grove:"name"`
	Description       string    `grove:"description"`
	Currency          string    `grove:"currency"`
	Status            string    `grove:"status"`
	EmployeeCost      int64     `grove:"employee_cost"`
	EmployeePercent   string    `grove:"employee_percent"`
	SpouseCost        int64     `grove:"spouse_cost"`
	SpousePercent     string    `grove:"spouse_percent"`
	ChildCost         int64     `grove:"child_cost"`
	ChildPercent      string    `grove:"child_percent"`
	RequiredDocuments string    `grove:"required_documents"`
	Metadata          string    `grove:"metadata"`
	CreatedAt         time.Time `grove:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"`
}

func toPlanModel(p *plan.Plan) *planModel {
	return &planModel{
		ID:                p.ID.String(),
		CompanyID:         p.CompanyID,
		Name:              p.Name,
		Description:       p.Description,
		Currency:          p.Currency,
		Status:            string(p.Status),
		EmployeeCost:      p.Employee.MonthlyCost.Amount,
		EmployeePercent:   p.Employee.EmployerPercent.String(),
		SpouseCost:        p.Spouse.MonthlyCost.Amount,
		SpousePercent:     p.Spouse.EmployerPercent.String(),
		ChildCost:         p.Child.MonthlyCost.Amount,
		ChildPercent:      p.Child.EmployerPercent.String(),
		RequiredDocuments: marshalText(p.RequiredDocuments, "[]"),
		Metadata:          marshalText(p.Metadata, "{}"),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) (*plan.Plan, error) {
	planID, err := id.ParsePlanID(m.ID)
	if err != nil {
		return nil, err
	}
	employeeRate, err := toRate(m.EmployeeCost, m.EmployeePercent, m.Currency)
	if err != nil {
		return nil, err
	}
	spouseRate, err := toRate(m.SpouseCost, m.SpousePercent, m.Currency)
	if err != nil {
		return nil, err
	}
	childRate, err := toRate(m.ChildCost, m.ChildPercent, m.Currency)
	if err != nil {
		return nil, err
	}

	p := &plan.Plan{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          planID,
		CompanyID:   m.CompanyID,
		Name:        m.Name,
		Description: m.Description,
		Currency:    m.Currency,
		Status:      plan.Status(m.Status),
		Employee:    employeeRate,
		Spouse:      spouseRate,
		Child:       childRate,
	}
	if err := unmarshalText(m.RequiredDocuments, &p.RequiredDocuments); err != nil {
		return nil, err
	}
	if err := unmarshalText(m.Metadata, &p.Metadata); err != nil {
		return nil, err
	}
	return p, nil
}

func toRate(cost int64, percent, currency string) (plan.Rate, error) {
	pct, err := decimal.NewFromString(percent)
	if err != nil {
		return plan.Rate{}, err
	}
	return plan.Rate{MonthlyCost: types.New(cost, currency), EmployerPercent: pct}, nil
}

// ==================== Employee models ====================

type employeeModel struct {
	grove.BaseModel `grove:"table:benefits_employees"`

	ID        string    `grove:"id,pk"`
	CompanyID string    `grove:"company_id"`
	FirstName string    `grove:"first_name"`
	LastName  string    `grove:"last_name"`
	Email     string    `grove:"email"`
	PersonID  string    `grove:"person_id"`
	Metadata  string    `grove:"metadata"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toEmployeeModel(e *employee.Employee) *employeeModel {
	return &employeeModel{
		ID:        e.ID.String(),
		CompanyID: e.CompanyID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Email:     e.Email,
		PersonID:  e.PersonID.String(),
		Metadata:  marshalText(e.Metadata, "{}"),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func fromEmployeeModel(m *employeeModel) (*employee.Employee, error) {
	empID, err := id.ParseEmployeeID(m.ID)
	if err != nil {
		return nil, err
	}
	personID, err := id.ParsePersonID(m.PersonID)
	if err != nil {
		return nil, err
	}
	e := &employee.Employee{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        empID,
		CompanyID: m.CompanyID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		PersonID:  personID,
	}
	if err := unmarshalText(m.Metadata, &e.Metadata); err != nil {
		return nil, err
	}
	return e, nil
}

type personModel struct {
	grove.BaseModel `grove:"table:benefits_persons"`

	ID          string     `grove:"id,pk"`
	EmployeeID  string     `grove:"employee_id"`
	FirstName   string     `grove:"first_name"`
	LastName    string     `grove:"last_name"`
	DateOfBirth *time.Time `grove:"date_of_birth"`
	VerifiedAt  *time.Time `grove:"verified_at"`
	CreatedAt   time.Time  `grove:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"`
}

func toPersonModel(p *employee.Person) *personModel {
	return &personModel{
		ID:          p.ID.String(),
		EmployeeID:  p.EmployeeID.String(),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: p.DateOfBirth,
		VerifiedAt:  p.VerifiedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromPersonModel(m *personModel) (*employee.Person, error) {
	personID, err := id.ParsePersonID(m.ID)
	if err != nil {
		return nil, err
	}
	empID, err := id.ParseEmployeeID(m.EmployeeID)
	if err != nil {
		return nil, err
	}
	return &employee.Person{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          personID,
		EmployeeID:  empID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		DateOfBirth: m.DateOfBirth,
		VerifiedAt:  m.VerifiedAt,
	}, nil
}

// ==================== Subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:benefits_subscriptions"`

	ID            string     `grove:"id,pk"`
	CompanyID     string     `grove:"company_id"`
	EmployeeID    string     `grove:"employee_id"`
	PlanID        string     `grove:"plan_id"`
	Type          string     `grove:"type"`
	Items         string     `grove:"items"`
	Status        string     `grove:"status"`
	Steps         string     `grove:"steps"`
	StartDate     time.Time  `grove:"start_date"`
	EndDate       *time.Time `grove:"end_date"`
	BillingAnchor int        `grove:"billing_anchor"`
	Version       int64      `grove:"version"`
	Metadata      string     `grove:"metadata"`
	CreatedAt     time.Time  `grove:"created_at"`
	UpdatedAt     time.Time  `grove:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:            s.ID.String(),
		CompanyID:     s.CompanyID,
		EmployeeID:    s.EmployeeID.String(),
		PlanID:        s.PlanID.String(),
		Type:          string(s.Type),
		Items:         marshalText(s.Items, "[]"),
		Status:        string(s.Status),
		Steps:         marshalText(s.Steps, "[]"),
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		BillingAnchor: s.BillingAnchor,
		Version:       s.Version,
		Metadata:      marshalText(s.Metadata, "{}"),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, err
	}
	empID, err := id.ParseEmployeeID(m.EmployeeID)
	if err != nil {
		return nil, err
	}
	planID, err := id.ParsePlanID(m.PlanID)
	if err != nil {
		return nil, err
	}

	s := &subscription.Subscription{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            subID,
		CompanyID:     m.CompanyID,
		EmployeeID:    empID,
		PlanID:        planID,
		Type:          subscription.Type(m.Type),
		Status:        subscription.Status(m.Status),
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		BillingAnchor: m.BillingAnchor,
		Version:       m.Version,
	}
	if err := unmarshalText(m.Items, &s.Items); err != nil {
		return nil, err
	}
	if err := unmarshalText(m.Steps, &s.Steps); err != nil {
		return nil, err
	}
	if err := unmarshalText(m.Metadata, &s.Metadata); err != nil {
		return nil, err
	}
	return s, nil
}

// ==================== Wallet models ====================

type walletModel struct {
	grove.BaseModel `grove:"table:benefits_wallets"`

	ID                  string    `grove:"id,pk"`
	EmployeeID          string    `grove:"employee_id"`
	CompanyID           string    `grove:"company_id"`
	Balance             int64     `grove:"balance"`
	Currency            string    `grove:"currency"`
	LastDebitSufficient *bool     `grove:"last_debit_sufficient"`
	Version             int64     `grove:"version"`
	CreatedAt           time.Time `grove:"created_at"`
	UpdatedAt           time.Time `grove:"updated_at"`
}

func toWalletModel(w *wallet.Wallet) *walletModel {
	return &walletModel{
		ID:                  w.ID.String(),
		EmployeeID:          w.EmployeeID.String(),
		CompanyID:           w.CompanyID,
		Balance:             w.Balance.Amount,
		Currency:            w.Balance.Currency,
		LastDebitSufficient: w.LastDebitSufficient,
		Version:             w.Version,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
	}
}

func fromWalletModel(m *walletModel) (*wallet.Wallet, error) {
	walletID, err := id.ParseWalletID(m.ID)
	if err != nil {
		return nil, err
	}
	empID, err := id.ParseEmployeeID(m.EmployeeID)
	if err != nil {
		return nil, err
	}
	return &wallet.Wallet{
		Entity:              types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                  walletID,
		EmployeeID:          empID,
		CompanyID:           m.CompanyID,
		Balance:             types.New(m.Balance, m.Currency),
		LastDebitSufficient: m.LastDebitSufficient,
		Version:             m.Version,
	}, nil
}

type transactionModel struct {
	grove.BaseModel `grove:"table:benefits_transactions"`

	ID             string    `grove:"id,pk"`
	WalletID       string    `grove:"wallet_id"`
	EmployeeID     string    `grove:"employee_id"`
	Kind           string    `grove:"kind"`
	Amount         int64     `grove:"amount"`
	BalanceAfter   int64     `grove:"balance_after"`
	Currency       string    `grove:"currency"`
	Sufficient     bool      `grove:"sufficient"`
	SubscriptionID string    `grove:"subscription_id"`
	Period         string    `grove:"period"`
	Description    string    `grove:"description"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func toTransactionModel(tx *wallet.Transaction) *transactionModel {
	m := &transactionModel{
		ID:           tx.ID.String(),
		WalletID:     tx.WalletID.String(),
		EmployeeID:   tx.EmployeeID.String(),
		Kind:         string(tx.Kind),
		Amount:       tx.Amount.Amount,
		BalanceAfter: tx.BalanceAfter.Amount,
		Currency:     tx.Amount.Currency,
		Sufficient:   tx.Sufficient,
		Period:       tx.Period,
		Description:  tx.Description,
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
	if !tx.SubscriptionID.IsNil() {
		m.SubscriptionID = tx.SubscriptionID.String()
	}
	return m
}

func fromTransactionModel(m *transactionModel) (*wallet.Transaction, error) {
	txID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, err
	}
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}
	empID, err := id.ParseEmployeeID(m.EmployeeID)
	if err != nil {
		return nil, err
	}
	tx := &wallet.Transaction{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           txID,
		WalletID:     walletID,
		EmployeeID:   empID,
		Kind:         wallet.TransactionKind(m.Kind),
		Amount:       types.New(m.Amount, m.Currency),
		BalanceAfter: types.New(m.BalanceAfter, m.Currency),
		Sufficient:   m.Sufficient,
		Period:       m.Period,
		Description:  m.Description,
	}
	if m.SubscriptionID != "" {
		if tx.SubscriptionID, err = id.ParseSubscriptionID(m.SubscriptionID); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// ==================== Helpers ====================

// marshalText encodes v for a TEXT column, storing empty for nil values.
func marshalText(v any, empty string) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return empty
	}
	return string(b)
}

func unmarshalText(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
