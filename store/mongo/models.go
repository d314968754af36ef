package mongo

import (
	"time"

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

	ID                string            `grove:"id,pk"              bson:"_id"`
	CompanyID         string            `grove:"company_id"         bson:"company_id"`
	Name              string            `grove:"name"               bson:"name"`
	Description       string            `grove:"description"        bson:"description"`
	Currency          string            `grove:"currency"           bson:"currency"`
	Status            string            `grove:"status"             bson:"status"`
	Employee          rateModel         `grove:"employee"           bson:"employee"`
	Spouse            rateModel         `grove:"spouse"             bson:"spouse"`
	Child             rateModel         `grove:"child"              bson:"child"`
	RequiredDocuments []string          `grove:"required_documents" bson:"required_documents,omitempty"`
	Metadata          map[string]string `grove:"metadata"           bson:"metadata,omitempty"`
	CreatedAt         time.Time         `grove:"created_at"         bson:"created_at"`
	UpdatedAt         time.Time         `grove:"updated_at"         bson:"updated_at"`
}

// rateModel keeps the employer percentage as a decimal string so 33.33
// survives the round trip exactly.
type rateModel struct {
	MonthlyCost     int64  `bson:"monthly_cost"`
	EmployerPercent string `bson:"employer_percent"`
}

func toRateModel(r plan.Rate) rateModel {
	return rateModel{MonthlyCost: r.MonthlyCost.Amount, EmployerPercent: r.EmployerPercent.String()}
}

func fromRateModel(m rateModel, currency string) (plan.Rate, error) {
	pct, err := decimal.NewFromString(m.EmployerPercent)
	if err != nil {
		return plan.Rate{}, err
	}
	return plan.Rate{MonthlyCost: types.New(m.MonthlyCost, currency), EmployerPercent: pct}, nil
}

func toPlanModel(p *plan.Plan) *planModel {
	return &planModel{
		ID:                p.ID.String(),
		CompanyID:         p.CompanyID,
		Name:              p.Name,
		Description:       p.Description,
		Currency:          p.Currency,
		Status:            string(p.Status),
		Employee:          toRateModel(p.Employee),
		Spouse:            toRateModel(p.Spouse),
		Child:             toRateModel(p.Child),
		RequiredDocuments: p.RequiredDocuments,
		Metadata:          p.Metadata,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) (*plan.Plan, error) {
	planID, err := id.ParsePlanID(m.ID)
	if err != nil {
		return nil, err
	}
	employeeRate, err := fromRateModel(m.Employee, m.Currency)
	if err != nil {
		return nil, err
	}
	spouseRate, err := fromRateModel(m.Spouse, m.Currency)
	if err != nil {
		return nil, err
	}
	childRate, err := fromRateModel(m.Child, m.Currency)
	if err != nil {
		return nil, err
	}

	return &plan.Plan{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                planID,
		CompanyID:         m.CompanyID,
		Name:              m.Name,
		Description:       m.Description,
		Currency:          m.Currency,
		Status:            plan.Status(m.Status),
		Employee:          employeeRate,
		Spouse:            spouseRate,
		Child:             childRate,
		RequiredDocuments: m.RequiredDocuments,
		Metadata:          m.Metadata,
	}, nil
}

// ==================== Employee models ====================

type employeeModel struct {
	grove.BaseModel `grove:"table:benefits_employees"`

	ID        string            `grove:"id,pk"      bson:"_id"`
	CompanyID string            `grove:"company_id" bson:"company_id"`
	FirstName string            `grove:"first_name" bson:"first_name"`
	LastName  string            `grove:"last_name"  bson:"last_name"`
	Email     string            `grove:"email"      bson:"email"`
	PersonID  string            `grove:"person_id"  bson:"person_id"`
	Metadata  map[string]string `grove:"metadata"   bson:"metadata,omitempty"`
	CreatedAt time.Time         `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at" bson:"updated_at"`
}

func toEmployeeModel(e *employee.Employee) *employeeModel {
	return &employeeModel{
		ID:        e.ID.String(),
		CompanyID: e.CompanyID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Email:     e.Email,
		PersonID:  e.PersonID.String(),
		Metadata:  e.Metadata,
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
	return &employee.Employee{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        empID,
		CompanyID: m.CompanyID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		PersonID:  personID,
		Metadata:  m.Metadata,
	}, nil
}

type personModel struct {
	grove.BaseModel `grove:"table:benefits_persons"`

	ID          string     `grove:"id,pk"         bson:"_id"`
	EmployeeID  string     `grove:"employee_id"   bson:"employee_id"`
	FirstName   string     `grove:"first_name"    bson:"first_name"`
	LastName    string     `grove:"last_name"     bson:"last_name"`
	DateOfBirth *time.Time `grove:"date_of_birth" bson:"date_of_birth,omitempty"`
	VerifiedAt  *time.Time `grove:"verified_at"   bson:"verified_at,omitempty"`
	CreatedAt   time.Time  `grove:"created_at"    bson:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"    bson:"updated_at"`
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

	ID            string            `grove:"id,pk"          bson:"_id"`
	CompanyID     string            `grove:"company_id"     bson:"company_id"`
	EmployeeID    string            `grove:"employee_id"    bson:"employee_id"`
	PlanID        string            `grove:"plan_id"        bson:"plan_id"`
	Type          string            `grove:"type"           bson:"type"`
	Items         []itemModel       `grove:"items"          bson:"items"`
	Status        string            `grove:"status"         bson:"status"`
	Steps         []stepModel       `grove:"steps"          bson:"steps"`
	StartDate     time.Time         `grove:"start_date"     bson:"start_date"`
	EndDate       *time.Time        `grove:"end_date"       bson:"end_date,omitempty"`
	BillingAnchor int               `grove:"billing_anchor" bson:"billing_anchor"`
	Version       int64             `grove:"version"        bson:"version"`
	Metadata      map[string]string `grove:"metadata"       bson:"metadata,omitempty"`
	CreatedAt     time.Time         `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"     bson:"updated_at"`
}

type itemModel struct {
	Role     string `bson:"role"`
	PersonID string `bson:"person_id"`
}

type stepModel struct {
	Type        string     `bson:"type"`
	Status      string     `bson:"status"`
	CompletedAt *time.Time `bson:"completed_at,omitempty"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	items := make([]itemModel, len(s.Items))
	for i, it := range s.Items {
		items[i] = itemModel{Role: string(it.Role), PersonID: it.PersonID.String()}
	}
	steps := make([]stepModel, len(s.Steps))
	for i, st := range s.Steps {
		steps[i] = stepModel{Type: string(st.Type), Status: string(st.Status), CompletedAt: st.CompletedAt}
	}

	return &subscriptionModel{
		ID:            s.ID.String(),
		CompanyID:     s.CompanyID,
		EmployeeID:    s.EmployeeID.String(),
		PlanID:        s.PlanID.String(),
		Type:          string(s.Type),
		Items:         items,
		Status:        string(s.Status),
		Steps:         steps,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		BillingAnchor: s.BillingAnchor,
		Version:       s.Version,
		Metadata:      s.Metadata,
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

	items := make([]subscription.Item, len(m.Items))
	for i, it := range m.Items {
		personID, err := id.ParsePersonID(it.PersonID)
		if err != nil {
			return nil, err
		}
		items[i] = subscription.Item{Role: types.Role(it.Role), PersonID: personID}
	}
	steps := make([]subscription.StepRecord, len(m.Steps))
	for i, st := range m.Steps {
		steps[i] = subscription.StepRecord{
			Type:        subscription.StepType(st.Type),
			Status:      subscription.StepStatus(st.Status),
			CompletedAt: st.CompletedAt,
		}
	}

	return &subscription.Subscription{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            subID,
		CompanyID:     m.CompanyID,
		EmployeeID:    empID,
		PlanID:        planID,
		Type:          subscription.Type(m.Type),
		Items:         items,
		Status:        subscription.Status(m.Status),
		Steps:         steps,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		BillingAnchor: m.BillingAnchor,
		Version:       m.Version,
		Metadata:      m.Metadata,
	}, nil
}

// ==================== Wallet models ====================

type walletModel struct {
	grove.BaseModel `grove:"table:benefits_wallets"`

	ID                  string    `grove:"id,pk"                 bson:"_id"`
	EmployeeID          string    `grove:"employee_id"           bson:"employee_id"`
	CompanyID           string    `grove:"company_id"            bson:"company_id"`
	Balance             int64     `grove:"balance"               bson:"balance"`
	Currency            string    `grove:"currency"              bson:"currency"`
	LastDebitSufficient *bool     `grove:"last_debit_sufficient" bson:"last_debit_sufficient,omitempty"`
	Version             int64     `grove:"version"               bson:"version"`
	CreatedAt           time.Time `grove:"created_at"            bson:"created_at"`
	UpdatedAt           time.Time `grove:"updated_at"            bson:"updated_at"`
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

	ID             string    `grove:"id,pk"           bson:"_id"`
	WalletID       string    `grove:"wallet_id"       bson:"wallet_id"`
	EmployeeID     string    `grove:"employee_id"     bson:"employee_id"`
	Kind           string    `grove:"kind"            bson:"kind"`
	Amount         int64     `grove:"amount"          bson:"amount"`
	BalanceAfter   int64     `grove:"balance_after"   bson:"balance_after"`
	Currency       string    `grove:"currency"        bson:"currency"`
	Sufficient     bool      `grove:"sufficient"      bson:"sufficient"`
	SubscriptionID string    `grove:"subscription_id" bson:"subscription_id,omitempty"`
	Period         string    `grove:"period"          bson:"period,omitempty"`
	Description    string    `grove:"description"     bson:"description,omitempty"`
	CreatedAt      time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"      bson:"updated_at"`
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
