package benefits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/benefits/employee"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/types"
	"github.com/xraph/benefits/wallet"
)

// CreateEmployee stores an employee together with their own identity record,
// verified through employment, and an empty wallet. currency defaults to the
// engine's default currency.
func (e *Engine) CreateEmployee(ctx context.Context, emp *employee.Employee, currency string) error {
	if emp.CompanyID == "" {
		return ValidationError{Field: "company_id", Message: "is required"}
	}
	if emp.FirstName == "" {
		return ValidationError{Field: "first_name", Message: "is required"}
	}
	if currency == "" {
		currency = e.defaultCurrency
	}
	now := e.now()

	if emp.ID.IsNil() {
		emp.ID = id.NewEmployeeID()
	}
	self := &employee.Person{
		Entity:     types.NewEntity(now),
		ID:         id.NewPersonID(),
		EmployeeID: emp.ID,
		FirstName:  emp.FirstName,
		LastName:   emp.LastName,
		VerifiedAt: &now,
	}
	emp.PersonID = self.ID
	emp.Entity = types.NewEntity(now)

	if err := e.store.CreateEmployee(ctx, emp); err != nil {
		return err
	}
	if err := e.store.CreatePerson(ctx, self); err != nil {
		return fmt.Errorf("create identity of employee %s: %w", emp.ID, err)
	}
	w := wallet.New(emp.ID, emp.CompanyID, strings.ToLower(currency), now)
	if err := e.store.CreateWallet(ctx, w); err != nil {
		return fmt.Errorf("create wallet of employee %s: %w", emp.ID, err)
	}

	e.logger.Info("employee created", "employee_id", emp.ID, "company_id", emp.CompanyID)
	return nil
}

// GetEmployee retrieves an employee by ID.
func (e *Engine) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	return e.store.GetEmployee(ctx, employeeID)
}

// ListEmployees lists a company's employees.
func (e *Engine) ListEmployees(ctx context.Context, companyID string) ([]*employee.Employee, error) {
	return e.store.ListEmployees(ctx, companyID)
}

// AddDependent records a dependent of an employee. Dependents start
// unverified, so covering one requires demographic verification.
func (e *Engine) AddDependent(ctx context.Context, employeeID id.EmployeeID, firstName, lastName string, dateOfBirth *time.Time) (*employee.Person, error) {
	if _, err := e.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	if firstName == "" {
		return nil, ValidationError{Field: "first_name", Message: "is required"}
	}

	p := &employee.Person{
		Entity:      types.NewEntity(e.now()),
		ID:          id.NewPersonID(),
		EmployeeID:  employeeID,
		FirstName:   firstName,
		LastName:    lastName,
		DateOfBirth: dateOfBirth,
	}
	if err := e.store.CreatePerson(ctx, p); err != nil {
		return nil, err
	}

	e.logger.Info("dependent added", "employee_id", employeeID, "person_id", p.ID)
	return p, nil
}

// GetPerson retrieves an identity record by ID.
func (e *Engine) GetPerson(ctx context.Context, personID id.PersonID) (*employee.Person, error) {
	return e.store.GetPerson(ctx, personID)
}
