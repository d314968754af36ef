package employee

import (
	"context"
	"time"

	"github.com/xraph/benefits/id"
)

type Store interface {
	CreateEmployee(ctx context.Context, e *Employee) error
	GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*Employee, error)
	ListEmployees(ctx context.Context, companyID string) ([]*Employee, error)

	CreatePerson(ctx context.Context, p *Person) error
	GetPerson(ctx context.Context, personID id.PersonID) (*Person, error)
	MarkPersonVerified(ctx context.Context, personID id.PersonID, at time.Time) error
}
