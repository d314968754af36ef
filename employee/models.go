// Package employee defines employees and the identity records of the people
// their subscriptions cover.
package employee

import (
	"maps"
	"time"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/types"
)

type Employee struct {
	types.Entity
	ID        id.EmployeeID `json:"id"`
	CompanyID string        `json:"company_id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	// PersonID is the employee's own identity record.
	PersonID id.PersonID       `json:"person_id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FullName returns "First Last".
func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Person is the identity record of a covered member. Dependents are created
// unverified; demographic verification stamps VerifiedAt.
type Person struct {
	types.Entity
	ID          id.PersonID   `json:"id"`
	EmployeeID  id.EmployeeID `json:"employee_id"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	DateOfBirth *time.Time    `json:"date_of_birth,omitempty"`
	VerifiedAt  *time.Time    `json:"verified_at,omitempty"`
}

// Verified reports whether the person's demographics have been confirmed.
func (p *Person) Verified() bool { return p.VerifiedAt != nil }

// Clone returns a deep copy safe to mutate.
func (e *Employee) Clone() *Employee {
	c := *e
	c.Metadata = maps.Clone(e.Metadata)
	return &c
}

// Clone returns a deep copy safe to mutate.
func (p *Person) Clone() *Person {
	c := *p
	if p.DateOfBirth != nil {
		dob := *p.DateOfBirth
		c.DateOfBirth = &dob
	}
	if p.VerifiedAt != nil {
		at := *p.VerifiedAt
		c.VerifiedAt = &at
	}
	return &c
}
