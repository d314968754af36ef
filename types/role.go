package types

import (
	"errors"
	"fmt"
)

// ErrInvalidRole is returned for a covered-member role outside the known set.
var ErrInvalidRole = errors.New("benefits: invalid role")

// Role is the relationship of a covered member to the subscribing employee.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleSpouse   Role = "spouse"
	RoleChild    Role = "child"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleEmployee, RoleSpouse, RoleChild}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleSpouse, RoleChild:
		return true
	}
	return false
}

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}
