// Package id defines TypeID-based identities for benefits records.
//
// Every record uses one ID struct whose prefix names the record type.
// IDs are K-sortable (UUIDv7-based) and render as "prefix_suffix";
// String() order follows creation time at millisecond granularity.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all record types.
const (
	PrefixPlan         Prefix = "plan" // Healthcare plan
	PrefixSubscription Prefix = "sub"  // Healthcare subscription
	PrefixEmployee     Prefix = "emp"  // Employee
	PrefixPerson       Prefix = "psn"  // Covered person identity record
	PrefixWallet       Prefix = "wal"  // Prepaid wallet
	PrefixTransaction  Prefix = "txn"  // Wallet ledger entry
)

// ID is the identifier type for every record.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "plan_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// PlanID identifies a healthcare plan (prefix: "plan").
type PlanID = ID

// SubscriptionID identifies a subscription (prefix: "sub").
type SubscriptionID = ID

// EmployeeID identifies an employee (prefix: "emp").
type EmployeeID = ID

// PersonID identifies a covered person (prefix: "psn").
type PersonID = ID

// WalletID identifies a wallet (prefix: "wal").
type WalletID = ID

// TransactionID identifies a wallet ledger entry (prefix: "txn").
type TransactionID = ID

func NewPlanID() ID         { return New(PrefixPlan) }
func NewSubscriptionID() ID { return New(PrefixSubscription) }
func NewEmployeeID() ID     { return New(PrefixEmployee) }
func NewPersonID() ID       { return New(PrefixPerson) }
func NewWalletID() ID       { return New(PrefixWallet) }
func NewTransactionID() ID  { return New(PrefixTransaction) }

func ParsePlanID(s string) (ID, error)         { return ParseWithPrefix(s, PrefixPlan) }
func ParseSubscriptionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSubscription) }
func ParseEmployeeID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixEmployee) }
func ParsePersonID(s string) (ID, error)       { return ParseWithPrefix(s, PrefixPerson) }
func ParseWalletID(s string) (ID, error)       { return ParseWithPrefix(s, PrefixWallet) }
func ParseTransactionID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixTransaction) }

// ParseOptional parses s, mapping the empty string to Nil.
func ParseOptional(s string, expected Prefix) (ID, error) {
	if s == "" {
		return Nil, nil
	}
	return ParseWithPrefix(s, expected)
}

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
