package types

import "time"

// Entity carries the persistence timestamps embedded in every stored record.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates an Entity stamped with t (UTC).
func NewEntity(t time.Time) Entity {
	t = t.UTC()
	return Entity{CreatedAt: t, UpdatedAt: t}
}

// Touch updates the UpdatedAt timestamp.
func (e *Entity) Touch(t time.Time) {
	e.UpdatedAt = t.UTC()
}
