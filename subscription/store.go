package subscription

import (
	"context"

	"github.com/xraph/benefits/id"
)

// UpdateFunc mutates a subscription inside an atomic read-modify-write.
// Returning an error aborts the update and leaves the record untouched.
type UpdateFunc func(s *Subscription) error

type Store interface {
	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, subID id.SubscriptionID) (*Subscription, error)
	ListSubscriptions(ctx context.Context, companyID string, opts ListOpts) ([]*Subscription, error)
	ListSubscriptionsByStatus(ctx context.Context, status Status) ([]*Subscription, error)
	// UpdateSubscription applies fn to the stored record. Readers never
	// observe a partially applied fn.
	UpdateSubscription(ctx context.Context, subID id.SubscriptionID, fn UpdateFunc) (*Subscription, error)
}

type ListOpts struct {
	Status     Status
	EmployeeID id.EmployeeID
	PlanID     id.PlanID
	Limit      int
	Offset     int
}
