package onboarding

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/subscription"
)

// Event is a step completion pushed by a collaborator. Collaborators may
// redeliver; DeliveryID stays the same across retries of one delivery.
type Event struct {
	DeliveryID     uuid.UUID             `json:"delivery_id"`
	SubscriptionID id.SubscriptionID     `json:"subscription_id"`
	Step           subscription.StepType `json:"step"`
	Source         string                `json:"source"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// NewEvent stamps a fresh delivery id.
func NewEvent(subID id.SubscriptionID, step subscription.StepType, source string, at time.Time) Event {
	return Event{
		DeliveryID:     uuid.New(),
		SubscriptionID: subID,
		Step:           step,
		Source:         source,
		OccurredAt:     at.UTC(),
	}
}

// Validate checks the event is addressable.
func (e Event) Validate() error {
	if e.SubscriptionID.IsNil() {
		return fmt.Errorf("%w: event %s has no subscription", subscription.ErrInvalidTransition, e.DeliveryID)
	}
	if !e.Step.Valid() {
		return fmt.Errorf("%w: event %s has unknown step %q", subscription.ErrInvalidTransition, e.DeliveryID, e.Step)
	}
	return nil
}
