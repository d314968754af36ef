// Package onboarding translates step-completion signals from external
// collaborators into lifecycle transitions.
package onboarding

import (
	"fmt"
	"time"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/subscription"
)

// Outcome is the typed result of delivering a step completion.
type Outcome string

const (
	// OutcomeAdvanced means the step was completed and the subscription moved on.
	OutcomeAdvanced Outcome = "advanced"
	// OutcomeAlreadyCompleted means the step had been completed before.
	// Nothing changed; redelivery needs no compensation.
	OutcomeAlreadyCompleted Outcome = "already_completed"
	// OutcomePending means a collaborator has not yet confirmed the step.
	OutcomePending Outcome = "pending"
)

// StepResult reports what a step completion did.
type StepResult struct {
	SubscriptionID id.SubscriptionID     `json:"subscription_id"`
	Step           subscription.StepType `json:"step"`
	Outcome        Outcome               `json:"outcome"`
	From           subscription.Status   `json:"from"`
	To             subscription.Status   `json:"to"`
	// Events lists the transitions applied, including passed-through
	// steps that were skipped at creation.
	Events []subscription.Event `json:"events,omitempty"`
}

// Activated reports whether the completion made the subscription active.
func (r StepResult) Activated() bool {
	return r.From != subscription.StatusActive && r.To == subscription.StatusActive
}

// Err returns subscription.ErrAlreadyCompleted for a redelivered step, for
// callers that fold outcomes into errors.
func (r StepResult) Err() error {
	if r.Outcome == OutcomeAlreadyCompleted {
		return subscription.ErrAlreadyCompleted
	}
	return nil
}

// Apply completes step on s. A step completed before yields
// OutcomeAlreadyCompleted and a nil error. A step that is not the one s is
// waiting on yields an error matching subscription.ErrInvalidTransition, with
// s unchanged.
func Apply(s *subscription.Subscription, step subscription.StepType, at time.Time) (StepResult, error) {
	res := StepResult{SubscriptionID: s.ID, Step: step, From: s.Status, To: s.Status}

	if !step.Valid() {
		return res, fmt.Errorf("%w: unknown step %q", subscription.ErrInvalidTransition, step)
	}
	rec := s.Step(step)
	if rec == nil {
		return res, fmt.Errorf("%w: subscription %s has no %s step", subscription.ErrInvalidTransition, s.ID, step)
	}
	if rec.Completed() {
		res.Outcome = OutcomeAlreadyCompleted
		return res, nil
	}

	ev, _ := subscription.EventFor(step)
	if awaited, ok := s.AwaitedStep(); !ok || awaited != step {
		return res, &subscription.TransitionError{Event: ev, From: s.Status}
	}
	if err := subscription.Fire(s, ev, at); err != nil {
		return res, err
	}

	done := at.UTC()
	rec = s.Step(step)
	rec.Status = subscription.StepCompleted
	rec.CompletedAt = &done

	res.Outcome = OutcomeAdvanced
	res.Events = append([]subscription.Event{ev}, subscription.Advance(s, at)...)
	res.To = s.Status
	return res, nil
}
