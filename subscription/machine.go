package subscription

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTransition = errors.New("benefits: invalid transition")
	ErrAlreadyCompleted  = errors.New("benefits: step already completed")
)

// Event drives the lifecycle state machine.
type Event string

const (
	EventDemographicsVerified Event = "demographic_verification_completed"
	EventDocumentsAccepted    Event = "documents_accepted"
	EventActivationConfirmed  Event = "plan_activation_confirmed"
	EventTerminationRequested Event = "termination_requested"
)

type transition struct {
	from, to Status
	step     StepType
}

// Termination is handled separately: it applies from any non-terminal state.
var transitions = map[Event]transition{
	EventDemographicsVerified: {StatusDemographicVerificationPending, StatusDocumentUploadPending, StepDemographicVerification},
	EventDocumentsAccepted:    {StatusDocumentUploadPending, StatusPlanActivationPending, StepDocumentUpload},
	EventActivationConfirmed:  {StatusPlanActivationPending, StatusActive, StepPlanActivation},
}

// TransitionError reports an event delivered in the wrong state.
type TransitionError struct {
	Event Event
	From  Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("benefits: invalid transition: %s from %s", e.Event, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// EventFor returns the event completing step.
func EventFor(step StepType) (Event, bool) {
	for ev, t := range transitions {
		if t.step == step {
			return ev, true
		}
	}
	return "", false
}

// AwaitedStep returns the step the subscription's current status waits on.
func (s *Subscription) AwaitedStep() (StepType, bool) {
	for _, t := range transitions {
		if t.from == s.Status {
			return t.step, true
		}
	}
	return "", false
}

// Fire applies ev to s. On error s is unchanged.
func Fire(s *Subscription, ev Event, at time.Time) error {
	if ev == EventTerminationRequested {
		if s.Status == StatusTerminated {
			return &TransitionError{Event: ev, From: s.Status}
		}
		end := at.UTC()
		s.Status = StatusTerminated
		s.EndDate = &end
		s.Touch(at)
		return nil
	}

	t, ok := transitions[ev]
	if !ok || s.Status != t.from {
		return &TransitionError{Event: ev, From: s.Status}
	}
	s.Status = t.to
	s.Touch(at)
	return nil
}

// Requirements selects which onboarding steps a new subscription must pass.
type Requirements struct {
	// Verification is set when an item references an unverified person.
	Verification bool
	// Documents is set when the plan requires uploaded documents.
	Documents bool
}

// Begin sets the initial status and step records of a new subscription.
// Skipped steps are recorded completed at creation. A skipped document step
// behind a pending verification is passed through by Advance.
func Begin(s *Subscription, req Requirements, at time.Time) {
	switch {
	case req.Verification:
		s.Status = StatusDemographicVerificationPending
	case req.Documents:
		s.Status = StatusDocumentUploadPending
	default:
		s.Status = StatusPlanActivationPending
	}

	done := at.UTC()
	skipped := map[StepType]bool{
		StepDemographicVerification: !req.Verification,
		StepDocumentUpload:          !req.Documents,
	}
	s.Steps = make([]StepRecord, 0, len(Steps))
	for _, step := range Steps {
		rec := StepRecord{Type: step, Status: StepPending}
		if skipped[step] {
			rec.Status = StepCompleted
			rec.CompletedAt = &done
		}
		s.Steps = append(s.Steps, rec)
	}
}

// Advance fires the events of steps already completed ahead of the current
// status, returning the events applied.
func Advance(s *Subscription, at time.Time) []Event {
	var fired []Event
	for {
		step, ok := s.AwaitedStep()
		if !ok {
			return fired
		}
		rec := s.Step(step)
		if rec == nil || !rec.Completed() || step == StepPlanActivation {
			return fired
		}
		ev, _ := EventFor(step)
		if err := Fire(s, ev, at); err != nil {
			return fired
		}
		fired = append(fired, ev)
	}
}
