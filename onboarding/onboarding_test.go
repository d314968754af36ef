package onboarding

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSub(req subscription.Requirements) *subscription.Subscription {
	items := []subscription.Item{{Role: types.RoleEmployee, PersonID: id.NewPersonID()}}
	s := &subscription.Subscription{
		ID:            id.NewSubscriptionID(),
		Items:         items,
		Type:          subscription.DeriveType(items),
		BillingAnchor: 1,
	}
	subscription.Begin(s, req, now)
	return s
}

func TestApplyWalksSteps(t *testing.T) {
	s := newSub(subscription.Requirements{Verification: true, Documents: true})

	for _, step := range []struct {
		step subscription.StepType
		to   subscription.Status
	}{
		{subscription.StepDemographicVerification, subscription.StatusDocumentUploadPending},
		{subscription.StepDocumentUpload, subscription.StatusPlanActivationPending},
		{subscription.StepPlanActivation, subscription.StatusActive},
	} {
		res, err := Apply(s, step.step, now)
		require.NoError(t, err, step.step)
		assert.Equal(t, OutcomeAdvanced, res.Outcome)
		assert.Equal(t, step.to, res.To)
		assert.True(t, s.Step(step.step).Completed())
	}
	assert.Equal(t, subscription.StatusActive, s.Status)
}

func TestApplyTwiceIsAlreadyCompleted(t *testing.T) {
	s := newSub(subscription.Requirements{Documents: true})

	first, err := Apply(s, subscription.StepDocumentUpload, now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, first.Outcome)
	assert.Len(t, first.Events, 1)
	after := s.Clone()

	second, err := Apply(s, subscription.StepDocumentUpload, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCompleted, second.Outcome)
	assert.Empty(t, second.Events)
	assert.Equal(t, after, s)
}

func TestApplySkippedStepIsAlreadyCompleted(t *testing.T) {
	s := newSub(subscription.Requirements{})
	res, err := Apply(s, subscription.StepDemographicVerification, now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCompleted, res.Outcome)
	assert.Equal(t, subscription.StatusPlanActivationPending, s.Status)
}

func TestApplyOutOfOrder(t *testing.T) {
	s := newSub(subscription.Requirements{Verification: true, Documents: true})
	before := s.Clone()

	_, err := Apply(s, subscription.StepPlanActivation, now)
	assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
	_, err = Apply(s, subscription.StepDocumentUpload, now)
	assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
	assert.Equal(t, before, s)

	_, err = Apply(s, "payment", now)
	assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
}

func TestApplyPassesThroughSkippedDocuments(t *testing.T) {
	s := newSub(subscription.Requirements{Verification: true})

	res, err := Apply(s, subscription.StepDemographicVerification, now)
	require.NoError(t, err)
	assert.Equal(t, []subscription.Event{subscription.EventDemographicsVerified, subscription.EventDocumentsAccepted}, res.Events)
	assert.Equal(t, subscription.StatusPlanActivationPending, res.To)
	assert.False(t, res.Activated())
}

func TestApplyTerminated(t *testing.T) {
	s := newSub(subscription.Requirements{})
	require.NoError(t, subscription.Fire(s, subscription.EventTerminationRequested, now))

	_, err := Apply(s, subscription.StepPlanActivation, now)
	assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
}

func TestEvent(t *testing.T) {
	subID := id.NewSubscriptionID()
	ev := NewEvent(subID, subscription.StepDocumentUpload, "docstore", now)
	assert.NotEqual(t, uuid.Nil, ev.DeliveryID)
	assert.NoError(t, ev.Validate())

	other := NewEvent(subID, subscription.StepDocumentUpload, "docstore", now)
	assert.NotEqual(t, ev.DeliveryID, other.DeliveryID)

	ev.Step = "selfie"
	assert.ErrorIs(t, ev.Validate(), subscription.ErrInvalidTransition)
	assert.ErrorIs(t, Event{Step: subscription.StepDocumentUpload}.Validate(), subscription.ErrInvalidTransition)
}

func TestReviewDocuments(t *testing.T) {
	required := []string{"marriage_certificate", "birth_certificate", "proof_of_address"}

	review, err := ReviewDocuments(required, []Document{
		{Type: "marriage_certificate", Storage: StorageStored, Accepted: true},
		{Type: "birth_certificate", Storage: StorageStored, Accepted: false, Reason: "illegible"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"marriage_certificate"}, review.Accepted)
	assert.Equal(t, []string{"birth_certificate"}, review.Rejected)
	assert.Equal(t, []string{"proof_of_address"}, review.Missing)
	assert.False(t, review.Complete())

	review, err = ReviewDocuments(required[:1], []Document{
		{Type: "marriage_certificate", Storage: StorageStored, Accepted: false},
		{Type: "marriage_certificate", Storage: StorageStored, Accepted: true},
	})
	require.NoError(t, err)
	assert.True(t, review.Complete())

	_, err = ReviewDocuments(required[:1], []Document{{Type: "marriage_certificate", Storage: StorageFailed}})
	assert.ErrorIs(t, err, ErrCollaboratorUnavailable)

	review, err = ReviewDocuments(nil, nil)
	require.NoError(t, err)
	assert.True(t, review.Complete())
}
