package benefits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/benefits/cost"
	"github.com/xraph/benefits/employee"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/onboarding"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
)

// SubscribeOpts are the optional parameters of CreateSubscription.
type SubscribeOpts struct {
	// StartDate defaults to now.
	StartDate time.Time
	// BillingAnchor defaults to the start date's day of month.
	BillingAnchor int
	Metadata      map[string]string
}

// CreateSubscription enrolls an employee and the covered members in items
// into a plan. The employee item must reference the employee's own identity
// record; other items must reference the employee's dependents. The
// subscription starts at the first onboarding step it requires.
func (e *Engine) CreateSubscription(ctx context.Context, employeeID id.EmployeeID, planID id.PlanID, items []subscription.Item, opts SubscribeOpts) (*subscription.Subscription, error) {
	emp, err := e.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	p, err := e.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.Status == plan.StatusArchived {
		return nil, fmt.Errorf("%w: %s", ErrPlanArchived, planID)
	}
	if p.CompanyID != emp.CompanyID {
		return nil, fmt.Errorf("%w: plan %s belongs to another company", ErrInsufficientReference, planID)
	}
	w, err := e.store.GetWallet(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if w.Currency() != p.Currency {
		return nil, fmt.Errorf("%w: plan %s bills in %s, wallet holds %s", ErrCurrencyMismatch, planID, p.Currency, w.Currency())
	}

	if err := subscription.ValidateItems(items); err != nil {
		return nil, err
	}
	// Surface a misconfigured plan now rather than at the first billing cycle.
	if _, err := cost.Compute(p, items); err != nil {
		return nil, err
	}

	persons, err := e.coveredPersons(ctx, emp, items)
	if err != nil {
		return nil, err
	}
	req := subscription.Requirements{Documents: p.RequiresDocuments()}
	for _, person := range persons {
		req.Verification = req.Verification || !person.Verified()
	}

	now := e.now()
	start := opts.StartDate
	if start.IsZero() {
		start = now
	}
	start = start.UTC()
	anchor := opts.BillingAnchor
	if anchor == 0 {
		anchor = start.Day()
	}

	sub := &subscription.Subscription{
		Entity:        types.NewEntity(now),
		ID:            id.NewSubscriptionID(),
		CompanyID:     emp.CompanyID,
		EmployeeID:    emp.ID,
		PlanID:        p.ID,
		Type:          subscription.DeriveType(items),
		Items:         items,
		StartDate:     start,
		BillingAnchor: anchor,
		Metadata:      opts.Metadata,
	}
	subscription.Begin(sub, req, now)
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	if err := e.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	e.logger.Info("subscription created",
		"subscription_id", sub.ID,
		"employee_id", sub.EmployeeID,
		"plan_id", sub.PlanID,
		"type", sub.Type,
		"status", sub.Status,
	)
	e.plugins.EmitSubscriptionCreated(ctx, sub)
	return sub, nil
}

// coveredPersons loads the identity records of items and checks they belong
// to emp.
func (e *Engine) coveredPersons(ctx context.Context, emp *employee.Employee, items []subscription.Item) ([]*employee.Person, error) {
	persons := make([]*employee.Person, 0, len(items))
	for _, it := range items {
		if it.Role == types.RoleEmployee && it.PersonID.String() != emp.PersonID.String() {
			return nil, fmt.Errorf("%w: employee item must cover employee %s", ErrInvalidItems, emp.ID)
		}
		person, err := e.store.GetPerson(ctx, it.PersonID)
		if err != nil {
			return nil, err
		}
		if person.EmployeeID.String() != emp.ID.String() {
			return nil, fmt.Errorf("%w: person %s is not a dependent of employee %s", ErrInvalidItems, person.ID, emp.ID)
		}
		persons = append(persons, person)
	}
	return persons, nil
}

// GetSubscription retrieves a subscription by ID.
func (e *Engine) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return e.store.GetSubscription(ctx, subID)
}

// ListSubscriptions lists a company's subscriptions.
func (e *Engine) ListSubscriptions(ctx context.Context, companyID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	return e.store.ListSubscriptions(ctx, companyID, opts)
}

// GetSubscriptionCost computes the monthly cost of a subscription under its
// plan.
func (e *Engine) GetSubscriptionCost(ctx context.Context, subID id.SubscriptionID) (*cost.Breakdown, error) {
	sub, err := e.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}
	p, err := e.store.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	return cost.ForSubscription(p, sub)
}

// errUnchanged aborts an atomic update without writing.
var errUnchanged = errors.New("benefits: unchanged")

// CompleteStep marks an onboarding step completed and advances the
// subscription. A step completed before yields OutcomeAlreadyCompleted with
// a nil error; a step the subscription is not waiting on yields an error
// matching ErrInvalidTransition.
func (e *Engine) CompleteStep(ctx context.Context, subID id.SubscriptionID, step subscription.StepType) (onboarding.StepResult, error) {
	var res onboarding.StepResult
	sub, err := e.store.UpdateSubscription(ctx, subID, func(s *subscription.Subscription) error {
		var err error
		res, err = onboarding.Apply(s, step, e.now())
		if err != nil {
			return err
		}
		if res.Outcome == onboarding.OutcomeAlreadyCompleted {
			return errUnchanged
		}
		return nil
	})
	switch {
	case errors.Is(err, errUnchanged):
		e.logger.Debug("onboarding step already completed", "subscription_id", subID, "step", step)
		return res, nil
	case err != nil:
		return res, err
	}

	e.logger.Info("onboarding step completed",
		"subscription_id", subID,
		"step", step,
		"from", res.From,
		"to", res.To,
	)
	e.plugins.EmitStepCompleted(ctx, sub, res)
	if res.Activated() {
		e.logger.Info("subscription activated", "subscription_id", subID)
		e.plugins.EmitSubscriptionActivated(ctx, sub)
	}
	return res, nil
}

// ConfirmActivation completes the plan activation step.
func (e *Engine) ConfirmActivation(ctx context.Context, subID id.SubscriptionID) (onboarding.StepResult, error) {
	return e.CompleteStep(ctx, subID, subscription.StepPlanActivation)
}

// HandleEvent applies a step completion pushed by a collaborator. A pushed
// demographic verification marks every covered person verified.
func (e *Engine) HandleEvent(ctx context.Context, ev onboarding.Event) (onboarding.StepResult, error) {
	if err := ev.Validate(); err != nil {
		return onboarding.StepResult{}, err
	}
	e.logger.Debug("onboarding event received",
		"delivery_id", ev.DeliveryID,
		"subscription_id", ev.SubscriptionID,
		"step", ev.Step,
		"source", ev.Source,
	)

	if ev.Step == subscription.StepDemographicVerification {
		sub, err := e.store.GetSubscription(ctx, ev.SubscriptionID)
		if err != nil {
			return onboarding.StepResult{}, err
		}
		if rec := sub.Step(ev.Step); rec != nil && !rec.Completed() && sub.Status == subscription.StatusDemographicVerificationPending {
			for _, it := range sub.Items {
				if err := e.store.MarkPersonVerified(ctx, it.PersonID, ev.OccurredAt); err != nil {
					return onboarding.StepResult{}, err
				}
			}
		}
	}

	res, err := e.CompleteStep(ctx, ev.SubscriptionID, ev.Step)
	if err != nil {
		e.logger.Warn("onboarding event rejected",
			"delivery_id", ev.DeliveryID,
			"subscription_id", ev.SubscriptionID,
			"error", err,
		)
	}
	return res, err
}

// VerificationReport is the outcome of VerifyDemographics.
type VerificationReport struct {
	onboarding.StepResult
	// Unverified lists covered persons the verifier did not confirm.
	Unverified []onboarding.Verification `json:"unverified,omitempty"`
}

// VerifyDemographics asks the identity verifier about every unverified
// covered person and completes the verification step once all are
// confirmed. Otherwise the step stays pending and the report lists the
// persons still unverified.
func (e *Engine) VerifyDemographics(ctx context.Context, subID id.SubscriptionID) (*VerificationReport, error) {
	sub, err := e.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}
	if done, res, err := e.stepSettled(ctx, sub, subscription.StepDemographicVerification); done {
		return &VerificationReport{StepResult: res}, err
	}
	if e.verifier == nil {
		return nil, ErrNoIdentityVerifier
	}

	report := &VerificationReport{}
	for _, it := range sub.Items {
		person, err := e.store.GetPerson(ctx, it.PersonID)
		if err != nil {
			return nil, err
		}
		if person.Verified() {
			continue
		}
		v, err := e.verifier.Verify(ctx, person)
		if err != nil {
			return nil, fmt.Errorf("%w: verify person %s: %w", ErrCollaboratorUnavailable, person.ID, err)
		}
		if !v.Verified {
			report.Unverified = append(report.Unverified, v)
			continue
		}
		if err := e.store.MarkPersonVerified(ctx, person.ID, e.now()); err != nil {
			return nil, err
		}
	}

	if len(report.Unverified) > 0 {
		report.StepResult = pendingResult(sub, subscription.StepDemographicVerification)
		e.logger.Info("demographic verification incomplete",
			"subscription_id", subID,
			"unverified", len(report.Unverified),
		)
		return report, nil
	}

	report.StepResult, err = e.CompleteStep(ctx, subID, subscription.StepDemographicVerification)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// DocumentReport is the outcome of ReviewDocuments.
type DocumentReport struct {
	onboarding.StepResult
	Review onboarding.DocumentReview `json:"review"`
}

// ReviewDocuments asks the document intake which of the plan's required
// documents are stored and accepted, and completes the upload step once all
// are. A document whose storage failed makes the intake unavailable.
func (e *Engine) ReviewDocuments(ctx context.Context, subID id.SubscriptionID) (*DocumentReport, error) {
	sub, err := e.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}
	if done, res, err := e.stepSettled(ctx, sub, subscription.StepDocumentUpload); done {
		return &DocumentReport{StepResult: res}, err
	}
	if e.documents == nil {
		return nil, ErrNoDocumentIntake
	}

	p, err := e.store.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	docs, err := e.documents.Documents(ctx, subID)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents of %s: %w", ErrCollaboratorUnavailable, subID, err)
	}
	review, err := onboarding.ReviewDocuments(p.RequiredDocuments, docs)
	if err != nil {
		return nil, err
	}

	report := &DocumentReport{Review: review}
	if !review.Complete() {
		report.StepResult = pendingResult(sub, subscription.StepDocumentUpload)
		e.logger.Info("document review incomplete",
			"subscription_id", subID,
			"missing", review.Missing,
			"rejected", review.Rejected,
		)
		return report, nil
	}

	report.StepResult, err = e.CompleteStep(ctx, subID, subscription.StepDocumentUpload)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// stepSettled short-circuits collaborator calls for a step that is already
// completed or not yet due. done is false when the collaborator must be
// consulted.
func (e *Engine) stepSettled(ctx context.Context, sub *subscription.Subscription, step subscription.StepType) (done bool, res onboarding.StepResult, err error) {
	rec := sub.Step(step)
	awaited, waiting := sub.AwaitedStep()
	if rec != nil && !rec.Completed() && waiting && awaited == step {
		return false, res, nil
	}
	// CompleteStep reports AlreadyCompleted or the invalid transition.
	res, err = e.CompleteStep(ctx, sub.ID, step)
	return true, res, err
}

func pendingResult(sub *subscription.Subscription, step subscription.StepType) onboarding.StepResult {
	return onboarding.StepResult{
		SubscriptionID: sub.ID,
		Step:           step,
		Outcome:        onboarding.OutcomePending,
		From:           sub.Status,
		To:             sub.Status,
	}
}

// TerminateSubscription ends a subscription from any non-terminated state.
// A terminated subscription is never debited again.
func (e *Engine) TerminateSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	sub, err := e.store.UpdateSubscription(ctx, subID, func(s *subscription.Subscription) error {
		return subscription.Fire(s, subscription.EventTerminationRequested, e.now())
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("subscription terminated", "subscription_id", subID, "end_date", sub.EndDate)
	e.plugins.EmitSubscriptionTerminated(ctx, sub)
	return sub, nil
}
