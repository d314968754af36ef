package benefits

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
)

// CreatePlan validates and stores a new plan.
func (e *Engine) CreatePlan(ctx context.Context, p *plan.Plan) error {
	if p.ID.IsNil() {
		p.ID = id.NewPlanID()
	}
	p.Currency = strings.ToLower(p.Currency)
	if p.Status == "" {
		p.Status = plan.StatusActive
	}
	p.Entity = types.NewEntity(e.now())

	if err := p.Validate(); err != nil {
		return err
	}
	if err := e.store.CreatePlan(ctx, p); err != nil {
		return err
	}

	e.logger.Info("plan created", "plan_id", p.ID, "company_id", p.CompanyID, "name", p.Name)
	e.plugins.EmitPlanCreated(ctx, p)
	return nil
}

// GetPlan retrieves a plan by ID.
func (e *Engine) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	return e.store.GetPlan(ctx, planID)
}

// ListPlans lists a company's plans.
func (e *Engine) ListPlans(ctx context.Context, companyID string, opts plan.ListOpts) ([]*plan.Plan, error) {
	return e.store.ListPlans(ctx, companyID, opts)
}

// UpdatePlan replaces a plan's definition. Plans referenced by an active
// subscription are frozen and refused with ErrPlanInUse; create a new plan
// instead.
func (e *Engine) UpdatePlan(ctx context.Context, p *plan.Plan) error {
	cur, err := e.store.GetPlan(ctx, p.ID)
	if err != nil {
		return err
	}
	inUse, err := e.planInUse(ctx, cur)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: %s", ErrPlanInUse, p.ID)
	}

	p.Currency = strings.ToLower(p.Currency)
	p.CompanyID = cur.CompanyID
	if p.Status == "" {
		p.Status = cur.Status
	}
	p.CreatedAt = cur.CreatedAt
	p.Touch(e.now())
	if err := p.Validate(); err != nil {
		return err
	}
	return e.store.UpdatePlan(ctx, p)
}

// ArchivePlan stops a plan from taking new subscriptions. Existing
// subscriptions keep billing under it.
func (e *Engine) ArchivePlan(ctx context.Context, planID id.PlanID) error {
	p, err := e.store.GetPlan(ctx, planID)
	if err != nil {
		return err
	}
	if p.Status == plan.StatusArchived {
		return nil
	}
	p.Status = plan.StatusArchived
	p.Touch(e.now())
	if err := e.store.UpdatePlan(ctx, p); err != nil {
		return err
	}
	e.logger.Info("plan archived", "plan_id", planID)
	return nil
}

func (e *Engine) planInUse(ctx context.Context, p *plan.Plan) (bool, error) {
	subs, err := e.store.ListSubscriptions(ctx, p.CompanyID, subscription.ListOpts{
		Status: subscription.StatusActive,
		PlanID: p.ID,
		Limit:  1,
	})
	if err != nil {
		return false, err
	}
	return len(subs) > 0, nil
}
