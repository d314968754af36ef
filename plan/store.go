package plan

import (
	"context"

	"github.com/xraph/benefits/id"
)

type Store interface {
	CreatePlan(ctx context.Context, p *Plan) error
	GetPlan(ctx context.Context, planID id.PlanID) (*Plan, error)
	ListPlans(ctx context.Context, companyID string, opts ListOpts) ([]*Plan, error)
	UpdatePlan(ctx context.Context, p *Plan) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
