package benefits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/benefits"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
)

func TestCompanySpendingStatistics(t *testing.T) {
	f := newFixture(t)
	family := f.familyPlan()
	basic := f.basicPlan()

	jane := f.employee("Jane")
	spouse := f.dependent(jane, "John")
	child := f.dependent(jane, "Kid")
	famSub := f.subscribe(jane, family, []subscription.Item{
		self(jane),
		{Role: types.RoleSpouse, PersonID: spouse.ID},
		{Role: types.RoleChild, PersonID: child.ID},
	}, benefits.SubscribeOpts{})
	_, err := f.eng.CompleteStep(f.ctx, famSub.ID, subscription.StepDemographicVerification)
	require.NoError(t, err)
	_, err = f.eng.ConfirmActivation(f.ctx, famSub.ID)
	require.NoError(t, err)

	maxwell := f.employee("Max")
	f.activeSub(maxwell, basic, benefits.SubscribeOpts{})

	// Pending and terminated subscriptions are not spend.
	pendingEmp := f.employee("Pending")
	pending := f.subscribe(pendingEmp, basic, []subscription.Item{self(pendingEmp)}, benefits.SubscribeOpts{})
	gone := f.employee("Gone")
	goneSub := f.activeSub(gone, basic, benefits.SubscribeOpts{})
	_, err = f.eng.TerminateSubscription(f.ctx, goneSub.ID)
	require.NoError(t, err)

	stats, err := f.eng.GetCompanySpendingStatistics(f.ctx, company, benefits.SpendingOpts{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Subscriptions)
	assert.Equal(t, 0, stats.Projected)
	assert.Equal(t, types.USD(34000), stats.Total)
	assert.Equal(t, types.USD(18000), stats.Employer)
	assert.Equal(t, types.USD(16000), stats.Employee)
	assert.Equal(t, stats.Total, stats.Employer.Add(stats.Employee))
	assert.Len(t, stats.ByEmployee, 2)
	assert.Len(t, stats.ByPlan, 2)

	janeSpend, ok := stats.ForEmployee(jane.ID)
	require.True(t, ok)
	assert.Equal(t, types.USD(24000), janeSpend.Total)
	basicSpend, ok := stats.ForPlan(basic.ID)
	require.True(t, ok)
	assert.Equal(t, 1, basicSpend.Subscriptions)
	assert.Equal(t, "Basic", basicSpend.PlanName)

	t.Run("projected", func(t *testing.T) {
		stats, err := f.eng.GetCompanySpendingStatistics(f.ctx, company, benefits.SpendingOpts{
			IncludeSubscriptions: []id.SubscriptionID{pending.ID, goneSub.ID, famSub.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Subscriptions)
		assert.Equal(t, 1, stats.Projected)
		assert.Equal(t, types.USD(44000), stats.Total)
	})

	t.Run("other company", func(t *testing.T) {
		stats, err := f.eng.GetCompanySpendingStatistics(f.ctx, "globex", benefits.SpendingOpts{})
		require.NoError(t, err)
		assert.Zero(t, stats.Subscriptions)
		assert.True(t, stats.Total.IsZero())
		assert.Empty(t, stats.ByEmployee)

		_, err = f.eng.GetCompanySpendingStatistics(f.ctx, "globex", benefits.SpendingOpts{
			IncludeSubscriptions: []id.SubscriptionID{pending.ID},
		})
		assert.ErrorIs(t, err, benefits.ErrInsufficientReference)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := f.eng.GetCompanySpendingStatistics(f.ctx, company, benefits.SpendingOpts{Currency: "EUR"})
		assert.ErrorIs(t, err, benefits.ErrCurrencyMismatch)
	})
}

func TestSpendingSharedPlan(t *testing.T) {
	f := newFixture(t)
	p := f.familyPlan()
	for _, name := range []string{"Ann", "Bob", "Cy"} {
		f.activeSub(f.employee(name), p, benefits.SubscribeOpts{})
	}

	stats, err := f.eng.GetCompanySpendingStatistics(f.ctx, company, benefits.SpendingOpts{})
	require.NoError(t, err)
	require.Len(t, stats.ByPlan, 1)
	assert.Equal(t, 3, stats.ByPlan[0].Subscriptions)
	assert.Equal(t, types.USD(36000), stats.ByPlan[0].Total)
	assert.Equal(t, types.USD(36000), stats.Employer)
	assert.True(t, stats.Employee.IsZero())
}

func TestListPlans(t *testing.T) {
	f := newFixture(t)
	a := f.familyPlan()
	f.basicPlan()
	require.NoError(t, f.eng.ArchivePlan(f.ctx, a.ID))

	all, err := f.eng.ListPlans(f.ctx, company, plan.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.eng.ListPlans(f.ctx, company, plan.ListOpts{Status: plan.StatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Basic", active[0].Name)
}
