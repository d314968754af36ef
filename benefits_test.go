package benefits_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/benefits"
	"github.com/xraph/benefits/employee"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/onboarding"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/plugin"
	"github.com/xraph/benefits/store/memory"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
	"github.com/xraph/benefits/wallet"
)

const company = "acme"

var march15 = time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	t   *testing.T
	ctx context.Context
	eng *benefits.Engine
}

func newFixture(t *testing.T, opts ...benefits.Option) *fixture {
	t.Helper()
	opts = append([]benefits.Option{
		benefits.WithLogger(slog.New(slog.DiscardHandler)),
		benefits.WithClock(func() time.Time { return march15 }),
	}, opts...)
	eng := benefits.New(memory.New(), opts...)
	ctx := context.Background()
	require.NoError(t, eng.Start(ctx))
	t.Cleanup(func() { _ = eng.Stop() })
	return &fixture{t: t, ctx: ctx, eng: eng}
}

func pct(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// familyPlan bills 12000 at 100%, 8000 at 50% and 4000 at 50%.
func (f *fixture) familyPlan(docs ...string) *plan.Plan {
	f.t.Helper()
	p := &plan.Plan{
		CompanyID:         company,
		Name:              "Family Gold",
		Currency:          "usd",
		Employee:          plan.Rate{MonthlyCost: types.USD(12000), EmployerPercent: pct(100)},
		Spouse:            plan.Rate{MonthlyCost: types.USD(8000), EmployerPercent: pct(50)},
		Child:             plan.Rate{MonthlyCost: types.USD(4000), EmployerPercent: pct(50)},
		RequiredDocuments: docs,
	}
	require.NoError(f.t, f.eng.CreatePlan(f.ctx, p))
	return p
}

// basicPlan bills 10000 with no employer share.
func (f *fixture) basicPlan() *plan.Plan {
	f.t.Helper()
	p := &plan.Plan{
		CompanyID: company,
		Name:      "Basic",
		Currency:  "usd",
		Employee:  plan.Rate{MonthlyCost: types.USD(10000), EmployerPercent: pct(0)},
		Spouse:    plan.Rate{MonthlyCost: types.USD(5000), EmployerPercent: pct(0)},
		Child:     plan.Rate{MonthlyCost: types.USD(2500), EmployerPercent: pct(0)},
	}
	require.NoError(f.t, f.eng.CreatePlan(f.ctx, p))
	return p
}

func (f *fixture) employee(name string) *employee.Employee {
	f.t.Helper()
	emp := &employee.Employee{CompanyID: company, FirstName: name, LastName: "Doe"}
	require.NoError(f.t, f.eng.CreateEmployee(f.ctx, emp, "usd"))
	return emp
}

func (f *fixture) dependent(emp *employee.Employee, name string) *employee.Person {
	f.t.Helper()
	p, err := f.eng.AddDependent(f.ctx, emp.ID, name, emp.LastName, nil)
	require.NoError(f.t, err)
	return p
}

func self(emp *employee.Employee) subscription.Item {
	return subscription.Item{Role: types.RoleEmployee, PersonID: emp.PersonID}
}

func (f *fixture) subscribe(emp *employee.Employee, p *plan.Plan, items []subscription.Item, opts benefits.SubscribeOpts) *subscription.Subscription {
	f.t.Helper()
	sub, err := f.eng.CreateSubscription(f.ctx, emp.ID, p.ID, items, opts)
	require.NoError(f.t, err)
	return sub
}

// activeSub subscribes emp alone to p and confirms activation.
func (f *fixture) activeSub(emp *employee.Employee, p *plan.Plan, opts benefits.SubscribeOpts) *subscription.Subscription {
	f.t.Helper()
	sub := f.subscribe(emp, p, []subscription.Item{self(emp)}, opts)
	res, err := f.eng.ConfirmActivation(f.ctx, sub.ID)
	require.NoError(f.t, err)
	require.True(f.t, res.Activated())
	return sub
}

func TestCreateSubscriptionInitialStatus(t *testing.T) {
	f := newFixture(t)
	emp := f.employee("Jane")
	spouse := f.dependent(emp, "John")

	tests := []struct {
		name  string
		plan  *plan.Plan
		items []subscription.Item
		want  subscription.Status
		typ   subscription.Type
	}{
		{
			name:  "verified employee alone",
			plan:  f.familyPlan(),
			items: []subscription.Item{self(emp)},
			want:  subscription.StatusPlanActivationPending,
			typ:   subscription.TypeIndividual,
		},
		{
			name:  "unverified dependent",
			plan:  f.familyPlan(),
			items: []subscription.Item{self(emp), {Role: types.RoleSpouse, PersonID: spouse.ID}},
			want:  subscription.StatusDemographicVerificationPending,
			typ:   subscription.TypeFamily,
		},
		{
			name:  "plan requires documents",
			plan:  f.familyPlan("id_card"),
			items: []subscription.Item{self(emp)},
			want:  subscription.StatusDocumentUploadPending,
			typ:   subscription.TypeIndividual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := f.subscribe(emp, tt.plan, tt.items, benefits.SubscribeOpts{})
			assert.Equal(t, tt.want, sub.Status)
			assert.Equal(t, tt.typ, sub.Type)
			assert.Equal(t, 15, sub.BillingAnchor)
			assert.Len(t, sub.Steps, len(subscription.Steps))

			got, err := f.eng.GetSubscription(f.ctx, sub.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestCreateSubscriptionRejects(t *testing.T) {
	f := newFixture(t)
	emp := f.employee("Jane")
	other := f.employee("Max")
	spouse := f.dependent(emp, "John")
	strangerSpouse := f.dependent(other, "Eve")
	p := f.familyPlan()

	t.Run("two spouses", func(t *testing.T) {
		second := f.dependent(emp, "Jim")
		_, err := f.eng.CreateSubscription(f.ctx, emp.ID, p.ID, []subscription.Item{
			self(emp),
			{Role: types.RoleSpouse, PersonID: spouse.ID},
			{Role: types.RoleSpouse, PersonID: second.ID},
		}, benefits.SubscribeOpts{})
		assert.ErrorIs(t, err, benefits.ErrInvalidItems)
		assert.True(t, benefits.IsValidation(err))
	})

	t.Run("dependent of another employee", func(t *testing.T) {
		_, err := f.eng.CreateSubscription(f.ctx, emp.ID, p.ID, []subscription.Item{
			self(emp),
			{Role: types.RoleSpouse, PersonID: strangerSpouse.ID},
		}, benefits.SubscribeOpts{})
		assert.ErrorIs(t, err, benefits.ErrInvalidItems)
	})

	t.Run("employee item covers someone else", func(t *testing.T) {
		_, err := f.eng.CreateSubscription(f.ctx, emp.ID, p.ID, []subscription.Item{self(other)}, benefits.SubscribeOpts{})
		assert.ErrorIs(t, err, benefits.ErrInvalidItems)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := f.eng.CreateSubscription(f.ctx, emp.ID, p.ID, []subscription.Item{
			self(emp),
			{Role: types.Role("cousin"), PersonID: spouse.ID},
		}, benefits.SubscribeOpts{})
		assert.ErrorIs(t, err, benefits.ErrInvalidRole)
	})

	t.Run("archived plan", func(t *testing.T) {
		archived := f.familyPlan()
		require.NoError(t, f.eng.ArchivePlan(f.ctx, archived.ID))
		_, err := f.eng.CreateSubscription(f.ctx, emp.ID, archived.ID, []subscription.Item{self(emp)}, benefits.SubscribeOpts{})
		assert.ErrorIs(t, err, benefits.ErrPlanArchived)
	})

	t.Run("plan of another company", func(t *testing.T) {
		foreign := &plan.Plan{
			CompanyID: "globex",
			Name:      "Foreign",
			Currency:  "usd",
			Employee:  plan.Rate{MonthlyCost: types.USD(100), EmployerPercent: pct(0)},
			Spouse:    plan.Rate{MonthlyCost: types.USD(100), EmployerPercent: pct(0)},
			Child:     plan.Rate{MonthlyCost: types.USD(100), EmployerPercent: pct(0)},
		}
		require.NoError(t, f.eng.CreatePlan(f.ctx, foreign))
		_, err := f.eng.CreateSubscription(f.ctx, emp.ID, foreign.ID, []subscription.Item{self(emp)}, benefits.SubscribeOpts{})
		assert.ErrorIs(t, err, benefits.ErrInsufficientReference)
	})

	t.Run("plan currency differs from wallet", func(t *testing.T) {
		euro := &plan.Plan{
			CompanyID: company,
			Name:      "Euro",
			Currency:  "eur",
			Employee:  plan.Rate{MonthlyCost: types.EUR(100), EmployerPercent: pct(0)},
			Spouse:    plan.Rate{MonthlyCost: types.EUR(100), EmployerPercent: pct(0)},
			Child:     plan.Rate{MonthlyCost: types.EUR(100), EmployerPercent: pct(0)},
		}
		require.NoError(t, f.eng.CreatePlan(f.ctx, euro))
		_, err := f.eng.CreateSubscription(f.ctx, emp.ID, euro.ID, []subscription.Item{self(emp)}, benefits.SubscribeOpts{})
		assert.ErrorIs(t, err, benefits.ErrCurrencyMismatch)
		assert.True(t, benefits.IsValidation(err))

		subs, err := f.eng.ListSubscriptions(f.ctx, company, subscription.ListOpts{PlanID: euro.ID})
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("unknown plan", func(t *testing.T) {
		_, err := f.eng.CreateSubscription(f.ctx, emp.ID, id.NewPlanID(), []subscription.Item{self(emp)}, benefits.SubscribeOpts{})
		assert.ErrorIs(t, err, benefits.ErrPlanNotFound)
		assert.True(t, benefits.IsNotFound(err))
	})
}

func TestOnboardingWalk(t *testing.T) {
	f := newFixture(t)
	emp := f.employee("Jane")
	spouse := f.dependent(emp, "John")
	p := f.familyPlan("id_card")
	sub := f.subscribe(emp, p, []subscription.Item{self(emp), {Role: types.RoleSpouse, PersonID: spouse.ID}}, benefits.SubscribeOpts{})
	require.Equal(t, subscription.StatusDemographicVerificationPending, sub.Status)

	steps := []struct {
		step subscription.StepType
		to   subscription.Status
	}{
		{subscription.StepDemographicVerification, subscription.StatusDocumentUploadPending},
		{subscription.StepDocumentUpload, subscription.StatusPlanActivationPending},
		{subscription.StepPlanActivation, subscription.StatusActive},
	}
	for _, s := range steps {
		res, err := f.eng.CompleteStep(f.ctx, sub.ID, s.step)
		require.NoError(t, err)
		assert.Equal(t, onboarding.OutcomeAdvanced, res.Outcome)
		assert.Equal(t, s.to, res.To)
	}

	got, err := f.eng.GetSubscription(f.ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, got.Status)
	for _, rec := range got.Steps {
		assert.True(t, rec.Completed(), rec.Type)
	}

	// Redelivery is not an error.
	res, err := f.eng.CompleteStep(f.ctx, sub.ID, subscription.StepDocumentUpload)
	require.NoError(t, err)
	assert.Equal(t, onboarding.OutcomeAlreadyCompleted, res.Outcome)
	assert.ErrorIs(t, res.Err(), benefits.ErrAlreadyCompleted)
}

func TestCompleteStepOutOfOrder(t *testing.T) {
	f := newFixture(t)
	emp := f.employee("Jane")
	spouse := f.dependent(emp, "John")
	sub := f.subscribe(emp, f.familyPlan(), []subscription.Item{self(emp), {Role: types.RoleSpouse, PersonID: spouse.ID}}, benefits.SubscribeOpts{})

	_, err := f.eng.ConfirmActivation(f.ctx, sub.ID)
	require.ErrorIs(t, err, benefits.ErrInvalidTransition)
	assert.True(t, benefits.IsWorkflowError(err))

	got, err := f.eng.GetSubscription(f.ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusDemographicVerificationPending, got.Status)
	assert.Equal(t, sub.Version, got.Version)
}

func TestCompleteStepConcurrent(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, benefits.WithPlugin(rec))
	emp := f.employee("Jane")
	sub := f.subscribe(emp, f.familyPlan(), []subscription.Item{self(emp)}, benefits.SubscribeOpts{})

	const n = 16
	outcomes := make([]onboarding.Outcome, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.eng.ConfirmActivation(f.ctx, sub.ID)
			assert.NoError(t, err)
			outcomes[i] = res.Outcome
		}()
	}
	wg.Wait()

	var advanced, repeated int
	for _, o := range outcomes {
		switch o {
		case onboarding.OutcomeAdvanced:
			advanced++
		case onboarding.OutcomeAlreadyCompleted:
			repeated++
		}
	}
	assert.Equal(t, 1, advanced)
	assert.Equal(t, n-1, repeated)
	assert.Equal(t, 1, rec.count("activated"))
}

func TestHandleEventVerifiesPersons(t *testing.T) {
	f := newFixture(t)
	emp := f.employee("Jane")
	spouse := f.dependent(emp, "John")
	sub := f.subscribe(emp, f.familyPlan(), []subscription.Item{self(emp), {Role: types.RoleSpouse, PersonID: spouse.ID}}, benefits.SubscribeOpts{})

	ev := onboarding.NewEvent(sub.ID, subscription.StepDemographicVerification, "kyc", march15)
	res, err := f.eng.HandleEvent(f.ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPlanActivationPending, res.To)

	person, err := f.eng.GetPerson(f.ctx, spouse.ID)
	require.NoError(t, err)
	assert.True(t, person.Verified())

	// Same delivery again.
	res, err = f.eng.HandleEvent(f.ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, onboarding.OutcomeAlreadyCompleted, res.Outcome)

	_, err = f.eng.HandleEvent(f.ctx, onboarding.Event{Step: subscription.StepPlanActivation})
	assert.ErrorIs(t, err, benefits.ErrInvalidTransition)
}

func TestVerifyDemographics(t *testing.T) {
	setup := func(t *testing.T, v onboarding.IdentityVerifier) (*fixture, *subscription.Subscription, *employee.Person) {
		var opts []benefits.Option
		if v != nil {
			opts = append(opts, benefits.WithIdentityVerifier(v))
		}
		f := newFixture(t, opts...)
		emp := f.employee("Jane")
		spouse := f.dependent(emp, "John")
		sub := f.subscribe(emp, f.familyPlan(), []subscription.Item{self(emp), {Role: types.RoleSpouse, PersonID: spouse.ID}}, benefits.SubscribeOpts{})
		return f, sub, spouse
	}

	t.Run("confirmed", func(t *testing.T) {
		var calls int
		f, sub, spouse := setup(t, onboarding.IdentityVerifierFunc(func(_ context.Context, p *employee.Person) (onboarding.Verification, error) {
			calls++
			return onboarding.Verification{PersonID: p.ID, Verified: true}, nil
		}))
		report, err := f.eng.VerifyDemographics(f.ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, onboarding.OutcomeAdvanced, report.Outcome)
		assert.Empty(t, report.Unverified)
		// The employee is verified through employment.
		assert.Equal(t, 1, calls)

		person, err := f.eng.GetPerson(f.ctx, spouse.ID)
		require.NoError(t, err)
		assert.True(t, person.Verified())

		report, err = f.eng.VerifyDemographics(f.ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, onboarding.OutcomeAlreadyCompleted, report.Outcome)
		assert.Equal(t, 1, calls)
	})

	t.Run("rejected", func(t *testing.T) {
		f, sub, spouse := setup(t, onboarding.IdentityVerifierFunc(func(_ context.Context, p *employee.Person) (onboarding.Verification, error) {
			return onboarding.Verification{PersonID: p.ID, Reason: "name mismatch"}, nil
		}))
		report, err := f.eng.VerifyDemographics(f.ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, onboarding.OutcomePending, report.Outcome)
		require.Len(t, report.Unverified, 1)
		assert.Equal(t, spouse.ID.String(), report.Unverified[0].PersonID.String())

		got, err := f.eng.GetSubscription(f.ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusDemographicVerificationPending, got.Status)
	})

	t.Run("verifier down", func(t *testing.T) {
		f, sub, _ := setup(t, onboarding.IdentityVerifierFunc(func(context.Context, *employee.Person) (onboarding.Verification, error) {
			return onboarding.Verification{}, errors.New("connection refused")
		}))
		_, err := f.eng.VerifyDemographics(f.ctx, sub.ID)
		require.ErrorIs(t, err, benefits.ErrCollaboratorUnavailable)
		assert.True(t, benefits.IsRetryable(err))
	})

	t.Run("no verifier", func(t *testing.T) {
		f, sub, _ := setup(t, nil)
		_, err := f.eng.VerifyDemographics(f.ctx, sub.ID)
		assert.ErrorIs(t, err, benefits.ErrNoIdentityVerifier)
	})
}

func TestReviewDocuments(t *testing.T) {
	setup := func(t *testing.T, docs []onboarding.Document, err error) (*fixture, *subscription.Subscription) {
		f := newFixture(t, benefits.WithDocumentIntake(onboarding.DocumentIntakeFunc(func(context.Context, id.SubscriptionID) ([]onboarding.Document, error) {
			return docs, err
		})))
		emp := f.employee("Jane")
		sub := f.subscribe(emp, f.familyPlan("id_card", "proof_of_address"), []subscription.Item{self(emp)}, benefits.SubscribeOpts{})
		require.Equal(t, subscription.StatusDocumentUploadPending, sub.Status)
		return f, sub
	}

	t.Run("all accepted", func(t *testing.T) {
		f, sub := setup(t, []onboarding.Document{
			{Type: "id_card", Storage: onboarding.StorageStored, Accepted: true},
			{Type: "proof_of_address", Storage: onboarding.StorageStored, Accepted: true},
		}, nil)
		report, err := f.eng.ReviewDocuments(f.ctx, sub.ID)
		require.NoError(t, err)
		assert.True(t, report.Review.Complete())
		assert.Equal(t, subscription.StatusPlanActivationPending, report.To)
	})

	t.Run("missing", func(t *testing.T) {
		f, sub := setup(t, []onboarding.Document{
			{Type: "id_card", Storage: onboarding.StorageStored, Accepted: true},
		}, nil)
		report, err := f.eng.ReviewDocuments(f.ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, onboarding.OutcomePending, report.Outcome)
		assert.Equal(t, []string{"proof_of_address"}, report.Review.Missing)
	})

	t.Run("storage failed", func(t *testing.T) {
		f, sub := setup(t, []onboarding.Document{
			{Type: "id_card", Storage: onboarding.StorageFailed},
		}, nil)
		_, err := f.eng.ReviewDocuments(f.ctx, sub.ID)
		assert.ErrorIs(t, err, benefits.ErrCollaboratorUnavailable)
	})

	t.Run("intake down", func(t *testing.T) {
		f, sub := setup(t, nil, errors.New("timeout"))
		_, err := f.eng.ReviewDocuments(f.ctx, sub.ID)
		assert.ErrorIs(t, err, benefits.ErrCollaboratorUnavailable)
	})
}

func TestTerminateSubscription(t *testing.T) {
	f := newFixture(t)
	emp := f.employee("Jane")
	sub := f.activeSub(emp, f.familyPlan(), benefits.SubscribeOpts{})

	got, err := f.eng.TerminateSubscription(f.ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusTerminated, got.Status)
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(march15))

	_, err = f.eng.TerminateSubscription(f.ctx, sub.ID)
	assert.ErrorIs(t, err, benefits.ErrInvalidTransition)

	_, err = f.eng.DebitSubscription(f.ctx, sub.ID, march15.AddDate(0, 1, 0))
	assert.ErrorIs(t, err, benefits.ErrSubscriptionNotActive)

	w, err := f.eng.GetWallet(f.ctx, emp.ID)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

func TestUpdatePlanFrozenByActiveSubscription(t *testing.T) {
	f := newFixture(t)
	emp := f.employee("Jane")
	p := f.familyPlan()
	sub := f.subscribe(emp, p, []subscription.Item{self(emp)}, benefits.SubscribeOpts{})

	p.Employee.MonthlyCost = types.USD(13000)
	require.NoError(t, f.eng.UpdatePlan(f.ctx, p))

	_, err := f.eng.ConfirmActivation(f.ctx, sub.ID)
	require.NoError(t, err)

	p.Employee.MonthlyCost = types.USD(14000)
	assert.ErrorIs(t, f.eng.UpdatePlan(f.ctx, p), benefits.ErrPlanInUse)

	got, err := f.eng.GetPlan(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(13000), got.Employee.MonthlyCost.Amount)
}

func TestSubscriptionCost(t *testing.T) {
	f := newFixture(t)
	emp := f.employee("Jane")
	spouse := f.dependent(emp, "John")
	child := f.dependent(emp, "Kid")
	sub := f.subscribe(emp, f.familyPlan(), []subscription.Item{
		self(emp),
		{Role: types.RoleSpouse, PersonID: spouse.ID},
		{Role: types.RoleChild, PersonID: child.ID},
	}, benefits.SubscribeOpts{})

	b, err := f.eng.GetSubscriptionCost(f.ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, types.USD(24000), b.Total)
	assert.Equal(t, types.USD(18000), b.Employer)
	assert.Equal(t, types.USD(6000), b.Employee)
	assert.Len(t, b.Lines, 3)
}

type recorder struct {
	mu     sync.Mutex
	events map[string]int
	cycles []plugin.BillingCycleSummary
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string]int)
	}
	r.events[ev]++
}

func (r *recorder) count(ev string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[ev]
}

func (r *recorder) OnPlanCreated(context.Context, *plan.Plan) error {
	r.add("plan_created")
	return nil
}

func (r *recorder) OnSubscriptionCreated(context.Context, *subscription.Subscription) error {
	r.add("created")
	return nil
}

func (r *recorder) OnStepCompleted(context.Context, *subscription.Subscription, onboarding.StepResult) error {
	r.add("step")
	return nil
}

func (r *recorder) OnSubscriptionActivated(context.Context, *subscription.Subscription) error {
	r.add("activated")
	return nil
}

func (r *recorder) OnSubscriptionTerminated(context.Context, *subscription.Subscription) error {
	r.add("terminated")
	return nil
}

func (r *recorder) OnWalletDebited(context.Context, *wallet.Wallet, *wallet.Transaction) error {
	r.add("debited")
	return nil
}

func (r *recorder) OnWalletCredited(context.Context, *wallet.Wallet, *wallet.Transaction) error {
	r.add("credited")
	return nil
}

func (r *recorder) OnBillingCycleCompleted(_ context.Context, s plugin.BillingCycleSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles = append(r.cycles, s)
	return nil
}

func TestPluginHooks(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, benefits.WithPlugin(rec))
	emp := f.employee("Jane")
	sub := f.activeSub(emp, f.familyPlan(), benefits.SubscribeOpts{})
	_, err := f.eng.CreditWallet(f.ctx, emp.ID, types.USD(500), "top up")
	require.NoError(t, err)
	_, err = f.eng.RunBillingCycle(f.ctx, march15.AddDate(0, 1, 0))
	require.NoError(t, err)
	_, err = f.eng.TerminateSubscription(f.ctx, sub.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.count("plan_created"))
	assert.Equal(t, 1, rec.count("created"))
	assert.Equal(t, 1, rec.count("step"))
	assert.Equal(t, 1, rec.count("activated"))
	assert.Equal(t, 1, rec.count("credited"))
	assert.Equal(t, 1, rec.count("debited"))
	assert.Equal(t, 1, rec.count("terminated"))
	require.Len(t, rec.cycles, 1)
	assert.Equal(t, 1, rec.cycles[0].Debited)
	assert.Equal(t, 1, rec.cycles[0].Insufficient)
}
