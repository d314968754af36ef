package audithook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audithook "github.com/xraph/benefits/audit_hook"
	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/plugin"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
	"github.com/xraph/benefits/wallet"
)

func capture(events *[]*audithook.AuditEvent) audithook.RecorderFunc {
	return func(_ context.Context, evt *audithook.AuditEvent) error {
		*events = append(*events, evt)
		return nil
	}
}

func TestAuditPlanCreated(t *testing.T) {
	var events []*audithook.AuditEvent
	ext := audithook.New(capture(&events))

	p := &plan.Plan{ID: id.NewPlanID(), CompanyID: "acme", Name: "Gold", Currency: "usd"}
	require.NoError(t, ext.OnPlanCreated(context.Background(), p))

	require.Len(t, events, 1)
	evt := events[0]
	assert.Equal(t, audithook.ActionPlanCreated, evt.Action)
	assert.Equal(t, audithook.ResourcePlan, evt.Resource)
	assert.Equal(t, p.ID.String(), evt.ResourceID)
	assert.Equal(t, "acme", evt.Metadata["company_id"])
	assert.Equal(t, audithook.OutcomeSuccess, evt.Outcome)
}

func TestAuditDebitOverdraft(t *testing.T) {
	var events []*audithook.AuditEvent
	ext := audithook.New(capture(&events))
	ctx := context.Background()

	w := &wallet.Wallet{ID: id.NewWalletID(), EmployeeID: id.NewEmployeeID()}
	tx := &wallet.Transaction{
		ID:             id.NewTransactionID(),
		Amount:         types.USD(24000),
		BalanceAfter:   types.USD(-18000),
		SubscriptionID: id.NewSubscriptionID(),
		Period:         "2026-05",
	}
	require.NoError(t, ext.OnWalletDebited(ctx, w, tx))
	tx.Sufficient = true
	require.NoError(t, ext.OnWalletDebited(ctx, w, tx))

	require.Len(t, events, 2)
	assert.Equal(t, audithook.ActionWalletOverdrawn, events[0].Action)
	assert.Equal(t, audithook.SeverityWarning, events[0].Severity)
	assert.Equal(t, "2026-05", events[0].Metadata["period"])
	assert.Equal(t, audithook.ActionWalletDebited, events[1].Action)
}

func TestAuditBillingCycleFailures(t *testing.T) {
	var events []*audithook.AuditEvent
	ext := audithook.New(capture(&events))

	err := ext.OnBillingCycleCompleted(context.Background(), plugin.BillingCycleSummary{
		Date:   time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		Due:    4,
		Failed: 2,
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, audithook.ActionBillingCycleError, events[0].Action)
	assert.Equal(t, audithook.OutcomePartial, events[0].Outcome)
	assert.Equal(t, "2026-04-15", events[0].ResourceID)
	assert.Equal(t, "2 of 4 subscriptions failed", events[0].Reason)
}

func TestAuditActionFilters(t *testing.T) {
	ctx := context.Background()
	sub := &subscription.Subscription{ID: id.NewSubscriptionID()}

	t.Run("enabled only", func(t *testing.T) {
		var events []*audithook.AuditEvent
		ext := audithook.New(capture(&events), audithook.WithEnabledActions(audithook.ActionSubscriptionActivated))

		require.NoError(t, ext.OnSubscriptionCreated(ctx, sub))
		require.NoError(t, ext.OnSubscriptionActivated(ctx, sub))

		require.Len(t, events, 1)
		assert.Equal(t, audithook.ActionSubscriptionActivated, events[0].Action)
	})

	t.Run("disabled", func(t *testing.T) {
		var events []*audithook.AuditEvent
		ext := audithook.New(capture(&events), audithook.WithDisabledActions(audithook.ActionSubscriptionCreated))

		require.NoError(t, ext.OnSubscriptionCreated(ctx, sub))
		require.NoError(t, ext.OnSubscriptionTerminated(ctx, sub))

		require.Len(t, events, 1)
		assert.Equal(t, audithook.ActionSubscriptionTerminated, events[0].Action)
	})
}

func TestAuditRecorderErrorSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	err := ext.OnSubscriptionActivated(context.Background(), &subscription.Subscription{ID: id.NewSubscriptionID()})
	assert.NoError(t, err)
}

func TestAuditMinSeverity(t *testing.T) {
	var events []*audithook.AuditEvent
	ext := audithook.New(capture(&events), audithook.WithMinSeverity(audithook.SeverityWarning))
	ctx := context.Background()
	sub := &subscription.Subscription{ID: id.NewSubscriptionID()}

	require.NoError(t, ext.OnSubscriptionActivated(ctx, sub))
	require.NoError(t, ext.OnSubscriptionTerminated(ctx, sub))

	require.Len(t, events, 1)
	assert.Equal(t, audithook.ActionSubscriptionTerminated, events[0].Action)
}

func TestAllActionsCoverHooks(t *testing.T) {
	assert.Len(t, audithook.AllActions(), 10)
}
