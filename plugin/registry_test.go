package plugin_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/benefits/plan"
	"github.com/xraph/benefits/plugin"
	"github.com/xraph/benefits/subscription"
)

type named string

func (n named) Name() string { return string(n) }

type planHook struct {
	named
	calls int
	err   error
}

func (h *planHook) OnPlanCreated(context.Context, *plan.Plan) error {
	h.calls++
	return h.err
}

type slowHook struct{ named }

func (slowHook) OnSubscriptionActivated(ctx context.Context, _ *subscription.Subscription) error {
	<-ctx.Done()
	return nil
}

type panicHook struct{ named }

func (panicHook) OnSubscriptionTerminated(context.Context, *subscription.Subscription) error {
	panic("boom")
}

func newRegistry() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.DiscardHandler))
}

func TestRegister(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.Register(&planHook{named: "a"}))
	require.NoError(t, r.Register(named("b")))
	assert.Error(t, r.Register(named("a")))

	assert.Equal(t, 2, r.Count())
	assert.NotNil(t, r.Get("b"))
	assert.Nil(t, r.Get("c"))
	assert.Len(t, r.List(), 2)
}

func TestEmitReachesImplementors(t *testing.T) {
	r := newRegistry()
	ok := &planHook{named: "ok"}
	failing := &planHook{named: "failing", err: errors.New("nope")}
	require.NoError(t, r.Register(ok))
	require.NoError(t, r.Register(failing))
	require.NoError(t, r.Register(named("bystander")))

	r.EmitPlanCreated(context.Background(), &plan.Plan{Name: "Gold"})
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, failing.calls)
}

func TestEmitSurvivesSlowAndPanickingHooks(t *testing.T) {
	r := newRegistry().WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(slowHook{named: "slow"}))
	require.NoError(t, r.Register(panicHook{named: "panic"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := time.Now()
	r.EmitSubscriptionActivated(ctx, &subscription.Subscription{})
	assert.Less(t, time.Since(started), time.Second)

	assert.NotPanics(t, func() {
		r.EmitSubscriptionTerminated(ctx, &subscription.Subscription{})
	})
}
