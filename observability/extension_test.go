package observability_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xraph/benefits/id"
	"github.com/xraph/benefits/observability"
	"github.com/xraph/benefits/plugin"
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
	"github.com/xraph/benefits/wallet"
)

type fakeFactory struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{counters: map[string]float64{}, histograms: map[string][]float64{}}
}

type fakeCounter struct {
	f    *fakeFactory
	name string
}

func (c fakeCounter) Inc() { c.Add(1) }
func (c fakeCounter) Add(v float64) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.counters[c.name] += v
}

type fakeHistogram struct {
	f    *fakeFactory
	name string
}

func (h fakeHistogram) Observe(v float64) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	h.f.histograms[h.name] = append(h.f.histograms[h.name], v)
}

func (f *fakeFactory) Counter(name string) observability.Counter {
	return fakeCounter{f: f, name: name}
}

func (f *fakeFactory) Histogram(name string) observability.Histogram {
	return fakeHistogram{f: f, name: name}
}

func TestMetricsExtensionWalletDebits(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)

	w := &wallet.Wallet{ID: id.NewWalletID(), EmployeeID: id.NewEmployeeID(), Balance: types.USD(-4000)}
	covered := &wallet.Transaction{Amount: types.USD(6000), BalanceAfter: types.USD(1000), Sufficient: true}
	short := &wallet.Transaction{Amount: types.USD(5000), BalanceAfter: types.USD(-4000)}

	require.NoError(t, m.OnWalletDebited(ctx, w, covered))
	require.NoError(t, m.OnWalletDebited(ctx, w, short))

	assert.Equal(t, 2.0, f.counters["benefits.wallet.debited"])
	assert.Equal(t, 1.0, f.counters["benefits.wallet.overdrawn"])
	assert.Equal(t, []float64{6000, 5000}, f.histograms["benefits.wallet.debit.amount_minor"])
	assert.Equal(t, []float64{4000}, f.histograms["benefits.wallet.overdrawn.shortfall_minor"])
}

func TestMetricsExtensionBillingCycle(t *testing.T) {
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)

	err := m.OnBillingCycleCompleted(context.Background(), plugin.BillingCycleSummary{
		Date:          time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		Due:           5,
		Debited:       3,
		AlreadyBilled: 1,
		Failed:        1,
		Elapsed:       250 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, f.counters["benefits.billing.cycles"])
	assert.Equal(t, 5.0, f.counters["benefits.billing.due"])
	assert.Equal(t, 1.0, f.counters["benefits.billing.already_billed"])
	assert.Equal(t, 1.0, f.counters["benefits.billing.failures"])
	assert.Equal(t, []float64{250}, f.histograms["benefits.billing.cycle.latency_ms"])
}

func TestMetricsExtensionSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)
	sub := &subscription.Subscription{ID: id.NewSubscriptionID()}

	require.NoError(t, m.OnSubscriptionCreated(ctx, sub))
	require.NoError(t, m.OnSubscriptionActivated(ctx, sub))
	require.NoError(t, m.OnSubscriptionTerminated(ctx, sub))

	assert.Equal(t, 1.0, f.counters["benefits.subscription.created"])
	assert.Equal(t, 1.0, f.counters["benefits.subscription.activated"])
	assert.Equal(t, 1.0, f.counters["benefits.subscription.terminated"])
}

func TestOTelFactory(t *testing.T) {
	factory := observability.NewOTelFactory(noop.NewMeterProvider().Meter("benefits-test"))
	m := observability.NewMetricsExtension(factory)

	require.NoError(t, factory.Err())
	assert.NotPanics(t, func() {
		m.PlanCreated.Inc()
		m.BillingDue.Add(3)
		m.DebitAmount.Observe(1200)
	})
}
