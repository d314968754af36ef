package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

// OTelFactory is a MetricFactory backed by an OpenTelemetry meter.
// Instruments are created once per name; creation errors are reported
// through Err and replaced by no-op instruments.
type OTelFactory struct {
	meter metric.Meter

	mu  sync.Mutex
	err error
}

// NewOTelFactory wraps meter, typically otel.Meter("github.com/xraph/benefits").
func NewOTelFactory(meter metric.Meter) *OTelFactory {
	return &OTelFactory{meter: meter}
}

// Counter implements MetricFactory.
func (f *OTelFactory) Counter(name string) Counter {
	c, err := f.meter.Float64Counter(name)
	if err != nil {
		f.fail(err)
		return nopCounter{}
	}
	return otelCounter{c: c}
}

// Histogram implements MetricFactory.
func (f *OTelFactory) Histogram(name string) Histogram {
	h, err := f.meter.Float64Histogram(name)
	if err != nil {
		f.fail(err)
		return nopHistogram{}
	}
	return otelHistogram{h: h}
}

// Err returns the first instrument creation error, if any.
func (f *OTelFactory) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *OTelFactory) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

type otelCounter struct{ c metric.Float64Counter }

func (o otelCounter) Inc()          { o.c.Add(context.Background(), 1) }
func (o otelCounter) Add(v float64) { o.c.Add(context.Background(), v) }

type otelHistogram struct{ h metric.Float64Histogram }

func (o otelHistogram) Observe(v float64) { o.h.Record(context.Background(), v) }

type nopCounter struct{}

func (nopCounter) Inc()        {}
func (nopCounter) Add(float64) {}

type nopHistogram struct{}

func (nopHistogram) Observe(float64) {}
