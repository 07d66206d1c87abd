package fetch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/joshuadavidthomas/usagebar/internal/fetch"

const (
	attemptSuccess     = "success"
	attemptFailure     = "failure"
	attemptTimeout     = "timeout"
	attemptUnavailable = "unavailable"
)

// Metrics records per-attempt counters and latency. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics registers instruments on mp, or on the global meter provider
// when mp is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	attempts, err := meter.Int64Counter("usagebar.fetch.attempts",
		metric.WithDescription("Strategy attempts made by the fetch pipeline"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("usagebar.fetch.duration",
		metric.WithDescription("Wall time of strategy fetches that were started"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Metrics{attempts: attempts, duration: duration}, nil
}

func (m *Metrics) recordAttempt(ctx context.Context, providerID string, s Strategy, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", providerID),
		attribute.String("strategy", s.ID()),
		attribute.String("kind", string(s.Kind())),
		attribute.String("result", result),
	)
	m.attempts.Add(ctx, 1, attrs)
	if result != attemptUnavailable {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
