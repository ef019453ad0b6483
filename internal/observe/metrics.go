// Package observe provides application-wide observability primitives for
// tripmate: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all tripmate metrics.
const meterName = "github.com/MrWong99/tripmate"

// Metrics holds all OpenTelemetry metric instruments for the application.
// The underlying OTel types handle their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// TurnDuration tracks end-to-end conversational turn latency. Use with
	// attribute.String("mode", "primary"|"fallback").
	TurnDuration metric.Float64Histogram

	// LLMDuration tracks language-model call latency. Use with
	// attribute.String("call", "merge"|"reply") and attribute.String("status", ...).
	LLMDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attribute.String("method", ...), attribute.String("route", ...) and
	// attribute.Int("status", ...).
	HTTPRequestDuration metric.Float64Histogram

	// --- Counters ---

	// Turns counts completed turns by mode.
	Turns metric.Int64Counter

	// Fallbacks counts turns answered by the fallback agent, by reason and
	// fallback rule.
	Fallbacks metric.Int64Counter

	// OffersPresented counts offer batches shown, by category.
	OffersPresented metric.Int64Counter

	// StoreErrors counts state store failures, by operation.
	StoreErrors metric.Int64Counter

	// ProviderRequests counts provider API calls by provider, kind and status.
	ProviderRequests metric.Int64Counter

	// BreakerTransitions counts circuit breaker state changes, by breaker name
	// and target state.
	BreakerTransitions metric.Int64Counter

	// --- Gauges ---

	// ActiveStreams tracks open websocket chat connections.
	ActiveStreams metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// language-model round trips.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("tripmate.turn.duration",
		metric.WithDescription("End-to-end latency of a conversational turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("tripmate.llm.duration",
		metric.WithDescription("Latency of language-model calls by call type."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("tripmate.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route, and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Turns, err = m.Int64Counter("tripmate.turns",
		metric.WithDescription("Total conversational turns by mode."),
	); err != nil {
		return nil, err
	}
	if met.Fallbacks, err = m.Int64Counter("tripmate.fallbacks",
		metric.WithDescription("Total turns answered in fallback mode by reason and rule."),
	); err != nil {
		return nil, err
	}
	if met.OffersPresented, err = m.Int64Counter("tripmate.offers.presented",
		metric.WithDescription("Total offer batches presented by category."),
	); err != nil {
		return nil, err
	}
	if met.StoreErrors, err = m.Int64Counter("tripmate.store.errors",
		metric.WithDescription("Total state store failures by operation."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("tripmate.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.BreakerTransitions, err = m.Int64Counter("tripmate.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions by breaker and target state."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveStreams, err = m.Int64UpDownCounter("tripmate.active_streams",
		metric.WithDescription("Number of open websocket chat connections."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTurn records a finished turn's mode and latency.
func (m *Metrics) RecordTurn(ctx context.Context, mode string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.Turns.Add(ctx, 1, attrs)
	m.TurnDuration.Record(ctx, seconds, attrs)
}

// RecordFallback records a turn that was answered by the fallback agent.
func (m *Metrics) RecordFallback(ctx context.Context, reason, rule string) {
	m.Fallbacks.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("reason", reason),
			attribute.String("rule", rule),
		),
	)
}

// RecordLLMCall records the latency and outcome of one language-model call.
func (m *Metrics) RecordLLMCall(ctx context.Context, call, status string, seconds float64) {
	m.LLMDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("call", call),
			attribute.String("status", status),
		),
	)
}

// RecordOffer records one presented offer batch.
func (m *Metrics) RecordOffer(ctx context.Context, category string) {
	m.OffersPresented.Add(ctx, 1,
		metric.WithAttributes(attribute.String("category", category)),
	)
}

// RecordStoreError records a failed state store operation.
func (m *Metrics) RecordStoreError(ctx context.Context, op string) {
	m.StoreErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("op", op)),
	)
}

// RecordProviderRequest records a provider request counter increment with the
// standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordBreakerTransition records a circuit breaker changing state.
func (m *Metrics) RecordBreakerTransition(ctx context.Context, name, to string) {
	m.BreakerTransitions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("breaker", name),
			attribute.String("state", to),
		),
	)
}
