package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dgallion1/bestiary"

// Metrics holds the OpenTelemetry instruments for document extraction. A nil
// *Metrics records nothing.
type Metrics struct {
	// Documents counts processed documents. Use with attribute
	// attribute.String("outcome", ...).
	Documents metric.Int64Counter

	// Failures counts failed documents by kind and stage.
	Failures metric.Int64Counter

	// ParseDuration tracks per-document extraction time.
	ParseDuration metric.Float64Histogram

	// SinkWrites counts record writes to the pathstore sink by status.
	SinkWrites metric.Int64Counter
}

// Statblock extraction is sub-millisecond to a few tens of milliseconds.
var parseBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1,
}

// NewMetrics creates the instruments from mp. A nil mp uses the global
// provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Documents, err = m.Int64Counter("bestiary.documents",
		metric.WithDescription("Documents processed by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Failures, err = m.Int64Counter("bestiary.failures",
		metric.WithDescription("Failed documents by failure kind and stage."),
	); err != nil {
		return nil, err
	}
	if met.ParseDuration, err = m.Float64Histogram("bestiary.parse.duration",
		metric.WithDescription("Latency of extracting one statblock."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(parseBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SinkWrites, err = m.Int64Counter("bestiary.sink.writes",
		metric.WithDescription("Record writes to the output store by status."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordResult records the counters and duration for one processed document.
func (m *Metrics) RecordResult(ctx context.Context, r Result) {
	if m == nil {
		return
	}
	m.Documents.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(r.Outcome))))
	if r.Failure != nil {
		m.Failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", r.Failure.Kind),
			attribute.String("stage", r.Failure.Stage),
		))
	}
	if r.Duration > 0 {
		m.ParseDuration.Record(ctx, r.Duration.Seconds())
	}
}

// RecordSinkWrite records one attempt to store a record.
func (m *Metrics) RecordSinkWrite(ctx context.Context, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SinkWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
