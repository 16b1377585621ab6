package memo

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/agentuity/go-memo/memo"

// Values of the memo.result attribute.
const (
	resultHit      = "hit"
	resultMiss     = "miss"
	resultError    = "error"
	resultKeyError = "key_error"
)

type instruments struct {
	tracer        trace.Tracer
	calls         metric.Int64Counter
	computeMillis metric.Float64Histogram
	snapshotBytes metric.Int64Histogram
}

func newInstruments(meter metric.Meter, tracer trace.Tracer) (*instruments, error) {
	calls, err := meter.Int64Counter(
		"memo.calls",
		metric.WithDescription("Memoized function calls by result"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	computeMillis, err := meter.Float64Histogram(
		"memo.compute.duration",
		metric.WithDescription("Time spent computing results on cache misses"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	snapshotBytes, err := meter.Int64Histogram(
		"memo.snapshot.bytes",
		metric.WithDescription("Size of saved snapshots"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		tracer:        tracer,
		calls:         calls,
		computeMillis: computeMillis,
		snapshotBytes: snapshotBytes,
	}, nil
}

func (i *instruments) recordCall(ctx context.Context, function, result string) {
	i.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("memo.function", function),
		attribute.String("memo.result", result),
	))
}

func (i *instruments) recordCompute(ctx context.Context, function string, d time.Duration) {
	i.computeMillis.Record(ctx, float64(d)/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("memo.function", function)))
}

func (i *instruments) recordSnapshot(ctx context.Context, size int) {
	i.snapshotBytes.Record(ctx, int64(size))
}

func (i *instruments) startSpan(ctx context.Context, name, loc string) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("memo.location", loc)))
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
