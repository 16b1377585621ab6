package memo

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestInstrumentation(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	loc, _ := memLocation("/r.memo")
	c, _ := newTestCache(t, loc, WithMeter(mp.Meter("test")), WithTracer(tp.Tracer("test")))
	var calls atomic.Int32
	f := Wrap(c, "double", double(&calls))

	_, err := f(ctx, Call(1)) // miss
	require.NoError(t, err)
	_, err = f(ctx, Call(1)) // hit
	require.NoError(t, err)
	_, err = f(ctx, Call(1)) // hit
	require.NoError(t, err)
	_, err = f(ctx, Call([]int{1})) // key error
	require.Error(t, err)
	require.NoError(t, c.Close())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	found := findMetric(rm, "memo.calls")
	require.NotNil(t, found)
	sum, ok := found.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64], got %T", found.Data)

	byResult := map[string]int64{}
	for _, dp := range sum.DataPoints {
		fn, _ := dp.Attributes.Value(attribute.Key("memo.function"))
		assert.Equal(t, "double", fn.AsString())
		result, _ := dp.Attributes.Value(attribute.Key("memo.result"))
		byResult[result.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"miss": 1, "hit": 2, "key_error": 1}, byResult)

	found = findMetric(rm, "memo.compute.duration")
	require.NotNil(t, found)
	hist, ok := found.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	found = findMetric(rm, "memo.snapshot.bytes")
	require.NotNil(t, found)
	sizes, ok := found.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, sizes.DataPoints, 1)
	assert.Positive(t, sizes.DataPoints[0].Sum)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{"memo.load", "memo.save"}, names)
}

func TestSaveSpanRecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	c, _ := newTestCache(t, failingLocation{}, WithTracer(tp.Tracer("test")))
	err := c.Save(context.Background())
	assert.ErrorIs(t, err, ErrStoreSave)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "memo.save", spans[1].Name())
	assert.Equal(t, "Error", spans[1].Status().Code.String())
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}
