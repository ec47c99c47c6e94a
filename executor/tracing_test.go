package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/MasterOfBinary/batchexec/executor"
)

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestExecutor_BatchSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ex := executor.New[int, int, struct{}]().WithTracer(tp.Tracer("test"))

	var spanSeen bool
	proc := intFunc(func(ctx context.Context, inputs []int, _ struct{}) ([]int, error) {
		spanSeen = trace.SpanFromContext(ctx).SpanContext().IsValid()
		if inputs[0] == 0 {
			return nil, errors.New("nope")
		}
		return inputs[:1], nil
	})
	release := startGated(t, ex, proc, maxBatch(2))
	handles := ex.SubmitMany([]int{0, 1, 2, 3})
	release()
	for _, h := range handles {
		waitOutcome(t, h)
	}

	// Spans end after the handles are resolved; Stop waits for the worker.
	ex.Stop()
	assert.True(t, spanSeen)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	failed := spans[0]
	assert.Equal(t, "batchexec.process", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	v, ok := attrValue(failed.Attributes(), "batchexec.batch.size")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())

	ok2 := spans[1]
	assert.Equal(t, codes.Unset, ok2.Status().Code)
	v, ok = attrValue(ok2.Attributes(), "batchexec.batch.number")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())
	v, ok = attrValue(ok2.Attributes(), "batchexec.batch.results")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.AsInt64())
}
