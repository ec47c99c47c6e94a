package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MasterOfBinary/batchexec/executor"
	"github.com/MasterOfBinary/batchexec/metrics"
)

func TestPrometheusCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewPrometheusCollector(reg, "test")

	c.RecordSubmitted(5)
	c.RecordQueueDepth(5)
	c.RecordBatchStart(3)
	c.RecordBatchComplete(3, 20*time.Millisecond)
	c.RecordItemProduced()
	c.RecordItemProduced()
	c.RecordItemNotProduced()
	c.RecordItemStopped()
	c.RecordItemFailed()
	c.RecordProcessorError()
	c.RecordStartFailure()
	c.RecordQueueDepth(1)

	assert.Equal(t, 5.0, testutil.ToFloat64(c.ItemsSubmittedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BatchesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ItemsResolvedTotal.WithLabelValues(metrics.OutcomeProduced)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ItemsResolvedTotal.WithLabelValues(metrics.OutcomeNotProduced)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ItemsResolvedTotal.WithLabelValues(metrics.OutcomeStopped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ItemsResolvedTotal.WithLabelValues(metrics.OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ProcessorErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StartFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.QueueDepth))
	assert.Equal(t, 2, testutil.CollectAndCount(c.BatchSize)+testutil.CollectAndCount(c.BatchDuration))

	s := c.GetStats()
	assert.Equal(t, uint64(5), s.ItemsSubmitted)
	assert.Equal(t, uint64(2), s.ItemsProduced)
	assert.Equal(t, 3, s.MaxBatchSize)
	assert.Equal(t, 1, s.QueueDepth)
}

func TestPrometheusCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewPrometheusCollector(reg, "dup")
	assert.Panics(t, func() { metrics.NewPrometheusCollector(reg, "dup") })

	// A different namespace does not collide.
	assert.NotPanics(t, func() { metrics.NewPrometheusCollector(reg, "other") })
}

func TestPrometheusCollector_WithExecutor(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewPrometheusCollector(reg, "batchexec")

	ex := executor.New[int, int, struct{}]().WithStats(c)
	proc := executor.ProcessorFunc[int, int, struct{}](func(_ context.Context, inputs []int, _ struct{}) ([]int, error) {
		if inputs[0] < 0 {
			return nil, errors.New("negative")
		}
		return inputs, nil
	})
	err := ex.Start(context.Background(), func(context.Context) (executor.Processor[int, int, struct{}], error) {
		return proc, nil
	}, nil)
	require.NoError(t, err)

	for _, in := range []int{1, 2, -1} {
		ex.Submit(in).Wait()
	}
	ex.Stop()
	ex.Submit(9)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.ItemsSubmittedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ItemsResolvedTotal.WithLabelValues(metrics.OutcomeProduced)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ItemsResolvedTotal.WithLabelValues(metrics.OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ItemsResolvedTotal.WithLabelValues(metrics.OutcomeStopped)))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.BatchesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ProcessorErrors))

	expected := `
# HELP batchexec_start_failures_total Total number of failed factory calls
# TYPE batchexec_start_failures_total counter
batchexec_start_failures_total 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "batchexec_start_failures_total"))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewPrometheusCollector(reg, "served")
	c.RecordSubmitted(2)

	srv := httptest.NewServer(metrics.Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "served_items_submitted_total 2")
}
