// Package metrics exports executor statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MasterOfBinary/batchexec/executor"
)

// Outcome label values of the items_resolved_total counter.
const (
	OutcomeProduced    = "produced"
	OutcomeNotProduced = "not_produced"
	OutcomeStopped     = "stopped"
	OutcomeFailed      = "failed"
)

// PrometheusCollector is an executor.StatsCollector that records every
// event as a Prometheus metric. It also keeps an in-memory
// executor.BasicStatsCollector so GetStats keeps working.
type PrometheusCollector struct {
	basic *executor.BasicStatsCollector

	ItemsSubmittedTotal prometheus.Counter
	ItemsResolvedTotal  *prometheus.CounterVec
	BatchesTotal        prometheus.Counter
	BatchSize           prometheus.Histogram
	BatchDuration       prometheus.Histogram
	ProcessorErrors     prometheus.Counter
	StartFailures       prometheus.Counter
	QueueDepth          prometheus.Gauge
}

// NewPrometheusCollector creates a PrometheusCollector and registers its
// metrics with reg. Metric names are prefixed with namespace. It panics if
// the metrics are already registered with reg.
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	c := &PrometheusCollector{
		basic: executor.NewBasicStatsCollector(),

		ItemsSubmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_submitted_total",
				Help:      "Total number of inputs accepted into the queue",
			},
		),
		ItemsResolvedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_resolved_total",
				Help:      "Total number of handles resolved, by outcome",
			},
			[]string{"outcome"},
		),
		BatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of batches handed to the processor",
			},
		),
		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_size",
				Help:      "Number of inputs per batch",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Duration of a processor call in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		ProcessorErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "processor_errors_total",
				Help:      "Total number of processor calls that failed or panicked",
			},
		),
		StartFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "start_failures_total",
				Help:      "Total number of failed factory calls",
			},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Number of inputs waiting to be processed",
			},
		),
	}

	reg.MustRegister(
		c.ItemsSubmittedTotal,
		c.ItemsResolvedTotal,
		c.BatchesTotal,
		c.BatchSize,
		c.BatchDuration,
		c.ProcessorErrors,
		c.StartFailures,
		c.QueueDepth,
	)

	return c
}

// RecordSubmitted implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordSubmitted(n int) {
	c.basic.RecordSubmitted(n)
	c.ItemsSubmittedTotal.Add(float64(n))
}

// RecordQueueDepth implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordQueueDepth(depth int) {
	c.basic.RecordQueueDepth(depth)
	c.QueueDepth.Set(float64(depth))
}

// RecordBatchStart implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordBatchStart(batchSize int) {
	c.basic.RecordBatchStart(batchSize)
	c.BatchesTotal.Inc()
	c.BatchSize.Observe(float64(batchSize))
}

// RecordBatchComplete implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordBatchComplete(batchSize int, duration time.Duration) {
	c.basic.RecordBatchComplete(batchSize, duration)
	c.BatchDuration.Observe(duration.Seconds())
}

// RecordItemProduced implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordItemProduced() {
	c.basic.RecordItemProduced()
	c.ItemsResolvedTotal.WithLabelValues(OutcomeProduced).Inc()
}

// RecordItemNotProduced implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordItemNotProduced() {
	c.basic.RecordItemNotProduced()
	c.ItemsResolvedTotal.WithLabelValues(OutcomeNotProduced).Inc()
}

// RecordItemStopped implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordItemStopped() {
	c.basic.RecordItemStopped()
	c.ItemsResolvedTotal.WithLabelValues(OutcomeStopped).Inc()
}

// RecordItemFailed implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordItemFailed() {
	c.basic.RecordItemFailed()
	c.ItemsResolvedTotal.WithLabelValues(OutcomeFailed).Inc()
}

// RecordProcessorError implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordProcessorError() {
	c.basic.RecordProcessorError()
	c.ProcessorErrors.Inc()
}

// RecordStartFailure implements the executor.StatsCollector interface.
func (c *PrometheusCollector) RecordStartFailure() {
	c.basic.RecordStartFailure()
	c.StartFailures.Inc()
}

// GetStats implements the executor.StatsCollector interface.
func (c *PrometheusCollector) GetStats() executor.Stats {
	return c.basic.GetStats()
}

// Handler returns an http.Handler serving the metrics gathered by g in the
// Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
