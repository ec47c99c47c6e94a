package executor

import (
	"sync"
	"sync/atomic"
	"time"
)

// StatsCollector defines the interface for collecting metrics from an
// Executor. Implementations can keep metrics in memory or export them to a
// monitoring system. The StatsCollector is optional - if not provided, no
// statistics are collected.
//
// All methods may be called concurrently.
type StatsCollector interface {
	// RecordSubmitted is called when n items are accepted into the queue.
	RecordSubmitted(n int)

	// RecordQueueDepth is called with the queue length after it changes.
	RecordQueueDepth(depth int)

	// RecordBatchStart is called when a batch is handed to the Processor.
	RecordBatchStart(batchSize int)

	// RecordBatchComplete is called when the Processor returns.
	// duration is the time taken by the Process call.
	RecordBatchComplete(batchSize int, duration time.Duration)

	// RecordItemProduced is called for each item resolved with a result.
	RecordItemProduced()

	// RecordItemNotProduced is called for each item the Processor returned
	// no result for.
	RecordItemNotProduced()

	// RecordItemStopped is called for each item resolved by Stop, or
	// submitted while the executor was not running.
	RecordItemStopped()

	// RecordItemFailed is called for each item in a failed batch.
	RecordItemFailed()

	// RecordProcessorError is called when a Process call returns an error
	// or panics.
	RecordProcessorError()

	// RecordStartFailure is called when the factory fails during Start.
	RecordStartFailure()

	// GetStats returns a snapshot of the current statistics.
	GetStats() Stats
}

// Stats holds aggregated statistics about an Executor.
type Stats struct {
	// ItemsSubmitted is the total number of items accepted into the queue.
	ItemsSubmitted uint64

	// BatchesStarted is the total number of batches handed to the Processor.
	BatchesStarted uint64

	// BatchesCompleted is the total number of Process calls that returned.
	BatchesCompleted uint64

	// ItemsProduced is the total number of items resolved with a result.
	ItemsProduced uint64

	// ItemsNotProduced is the total number of items the Processor skipped.
	ItemsNotProduced uint64

	// ItemsStopped is the total number of items resolved by shutdown.
	ItemsStopped uint64

	// ItemsFailed is the total number of items in failed batches.
	ItemsFailed uint64

	// ProcessorErrors is the total number of failed Process calls.
	ProcessorErrors uint64

	// StartFailures is the total number of failed factory calls.
	StartFailures uint64

	// QueueDepth is the last reported queue length.
	QueueDepth int

	// TotalProcessingTime is the cumulative time spent in Process calls.
	TotalProcessingTime time.Duration

	// MinBatchTime is the minimum time taken by a Process call.
	MinBatchTime time.Duration

	// MaxBatchTime is the maximum time taken by a Process call.
	MaxBatchTime time.Duration

	// MinBatchSize is the smallest batch handed to the Processor.
	MinBatchSize int

	// MaxBatchSize is the largest batch handed to the Processor.
	MaxBatchSize int

	// StartTime is when statistics collection began.
	StartTime time.Time

	// LastUpdateTime is when statistics were last updated.
	LastUpdateTime time.Time
}

// ItemsResolved returns the number of items resolved for any reason.
func (s *Stats) ItemsResolved() uint64 {
	return s.ItemsProduced + s.ItemsNotProduced + s.ItemsStopped + s.ItemsFailed
}

// AverageBatchTime returns the average time taken by a Process call.
// Returns 0 if no batches have been completed.
func (s *Stats) AverageBatchTime() time.Duration {
	if s.BatchesCompleted == 0 {
		return 0
	}
	return s.TotalProcessingTime / time.Duration(s.BatchesCompleted)
}

// AverageBatchSize returns the average number of items per batch.
// Returns 0 if no batches have been started.
func (s *Stats) AverageBatchSize() float64 {
	if s.BatchesStarted == 0 {
		return 0
	}
	return float64(s.ItemsProduced+s.ItemsNotProduced+s.ItemsFailed) / float64(s.BatchesStarted)
}

// Duration returns the total duration since statistics collection started.
func (s *Stats) Duration() time.Duration {
	return s.LastUpdateTime.Sub(s.StartTime)
}

// NoOpStatsCollector is a stats collector that discards all metrics.
// This is the default stats collector when none is specified.
type NoOpStatsCollector struct{}

// RecordSubmitted implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordSubmitted(int) {}

// RecordQueueDepth implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordQueueDepth(int) {}

// RecordBatchStart implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordBatchStart(int) {}

// RecordBatchComplete implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordBatchComplete(int, time.Duration) {}

// RecordItemProduced implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemProduced() {}

// RecordItemNotProduced implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemNotProduced() {}

// RecordItemStopped implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemStopped() {}

// RecordItemFailed implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemFailed() {}

// RecordProcessorError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordProcessorError() {}

// RecordStartFailure implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordStartFailure() {}

// GetStats implements the StatsCollector interface.
func (n *NoOpStatsCollector) GetStats() Stats {
	return Stats{}
}

// BasicStatsCollector is a simple in-memory implementation of StatsCollector.
// All operations are thread-safe.
type BasicStatsCollector struct {
	mu    sync.RWMutex
	stats Stats

	// Atomic counters for lock-free updates
	itemsSubmitted   uint64
	batchesStarted   uint64
	batchesCompleted uint64
	itemsProduced    uint64
	itemsNotProduced uint64
	itemsStopped     uint64
	itemsFailed      uint64
	processorErrors  uint64
	startFailures    uint64
}

// NewBasicStatsCollector creates a new BasicStatsCollector.
func NewBasicStatsCollector() *BasicStatsCollector {
	now := time.Now()
	return &BasicStatsCollector{
		stats: Stats{
			StartTime:      now,
			LastUpdateTime: now,
			MinBatchTime:   time.Duration(1<<63 - 1),
		},
	}
}

// RecordSubmitted implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordSubmitted(n int) {
	atomic.AddUint64(&b.itemsSubmitted, uint64(n))
}

// RecordQueueDepth implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordQueueDepth(depth int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.QueueDepth = depth
	b.stats.LastUpdateTime = time.Now()
}

// RecordBatchStart implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordBatchStart(batchSize int) {
	atomic.AddUint64(&b.batchesStarted, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.LastUpdateTime = time.Now()

	if batchSize < b.stats.MinBatchSize || b.stats.MinBatchSize == 0 {
		b.stats.MinBatchSize = batchSize
	}
	if batchSize > b.stats.MaxBatchSize {
		b.stats.MaxBatchSize = batchSize
	}
}

// RecordBatchComplete implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordBatchComplete(_ int, duration time.Duration) {
	atomic.AddUint64(&b.batchesCompleted, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.LastUpdateTime = time.Now()
	b.stats.TotalProcessingTime += duration

	if duration < b.stats.MinBatchTime {
		b.stats.MinBatchTime = duration
	}
	if duration > b.stats.MaxBatchTime {
		b.stats.MaxBatchTime = duration
	}
}

// RecordItemProduced implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemProduced() {
	atomic.AddUint64(&b.itemsProduced, 1)
}

// RecordItemNotProduced implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemNotProduced() {
	atomic.AddUint64(&b.itemsNotProduced, 1)
}

// RecordItemStopped implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemStopped() {
	atomic.AddUint64(&b.itemsStopped, 1)
}

// RecordItemFailed implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemFailed() {
	atomic.AddUint64(&b.itemsFailed, 1)
}

// RecordProcessorError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordProcessorError() {
	atomic.AddUint64(&b.processorErrors, 1)
}

// RecordStartFailure implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordStartFailure() {
	atomic.AddUint64(&b.startFailures, 1)
}

// GetStats implements the StatsCollector interface.
// It returns a snapshot of the current statistics.
func (b *BasicStatsCollector) GetStats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := b.stats
	stats.ItemsSubmitted = atomic.LoadUint64(&b.itemsSubmitted)
	stats.BatchesStarted = atomic.LoadUint64(&b.batchesStarted)
	stats.BatchesCompleted = atomic.LoadUint64(&b.batchesCompleted)
	stats.ItemsProduced = atomic.LoadUint64(&b.itemsProduced)
	stats.ItemsNotProduced = atomic.LoadUint64(&b.itemsNotProduced)
	stats.ItemsStopped = atomic.LoadUint64(&b.itemsStopped)
	stats.ItemsFailed = atomic.LoadUint64(&b.itemsFailed)
	stats.ProcessorErrors = atomic.LoadUint64(&b.processorErrors)
	stats.StartFailures = atomic.LoadUint64(&b.startFailures)

	if stats.BatchesCompleted == 0 {
		stats.MinBatchTime = 0
	}

	return stats
}
