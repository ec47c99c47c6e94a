package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/MasterOfBinary/batchexec/executor"
	"github.com/MasterOfBinary/batchexec/metrics"
	"github.com/MasterOfBinary/batchexec/processor"
)

type benchReport struct {
	Submitted   int
	Produced    int
	NotProduced int
	Unexpected  int
	Elapsed     time.Duration
	Stats       executor.Stats
}

func (r benchReport) print(w io.Writer) {
	fmt.Fprintf(w, "submitted:      %d\n", r.Submitted)
	fmt.Fprintf(w, "produced:       %d\n", r.Produced)
	fmt.Fprintf(w, "not produced:   %d\n", r.NotProduced)
	fmt.Fprintf(w, "batches:        %d\n", r.Stats.BatchesCompleted)
	fmt.Fprintf(w, "avg batch size: %.2f\n", r.Stats.AverageBatchSize())
	fmt.Fprintf(w, "avg batch time: %v\n", r.Stats.AverageBatchTime())
	fmt.Fprintf(w, "elapsed:        %v\n", r.Elapsed)
}

// doubler returns a processor that waits latency and then doubles each
// input, discarding the last dropRate share of the results.
func doubler(latency time.Duration, dropRate float64) executor.Processor[int, int, struct{}] {
	return executor.ProcessorFunc[int, int, struct{}](func(ctx context.Context, inputs []int, _ struct{}) ([]int, error) {
		if latency > 0 {
			timer := time.NewTimer(latency)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		keep := len(inputs) - int(math.Floor(float64(len(inputs))*dropRate))
		out := make([]int, keep)
		for i := range out {
			out[i] = inputs[i] * 2
		}
		return out, nil
	})
}

func runBench(ctx context.Context, cfg benchConfig, zl zerolog.Logger) (benchReport, error) {
	logger := executor.NewZerologLogger(zl)

	var stats executor.StatsCollector = executor.NewBasicStatsCollector()
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		stats = metrics.NewPrometheusCollector(reg, "batchbench")

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zl.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		zl.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
	}

	ex := executor.New[int, int, struct{}]().
		WithLogger(logger).
		WithStats(stats)

	factory := processor.RetryFactory(func(context.Context) (executor.Processor[int, int, struct{}], error) {
		return processor.WrapWithLogging(doubler(cfg.Latency, cfg.DropRate), logger, "doubler"), nil
	}, processor.RetryConfig{Logger: logger})

	err := ex.Start(ctx, factory, &executor.StartOptions[struct{}]{
		Config: executor.NewConstantConfig(&executor.ConfigValues{MaxBatchSize: cfg.MaxBatchSize}),
	})
	if err != nil {
		return benchReport{}, err
	}
	defer ex.Stop()

	var (
		mu     sync.Mutex
		report benchReport
	)
	start := time.Now()

	eg, egCtx := errgroup.WithContext(ctx)
	for p := 0; p < cfg.Producers; p++ {
		p := p
		eg.Go(func() error {
			inputs := make([]int, cfg.Items)
			for i := range inputs {
				inputs[i] = p*cfg.Items + i
			}

			// Half the producers submit one input at a time.
			var handles []*executor.Handle[int]
			if p%2 == 0 {
				handles = ex.SubmitMany(inputs)
			} else {
				for _, in := range inputs {
					handles = append(handles, ex.Submit(in))
				}
			}

			var produced, notProduced, unexpected int
			for i, h := range handles {
				o, err := h.WaitContext(egCtx)
				if err != nil {
					return err
				}
				switch {
				case o.OK() && o.Value == inputs[i]*2:
					produced++
				case o.Status == executor.StatusNotProduced:
					notProduced++
				default:
					unexpected++
					zl.Warn().Int("input", inputs[i]).Str("status", o.Status.String()).
						Int("value", o.Value).AnErr("error", o.Err).Msg("Unexpected outcome")
				}
			}

			mu.Lock()
			report.Submitted += len(handles)
			report.Produced += produced
			report.NotProduced += notProduced
			report.Unexpected += unexpected
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return benchReport{}, err
	}

	report.Elapsed = time.Since(start)
	ex.Stop()
	report.Stats = stats.GetStats()

	zl.Info().
		Int("submitted", report.Submitted).
		Int("produced", report.Produced).
		Int("not_produced", report.NotProduced).
		Uint64("batches", report.Stats.BatchesCompleted).
		Int("max_batch_size", report.Stats.MaxBatchSize).
		Dur("elapsed", report.Elapsed).
		Msg("Benchmark finished")

	if report.Unexpected > 0 {
		return report, fmt.Errorf("%d of %d inputs resolved unexpectedly", report.Unexpected, report.Submitted)
	}
	if resolved := report.Stats.ItemsResolved(); resolved != uint64(report.Submitted) {
		return report, fmt.Errorf("stats report %d resolved inputs, expected %d", resolved, report.Submitted)
	}
	return report, nil
}
