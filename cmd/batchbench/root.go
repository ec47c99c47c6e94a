package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MasterOfBinary/batchexec/executor"
)

// benchConfig holds the flags of the root command.
type benchConfig struct {
	Producers    int
	Items        int
	MaxBatchSize int
	Latency      time.Duration
	DropRate     float64
	MetricsAddr  string
	LogLevel     string
}

func (c benchConfig) validate() error {
	if c.Producers < 1 {
		return fmt.Errorf("--producers must be at least 1, got %d", c.Producers)
	}
	if c.Items < 0 {
		return fmt.Errorf("--items must not be negative, got %d", c.Items)
	}
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("--drop-rate must be between 0 and 1, got %v", c.DropRate)
	}
	return nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level: %w", err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger(), nil
}

func newRootCmd() *cobra.Command {
	var cfg benchConfig

	// The batch size default comes from BATCHEXEC_MAX_BATCH_SIZE when set.
	defaults, err := executor.LoadConfig()
	if err != nil {
		defaults = executor.ConfigValues{MaxBatchSize: executor.DefaultMaxBatchSize}
	}

	cmd := &cobra.Command{
		Use:   "batchbench",
		Short: "Exercise a batching executor with concurrent producers",
		Long: `batchbench starts an executor with a doubling processor, submits inputs
from several producer goroutines and verifies that every handle resolves
with twice its input, or as not produced when --drop-rate discards results.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			report, err := runBench(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			report.print(cmd.OutOrStdout())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.Producers, "producers", "p", 4, "Number of producer goroutines")
	flags.IntVarP(&cfg.Items, "items", "n", 1000, "Inputs submitted by each producer")
	flags.IntVarP(&cfg.MaxBatchSize, "max-batch-size", "b", defaults.MaxBatchSize, "Maximum inputs per processor call")
	flags.DurationVar(&cfg.Latency, "latency", time.Millisecond, "Simulated processing time per batch")
	flags.Float64Var(&cfg.DropRate, "drop-rate", 0, "Fraction of each batch's results the processor discards")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newEmbedCmd())
	return cmd
}
