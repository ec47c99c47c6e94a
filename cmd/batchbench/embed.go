package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MasterOfBinary/batchexec/embed"
	"github.com/MasterOfBinary/batchexec/executor"
)

func newEmbedCmd() *cobra.Command {
	var (
		maxBatchSize int
		keepAlive    string
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "embed TEXT...",
		Short: "Embed texts with an Ollama server, one request per batch",
		Long: `embed submits every argument to an executor backed by the Ollama
batch embedding API and prints the dimension of each embedding. The server
and model are read from BATCHEXEC_OLLAMA_URL and BATCHEXEC_EMBED_MODEL.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			zl, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			logger := executor.NewZerologLogger(zl)

			cfg, err := embed.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.Logger = logger

			ex := executor.New[string, []float32, embed.Options]().WithLogger(logger)
			err = ex.Start(cmd.Context(), embed.Factory(cfg), &executor.StartOptions[embed.Options]{
				Config: executor.NewConstantConfig(&executor.ConfigValues{MaxBatchSize: maxBatchSize}),
				Stream: embed.Options{KeepAlive: keepAlive},
			})
			if err != nil {
				return err
			}
			defer ex.Stop()

			out := cmd.OutOrStdout()
			for i, h := range ex.SubmitMany(args) {
				o := h.Outcome()
				if !o.OK() {
					fmt.Fprintf(out, "%d\t%s\t%v\n", i, o.Status, o.Err)
					continue
				}
				fmt.Fprintf(out, "%d\t%d\n", i, len(o.Value))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxBatchSize, "max-batch-size", "b", 16, "Maximum texts per request")
	cmd.Flags().StringVar(&keepAlive, "keep-alive", "", "How long the server keeps the model loaded")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return cmd
}
