package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tokenreplay/internal/bench"
)

func newBenchCmd() *cobra.Command {
	var (
		src       sourceFlags
		runs      int
		format    string
		minTokens float64
	)

	cmd := &cobra.Command{
		Use:   "bench [file|-]",
		Short: "Benchmark encode and decode of a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			vocab, err := loadVocabulary(cfg)
			if err != nil {
				return err
			}

			text, err := readSource(args, src, cfg.Share.Param, cmd.InOrStdin())
			if err != nil {
				return err
			}

			results, err := bench.Run(cmd.Context(), vocab, text, runs)
			if err != nil {
				return err
			}

			stats := bench.ComputeStats(bench.Durations(results))

			switch format {
			case "json":
				bench.FormatJSON(vocab.Name(), results, stats, cmd.OutOrStdout())
			default:
				bench.FormatTable(vocab.Name(), results, stats, cmd.OutOrStdout())
			}

			return bench.CheckThroughput(results, minTokens)
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of encode+decode runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minTokens, "min-tokens-per-sec", 0, "Exit non-zero if mean encode throughput is below this value (0 = disabled)")

	return cmd
}
