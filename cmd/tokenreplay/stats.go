package main

import (
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/example/tokenreplay/internal/config"
	"github.com/example/tokenreplay/internal/tokenizer"
)

func newStatsCmd() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "stats [file|-]",
		Short: "Compare token counts across encodings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			text, err := readSource(args, src, cfg.Share.Param, cmd.InOrStdin())
			if err != nil {
				return err
			}

			return writeStats(cmd.OutOrStdout(), text, statCounters(cfg))
		},
	}

	src.register(cmd.Flags())

	return cmd
}

type namedCounter struct {
	name    string
	counter tokenizer.Counter
	err     error
}

// statCounters returns one counter per embedded encoding plus the configured
// SentencePiece model, if any. Load failures are reported per row.
func statCounters(cfg config.Config) []namedCounter {
	names := tokenizer.Encodings()
	out := make([]namedCounter, 0, len(names)+1)

	for _, name := range names {
		v, err := tokenizer.Load(name)
		if err != nil {
			out = append(out, namedCounter{name: name, err: err})
			continue
		}

		out = append(out, namedCounter{name: name, counter: tokenizer.AsCounter(v)})
	}

	if path := cfg.Tokenizer.SentencePieceModel; path != "" {
		sp, err := tokenizer.NewSentencePieceCounter(path)
		if err != nil {
			slog.Warn("sentencepiece model unavailable", slog.String("path", path), slog.String("error", err.Error()))
			out = append(out, namedCounter{name: "sentencepiece", err: err})
		} else {
			out = append(out, namedCounter{name: sp.Name(), counter: sp})
		}
	}

	return out
}

func writeStats(w io.Writer, text string, counters []namedCounter) error {
	runes := utf8.RuneCountInString(text)

	if _, err := fmt.Fprintf(w, "bytes: %d  runes: %d\n\n", len(text), runes); err != nil {
		return err
	}

	for _, c := range counters {
		if c.err != nil {
			if _, err := fmt.Fprintf(w, "%-16s  error: %v\n", c.name, c.err); err != nil {
				return err
			}

			continue
		}

		n, err := c.counter.Count(text)
		if err != nil {
			if _, err := fmt.Fprintf(w, "%-16s  error: %v\n", c.name, err); err != nil {
				return err
			}

			continue
		}

		ratio := 0.0
		if n > 0 {
			ratio = float64(runes) / float64(n)
		}

		if _, err := fmt.Fprintf(w, "%-16s %8d tokens  %5.2f runes/token\n", c.name, n, ratio); err != nil {
			return err
		}
	}

	return nil
}
