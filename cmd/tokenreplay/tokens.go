package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/tokenreplay/internal/present"
	"github.com/example/tokenreplay/internal/stream"
	"github.com/example/tokenreplay/internal/tokenizer"
)

func newTokensCmd() *cobra.Command {
	var (
		src    sourceFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tokens [file|-]",
		Short: "List the tokens of a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			vocab, err := loadVocabulary(cfg)
			if err != nil {
				return err
			}

			text, err := readSource(args, src, cfg.Share.Param, cmd.InOrStdin())
			if err != nil {
				return err
			}

			tokens, err := listTokens(vocab, text)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tokens)
			}

			return writeTokenTable(cmd.OutOrStdout(), tokens)
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tokens as JSON")

	return cmd
}

func listTokens(vocab tokenizer.Vocabulary, text string) ([]present.Token, error) {
	x := stream.New(vocab)
	x.Reset(text)

	if err := x.Err(); err != nil {
		return nil, err
	}

	x.SetCursor(x.Len())

	return present.Tokens(x), nil
}

func writeTokenTable(w io.Writer, tokens []present.Token) error {
	dim := color.New(color.Faint)

	for _, t := range tokens {
		if _, err := fmt.Fprintf(w, "%6d %8s  %s\n", t.Index, dim.Sprint(t.ID), t.Label); err != nil {
			return err
		}
	}

	return nil
}
