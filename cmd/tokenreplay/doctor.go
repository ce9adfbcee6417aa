package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tokenreplay/internal/doctor"
	"github.com/example/tokenreplay/internal/playback"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run vocabulary, model and share link checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			result := doctor.Run(doctor.Config{
				Encoding:           cfg.Tokenizer.Encoding,
				SentencePieceModel: cfg.Tokenizer.SentencePieceModel,
				ShareBaseURL:       cfg.Share.BaseURL,
				ShareParam:         cfg.Share.Param,
			}, out)

			if _, ok := playback.SpeedFromMillis(cfg.Playback.SpeedMS); !ok {
				msg := fmt.Sprintf("playback speed %dms is not one of 50|100|200", cfg.Playback.SpeedMS)
				result.AddFailure(msg)
				fmt.Fprintf(out, "%s %s\n", doctor.FailMark, msg)
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	return cmd
}
