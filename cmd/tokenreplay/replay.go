package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/tokenreplay/internal/playback"
	"github.com/example/tokenreplay/internal/present"
	"github.com/example/tokenreplay/internal/stream"
)

var fragmentColors = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgYellow),
	color.New(color.FgGreen),
	color.New(color.FgMagenta),
}

func newReplayCmd() *cobra.Command {
	var (
		src     sourceFlags
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "replay [file|-]",
		Short: "Print the document token by token at the playback speed",
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

			if noColor {
				color.NoColor = true
			}

			x := stream.New(vocab)
			x.Reset(text)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runReplay(ctx, cmd.OutOrStdout(), x, cfg.Speed())
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored fragments")

	return cmd
}

// runReplay autoplays x from the start and writes each newly revealed fragment
// to w. It returns once every token is shown or ctx is cancelled.
func runReplay(ctx context.Context, w io.Writer, x *stream.Index, speed playback.Speed) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		shown string
		n     int
		werr  error
	)

	observe := func(f present.Frame) {
		if werr != nil {
			return
		}

		if fragment, ok := strings.CutPrefix(f.Display, shown); ok && fragment != "" {
			c := fragmentColors[n%len(fragmentColors)]
			n++

			_, werr = c.Fprint(w, fragment)
			shown = f.Display
		}

		if f.Done() && !f.Playing {
			cancel()
		}
	}

	loop := playback.NewLoop(x,
		playback.WithSpeed(speed),
		playback.WithAutoplay(true),
		playback.WithObserver(observe),
	)

	if err := loop.Run(ctx); err != nil {
		return err
	}

	if werr != nil {
		return werr
	}

	_, err := fmt.Fprintln(w)

	return err
}
