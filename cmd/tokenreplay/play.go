package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/example/tokenreplay/internal/share"
	"github.com/example/tokenreplay/internal/stream"
	"github.com/example/tokenreplay/internal/tui"
)

func newPlayCmd() *cobra.Command {
	var (
		src     sourceFlags
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "play [file|-]",
		Short: "Open the interactive player",
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

			x := stream.New(vocab)

			if !shouldUseTUI(cfg.UI) {
				x.Reset(text)
				return runReplay(cmd.Context(), cmd.OutOrStdout(), x, cfg.Speed())
			}

			closeLog, err := redirectLogs(cfg.LogLevel, logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			x.Reset(text)

			model := tui.New(x, tui.Options{
				Title:    "tokenreplay",
				Speed:    cfg.Speed(),
				Autoplay: cfg.Playback.Autoplay,
				ShareLink: func(t string) (string, error) {
					return share.BuildURL(cfg.Share.BaseURL, cfg.Share.Param, t)
				},
				Copy: copyToClipboard,
			})

			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err = program.Run()

			return err
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs here while the player owns the terminal (default: discard)")

	return cmd
}

// redirectLogs keeps log output off the screen while the TUI is running.
func redirectLogs(level, path string) (func(), error) {
	if path == "" {
		setupLoggerTo(level, io.Discard)
		return func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	setupLoggerTo(level, f)

	return func() { _ = f.Close() }, nil
}

// copyToClipboard writes an OSC52 sequence, which most terminals (and tmux or
// ssh sessions) turn into a clipboard update.
func copyToClipboard(text string) {
	termenv.NewOutput(os.Stdout).Copy(text)
}
