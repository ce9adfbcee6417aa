package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/tokenreplay/internal/config"
	"github.com/example/tokenreplay/internal/server"
	"github.com/example/tokenreplay/internal/tokenizer"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "tokenreplay",
		Short: "Replay text token by token",
		Long: "tokenreplay encodes a document with a BPE vocabulary and reveals it one token at a time,\n" +
			"interactively in the terminal, as plain colored output, or over a WebSocket.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newPlayCmd())
	cmd.AddCommand(newReplayCmd())
	cmd.AddCommand(newTokensCmd())
	cmd.AddCommand(newShareCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newBenchCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	setupLoggerTo(levelStr, os.Stderr)
}

func setupLoggerTo(levelStr string, w io.Writer) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Tokenizer.Encoding == "" {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

// loadVocabulary resolves the configured encoding. Failure here is fatal for
// every command that plays or lists tokens.
func loadVocabulary(cfg config.Config) (tokenizer.Vocabulary, error) {
	vocab, err := tokenizer.Load(cfg.Tokenizer.Encoding)
	if err != nil {
		return nil, err
	}

	slog.Debug("vocabulary loaded", slog.String("encoding", vocab.Name()))

	return vocab, nil
}
