package main

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/example/tokenreplay/internal/share"
)

//go:embed default.md
var defaultText string

// shareEnv names the variable that may carry a share link or bare token.
const shareEnv = "TOKENREPLAY_SHARE"

// sourceFlags selects the document a command works on.
type sourceFlags struct {
	text string
	url  string
}

func (s *sourceFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&s.text, "text", "", "Use this text as the document")
	fs.StringVar(&s.url, "url", "", "Restore the document from a share link or token")
}

// readSource resolves the document in priority order: --text, a file argument
// ("-" reads stdin), --url, the share environment variable, then the built-in
// default. An unusable share token falls back to the default with a warning.
func readSource(args []string, flags sourceFlags, param string, stdin io.Reader) (string, error) {
	if flags.text != "" {
		return flags.text, nil
	}

	if len(args) > 0 {
		return readDocument(args[0], stdin)
	}

	link := flags.url
	if link == "" {
		link = os.Getenv(shareEnv)
	}

	if strings.TrimSpace(link) == "" {
		return defaultText, nil
	}

	text, err := share.Resolve(link, param)
	if err != nil {
		slog.Warn("ignoring unusable share link; using the default document",
			slog.String("error", err.Error()),
		)

		return defaultText, nil
	}

	return text, nil
}

func readDocument(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(b), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	return string(b), nil
}
