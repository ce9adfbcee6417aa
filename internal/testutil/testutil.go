// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestCountWithModel(t *testing.T) {
//	    path := testutil.RequireSentencePieceModel(t)
//	    ...
//	}
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
)

// SentencePieceModelEnv names the model used by SentencePiece integration tests.
const SentencePieceModelEnv = "TOKENREPLAY_SP_MODEL"

// RequireSentencePieceModel skips the test unless TOKENREPLAY_SP_MODEL points
// at a readable file, and returns that path.
func RequireSentencePieceModel(tb testing.TB) string {
	tb.Helper()

	p := os.Getenv(SentencePieceModelEnv)
	if p == "" {
		tb.Skipf("sentencepiece model not configured; set %s", SentencePieceModelEnv)
		return ""
	}

	// #nosec G703 -- Integration tests intentionally accept explicit env-provided local model paths.
	info, err := os.Stat(p)
	if err != nil {
		tb.Skipf("sentencepiece model not found at %s=%q: %v", SentencePieceModelEnv, p, err)
		return ""
	}

	if info.IsDir() {
		tb.Skipf("%s=%q is a directory", SentencePieceModelEnv, p)
		return ""
	}

	return p
}

// QuietLogger returns a logger that drops everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
