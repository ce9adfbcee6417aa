package main

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/example/tokenreplay/internal/config"
	"github.com/example/tokenreplay/internal/share"
	"github.com/example/tokenreplay/internal/tokenizer"
)

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	root := NewRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"play", "replay", "tokens", "share", "stats", "serve", "health", "doctor", "bench"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlags(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"config", "encoding", "speed", "autoplay", "ui", "share-base-url"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s persistent flag to be registered", name)
		}
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "not-a-level"} {
		setupLogger(level)
	}
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	if _, err := requireConfig(); err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.DefaultConfig()

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Tokenizer.Encoding != tokenizer.DefaultEncoding {
		t.Errorf("unexpected encoding: %q", got.Tokenizer.Encoding)
	}
}

// ---------------------------------------------------------------------------
// commands
// ---------------------------------------------------------------------------

func TestTokensCmd_JSON(t *testing.T) {
	out, err := execute(t, "tokens", "--text", "hello world", "--json")
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	for _, want := range []string{`"id": 15339`, `"id": 1917`, `"text": " world"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestTokensCmd_Table(t *testing.T) {
	color.NoColor = true

	out, err := execute(t, "tokens", "--text", "hello\nworld")
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	if !strings.Contains(out, "↵") {
		t.Errorf("newline token not labelled:\n%s", out)
	}
}

func TestTokensCmd_UnknownEncoding(t *testing.T) {
	_, err := execute(t, "tokens", "--text", "x", "--encoding", "bogus")
	if !errors.Is(err, tokenizer.ErrVocabularyLoad) {
		t.Errorf("err = %v; want ErrVocabularyLoad", err)
	}
}

func TestShareCmd_RoundTrip(t *testing.T) {
	text := "shared\ttext 🎉"

	link, err := execute(t, "share", "--text", text, "--share-base-url", "https://replay.example.com/")
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	link = strings.TrimSpace(link)
	if !strings.HasPrefix(link, "https://replay.example.com/?s=") {
		t.Errorf("link = %q", link)
	}

	got, err := execute(t, "share", "--decode", link)
	if err != nil {
		t.Fatalf("share --decode: %v", err)
	}

	if got != text {
		t.Errorf("decoded %q; want %q", got, text)
	}
}

func TestShareCmd_DecodeGarbage(t *testing.T) {
	_, err := execute(t, "share", "--decode", "!!!")
	if !errors.Is(err, share.ErrDecodeFailure) {
		t.Errorf("err = %v; want ErrDecodeFailure", err)
	}
}

func TestStatsCmd_ListsEncodings(t *testing.T) {
	out, err := execute(t, "stats", "--text", "hello world")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	for _, name := range tokenizer.Encodings() {
		if !strings.Contains(out, name) {
			t.Errorf("stats output missing %s:\n%s", name, out)
		}
	}

	if !strings.Contains(out, "bytes: 11") {
		t.Errorf("stats output missing byte count:\n%s", out)
	}
}

func TestStatsCmd_MissingSentencePieceModelIsReported(t *testing.T) {
	out, err := execute(t, "stats", "--text", "x", "--sentencepiece-model", "/nonexistent/sp.model")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if !strings.Contains(out, "sentencepiece") || !strings.Contains(out, "error") {
		t.Errorf("missing model not reported:\n%s", out)
	}
}

func TestBenchCmd_JSON(t *testing.T) {
	out, err := execute(t, "bench", "--text", "hello world", "--runs", "2", "--format", "json")
	if err != nil {
		t.Fatalf("bench: %v", err)
	}

	for _, want := range []string{`"encoding": "cl100k_base"`, `"lossless": true`, `"tokens": 2`} {
		if !strings.Contains(out, want) {
			t.Errorf("bench output missing %s:\n%s", want, out)
		}
	}
}

func TestBenchCmd_RejectsBadFlags(t *testing.T) {
	if _, err := execute(t, "bench", "--text", "x", "--runs", "0"); err == nil {
		t.Error("want error for --runs 0")
	}

	if _, err := execute(t, "bench", "--text", "x", "--format", "xml"); err == nil {
		t.Error("want error for --format xml")
	}
}

func TestReplayCmd_PrintsDocument(t *testing.T) {
	out, err := execute(t, "replay", "--text", "hello world", "--speed", "50", "--no-color")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if out != "hello world\n" {
		t.Errorf("replay output = %q", out)
	}
}

func TestPlayCmd_WithoutUIFallsBackToReplay(t *testing.T) {
	color.NoColor = true

	out, err := execute(t, "play", "--ui", "off", "--text", "hi", "--speed", "50")
	if err != nil {
		t.Fatalf("play: %v", err)
	}

	if out != "hi\n" {
		t.Errorf("play output = %q", out)
	}
}

func TestDoctorCmd_Passes(t *testing.T) {
	out, err := execute(t, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}

	if !strings.Contains(out, "doctor checks passed") {
		t.Errorf("doctor output:\n%s", out)
	}
}

func TestDoctorCmd_FlagsInvalidSpeed(t *testing.T) {
	out, err := execute(t, "doctor", "--speed", "75")
	if err == nil {
		t.Fatal("want doctor failure for speed 75")
	}

	if !strings.Contains(out, "playback speed 75ms") {
		t.Errorf("doctor output:\n%s", out)
	}
}

func TestHealthCmd_ClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	addr := ln.Addr().String()
	ln.Close()

	if _, err := execute(t, "health", "--addr", addr); err == nil {
		t.Error("health against a closed port succeeded")
	}
}

func TestInvalidUIModeRejected(t *testing.T) {
	if _, err := execute(t, "tokens", "--ui", "sometimes", "--text", "x"); err == nil {
		t.Error("expected error for invalid --ui")
	}
}
