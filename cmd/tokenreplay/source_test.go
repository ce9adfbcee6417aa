package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/tokenreplay/internal/share"
)

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")

	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	link, err := share.BuildURL("http://h/", share.DefaultParam, "from link")
	if err != nil {
		t.Fatalf("BuildURL: %v", err)
	}

	t.Run("text flag wins", func(t *testing.T) {
		got, err := readSource([]string{path}, sourceFlags{text: "flag", url: link}, "", strings.NewReader(""))
		if err != nil || got != "flag" {
			t.Fatalf("got %q, %v; want flag text", got, err)
		}
	})

	t.Run("file argument", func(t *testing.T) {
		got, err := readSource([]string{path}, sourceFlags{url: link}, "", strings.NewReader(""))
		if err != nil || got != "from file" {
			t.Fatalf("got %q, %v; want file contents", got, err)
		}
	})

	t.Run("dash reads stdin untrimmed", func(t *testing.T) {
		got, err := readSource([]string{"-"}, sourceFlags{}, "", strings.NewReader("  piped\n"))
		if err != nil || got != "  piped\n" {
			t.Fatalf("got %q, %v; want stdin verbatim", got, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := readSource([]string{filepath.Join(dir, "nope")}, sourceFlags{}, "", nil); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("share link", func(t *testing.T) {
		got, err := readSource(nil, sourceFlags{url: link}, "", nil)
		if err != nil || got != "from link" {
			t.Fatalf("got %q, %v; want shared text", got, err)
		}
	})

	t.Run("bad share link falls back to default", func(t *testing.T) {
		got, err := readSource(nil, sourceFlags{url: "http://h/?s=AAAA"}, "", nil)
		if err != nil || got != defaultText {
			t.Fatalf("got %.20q, %v; want default text", got, err)
		}
	})

	t.Run("share environment variable", func(t *testing.T) {
		t.Setenv(shareEnv, link)

		got, err := readSource(nil, sourceFlags{}, "", nil)
		if err != nil || got != "from link" {
			t.Fatalf("got %q, %v; want shared text", got, err)
		}
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv(shareEnv, "")

		got, err := readSource(nil, sourceFlags{}, "", nil)
		if err != nil || got != defaultText {
			t.Fatalf("got %.20q, %v; want default text", got, err)
		}
	})
}

func TestDefaultTextIsEmbedded(t *testing.T) {
	if strings.TrimSpace(defaultText) == "" {
		t.Fatal("default document is empty")
	}
}
