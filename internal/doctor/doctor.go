// Package doctor provides environment preflight checks for tokenreplay.
package doctor

import (
	"fmt"
	"io"
	"os"

	"github.com/example/tokenreplay/internal/share"
	"github.com/example/tokenreplay/internal/tokenizer"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// DefaultProbe mixes ASCII, accents, CJK and an emoji so multi-byte tokens
// are exercised.
const DefaultProbe = "Hello, world! naïve café 日本語 🎉\n"

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Encoding is the vocabulary name passed to LoadVocabulary.
	Encoding string
	// LoadVocabulary defaults to tokenizer.Load.
	LoadVocabulary func(name string) (tokenizer.Vocabulary, error)
	// SentencePieceModel is optional; empty skips the check.
	SentencePieceModel string
	// LoadCounter defaults to tokenizer.NewSentencePieceCounter.
	LoadCounter func(path string) (tokenizer.Counter, error)
	// ShareBaseURL and ShareParam are checked by building and reading back a link.
	ShareBaseURL string
	ShareParam   string
	// Probe is the text round-tripped by every check; defaults to DefaultProbe.
	Probe string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	probe := cfg.Probe
	if probe == "" {
		probe = DefaultProbe
	}

	// ---- vocabulary -------------------------------------------------------
	load := cfg.LoadVocabulary
	if load == nil {
		load = func(name string) (tokenizer.Vocabulary, error) { return tokenizer.Load(name) }
	}

	vocab, err := load(cfg.Encoding)
	if err != nil {
		res.fail(fmt.Sprintf("vocabulary %q: %v", cfg.Encoding, err))
		fmt.Fprintf(w, "%s vocabulary %s: %v\n", FailMark, cfg.Encoding, err)
	} else if n, rtErr := checkRoundTrip(vocab, probe); rtErr != nil {
		res.fail(fmt.Sprintf("vocabulary %s round trip: %v", vocab.Name(), rtErr))
		fmt.Fprintf(w, "%s vocabulary %s: %v\n", FailMark, vocab.Name(), rtErr)
	} else {
		fmt.Fprintf(w, "%s vocabulary %s: probe round-trips in %d tokens\n", PassMark, vocab.Name(), n)
	}

	// ---- sentencepiece model ----------------------------------------------
	if cfg.SentencePieceModel == "" {
		fmt.Fprintf(w, "%s sentencepiece model: skipped\n", PassMark)
	} else {
		checkSentencePiece(cfg, probe, w, &res)
	}

	// ---- share links ------------------------------------------------------
	if err := checkShare(cfg.ShareBaseURL, cfg.ShareParam, probe); err != nil {
		res.fail(fmt.Sprintf("share link: %v", err))
		fmt.Fprintf(w, "%s share link %s: %v\n", FailMark, cfg.ShareBaseURL, err)
	} else {
		fmt.Fprintf(w, "%s share link: %s\n", PassMark, cfg.ShareBaseURL)
	}

	return res
}

// checkRoundTrip encodes probe and requires every prefix decode to be a byte
// prefix of it and the full decode to equal it.
func checkRoundTrip(v tokenizer.Vocabulary, probe string) (int, error) {
	ids, err := v.Encode(probe)
	if err != nil {
		return 0, err
	}

	full, err := v.Decode(ids)
	if err != nil {
		return 0, err
	}

	if full != probe {
		return 0, fmt.Errorf("decode(encode(probe)) = %q; want %q", full, probe)
	}

	for k := range ids {
		prefix, err := v.Decode(ids[:k])
		if err != nil {
			return 0, err
		}

		if len(prefix) > len(probe) || probe[:len(prefix)] != prefix {
			return 0, fmt.Errorf("decode of the first %d tokens is not a prefix of the probe", k)
		}
	}

	return len(ids), nil
}

func checkSentencePiece(cfg Config, probe string, w io.Writer, res *Result) {
	path := cfg.SentencePieceModel

	if _, err := os.Stat(path); err != nil {
		res.fail(fmt.Sprintf("sentencepiece model %q: %v", path, err))
		fmt.Fprintf(w, "%s sentencepiece model %s: not found\n", FailMark, path)

		return
	}

	load := cfg.LoadCounter
	if load == nil {
		load = func(p string) (tokenizer.Counter, error) { return tokenizer.NewSentencePieceCounter(p) }
	}

	counter, err := load(path)
	if err != nil {
		res.fail(fmt.Sprintf("sentencepiece model %q: %v", path, err))
		fmt.Fprintf(w, "%s sentencepiece model %s: %v\n", FailMark, path, err)

		return
	}

	n, err := counter.Count(probe)
	if err != nil {
		res.fail(fmt.Sprintf("sentencepiece model %q: %v", path, err))
		fmt.Fprintf(w, "%s sentencepiece model %s: %v\n", FailMark, path, err)

		return
	}

	fmt.Fprintf(w, "%s sentencepiece model: %s (%d tokens for probe)\n", PassMark, path, n)
}

func checkShare(base, param, probe string) error {
	link, err := share.BuildURL(base, param, probe)
	if err != nil {
		return err
	}

	text, ok, err := share.FromURL(link, param)
	if err != nil {
		return err
	}

	if !ok || text != probe {
		return fmt.Errorf("link %q does not carry the probe back", link)
	}

	return nil
}
