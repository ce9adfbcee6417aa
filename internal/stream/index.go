// Package stream holds the token sequence of the current document together with
// the playback cursor, so the two can only change as one unit.
package stream

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/example/tokenreplay/internal/tokenizer"
)

// Index owns the token sequence of one source text and a cursor in [0, Len()].
//
// Reset is the only way to change the source text; it re-encodes, rewinds the
// cursor, and bumps the generation so work scheduled against the previous
// sequence can recognise itself as stale. Index is not safe for concurrent use:
// one event loop owns it.
type Index struct {
	vocab tokenizer.Vocabulary
	log   *slog.Logger

	source string
	tokens []tokenizer.ID
	cursor int
	gen    uint64
	err    error

	// last prefix that decoded cleanly for the current generation
	goodPrefix string
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used to report recovered encode/decode failures.
func WithLogger(l *slog.Logger) Option {
	return func(x *Index) { x.log = l }
}

// New returns an empty Index over vocab.
func New(vocab tokenizer.Vocabulary, opts ...Option) *Index {
	x := &Index{
		vocab:  vocab,
		log:    slog.Default(),
		tokens: []tokenizer.ID{},
	}
	for _, fn := range opts {
		fn(x)
	}

	return x
}

// Reset replaces the source text, re-encodes it, and rewinds the cursor to 0.
// Invalid UTF-8 is replaced with U+FFFD first, so Source is always the text
// a full replay reconstructs. If encoding fails the document is kept with zero
// tokens and Err reports why.
func (x *Index) Reset(text string) {
	if !utf8.ValidString(text) {
		x.log.Warn("source is not valid UTF-8; replacing invalid bytes",
			slog.Int("text_len", len(text)),
		)
		text = strings.ToValidUTF8(text, "\uFFFD")
	}

	x.gen++
	x.source = text
	x.cursor = 0
	x.goodPrefix = ""

	ids, err := x.vocab.Encode(text)
	if err != nil {
		x.log.Warn("encode failed; treating document as empty",
			slog.String("vocabulary", x.vocab.Name()),
			slog.Int("text_len", len(text)),
			slog.String("error", err.Error()),
		)
		x.tokens = []tokenizer.ID{}
		x.err = err

		return
	}

	x.tokens = ids
	x.err = nil
}

// PrefixText decodes tokens[0:cursor]. It is "" at cursor 0. If decoding fails
// the last good prefix of this generation is returned instead.
func (x *Index) PrefixText() string {
	if x.cursor == 0 {
		return ""
	}

	text, err := x.vocab.Decode(x.tokens[:x.cursor])
	if err != nil {
		x.log.Warn("prefix decode failed; keeping last good prefix",
			slog.Int("cursor", x.cursor),
			slog.String("error", err.Error()),
		)

		return x.goodPrefix
	}

	x.goodPrefix = text

	return text
}

// SetCursor clamps i into [0, Len()] and stores it. Out-of-range input is not
// an error. The stored value is returned.
func (x *Index) SetCursor(i int) int {
	x.cursor = Clamp(i, len(x.tokens))
	return x.cursor
}

// TokenText decodes the single token at i as a display label. Labels of tokens
// whose bytes depend on their neighbours (split multi-byte runes) are best
// effort. Out-of-range i yields "".
func (x *Index) TokenText(i int) string {
	if i < 0 || i >= len(x.tokens) {
		return ""
	}

	text, err := x.vocab.Decode(x.tokens[i : i+1])
	if err != nil {
		return ""
	}

	return text
}

// Len is the number of tokens N.
func (x *Index) Len() int { return len(x.tokens) }

// Cursor is the number of tokens revealed.
func (x *Index) Cursor() int { return x.cursor }

// Source is the text the current sequence was encoded from.
func (x *Index) Source() string { return x.source }

// Generation increments on every Reset.
func (x *Index) Generation() uint64 { return x.gen }

// Err reports the encode failure of the last Reset, if any.
func (x *Index) Err() error { return x.err }

// Vocabulary returns the vocabulary the index encodes with.
func (x *Index) Vocabulary() tokenizer.Vocabulary { return x.vocab }

// Tokens returns a copy of the token sequence.
func (x *Index) Tokens() []tokenizer.ID {
	return append([]tokenizer.ID(nil), x.tokens...)
}

// Clamp limits i to [0, n].
func Clamp(i, n int) int {
	return max(0, min(i, n))
}
