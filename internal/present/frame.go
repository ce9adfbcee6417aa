// Package present turns the player state into what a renderer needs: the
// revealed text and one labelled entry per token.
package present

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/tokenreplay/internal/tokenizer"
)

// Source is the read-only view of a token index.
type Source interface {
	Len() int
	Cursor() int
	Generation() uint64
	Tokens() []tokenizer.ID
	TokenText(i int) string
	PrefixText() string
}

// Status is the playback state shown alongside the text.
type Status struct {
	Playing bool
	Speed   time.Duration
}

// Token is the display record of one token.
type Token struct {
	Index int          `json:"index"`
	ID    tokenizer.ID `json:"id"`
	// Text is the single-token decode; a best-effort label, not a substring guarantee.
	Text  string `json:"text"`
	Label string `json:"label"`
	// Active reports Index < Cursor.
	Active bool `json:"active"`
}

// Frame is one rendered step of the player.
type Frame struct {
	Generation uint64 `json:"generation"`
	Cursor     int    `json:"cursor"`
	Total      int    `json:"total"`
	Playing    bool   `json:"playing"`
	SpeedMS    int64  `json:"speed_ms"`
	// Prefix is the exact decode of the first Cursor tokens.
	Prefix string `json:"prefix"`
	// Display is Prefix without a trailing incomplete UTF-8 sequence.
	Display string  `json:"display"`
	Tokens  []Token `json:"tokens,omitempty"`
}

// Snapshot builds a full frame including per-token metadata.
func Snapshot(src Source, st Status) Frame {
	f := Position(src, st)
	f.Tokens = Tokens(src)

	return f
}

// Position builds a frame without the token list, for cursor-only updates.
func Position(src Source, st Status) Frame {
	prefix := src.PrefixText()

	return Frame{
		Generation: src.Generation(),
		Cursor:     src.Cursor(),
		Total:      src.Len(),
		Playing:    st.Playing,
		SpeedMS:    st.Speed.Milliseconds(),
		Prefix:     prefix,
		Display:    CompleteUTF8(prefix),
	}
}

// Tokens labels every token of src and marks those before the cursor active.
func Tokens(src Source) []Token {
	ids := src.Tokens()
	cursor := src.Cursor()
	out := make([]Token, len(ids))

	for i, id := range ids {
		text := src.TokenText(i)
		out[i] = Token{
			Index:  i,
			ID:     id,
			Text:   text,
			Label:  Label(text),
			Active: i < cursor,
		}
	}

	return out
}

// Done reports whether every token is revealed.
func (f Frame) Done() bool { return f.Cursor >= f.Total }

// Percent is the revealed fraction in [0, 1]. An empty document counts as done.
func (f Frame) Percent() float64 {
	if f.Total == 0 {
		return 1
	}

	return float64(f.Cursor) / float64(f.Total)
}

var labelReplacer = strings.NewReplacer(
	"\r\n", "↵",
	"\n", "↵",
	"\r", "↵",
	"\t", "→",
)

// Label makes whitespace inside a token visible and replaces bytes that are not
// valid UTF-8 on their own, as happens when a multi-byte rune spans tokens.
func Label(text string) string {
	return labelReplacer.Replace(strings.ToValidUTF8(text, "�"))
}

// CompleteUTF8 drops a trailing incomplete UTF-8 sequence from s so a renderer
// never shows half a rune mid-stream. Invalid bytes elsewhere are left alone.
func CompleteUTF8(s string) string {
	// A rune is at most utf8.UTFMax bytes; only the tail can be incomplete.
	for n := 1; n < utf8.UTFMax && n <= len(s); n++ {
		b := s[len(s)-n]
		if b < utf8.RuneSelf {
			return s
		}

		if utf8.RuneStart(b) {
			if !utf8.FullRuneInString(s[len(s)-n:]) {
				return s[:len(s)-n]
			}

			return s
		}
	}

	return s
}
