// Package tokenizer provides the sub-word vocabularies used to split a document
// into replayable tokens. A Vocabulary is loaded once per process and then
// shared read-only by every caller; nothing in this package loads tables per call.
package tokenizer

import (
	"errors"
	"fmt"
)

// ID is an opaque token identifier resolved against one Vocabulary.
type ID uint32

var (
	// ErrVocabularyLoad is returned when an encoding table cannot be loaded.
	// Playback cannot proceed without one.
	ErrVocabularyLoad = errors.New("vocabulary load failed")
	// ErrEncode is returned when text cannot be tokenized.
	ErrEncode = errors.New("encode failed")
	// ErrDecode is returned when a token sequence holds ids the vocabulary does not know.
	ErrDecode = errors.New("decode failed")
)

// Vocabulary encodes text into token ids and decodes ids back into text.
//
// Decoding a prefix ids[0:k] of Encode(t) yields exactly the bytes of t those
// tokens cover. Decoding any other subset, such as a single token, is only a
// best-effort label.
type Vocabulary interface {
	// Name identifies the encoding table, e.g. "cl100k_base".
	Name() string
	// Encode tokenizes text. The empty string yields an empty sequence.
	Encode(text string) ([]ID, error)
	// Decode concatenates the byte pieces of ids. An empty sequence yields "".
	Decode(ids []ID) (string, error)
}

// Counter reports how many tokens a text occupies.
type Counter interface {
	Count(text string) (int, error)
}

// CountTokens counts the tokens of text under v.
func CountTokens(v Vocabulary, text string) (int, error) {
	ids, err := v.Encode(text)
	if err != nil {
		return 0, err
	}

	return len(ids), nil
}

type vocabularyCounter struct {
	v Vocabulary
}

func (c vocabularyCounter) Count(text string) (int, error) { return CountTokens(c.v, text) }

// AsCounter adapts a Vocabulary to the Counter interface.
func AsCounter(v Vocabulary) Counter {
	return vocabularyCounter{v: v}
}

func decodeError(id ID, name string) error {
	return fmt.Errorf("%w: token %d is not in vocabulary %s", ErrDecode, id, name)
}
