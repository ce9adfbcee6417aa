package tokenizer

import (
	"errors"
	"fmt"
	"path/filepath"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
)

// ErrEmptyPath is returned when NewSentencePieceCounter is called with an empty path.
var ErrEmptyPath = errors.New("sentencepiece model path must not be empty")

// SentencePieceCounter counts tokens with a pure-Go UNIGRAM SentencePiece model.
//
// It is not a Vocabulary: SentencePiece normalises its input (NFKC, whitespace
// folding, a leading word marker) so decoded prefixes would not reproduce the
// source text byte for byte. It only serves token-count comparisons.
type SentencePieceCounter struct {
	name string
	proc gosp.Sentencepiece
}

// NewSentencePieceCounter loads a SentencePiece model from the given path.
func NewSentencePieceCounter(modelPath string) (*SentencePieceCounter, error) {
	if modelPath == "" {
		return nil, ErrEmptyPath
	}

	proc, err := gosp.NewSentencepieceFromFile(modelPath, false)
	if err != nil {
		return nil, fmt.Errorf("%w: sentencepiece model %q: %w", ErrVocabularyLoad, modelPath, err)
	}

	return &SentencePieceCounter{
		name: "sentencepiece:" + filepath.Base(modelPath),
		proc: proc,
	}, nil
}

// Name identifies the counter by its model file.
func (s *SentencePieceCounter) Name() string { return s.name }

// Count implements Counter.
func (s *SentencePieceCounter) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	return len(s.proc.TokenizeToIDs(text)), nil
}
