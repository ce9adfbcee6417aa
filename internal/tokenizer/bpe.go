package tokenizer

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
	tiktoken "github.com/tiktoken-go/tokenizer"
)

// DefaultEncoding is the encoding table used when none is configured.
const DefaultEncoding = "cl100k_base"

var encodings = map[string]tiktoken.Encoding{
	"cl100k_base": tiktoken.Cl100kBase,
	"o200k_base":  tiktoken.O200kBase,
	"p50k_base":   tiktoken.P50kBase,
	"p50k_edit":   tiktoken.P50kEdit,
	"r50k_base":   tiktoken.R50kBase,
}

// Encodings lists the names accepted by Load, sorted.
func Encodings() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// BPE is a byte-level BPE vocabulary backed by one of the embedded tiktoken tables.
type BPE struct {
	name  string
	codec tiktoken.Codec
}

// Load resolves name to an embedded encoding table and builds its codec.
// The empty name selects DefaultEncoding. Every failure wraps ErrVocabularyLoad.
func Load(name string) (*BPE, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultEncoding
	}

	enc, ok := encodings[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown encoding %q (expected %s)",
			ErrVocabularyLoad, name, strings.Join(Encodings(), "|"))
	}

	codec, err := tiktoken.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrVocabularyLoad, name, err)
	}

	return &BPE{name: name, codec: codec}, nil
}

// Name implements Vocabulary.
func (b *BPE) Name() string { return b.name }

// Encode implements Vocabulary.
func (b *BPE) Encode(text string) ([]ID, error) {
	if text == "" {
		return []ID{}, nil
	}

	raw, _, err := b.codec.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	ids := make([]ID, len(raw))
	for i, id := range raw {
		narrow, err := safecast.Convert[uint32](id)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d: %w", ErrEncode, id, err)
		}

		ids[i] = ID(narrow)
	}

	return ids, nil
}

// Decode implements Vocabulary.
func (b *BPE) Decode(ids []ID) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}

	raw := make([]uint, len(ids))
	for i, id := range ids {
		raw[i] = uint(id)
	}

	text, err := b.codec.Decode(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDecode, b.name, err)
	}

	return text, nil
}
