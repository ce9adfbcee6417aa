package tokenizer

import (
	"strings"
)

// tableByteIDs is the number of ids reserved for single bytes. Piece ids start here.
const tableByteIDs = 256

// Table is a small fixed byte-level vocabulary. Every byte value is a token on
// its own (ids 0-255) and each listed piece gets the next free id. Encoding takes
// the longest listed piece at every position, so decoding is always lossless.
//
// Table exists so callers and tests can substitute a tiny, predictable
// vocabulary for the embedded BPE tables.
type Table struct {
	name   string
	pieces []string
	index  map[string]ID
	maxLen int
}

// NewTable builds a Table from pieces. Empty and single-byte pieces are
// already covered by the byte ids and are skipped, as are duplicates.
func NewTable(pieces ...string) *Table {
	t := &Table{
		name:  "table",
		index: make(map[string]ID, len(pieces)),
	}

	for _, p := range pieces {
		if len(p) < 2 {
			continue
		}

		if _, dup := t.index[p]; dup {
			continue
		}

		t.index[p] = ID(tableByteIDs + len(t.pieces))
		t.pieces = append(t.pieces, p)
		t.maxLen = max(t.maxLen, len(p))
	}

	return t
}

// Name implements Vocabulary.
func (t *Table) Name() string { return t.name }

// Size returns the number of ids the table can decode.
func (t *Table) Size() int { return tableByteIDs + len(t.pieces) }

// Encode implements Vocabulary.
func (t *Table) Encode(text string) ([]ID, error) {
	ids := make([]ID, 0, len(text))

	for i := 0; i < len(text); {
		n := t.longestPiece(text[i:])
		if n == 0 {
			ids = append(ids, ID(text[i]))
			i++

			continue
		}

		ids = append(ids, t.index[text[i:i+n]])
		i += n
	}

	return ids, nil
}

func (t *Table) longestPiece(s string) int {
	for n := min(t.maxLen, len(s)); n >= 2; n-- {
		if _, ok := t.index[s[:n]]; ok {
			return n
		}
	}

	return 0
}

// Decode implements Vocabulary.
func (t *Table) Decode(ids []ID) (string, error) {
	var b strings.Builder

	for _, id := range ids {
		switch {
		case id < tableByteIDs:
			b.WriteByte(byte(id))
		case int(id-tableByteIDs) < len(t.pieces):
			b.WriteString(t.pieces[id-tableByteIDs])
		default:
			return "", decodeError(id, t.name)
		}
	}

	return b.String(), nil
}
