package tokenizer

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

var roundTripTexts = []string{
	"",
	"a",
	"a b c",
	"Hello, world!\n\nSecond paragraph.",
	"  leading and trailing spaces  ",
	"tabs\tand\r\nwindows newlines",
	"naïve café — déjà vu",
	"日本語のテキストと絵文字 🎉🚀",
	"# Heading\n\n- item one\n- item two\n\n```go\nfmt.Println(\"hi\")\n```\n",
}

// ---------------------------------------------------------------------------
// Table
// ---------------------------------------------------------------------------

func TestTable_ABCIsThreeTokens(t *testing.T) {
	tab := NewTable(" b", " c")

	ids, err := tab.Encode("a b c")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if len(ids) != 3 {
		t.Fatalf("Encode(%q) = %v; want 3 tokens", "a b c", ids)
	}

	want := []string{"a", "a b", "a b c"}
	for k := 1; k <= len(ids); k++ {
		got, err := tab.Decode(ids[:k])
		if err != nil {
			t.Fatalf("Decode(prefix %d): %v", k, err)
		}

		if got != want[k-1] {
			t.Errorf("Decode(prefix %d) = %q; want %q", k, got, want[k-1])
		}
	}
}

func TestTable_LongestMatchWins(t *testing.T) {
	tab := NewTable("ab", "abc", "abcd")

	ids, err := tab.Encode("abcde")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if len(ids) != 2 {
		t.Fatalf("Encode(%q) = %v; want [abcd e]", "abcde", ids)
	}

	first, _ := tab.Decode(ids[:1])
	if first != "abcd" {
		t.Errorf("first token = %q; want %q", first, "abcd")
	}
}

func TestTable_SkipsShortAndDuplicatePieces(t *testing.T) {
	tab := NewTable("", "x", "xy", "xy")

	if tab.Size() != tableByteIDs+1 {
		t.Errorf("Size() = %d; want %d", tab.Size(), tableByteIDs+1)
	}
}

func TestTable_DecodeUnknownID(t *testing.T) {
	tab := NewTable("xy")

	_, err := tab.Decode([]ID{ID(tab.Size())})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode(unknown) error = %v; want ErrDecode", err)
	}
}

func TestTable_EmptyInputs(t *testing.T) {
	tab := NewTable()

	ids, err := tab.Encode("")
	if err != nil {
		t.Fatalf("Encode(\"\"): %v", err)
	}

	if ids == nil || len(ids) != 0 {
		t.Errorf("Encode(\"\") = %#v; want empty non-nil slice", ids)
	}

	got, err := tab.Decode(nil)
	if err != nil || got != "" {
		t.Errorf("Decode(nil) = %q, %v; want \"\", nil", got, err)
	}
}

func TestTable_RoundTripAndPrefix(t *testing.T) {
	tab := NewTable("Hello", " world", "ing", " the", "\n\n", "é", "🎉")
	assertLossless(t, tab)
}

// ---------------------------------------------------------------------------
// BPE (embedded tiktoken tables)
// ---------------------------------------------------------------------------

func TestLoad_DefaultEncoding(t *testing.T) {
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}

	if v.Name() != DefaultEncoding {
		t.Errorf("Name() = %q; want %q", v.Name(), DefaultEncoding)
	}
}

func TestLoad_NormalisesName(t *testing.T) {
	v, err := Load("  O200K_BASE ")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if v.Name() != "o200k_base" {
		t.Errorf("Name() = %q; want o200k_base", v.Name())
	}
}

func TestLoad_UnknownEncoding(t *testing.T) {
	_, err := Load("gpt-9000")
	if !errors.Is(err, ErrVocabularyLoad) {
		t.Fatalf("Load(unknown) error = %v; want ErrVocabularyLoad", err)
	}

	if !strings.Contains(err.Error(), "cl100k_base") {
		t.Errorf("error %q should list the known encodings", err)
	}
}

func TestEncodings_Sorted(t *testing.T) {
	names := Encodings()
	if !slices.IsSorted(names) {
		t.Errorf("Encodings() = %v; want sorted", names)
	}

	if !slices.Contains(names, DefaultEncoding) {
		t.Errorf("Encodings() = %v; missing %s", names, DefaultEncoding)
	}
}

func TestBPE_HelloWorld(t *testing.T) {
	v, err := Load("cl100k_base")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ids, err := v.Encode("hello world")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := []ID{15339, 1917}
	if !slices.Equal(ids, want) {
		t.Errorf("Encode(%q) = %v; want %v", "hello world", ids, want)
	}
}

func TestBPE_RoundTripAndPrefix(t *testing.T) {
	for _, name := range []string{"cl100k_base", "o200k_base"} {
		t.Run(name, func(t *testing.T) {
			v, err := Load(name)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			assertLossless(t, v)
		})
	}
}

func TestCountTokens(t *testing.T) {
	tab := NewTable(" b", " c")

	n, err := AsCounter(tab).Count("a b c")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}

	if n != 3 {
		t.Errorf("Count = %d; want 3", n)
	}
}

// ---------------------------------------------------------------------------
// SentencePieceCounter
// ---------------------------------------------------------------------------

func TestNewSentencePieceCounter_EmptyPath(t *testing.T) {
	_, err := NewSentencePieceCounter("")
	if !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got: %v", err)
	}
}

func TestNewSentencePieceCounter_MissingFile(t *testing.T) {
	_, err := NewSentencePieceCounter(filepath.Join(t.TempDir(), "missing.model"))
	if !errors.Is(err, ErrVocabularyLoad) {
		t.Fatalf("expected ErrVocabularyLoad for missing model file, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// assertLossless checks decode(encode(t)) == t and that every prefix decode is
// a byte prefix of t.
func assertLossless(t *testing.T, v Vocabulary) {
	t.Helper()

	for _, text := range roundTripTexts {
		ids, err := v.Encode(text)
		if err != nil {
			t.Fatalf("Encode(%q): %v", text, err)
		}

		got, err := v.Decode(ids)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)): %v", text, err)
		}

		if got != text {
			t.Errorf("round trip of %q = %q", text, got)
		}

		prev := ""
		for k := 0; k <= len(ids); k++ {
			prefix, err := v.Decode(ids[:k])
			if err != nil {
				t.Fatalf("Decode(prefix %d of %q): %v", k, text, err)
			}

			if !strings.HasPrefix(text, prefix) {
				t.Fatalf("prefix %d of %q = %q; not a prefix of the source", k, text, prefix)
			}

			if len(prefix) < len(prev) {
				t.Fatalf("prefix %d of %q shrank from %q to %q", k, text, prev, prefix)
			}

			prev = prefix
		}
	}
}
