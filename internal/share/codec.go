// Package share packs a source text into a compact URL-safe token and back, so
// a document can travel inside a link without any server-side storage. Only the
// text is shared; a restored document always starts at cursor 0.
package share

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
)

// Version is the envelope version written by Serialize.
const Version = 1

// ErrDecodeFailure is returned for any token that does not decode to a text.
// Callers keep their current text when they see it.
var ErrDecodeFailure = errors.New("share token decode failed")

type envelope struct {
	V    int    `msgpack:"v"`
	Text string `msgpack:"t"`
}

// Serialize compresses text into a URL-safe token. No length limit is applied.
// Invalid UTF-8 is replaced with U+FFFD, matching what the player plays, so
// every token Serialize returns decodes.
func Serialize(text string) (string, error) {
	text = strings.ToValidUTF8(text, "\uFFFD")

	payload, err := msgpack.Marshal(envelope{V: Version, Text: text})
	if err != nil {
		return "", fmt.Errorf("encode share envelope: %w", err)
	}

	var buf bytes.Buffer

	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("create compressor: %w", err)
	}

	if _, err := zw.Write(payload); err != nil {
		return "", fmt.Errorf("compress share envelope: %w", err)
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("flush compressor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Deserialize reverses Serialize. Every malformed, truncated or foreign token
// yields an error wrapping ErrDecodeFailure.
func Deserialize(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrDecodeFailure)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %w", ErrDecodeFailure, err)
	}

	zr := flate.NewReader(bytes.NewReader(raw))
	defer func() { _ = zr.Close() }()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("%w: decompress: %w", ErrDecodeFailure, err)
	}

	var env envelope
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return "", fmt.Errorf("%w: envelope: %w", ErrDecodeFailure, err)
	}

	if env.V != Version {
		return "", fmt.Errorf("%w: unsupported version %d", ErrDecodeFailure, env.V)
	}

	if !utf8.ValidString(env.Text) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrDecodeFailure)
	}

	return env.Text, nil
}
