package share

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// DefaultParam is the query parameter that carries the share token.
const DefaultParam = "s"

// BuildURL returns base with the share token of text in query parameter param.
// Other query values of base are kept.
func BuildURL(base, param, text string) (string, error) {
	if param == "" {
		param = DefaultParam
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}

	token, err := Serialize(text)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set(param, token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// FromURL extracts the token in query parameter param from raw and decodes it.
// ok is false when raw carries no token; err wraps ErrDecodeFailure when a
// token is present but unusable.
func FromURL(raw, param string) (text string, ok bool, err error) {
	if param == "" {
		param = DefaultParam
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", true, fmt.Errorf("%w: url: %w", ErrDecodeFailure, err)
	}

	token := u.Query().Get(param)
	if token == "" {
		return "", false, nil
	}

	text, err = Deserialize(token)
	if err != nil {
		return "", true, err
	}

	return text, true, nil
}

// Resolve accepts either a full share URL or a bare token.
func Resolve(input, param string) (string, error) {
	if param == "" {
		param = DefaultParam
	}

	input = strings.TrimSpace(input)
	if strings.ContainsAny(input, "?:/") {
		text, ok, err := FromURL(input, param)
		if err != nil {
			return "", err
		}

		if !ok {
			return "", fmt.Errorf("%w: no %q parameter in %q", ErrDecodeFailure, param, input)
		}

		return text, nil
	}

	return Deserialize(input)
}

// Restore returns the text carried by raw, or fallback when raw has no token or
// its token does not decode. Failures are logged, never returned.
func Restore(raw, param, fallback string, log *slog.Logger) string {
	if log == nil {
		log = slog.Default()
	}

	text, ok, err := FromURL(raw, param)
	if err != nil {
		log.Warn("ignoring unusable share token", slog.String("error", err.Error()))

		return fallback
	}

	if !ok {
		return fallback
	}

	return text
}
