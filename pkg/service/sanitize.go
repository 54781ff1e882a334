package service

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned for model output that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("output contains invalid UTF-8 sequences")

// SanitizeOutput validates model output and strips control characters other
// than newline, tab and carriage return. ANSI escapes lose their ESC byte, so
// results cannot drive the terminal or poison logs.
func SanitizeOutput(out string) (string, error) {
	if !utf8.ValidString(out) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range out {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return out, nil
	}

	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
