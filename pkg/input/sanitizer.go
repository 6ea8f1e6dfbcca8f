// Package input cleans user text before it reaches the flow engine.
package input

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxInputSize bounds a single chat message, in bytes.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "ONBOARD_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("message too long")
	ErrInvalidUTF8   = errors.New("message is not valid UTF-8")
)

// Sanitizer checks inbound messages against a byte limit and drops control
// characters. Surrounding whitespace is kept, so answer matching stays
// byte-exact on the result.
type Sanitizer struct {
	limit int
}

// New returns a Sanitizer with the given limit. A limit <= 0 uses MaxInputSize.
func New(limit int) *Sanitizer {
	if limit <= 0 {
		limit = MaxInputSize()
	}
	return &Sanitizer{limit: limit}
}

// Limit reports the byte limit in effect.
func (s *Sanitizer) Limit() int {
	return s.limit
}

// Clean validates text and strips control characters other than line breaks and tabs.
// Oversized text is rejected, never truncated: a cut label could match a shorter answer.
func (s *Sanitizer) Clean(text string) (string, error) {
	if n := len(text); n > s.limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, n, s.limit)
	}
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(text, stripped) < 0 {
		return text, nil
	}
	return strings.Map(func(r rune) rune {
		if stripped(r) {
			return -1
		}
		return r
	}, text), nil
}

// Sanitize cleans text with the limit from the environment.
func Sanitize(text string) (string, error) {
	return New(0).Clean(text)
}

func stripped(r rune) bool {
	switch r {
	case '\n', '\r', '\t':
		return false
	}
	return unicode.IsControl(r)
}

// MaxInputSize returns DefaultMaxInputSize unless EnvMaxInputSize holds a positive integer.
func MaxInputSize() int {
	n, err := strconv.Atoi(os.Getenv(EnvMaxInputSize))
	if err != nil || n <= 0 {
		return DefaultMaxInputSize
	}
	return n
}
