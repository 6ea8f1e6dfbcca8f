package input_test

import (
	"strings"
	"testing"

	"github.com/aretw0/onboard/pkg/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_SizeLimit(t *testing.T) {
	limit := input.DefaultMaxInputSize

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := input.Sanitize(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, input.ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitize_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Surrounding Space Kept", "  Yes ", "  Yes "},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
		{"Emoji", "🔙 Back", "🔙 Back"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := input.Sanitize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitize_InvalidUTF8(t *testing.T) {
	_, err := input.Sanitize("bad\xff")
	assert.ErrorIs(t, err, input.ErrInvalidUTF8)
}

func TestSanitize_EnvOverride(t *testing.T) {
	t.Setenv(input.EnvMaxInputSize, "10")

	_, err := input.Sanitize("12345678901")
	assert.ErrorIs(t, err, input.ErrInputTooLarge)

	_, err = input.Sanitize("12345")
	assert.NoError(t, err)
}

func TestSanitizer_ExplicitLimit(t *testing.T) {
	s := input.New(3)
	assert.Equal(t, 3, s.Limit())

	got, err := s.Clean("a\x00b")
	require.NoError(t, err)
	assert.Equal(t, "ab", got)

	_, err = s.Clean("abcd")
	assert.ErrorIs(t, err, input.ErrInputTooLarge)
	assert.Contains(t, err.Error(), "4 bytes, limit 3")

	assert.Equal(t, input.DefaultMaxInputSize, input.New(0).Limit())
}

func TestMaxInputSize_IgnoresBadValues(t *testing.T) {
	for _, v := range []string{"", "abc", "0", "-5"} {
		t.Setenv(input.EnvMaxInputSize, v)
		assert.Equal(t, input.DefaultMaxInputSize, input.MaxInputSize(), v)
	}
}
