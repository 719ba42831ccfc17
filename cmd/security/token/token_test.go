package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlphanumeric_LengthAndCharset(t *testing.T) {
	for _, n := range []int{1, 16, 32, 64} {
		got, err := NewAlphanumeric(n)
		require.NoError(t, err)
		require.Len(t, got, n)

		for _, r := range got {
			assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestNewAlphanumeric_DefaultLength(t *testing.T) {
	got, err := NewAlphanumeric(0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultLength)
}

func TestNewAlphanumeric_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		got, err := NewAlphanumeric(32)
		require.NoError(t, err)
		require.False(t, seen[got], "duplicate token generated")
		seen[got] = true
	}
}

func TestHashSHA256Hex(t *testing.T) {
	h := HashSHA256Hex("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashSHA256Hex("abc"))
	assert.NotEqual(t, h, HashSHA256Hex("abd"))
}

func TestMatches(t *testing.T) {
	h := HashSHA256Hex("some-token")
	assert.True(t, Matches("some-token", h))
	assert.False(t, Matches("other-token", h))
}
