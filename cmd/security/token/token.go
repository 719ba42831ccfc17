package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength is the length of generated session tokens.
const DefaultLength = 32

// NewAlphanumeric returns a uniform random alphanumeric string of length n.
// If n <= 0 the default length is used.
func NewAlphanumeric(n int) (string, error) {
	if n <= 0 {
		n = DefaultLength
	}

	// Rejection sampling: 248 is the largest multiple of len(alphabet) below
	// 256, so accepted bytes map onto the alphabet without modulo bias.
	const limit = 248

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}

// HashSHA256Hex returns the SHA-256 hex digest of s. This is the canonical
// server-side form of a session token.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether plain hashes to expectedHash, in constant time.
func Matches(plain, expectedHash string) bool {
	h := HashSHA256Hex(plain)
	return subtle.ConstantTimeCompare([]byte(h), []byte(expectedHash)) == 1
}
