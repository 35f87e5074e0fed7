package datashare

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// ShareTokenAlphabet omits the look-alike symbols I, O, 0 and 1.
	ShareTokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// ShareTokenLength is the number of symbols in a share token.
	ShareTokenLength = 6
	// DefaultShareTTL is how long a share token stays redeemable when the
	// uploader does not choose an expiration.
	DefaultShareTTL = 7 * 24 * time.Hour
)

// TokenGenerator draws share tokens from a cryptographically secure source.
type TokenGenerator struct {
	rand io.Reader
}

// NewTokenGenerator returns a generator reading from r.
// A nil reader selects crypto/rand.
func NewTokenGenerator(r io.Reader) *TokenGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &TokenGenerator{rand: r}
}

// Generate returns a fresh token. The alphabet has 32 symbols, so the low
// five bits of each random byte select one uniformly.
func (g *TokenGenerator) Generate() (string, error) {
	buf := make([]byte, ShareTokenLength)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}

	out := make([]byte, ShareTokenLength)
	for i, b := range buf {
		out[i] = ShareTokenAlphabet[b&31]
	}

	return string(out), nil
}

// IsValidShareToken reports whether s has the length and alphabet of a
// share token. Matching is case-sensitive.
func IsValidShareToken(s string) bool {
	if len(s) != ShareTokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(ShareTokenAlphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
