package datashare_test

import (
	"bytes"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/sagarc03/datashare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGenerator_Generate(t *testing.T) {
	t.Run("crypto source produces valid tokens", func(t *testing.T) {
		gen := datashare.NewTokenGenerator(nil)

		seen := make(map[string]struct{})
		for range 1000 {
			tok, err := gen.Generate()
			require.NoError(t, err)
			assert.Len(t, tok, datashare.ShareTokenLength)
			assert.True(t, datashare.IsValidShareToken(tok), tok)
			seen[tok] = struct{}{}
		}
		// 32^6 possible values; 1000 draws colliding en masse would mean a broken source.
		assert.Greater(t, len(seen), 990)
	})

	t.Run("low five bits select the symbol", func(t *testing.T) {
		gen := datashare.NewTokenGenerator(bytes.NewReader([]byte{0, 31, 32, 8, 255, 24}))

		tok, err := gen.Generate()
		require.NoError(t, err)
		assert.Equal(t, "A9AJ92", tok)
	})

	t.Run("source error", func(t *testing.T) {
		gen := datashare.NewTokenGenerator(iotest.ErrReader(assert.AnError))

		_, err := gen.Generate()
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("short source", func(t *testing.T) {
		gen := datashare.NewTokenGenerator(bytes.NewReader([]byte{1, 2}))

		_, err := gen.Generate()
		assert.Error(t, err)
	})
}

func TestShareTokenAlphabet(t *testing.T) {
	assert.Len(t, datashare.ShareTokenAlphabet, 32)
	for _, ambiguous := range "IO01" {
		assert.False(t, strings.ContainsRune(datashare.ShareTokenAlphabet, ambiguous), string(ambiguous))
	}
}

func TestIsValidShareToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"ABC234", true},
		{"ZZZZZZ", true},
		{"999999", true},
		{"abc234", false},
		{"ABC23", false},
		{"ABC2345", false},
		{"ABCI23", false},
		{"ABCO23", false},
		{"ABC123", false},
		{"ABC023", false},
		{"ABC-23", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, datashare.IsValidShareToken(tt.token))
		})
	}
}
