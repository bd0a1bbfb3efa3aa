package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, pw := range []string{"Secret123!", "pässwörd-ünïcode", "x"} {
		first, err := h.Hash(pw)
		require.NoError(t, err)
		second, err := h.Hash(pw)
		require.NoError(t, err)

		assert.NotEqual(t, first, second, "salt must differ between calls")
		assert.True(t, h.Verify(pw, first))
		assert.True(t, h.Verify(pw, second))
		assert.False(t, h.Verify(pw+"x", first))
	}
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("Secret123!", ""))
	assert.False(t, h.Verify("Secret123!", "not-a-bcrypt-hash"))
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).Cost)
	assert.Equal(t, 12, NewBcryptHasher(12).Cost)
}
