package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Run("generates 64 character hex string", func(t *testing.T) {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 64)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		token1, _ := GenerateToken()
		token2, _ := GenerateToken()
		assert.NotEqual(t, token1, token2)
	})

	t.Run("generates valid token shape", func(t *testing.T) {
		token, _ := GenerateToken()
		assert.True(t, IsValidToken(token))
	})
}

func TestHashToken(t *testing.T) {
	t.Run("returns 64 character hex string", func(t *testing.T) {
		hash := HashToken("test-token")
		assert.Len(t, hash, 64)
	})

	t.Run("same input produces same hash", func(t *testing.T) {
		assert.Equal(t, HashToken("test-token"), HashToken("test-token"))
	})

	t.Run("different input produces different hash", func(t *testing.T) {
		assert.NotEqual(t, HashToken("token-1"), HashToken("token-2"))
	})
}

func TestShortHash(t *testing.T) {
	assert.Len(t, ShortHash("session"), 12)
	assert.Empty(t, ShortHash(""))
	assert.Equal(t, HashToken("session")[:12], ShortHash("session"))
}

func TestConstantTimeEqual(t *testing.T) {
	t.Run("returns true for equal strings", func(t *testing.T) {
		assert.True(t, ConstantTimeEqual("abc", "abc"))
	})

	t.Run("returns false for different strings", func(t *testing.T) {
		assert.False(t, ConstantTimeEqual("abc", "def"))
	})

	t.Run("returns false for different lengths", func(t *testing.T) {
		assert.False(t, ConstantTimeEqual("abc", "abcd"))
	})
}

func TestIsValidToken(t *testing.T) {
	assert.False(t, IsValidToken(""))
	assert.False(t, IsValidToken("not-a-token"))
	assert.False(t, IsValidToken("ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789"))
	assert.True(t, IsValidToken("abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"))
}

func TestIsValidEnum(t *testing.T) {
	valid := []string{"spotify", "tidal"}
	assert.True(t, IsValidEnum("", valid))
	assert.True(t, IsValidEnum("tidal", valid))
	assert.False(t, IsValidEnum("deezer", valid))
}
