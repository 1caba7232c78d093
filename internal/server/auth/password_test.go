package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndMatch(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	ok, err := h.Matches(hash, "secret123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Matches(hash, "secret124")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost).Matches("not-a-hash", "x")
	require.Error(t, err)
}

func TestNewBcryptHasher_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
}
