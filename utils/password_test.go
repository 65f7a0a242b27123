package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword(hash, "secret123"))

	other, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ per hash")
}

func TestCheckPasswordSingleCharacterMutations(t *testing.T) {
	const password = "secret123"
	hash, err := HashPassword(password)
	require.NoError(t, err)

	for i := range password {
		b := []byte(password)
		b[i]++
		assert.False(t, CheckPassword(hash, string(b)), "mutation at %d", i)
	}
	assert.False(t, CheckPassword(hash, password[:len(password)-1]))
	assert.False(t, CheckPassword(hash, password+"x"))
}
