package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkmint/inkmint-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    64,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2!", testPasswordConfig())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("hunter2!", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := HashPassword("", testPasswordConfig())
	require.Error(t, err)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", "not-a-hash")
	require.ErrorIs(t, err, ErrInvalidHash)
}
