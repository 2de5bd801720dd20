package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", 4)
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	require.True(t, VerifyPassword(hash, "correct horse battery staple"))
	require.False(t, VerifyPassword(hash, "wrong password"))
	require.False(t, VerifyPassword("not a bcrypt hash", "anything"))
}

func TestHashResetCode(t *testing.T) {
	// Reset codes go through the same helper as passwords.
	hash, err := HashPassword("042137", 4)
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "042137"))
	require.False(t, VerifyPassword(hash, "042138"))
}
