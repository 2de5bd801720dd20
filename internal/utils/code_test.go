package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateResetCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateResetCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.True(t, ValidResetCode(code), "generated %q", code)
	}
}

func TestValidResetCode(t *testing.T) {
	require.True(t, ValidResetCode("000000"))
	require.True(t, ValidResetCode("999999"))
	require.False(t, ValidResetCode("12345"))
	require.False(t, ValidResetCode("1234567"))
	require.False(t, ValidResetCode("12345a"))
	require.False(t, ValidResetCode(""))
}

func TestValidEmail(t *testing.T) {
	require.True(t, ValidEmail("user@example.com"))
	require.True(t, ValidEmail("first.last@sub.example.co"))
	require.False(t, ValidEmail("no-at-sign"))
	require.False(t, ValidEmail("two@@example.com"))
	require.False(t, ValidEmail("spaces in@example.com"))
	require.False(t, ValidEmail("user@nodot"))
}
