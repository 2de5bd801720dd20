package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestNewAndParseAccessToken(t *testing.T) {
	at, err := NewAccessToken(testSecret, 42, "admin", 3, 60)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	require.WithinDuration(t, time.Now().UTC().Add(time.Hour), at.Exp, 5*time.Second)

	claims, err := ParseAccessToken(testSecret, at.Token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), claims.UserID)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, 3, claims.SessionVersion)
}

func TestParseAccessTokenRejectsBadSignature(t *testing.T) {
	at, err := NewAccessToken("other-secret", 1, "user", 0, 60)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, at.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  1,
		"role": "user",
		"sv":   0,
		"exp":  past.Unix(),
		"iat":  past.Add(-time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsWrongAlgorithm(t *testing.T) {
	// alg=none tokens must never pass, whatever their claims say.
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  1,
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsMissingClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	for name, claims := range map[string]jwt.MapClaims{
		"no sub":  {"role": "user", "exp": exp},
		"no role": {"sub": 1, "exp": exp},
	} {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := tok.SignedString([]byte(testSecret))
		require.NoError(t, err, name)

		_, err = ParseAccessToken(testSecret, signed)
		require.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestParseAccessTokenDefaultsMissingEpochToZero(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  7,
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := ParseAccessToken(testSecret, signed)
	require.NoError(t, err)
	require.Equal(t, 0, claims.SessionVersion)
}
