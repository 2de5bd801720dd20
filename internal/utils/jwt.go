package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken covers every verification failure: malformed token, bad
// signature, wrong algorithm, expired TTL, or missing claims. Callers never
// learn which, they just reject the request.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is the verified content of an access token. SessionVersion is the
// session epoch the account had when the token was minted; the middleware
// compares it against the account's current epoch on every request.
type Claims struct {
	UserID         uint64
	Role           string
	SessionVersion int
}

// NewAccessToken builds and signs an HS256 JWT for a user. The JWT carries
// the subject (sub), the role, the session epoch (sv), expiration (exp)
// and issued-at (iat).
func NewAccessToken(secret string, userID uint64, role string, sessionVersion int, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"sv":   sessionVersion,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature, algorithm and expiry of a raw
// token and extracts its claims. Any failure is reported as ErrInvalidToken.
func ParseAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	sub, ok := mc["sub"].(float64)
	if !ok || sub <= 0 {
		return Claims{}, ErrInvalidToken
	}
	role, ok := mc["role"].(string)
	if !ok || role == "" {
		return Claims{}, ErrInvalidToken
	}
	// sv may be absent from tokens minted before epochs existed; treat
	// those as epoch 0, which any revocation bump invalidates.
	sv := 0
	if v, ok := mc["sv"].(float64); ok {
		sv = int(v)
	}
	return Claims{UserID: uint64(sub), Role: role, SessionVersion: sv}, nil
}
