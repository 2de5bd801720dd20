package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

var (
	codePattern  = regexp.MustCompile(`^\d{6}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// GenerateResetCode returns a uniformly random 6-digit numeric code as a
// zero-padded string ("000000" through "999999").
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidResetCode reports whether s has the exact shape of a reset code.
func ValidResetCode(s string) bool {
	return codePattern.MatchString(s)
}

// ValidEmail applies the same loose syntax check the rest of the app uses.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
