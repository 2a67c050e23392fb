package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
	"strings"
)

// NewCode returns a uniformly random numeric code of the given length drawn
// from [10^(digits-1), 10^digits - 1], so the first digit is never zero.
func NewCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}
	span := low * 9 // [low, 10*low) has 9*low values

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", err
	}

	return big.NewInt(low + n.Int64()).String(), nil
}

// HashCode is the at-rest form of a code. Stores never keep plaintext.
func HashCode(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}

// NormalizeIdentifier canonicalizes an email or phone identifier so that all
// three stores key the same user the same way.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// IsNumeric reports whether s consists only of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
