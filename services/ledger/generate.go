package ledger

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

const signupCodeSpace = 1_000_000

// GenerateSignupCode returns a zero-padded 6-digit code.
func GenerateSignupCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(signupCodeSpace))
	if err != nil {
		return "", fmt.Errorf("failed to generate signup code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateOpaqueToken returns at least 16 random bytes, URL-safe encoded.
func GenerateOpaqueToken(size int) (string, error) {
	if size < 16 {
		size = 16
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// IsSignupCode reports whether s is exactly six ASCII digits.
func IsSignupCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
