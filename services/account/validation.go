package account

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tech-arch1tect/accounts/apperr"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	maxEmailLength    = 255
	maxFullNameLength = 255
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail normalizes email and checks its shape.
func ValidateEmail(email string) (string, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" || len(normalized) > maxEmailLength || !emailPattern.MatchString(normalized) {
		return "", apperr.ErrInvalidEmailFormat
	}
	return normalized, nil
}

// ValidateFullName requires at least two words of two or more characters.
// Inner whitespace is collapsed.
func ValidateFullName(name string) (string, error) {
	words := strings.Fields(name)
	if len(words) < 2 {
		return "", apperr.ErrInvalidFullName
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			return "", apperr.ErrInvalidFullName
		}
	}

	normalized := strings.Join(words, " ")
	if utf8.RuneCountInString(normalized) > maxFullNameLength {
		return "", apperr.ErrInvalidFullName.WithMessage("Full name is too long")
	}
	return normalized, nil
}
