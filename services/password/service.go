package password

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MaxBytes is the longest input bcrypt accepts.
const MaxBytes = 72

var ErrHashingFailed = errors.New("failed to hash password")

type Service struct {
	config *config.AuthConfig
	cost   int
	logger *logging.Service

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(cfg *config.AuthConfig, logger *logging.Service) *Service {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		config: cfg,
		cost:   cost,
		logger: logger.Named("password"),
	}
}

func (s *Service) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrHashingFailed, err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Malformed hashes and inputs
// longer than MaxBytes never match; bcrypt would compare only their prefix.
func (s *Service) Verify(password, hash string) bool {
	if len(password) > MaxBytes {
		_ = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password[:MaxBytes]))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Burn spends the same work as a real Verify so that unknown accounts take as
// long to reject as wrong passwords.
func (s *Service) Burn(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	if len(password) > MaxBytes {
		password = password[:MaxBytes]
	}
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func (s *Service) Validate(password string) error {
	if len([]rune(password)) < s.config.MinLength {
		s.logger.Debug("password rejected: too short", zap.Int("min_required", s.config.MinLength))
		return apperr.ErrInvalidPasswordFormat.WithMessage(
			fmt.Sprintf("Password must be at least %d characters long", s.config.MinLength))
	}
	if len(password) > MaxBytes {
		return apperr.ErrInvalidPasswordFormat.WithMessage(
			fmt.Sprintf("Password must be at most %d bytes long", MaxBytes))
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	var missing []string
	if s.config.RequireUpper && !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if s.config.RequireLower && !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if s.config.RequireNumber && !hasNumber {
		missing = append(missing, "one number")
	}
	if s.config.RequireSpecial && !hasSpecial {
		missing = append(missing, "one special character")
	}

	if len(missing) > 0 {
		s.logger.Debug("password rejected: missing character classes", zap.Strings("missing", missing))
		return apperr.ErrInvalidPasswordFormat.WithMessage(
			"Password must contain at least " + strings.Join(missing, ", "))
	}
	return nil
}
