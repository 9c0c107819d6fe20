// Package apperr holds the closed set of domain failures returned by the
// account services and their mapping to HTTP status classes.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindInvalidCredentials        Kind = "invalid_credentials"
	KindEmailAlreadyExists        Kind = "email_already_exists"
	KindInvalidVerificationCode   Kind = "invalid_verification_code"
	KindInvalidSignupToken        Kind = "invalid_signup_token"
	KindUserAlreadyVerified       Kind = "user_already_verified"
	KindInvalidTotpCode           Kind = "invalid_totp_code"
	KindTwoFactorNotConfigured    Kind = "two_factor_not_configured"
	KindTwoFactorNotEnabled       Kind = "two_factor_not_enabled"
	KindInvalidPasswordResetToken Kind = "invalid_or_expired_password_reset_token"
	KindTokenExpired              Kind = "token_expired"
	KindTokenMalformed            Kind = "token_malformed"
	KindBadSignature              Kind = "bad_signature"
	KindAuthenticationRequired    Kind = "authentication_required"
	KindSubjectNotFound           Kind = "subject_not_found"
	KindEmailNotVerified          Kind = "email_not_verified"
	KindTwoFactorRequired         Kind = "two_factor_required"
	KindAdminRequired             Kind = "admin_required"
	KindInvalidEmailFormat        Kind = "invalid_email_format"
	KindInvalidPasswordFormat     Kind = "invalid_password_format"
	KindInvalidFullName           Kind = "invalid_full_name"
	KindInvalidPasswordChange     Kind = "invalid_password_change"
	KindInvalidRequest            Kind = "invalid_request"
	KindAccountNotFound           Kind = "account_not_found"
	KindRateLimited               Kind = "rate_limited"
	KindInternal                  Kind = "internal_error"
)

type Error struct {
	Kind    Kind
	Message string
	Status  int
	cause   error
}

func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Message: message, Status: status}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is
// after WithMessage or Wrap.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) WithMessage(message string) *Error {
	c := *e
	c.Message = message
	return &c
}

// Wrap keeps cause for logging; Public never exposes it.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

var (
	ErrInvalidCredentials        = New(KindInvalidCredentials, http.StatusUnauthorized, "Invalid email or password")
	ErrEmailAlreadyExists        = New(KindEmailAlreadyExists, http.StatusBadRequest, "An account with this email already exists")
	ErrInvalidVerificationCode   = New(KindInvalidVerificationCode, http.StatusBadRequest, "Invalid verification code")
	ErrInvalidSignupToken        = New(KindInvalidSignupToken, http.StatusBadRequest, "Verification code must be a 6-digit number")
	ErrUserAlreadyVerified       = New(KindUserAlreadyVerified, http.StatusBadRequest, "User is already verified")
	ErrInvalidTotpCode           = New(KindInvalidTotpCode, http.StatusBadRequest, "Invalid code")
	ErrTwoFactorNotConfigured    = New(KindTwoFactorNotConfigured, http.StatusNotFound, "Two-factor authentication is not configured")
	ErrTwoFactorNotEnabled       = New(KindTwoFactorNotEnabled, http.StatusBadRequest, "Two-factor authentication is not enabled")
	ErrInvalidPasswordResetToken = New(KindInvalidPasswordResetToken, http.StatusBadRequest, "Invalid or expired password reset token")
	ErrTokenExpired              = New(KindTokenExpired, http.StatusUnauthorized, "Token has expired")
	ErrTokenMalformed            = New(KindTokenMalformed, http.StatusUnauthorized, "Token is malformed")
	ErrBadSignature              = New(KindBadSignature, http.StatusUnauthorized, "Token signature is invalid")
	ErrAuthenticationRequired    = New(KindAuthenticationRequired, http.StatusUnauthorized, "Authentication required")
	ErrSubjectNotFound           = New(KindSubjectNotFound, http.StatusUnauthorized, "User not found")
	ErrEmailNotVerified          = New(KindEmailNotVerified, http.StatusForbidden, "Email address is not verified")
	ErrTwoFactorRequired         = New(KindTwoFactorRequired, http.StatusForbidden, "Two-factor verification required")
	ErrAdminRequired             = New(KindAdminRequired, http.StatusForbidden, "Administrator access required")
	ErrInvalidEmailFormat        = New(KindInvalidEmailFormat, http.StatusBadRequest, "Invalid email format")
	ErrInvalidPasswordFormat     = New(KindInvalidPasswordFormat, http.StatusBadRequest, "Password does not meet requirements")
	ErrInvalidFullName           = New(KindInvalidFullName, http.StatusBadRequest, "Full name must contain at least two words of two or more characters")
	ErrInvalidPasswordChange     = New(KindInvalidPasswordChange, http.StatusBadRequest, "Current password is incorrect")
	ErrInvalidRequest            = New(KindInvalidRequest, http.StatusBadRequest, "Invalid request")
	ErrAccountNotFound           = New(KindAccountNotFound, http.StatusNotFound, "User not found")
	ErrRateLimited               = New(KindRateLimited, http.StatusTooManyRequests, "Too many requests. Please try again later.")
	ErrInternal                  = New(KindInternal, http.StatusInternalServerError, "Internal server error")
)

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// Public returns the caller-facing form of err: domain errors without their
// cause, anything else as ErrInternal.
func Public(err error) *Error {
	if e, ok := As(err); ok {
		return &Error{Kind: e.Kind, Message: e.Message, Status: e.Status}
	}
	return ErrInternal
}
