package handlers

import (
	"net/http"

	"github.com/tech-arch1tect/accounts/openapi"
	"github.com/tech-arch1tect/accounts/server"
	"github.com/tech-arch1tect/accounts/services/auth"
)

const bearer = "bearer"

// Describe adds every route to doc.
func Describe(doc *openapi.OpenAPI) {
	doc.Tag("users", "Account lifecycle").
		Tag("2fa", "Two-factor authentication").
		Tag("password", "Password recovery").
		BearerAuth(bearer, "Access token from signup, login or 2FA verification")

	errBody := server.ErrorResponse{}

	doc.Document(http.MethodGet, "/api/health").Summary("Health check").
		Response(http.StatusOK, HealthResponse{}, "Healthy").
		Response(http.StatusServiceUnavailable, HealthResponse{}, "Database unreachable").
		Build()

	doc.Document(http.MethodPost, "/api/users/signup").Summary("Create an account").Tags("users").
		Body(SignupRequest{}, "New account").
		Response(http.StatusOK, auth.Session{}, "Unverified session").
		Errors(errBody, http.StatusBadRequest, http.StatusTooManyRequests).
		Build()

	doc.Document(http.MethodPost, "/api/users/resend-verification").Summary("Resend the signup code").Tags("users").
		Security(bearer).
		Response(http.StatusOK, Message{}, "Sent").
		Errors(errBody, http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests).
		Build()

	doc.Document(http.MethodPost, "/api/users/verify-signup").Summary("Verify email with the signup code").Tags("users").
		Security(bearer).
		Body(VerifySignupRequest{}, "Six digit signup code").
		Response(http.StatusOK, auth.Profile{}, "Verified profile").
		Errors(errBody, http.StatusBadRequest, http.StatusUnauthorized).
		Build()

	doc.Document(http.MethodPost, "/api/users/login").Summary("Log in").Tags("users").
		Body(LoginRequest{}, "Credentials").
		Response(http.StatusOK, auth.Session{}, "Session, pending_2fa when two-factor is enabled").
		Errors(errBody, http.StatusUnauthorized, http.StatusTooManyRequests).
		Build()

	doc.Document(http.MethodGet, "/api/users/me").Summary("Current profile").Tags("users").
		Security(bearer).
		Response(http.StatusOK, auth.Profile{}, "Profile").
		Errors(errBody, http.StatusUnauthorized).
		Build()

	doc.Document(http.MethodPut, "/api/users").Summary("Update profile").Tags("users").
		Security(bearer).
		Body(UpdateUserRequest{}, "Fields to change").
		Response(http.StatusOK, auth.Profile{}, "Updated profile").
		Errors(errBody, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden).
		Build()

	doc.Document(http.MethodDelete, "/api/users").Summary("Delete account").Tags("users").
		Security(bearer).
		Response(http.StatusOK, Message{}, "Deleted").
		Errors(errBody, http.StatusUnauthorized, http.StatusForbidden).
		Build()

	doc.Document(http.MethodPost, "/api/users/change-password").Summary("Change password").Tags("users").
		Security(bearer).
		Body(ChangePasswordRequest{}, "Current and new password").
		Response(http.StatusOK, Message{}, "Changed").
		Errors(errBody, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden).
		Build()

	doc.Document(http.MethodGet, "/api/2fa/setup").Summary("Provisioning URI for an authenticator").Tags("2fa").
		Security(bearer).
		Response(http.StatusOK, auth.TwoFactorSetup{}, "otpauth URI").
		Errors(errBody, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound).
		Build()

	doc.Document(http.MethodPost, "/api/2fa/verify").Summary("Enable two-factor").Tags("2fa").
		Security(bearer).
		Body(TOTPRequest{}, "Current code").
		Response(http.StatusOK, Message{}, "Enabled").
		Errors(errBody, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests).
		Build()

	doc.Document(http.MethodPost, "/api/2fa/verify-code").Summary("Complete a pending login").Tags("2fa").
		Security(bearer).
		Body(TOTPRequest{}, "Current code").
		Response(http.StatusOK, auth.Session{}, "Full session").
		Errors(errBody, http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests).
		Build()

	doc.Document(http.MethodPost, "/api/2fa/disable").Summary("Disable two-factor").Tags("2fa").
		Security(bearer).
		Response(http.StatusOK, Message{}, "Disabled").
		Errors(errBody, http.StatusUnauthorized, http.StatusForbidden).
		Build()

	doc.Document(http.MethodPost, "/api/forgot-password").Summary("Request a password reset").Tags("password").
		Body(ForgotPasswordRequest{}, "Account email").
		Response(http.StatusOK, Message{}, "Always the same response").
		Errors(errBody, http.StatusBadRequest, http.StatusTooManyRequests).
		Build()

	doc.Document(http.MethodPost, "/api/forgot-password/verify").Summary("Reset password").Tags("password").
		Body(ForgotPasswordVerifyRequest{}, "Reset token, account id and new password").
		Response(http.StatusOK, Message{}, "Reset").
		Errors(errBody, http.StatusBadRequest, http.StatusTooManyRequests).
		Build()
}
