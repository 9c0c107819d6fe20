package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/config"
	mwjwt "github.com/tech-arch1tect/accounts/middleware/jwt"
	"github.com/tech-arch1tect/accounts/services/auth"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Message struct {
	Message string `json:"message"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type VerifySignupRequest struct {
	SignupToken string `json:"signup_token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type TOTPRequest struct {
	TOTP string `json:"totp"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordVerifyRequest struct {
	Token       string `json:"token"`
	UserID      string `json:"user_id"`
	NewPassword string `json:"new_password"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type Handler struct {
	auth   *auth.Service
	db     *gorm.DB
	cfg    *config.Config
	logger *logging.Service
}

func New(cfg *config.Config, authService *auth.Service, db *gorm.DB, logger *logging.Service) *Handler {
	return &Handler{
		auth:   authService,
		db:     db,
		cfg:    cfg,
		logger: logger.Named("handlers"),
	}
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.ErrInvalidRequest.WithMessage("Invalid request body")
	}
	return nil
}

func principal(c echo.Context) (*auth.Principal, error) {
	p := mwjwt.GetPrincipal(c)
	if p == nil {
		return nil, apperr.ErrAuthenticationRequired
	}
	return p, nil
}

func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{Status: "ok", Version: h.cfg.App.Version}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		resp.Status = "unavailable"
	}
	return c.JSON(status, resp)
}

func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Signup(c.Request().Context(), auth.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) ResendVerification(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.auth.ResendVerification(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Message{Message: "Verification email sent successfully"})
}

func (h *Handler) VerifySignup(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req VerifySignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	profile, err := h.auth.VerifySignup(c.Request().Context(), p, req.SignupToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	profile, err := h.auth.Me(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	profile, err := h.auth.UpdateProfile(c.Request().Context(), p, auth.ProfileUpdate{FullName: req.FullName})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) DeleteAccount(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteAccount(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Message{Message: "User deleted successfully"})
}

func (h *Handler) ChangePassword(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.Request().Context(), p, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Message{Message: "Password changed successfully"})
}

func (h *Handler) SetupTwoFactor(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	setup, err := h.auth.SetupTwoFactor(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, setup)
}

func (h *Handler) EnableTwoFactor(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req TOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if _, err := h.auth.EnableTwoFactor(c.Request().Context(), p, req.TOTP); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Message{Message: "2FA verified and activated"})
}

func (h *Handler) VerifySecondFactor(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req TOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.VerifySecondFactor(c.Request().Context(), p, req.TOTP)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) DisableTwoFactor(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if _, err := h.auth.DisableTwoFactor(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Message{Message: "2FA disabled"})
}

func (h *Handler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Message{Message: auth.PasswordResetRequested})
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req ForgotPasswordVerifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id, err := uuid.Parse(req.UserID)
	if err != nil {
		return apperr.ErrInvalidPasswordResetToken
	}
	err = h.auth.ResetPassword(c.Request().Context(), auth.ResetPasswordInput{
		Token:       req.Token,
		AccountID:   id,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Message{Message: "Password reset successfully"})
}
