package handlers

import (
	"github.com/tech-arch1tect/accounts/middleware/jwt"
	"github.com/tech-arch1tect/accounts/middleware/ratelimit"
	"github.com/tech-arch1tect/accounts/openapi"
	"github.com/tech-arch1tect/accounts/server"
	"github.com/tech-arch1tect/accounts/services/auth"
)

// Register mounts every route under /api.
func (h *Handler) Register(srv *server.Server, limiter *ratelimit.Limiter, doc *openapi.OpenAPI) {
	unverified := jwt.RequireTier(h.auth, auth.TierUnverified)
	full := jwt.RequireTier(h.auth, auth.TierFull)

	api := srv.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/openapi.json", doc.JSONHandler())
	api.GET("/openapi.yaml", doc.YAMLHandler())

	users := api.Group("/users")
	users.POST("/signup", h.Signup, limiter.Signup())
	users.POST("/resend-verification", h.ResendVerification, limiter.Resend(), unverified)
	users.POST("/verify-signup", h.VerifySignup, unverified)
	users.POST("/login", h.Login, limiter.Login())
	users.GET("/me", h.Me, unverified)
	users.PUT("", h.UpdateProfile, full)
	users.DELETE("", h.DeleteAccount, full)
	users.POST("/change-password", h.ChangePassword, full)

	twoFactor := api.Group("/2fa")
	twoFactor.GET("/setup", h.SetupTwoFactor, full)
	twoFactor.POST("/verify", h.EnableTwoFactor, limiter.TwoFactor(), full)
	twoFactor.POST("/verify-code", h.VerifySecondFactor, limiter.TwoFactor(), unverified)
	twoFactor.POST("/disable", h.DisableTwoFactor, full)

	api.POST("/forgot-password", h.ForgotPassword, limiter.ForgotPassword())
	api.POST("/forgot-password/verify", h.ResetPassword, limiter.ForgotPassword())

	Describe(doc)
}
