package handlers

import (
	"net/http"

	"github.com/anonto42/socials/backend/internal/auth"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	accounts      *services.AccountService
	tokens        *auth.TokenManager
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts *services.AccountService, tokens *auth.TokenManager, secureCookies bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, secureCookies: secureCookies}
}

// RegisterAuthRoutes registers the public authentication routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.GET("/verify-email", h.VerifyEmail)
	g.POST("/login", h.Login)
	g.POST("/forgot-password", h.ForgotPassword)
}

// RegisterSessionRoutes registers the authentication routes that need a session
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/auth/logout", h.Logout)
	g.PUT("/auth/change-password", h.ChangePassword)
}

// Register creates an unverified account and sends the verification email
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusCreated, "Registration successful. Please check your email to verify your account.", user)
}

// VerifyEmail consumes the token from a verification link
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	if err := h.accounts.VerifyEmail(c.Request().Context(), c.QueryParam("token")); err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "Email verified successfully.", nil)
}

// Login issues the session cookies
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(err)
	}
	c.SetCookie(auth.NewCookie(auth.AccessCookie, session.AccessToken, h.tokens.AccessTTL, h.secureCookies))
	c.SetCookie(auth.NewCookie(auth.RefreshCookie, session.RefreshToken, h.tokens.RefreshTTL, h.secureCookies))

	return ok(c, http.StatusOK, "Login successful.", echo.Map{
		"user":        session.User,
		"accessToken": session.AccessToken,
	})
}

// Logout revokes the refresh token and clears both cookies
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	if err := h.accounts.Logout(c.Request().Context(), userID); err != nil {
		return respondError(err)
	}
	c.SetCookie(auth.ExpiredCookie(auth.AccessCookie, h.secureCookies))
	c.SetCookie(auth.ExpiredCookie(auth.RefreshCookie, h.secureCookies))
	return ok(c, http.StatusOK, "Logged out successfully.", nil)
}

// ForgotPassword mails a new random password
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req models.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.accounts.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "A new password has been sent to your email.", nil)
}

// ChangePassword replaces the password of the current user
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return respondError(err)
	}
	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.accounts.ChangePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		return respondError(err)
	}
	return ok(c, http.StatusOK, "Password changed successfully.", nil)
}
