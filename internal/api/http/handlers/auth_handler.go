package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credit-market/internal/auth"
	"github.com/spec-kit/credit-market/internal/config"
	"github.com/spec-kit/credit-market/internal/service"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

// AuthHandler manages the GitHub OAuth login flow and the session cookie.
type AuthHandler struct {
	service       *service.AuthService
	secureCookies bool
	redirectURL   string
	adminUsername string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		service:       authService,
		secureCookies: cfg.Auth.SecureCookies,
		redirectURL:   cfg.App.BaseURL,
		adminUsername: cfg.Admin.Username,
	}
}

// GitHubLogin GET /auth/github redirects the browser to GitHub's consent page.
func (h *AuthHandler) GitHubLogin(c *fiber.Ctx) error {
	url, err := h.service.BeginGitHubLogin(c.Context())
	if err != nil {
		return err
	}
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

// GitHubCallback GET /auth/github/callback completes the login, sets the
// session cookie, and sends the browser back to the app.
func (h *AuthHandler) GitHubCallback(c *fiber.Ctx) error {
	user, token, expiresAt, err := h.service.CompleteGitHubLogin(c.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: "Lax",
		Path:     "/",
	})

	if c.Query("format") == "json" {
		return c.JSON(fiber.Map{"data": fiber.Map{
			"user":  userResponse(user, isOperator(user.Username, h.adminUsername)),
			"token": token,
		}})
	}
	return c.Redirect(h.redirectURL, fiber.StatusTemporaryRedirect)
}

// Logout POST /auth/logout clears the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: "Lax",
		Path:     "/",
	})
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal, nil
}
