package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credit-market/internal/api/http/handlers"
	"github.com/spec-kit/credit-market/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Listings       *handlers.ListingsHandler
	Chat           *handlers.ChatHandler
	DM             *handlers.DMHandler
	Users          *handlers.UsersHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Get("/github", cfg.Auth.GitHubLogin)
	authGroup.Get("/github/callback", cfg.Auth.GitHubCallback)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api := app.Group("/api")

	api.Get("/listings", cfg.Listings.ListListings)
	api.Get("/listings/:id", cfg.Listings.GetListing)
	api.Get("/users/:username", cfg.Users.GetProfile)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/me", cfg.Users.Me)

	protected.Post("/listings", cfg.Listings.CreateListing)
	protected.Put("/listings/:id", cfg.Listings.UpdateListing)
	protected.Patch("/listings/:id/traded", cfg.Listings.MarkTraded)
	protected.Delete("/listings/:id", cfg.Listings.DeleteListing)

	protected.Get("/chat/conversations", cfg.Chat.ListConversations)
	protected.Post("/chat/:listingId/messages", cfg.Chat.SendMessage)
	protected.Get("/chat/:listingId/messages", cfg.Chat.GetThread)

	protected.Get("/dm/:userId", cfg.DM.GetConversation)
	protected.Post("/dm/:userId", cfg.DM.Send)

	protected.Get("/admin/stats", cfg.Admin.Stats)
}
