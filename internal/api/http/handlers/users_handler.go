package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credit-market/internal/api/dto"
	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/repository"
	"github.com/spec-kit/credit-market/internal/service"
)

// UsersHandler exposes the authenticated user's own view and public profiles.
type UsersHandler struct {
	users         repository.UserRepository
	listings      *service.ListingService
	trust         *service.TrustService
	adminUsername string
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users repository.UserRepository, listings *service.ListingService, trust *service.TrustService, adminUsername string) *UsersHandler {
	return &UsersHandler{users: users, listings: listings, trust: trust, adminUsername: adminUsername}
}

// Me GET /me returns the authenticated user and their listings.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	listings, err := h.listings.ListForUser(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.ListingResponse, 0, len(listings))
	for i := range listings {
		items = append(items, listingResponse(&listings[i]))
	}
	return c.JSON(fiber.Map{"data": dto.MeResponse{
		User:     h.userResponse(principal.User),
		Listings: items,
	}})
}

// GetProfile GET /users/:username. Public.
func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.users.GetByUsername(c.Context(), c.Params("username"))
	if err != nil {
		return err
	}
	listings, err := h.listings.ListForUser(c.Context(), user.ID)
	if err != nil {
		return err
	}

	items := make([]dto.ListingResponse, 0, len(listings))
	totalFaceValue := 0
	for i := range listings {
		items = append(items, listingResponse(&listings[i]))
		if listings[i].FaceValue != nil {
			totalFaceValue += *listings[i].FaceValue
		}
	}

	return c.JSON(fiber.Map{"data": dto.ProfileResponse{
		User: h.userResponse(user),
		Stats: dto.ProfileStatsResponse{
			TotalListings:  len(listings),
			TotalFaceValue: totalFaceValue,
			TrustScore:     h.trust.TrustScore(c.Context(), user.ID),
		},
		Listings: items,
	}})
}

func (h *UsersHandler) userResponse(user *domain.User) dto.UserResponse {
	return userResponse(user, isOperator(user.Username, h.adminUsername))
}

// isOperator reports whether the username is the configured operator
// account. An unset operator account matches nobody.
func isOperator(username, adminUsername string) bool {
	return adminUsername != "" && username == adminUsername
}

func userResponse(user *domain.User, isAdmin bool) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
		IsAdmin:   isAdmin,
	}
}
