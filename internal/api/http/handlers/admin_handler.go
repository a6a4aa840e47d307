package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credit-market/internal/api/dto"
	"github.com/spec-kit/credit-market/internal/observability"
	"github.com/spec-kit/credit-market/internal/service"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

// AdminHandler exposes operator-only analytics.
type AdminHandler struct {
	listings      *service.ListingService
	metrics       *observability.Metrics
	adminUsername string
}

// NewAdminHandler constructs handler.
func NewAdminHandler(listings *service.ListingService, metrics *observability.Metrics, adminUsername string) *AdminHandler {
	return &AdminHandler{listings: listings, metrics: metrics, adminUsername: adminUsername}
}

// Stats GET /admin/stats. Restricted to the configured operator account.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if h.adminUsername == "" || principal.User.Username != h.adminUsername {
		return apperrors.NewForbidden("admin access required")
	}

	userCount, listingStats, err := h.listings.Stats(c.Context())
	if err != nil {
		return err
	}

	resp := dto.AdminStatsResponse{
		Users:      userCount,
		Listings:   listingStats.Total,
		ByType:     listingStats.ByType,
		ByStatus:   listingStats.ByStatus,
		ByProvider: listingStats.ByProvider,
	}
	if h.metrics != nil {
		resp.Requests, resp.Errors = h.metrics.Snapshot()
	}
	return c.JSON(fiber.Map{"data": resp})
}
