package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credit-market/internal/api/dto"
	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/service"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

var validate = validator.New()

// ListingsHandler manages marketplace listing endpoints.
type ListingsHandler struct {
	service *service.ListingService
}

// NewListingsHandler constructs handler.
func NewListingsHandler(listingService *service.ListingService) *ListingsHandler {
	return &ListingsHandler{service: listingService}
}

// ListListings GET /listings. Public; supports ?type=selling|buying.
func (h *ListingsHandler) ListListings(c *fiber.Ctx) error {
	var typeFilter *domain.ListingType
	if raw := c.Query("type"); raw != "" {
		t := domain.ListingType(raw)
		if t != domain.ListingTypeSelling && t != domain.ListingTypeBuying {
			return apperrors.NewValidationError("type must be selling or buying", nil)
		}
		typeFilter = &t
	}
	listings, err := h.service.ListListings(c.Context(), typeFilter)
	if err != nil {
		return err
	}
	items := make([]dto.ListingResponse, 0, len(listings))
	for i := range listings {
		items = append(items, listingWithOwnerResponse(&listings[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetListing GET /listings/:id. Public.
func (h *ListingsHandler) GetListing(c *fiber.Ctx) error {
	listing, err := h.service.GetListing(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listingWithOwnerResponse(listing)})
}

// CreateListing POST /listings.
func (h *ListingsHandler) CreateListing(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	input := service.ListingCreateInput{
		Type:        domain.ListingType(req.Type),
		Provider:    req.Provider,
		Title:       req.Title,
		Description: req.Description,
		FaceValue:   req.FaceValue,
		AskingPrice: req.AskingPrice,
		CreditType:  req.CreditType,
		ProofLink:   req.ProofLink,
		ContactInfo: req.ContactInfo,
	}
	listing, err := h.service.CreateListing(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": listingResponse(listing)})
}

// UpdateListing PUT /listings/:id. Owner only.
func (h *ListingsHandler) UpdateListing(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	input := service.ListingUpdateInput{
		Provider:    req.Provider,
		Title:       req.Title,
		Description: req.Description,
		FaceValue:   req.FaceValue,
		AskingPrice: req.AskingPrice,
		CreditType:  req.CreditType,
		ProofLink:   req.ProofLink,
		ContactInfo: req.ContactInfo,
	}
	if req.Type != nil {
		t := domain.ListingType(*req.Type)
		input.Type = &t
	}
	listing, err := h.service.UpdateListing(c.Context(), principal.User.ID, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listingResponse(listing)})
}

// MarkTraded PATCH /listings/:id/traded. Owner only.
func (h *ListingsHandler) MarkTraded(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	listing, err := h.service.MarkTraded(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listingResponse(listing)})
}

// DeleteListing DELETE /listings/:id. Owner only; thread messages go with it.
func (h *ListingsHandler) DeleteListing(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteListing(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func listingResponse(listing *domain.Listing) dto.ListingResponse {
	return dto.ListingResponse{
		ID:          listing.ID,
		UserID:      listing.UserID,
		Type:        listing.Type,
		Provider:    listing.Provider,
		Title:       listing.Title,
		Description: listing.Description,
		FaceValue:   listing.FaceValue,
		AskingPrice: listing.AskingPrice,
		CreditType:  listing.CreditType,
		ProofLink:   listing.ProofLink,
		ContactInfo: listing.ContactInfo,
		Status:      listing.Status,
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	}
}

func listingWithOwnerResponse(listing *service.ListingWithOwner) dto.ListingResponse {
	resp := listingResponse(&listing.Listing)
	resp.Username = listing.Username
	resp.AvatarURL = listing.AvatarURL
	return resp
}
