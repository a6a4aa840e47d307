package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credit-market/internal/api/dto"
	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/service"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

// ChatHandler manages per-listing conversation endpoints.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{service: chatService}
}

// ListConversations GET /chat/conversations. One row per thread the user
// participates in, most recent first.
func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	summaries, err := h.service.ListConversations(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.ConversationSummaryResponse, 0, len(summaries))
	for i := range summaries {
		items = append(items, conversationSummaryResponse(&summaries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SendMessage POST /chat/:listingId/messages. Sellers must name the buyer
// thread via buyer_id; buyers address their own thread.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.service.SendMessage(c.Context(), c.Params("listingId"), principal.User.ID, req.Body, req.BuyerID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// GetThread GET /chat/:listingId/messages?buyer_id=&after=. The after cursor
// is exclusive; only messages persisted strictly later are returned.
func (h *ChatHandler) GetThread(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var buyerID *string
	if raw := c.Query("buyer_id"); raw != "" {
		buyerID = &raw
	}
	var after *time.Time
	if raw := c.Query("after"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return apperrors.NewValidationError("after must be RFC3339", nil)
		}
		after = &t
	}
	page, err := h.service.GetThread(c.Context(), c.Params("listingId"), principal.User.ID, buyerID, after)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": threadResponse(page)})
}

func messageResponse(msg *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:        msg.ID,
		ListingID: msg.ListingID,
		SenderID:  msg.SenderID,
		BuyerID:   msg.BuyerID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
}

func threadResponse(page *service.ThreadPage) dto.ThreadResponse {
	msgs := make([]dto.MessageResponse, 0, len(page.Messages))
	for i := range page.Messages {
		msgs = append(msgs, messageResponse(&page.Messages[i]))
	}
	resp := dto.ThreadResponse{
		Messages: msgs,
		Listing: dto.ThreadListingResponse{
			ID:       page.Listing.ID,
			Title:    page.Listing.Title,
			SellerID: page.Listing.UserID,
		},
	}
	if page.OtherUser != nil {
		resp.OtherUser = &dto.ParticipantResponse{
			ID:        page.OtherUser.ID,
			Username:  page.OtherUser.Username,
			AvatarURL: page.OtherUser.AvatarURL,
		}
	}
	return resp
}

func conversationSummaryResponse(summary *domain.ConversationSummary) dto.ConversationSummaryResponse {
	return dto.ConversationSummaryResponse{
		ListingID:      summary.ListingID,
		BuyerID:        summary.BuyerID,
		ListingTitle:   summary.ListingTitle,
		OtherUsername:  summary.OtherUsername,
		OtherAvatarURL: summary.OtherAvatarURL,
		LastBody:       summary.LastBody,
		LastSenderID:   summary.LastSenderID,
		LastAt:         summary.LastAt,
	}
}
