package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credit-market/internal/api/dto"
	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/service"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

// DMHandler manages user-to-user direct messages outside listing threads.
type DMHandler struct {
	service *service.DMService
}

// NewDMHandler constructs handler.
func NewDMHandler(dmService *service.DMService) *DMHandler {
	return &DMHandler{service: dmService}
}

// Send POST /dm/:userId.
func (h *DMHandler) Send(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SendDirectMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.service.Send(c.Context(), principal.User.ID, c.Params("userId"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": directMessageResponse(msg)})
}

// GetConversation GET /dm/:userId?after=.
func (h *DMHandler) GetConversation(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var after *time.Time
	if raw := c.Query("after"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return apperrors.NewValidationError("after must be RFC3339", nil)
		}
		after = &t
	}
	page, err := h.service.GetConversation(c.Context(), principal.User.ID, c.Params("userId"), after)
	if err != nil {
		return err
	}
	msgs := make([]dto.DirectMessageResponse, 0, len(page.Messages))
	for i := range page.Messages {
		msgs = append(msgs, directMessageResponse(&page.Messages[i]))
	}
	resp := dto.DirectConversationResponse{Messages: msgs}
	if page.OtherUser != nil {
		resp.OtherUser = &dto.ParticipantResponse{
			ID:        page.OtherUser.ID,
			Username:  page.OtherUser.Username,
			AvatarURL: page.OtherUser.AvatarURL,
		}
	}
	return c.JSON(fiber.Map{"data": resp})
}

func directMessageResponse(msg *domain.DirectMessage) dto.DirectMessageResponse {
	return dto.DirectMessageResponse{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	}
}
