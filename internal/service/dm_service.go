package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/events"
	"github.com/spec-kit/credit-market/internal/repository"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

// DMService handles user-to-user messages outside listing threads.
type DMService struct {
	dms        repository.DirectMessageRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// DMDependencies bundles repositories for the DM service.
type DMDependencies struct {
	DirectMessageRepo repository.DirectMessageRepository
	UserRepo          repository.UserRepository
	Dispatcher        events.Dispatcher
}

// NewDMService constructs the service.
func NewDMService(deps DMDependencies) *DMService {
	return &DMService{
		dms:        deps.DirectMessageRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// DMPage is one read of a direct conversation.
type DMPage struct {
	Messages  []domain.DirectMessage
	OtherUser *domain.User
}

// Send appends one direct message.
func (s *DMService) Send(ctx context.Context, senderID, receiverID, body string) (*domain.DirectMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}
	if senderID == receiverID {
		return nil, apperrors.NewBadRequest("cannot message yourself")
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	msg := &domain.DirectMessage{SenderID: senderID, ReceiverID: receiverID, Body: body}
	if err := s.dms.Append(ctx, msg); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventDirectMessageSent,
			ActorID:   senderID,
			Timestamp: time.Now(),
			Payload: events.DirectMessageSentPayload{
				MessageID:  msg.ID,
				SenderID:   msg.SenderID,
				ReceiverID: msg.ReceiverID,
			},
		})
	}
	return msg, nil
}

// GetConversation returns both directions of the pair's messages ascending,
// optionally restricted to strictly newer than after.
func (s *DMService) GetConversation(ctx context.Context, userID, otherID string, after *time.Time) (*DMPage, error) {
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	msgs, err := s.dms.ListBetween(ctx, userID, otherID, after)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.DirectMessage{}
	}
	return &DMPage{Messages: msgs, OtherUser: other}, nil
}
