package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/events"
	"github.com/spec-kit/credit-market/internal/repository"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

// ChatService owns listing-thread messaging: thread identity resolution,
// sends, incremental reads, and the conversations overview.
type ChatService struct {
	listings   repository.ListingRepository
	messages   repository.MessageRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// ChatDependencies bundles repositories for the chat service.
type ChatDependencies struct {
	ListingRepo repository.ListingRepository
	MessageRepo repository.MessageRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	return &ChatService{
		listings:   deps.ListingRepo,
		messages:   deps.MessageRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// ResolvedThread is the outcome of thread identity resolution.
type ResolvedThread struct {
	Key      domain.ThreadKey
	SellerID string
	Listing  *domain.Listing
}

// ThreadPage is one read of a thread: the (possibly cursored) messages plus
// the context a viewer needs to render it.
type ThreadPage struct {
	Messages  []domain.Message
	Listing   *domain.Listing
	OtherUser *domain.User
}

// ResolveThread determines which (listing, buyer) thread the acting user is
// addressing. A seller must name the buyer they are replying to; anyone else
// is the buyer of their own thread and any supplied hint is ignored.
//
// A seller naming themselves as buyer creates a degenerate self-thread. That
// is deliberately not rejected; it is harmless and excluding it would
// complicate the contract for no gain.
func (s *ChatService) ResolveThread(ctx context.Context, listingID, actingUserID string, suppliedBuyerID *string) (*ResolvedThread, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("listing", nil)
		}
		return nil, err
	}

	sellerID := listing.UserID
	var buyerID string
	if actingUserID == sellerID {
		if suppliedBuyerID == nil || *suppliedBuyerID == "" {
			return nil, apperrors.NewBadRequest("buyer_id required when seller replies")
		}
		buyerID = *suppliedBuyerID
	} else {
		buyerID = actingUserID
	}

	if actingUserID != sellerID && actingUserID != buyerID {
		return nil, apperrors.NewForbidden("not a participant in this conversation")
	}

	return &ResolvedThread{
		Key:      domain.ThreadKey{ListingID: listing.ID, BuyerID: buyerID},
		SellerID: sellerID,
		Listing:  listing,
	}, nil
}

// SendMessage validates and appends one message to the resolved thread.
// The store assigns id and created_at; callers must treat both as opaque.
func (s *ChatService) SendMessage(ctx context.Context, listingID, actingUserID, body string, suppliedBuyerID *string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}

	resolved, err := s.ResolveThread(ctx, listingID, actingUserID, suppliedBuyerID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ListingID: resolved.Key.ListingID,
		SenderID:  actingUserID,
		BuyerID:   resolved.Key.BuyerID,
		Body:      body,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventMessageSent,
		ActorID: actingUserID,
		Payload: events.MessageSentPayload{
			MessageID:   msg.ID,
			ListingID:   msg.ListingID,
			BuyerID:     msg.BuyerID,
			SenderID:    msg.SenderID,
			BodyPreview: stringPreview(msg.Body, 120),
		},
	})
	return msg, nil
}

// GetThread returns the thread's messages ascending by created_at. When after
// is set only strictly newer messages are returned; responses near a cursor
// boundary may still overlap, so clients deduplicate by message id.
func (s *ChatService) GetThread(ctx context.Context, listingID, actingUserID string, suppliedBuyerID *string, after *time.Time) (*ThreadPage, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("listing", nil)
		}
		return nil, err
	}

	sellerID := listing.UserID
	var buyerID string
	switch {
	case suppliedBuyerID != nil && *suppliedBuyerID != "":
		buyerID = *suppliedBuyerID
	case actingUserID == sellerID:
		return nil, apperrors.NewBadRequest("buyer_id required when seller reads a thread")
	default:
		buyerID = actingUserID
	}

	if actingUserID != sellerID && actingUserID != buyerID {
		return nil, apperrors.NewForbidden("not a participant in this conversation")
	}

	otherUserID := buyerID
	if actingUserID != sellerID {
		otherUserID = sellerID
	}
	otherUser, err := s.users.GetByID(ctx, otherUserID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	msgs, err := s.messages.Range(ctx, domain.ThreadKey{ListingID: listing.ID, BuyerID: buyerID}, after)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}

	return &ThreadPage{Messages: msgs, Listing: listing, OtherUser: otherUser}, nil
}

// ListConversations reduces every thread the user participates in to its most
// recent message and returns the summaries, most recently active first.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	keys, err := s.messages.ThreadsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ConversationSummary, 0, len(keys))
	for _, key := range keys {
		summary, err := s.summarizeThread(ctx, userID, key)
		if err != nil {
			return nil, err
		}
		if summary != nil {
			summaries = append(summaries, *summary)
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].LastAt.Equal(summaries[j].LastAt) {
			return summaries[i].LastMessageID > summaries[j].LastMessageID
		}
		return summaries[i].LastAt.After(summaries[j].LastAt)
	})
	return summaries, nil
}

// summarizeThread builds one conversation summary, or nil when the thread's
// listing or counterpart no longer resolves (a concurrent deletion).
func (s *ChatService) summarizeThread(ctx context.Context, userID string, key domain.ThreadKey) (*domain.ConversationSummary, error) {
	last, err := s.messages.LatestByThread(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	listing, err := s.listings.GetByID(ctx, key.ListingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	otherUserID := key.BuyerID
	if userID != listing.UserID {
		otherUserID = listing.UserID
	}
	other, err := s.users.GetByID(ctx, otherUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &domain.ConversationSummary{
		ListingID:      key.ListingID,
		BuyerID:        key.BuyerID,
		ListingTitle:   listing.Title,
		OtherUserID:    other.ID,
		OtherUsername:  other.Username,
		OtherAvatarURL: other.AvatarURL,
		LastBody:       last.Body,
		LastSenderID:   last.SenderID,
		LastMessageID:  last.ID,
		LastAt:         last.CreatedAt,
	}, nil
}

func (s *ChatService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
