package events

import (
	"time"

	"github.com/spec-kit/credit-market/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventListingCreated    EventType = "listing_created"
	EventListingTraded     EventType = "listing_traded"
	EventMessageSent       EventType = "message_sent"
	EventDirectMessageSent EventType = "direct_message_sent"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ListingCreatedPayload payload.
type ListingCreatedPayload struct {
	ListingID string             `json:"listing_id"`
	Type      domain.ListingType `json:"type"`
	Provider  string             `json:"provider"`
	Title     string             `json:"title"`
}

// ListingTradedPayload payload.
type ListingTradedPayload struct {
	ListingID string `json:"listing_id"`
	SellerID  string `json:"seller_id"`
	Provider  string `json:"provider"`
}

// MessageSentPayload payload.
type MessageSentPayload struct {
	MessageID   int64  `json:"message_id"`
	ListingID   string `json:"listing_id"`
	BuyerID     string `json:"buyer_id"`
	SenderID    string `json:"sender_id"`
	BodyPreview string `json:"body_preview"`
}

// DirectMessageSentPayload payload.
type DirectMessageSentPayload struct {
	MessageID  int64  `json:"message_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
}
