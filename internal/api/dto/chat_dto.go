package dto

import (
	"time"
)

// SendMessageRequest payload. BuyerID is required only when the seller
// replies; for anyone else it is ignored.
type SendMessageRequest struct {
	Body    string  `json:"body"`
	BuyerID *string `json:"buyer_id"`
}

// MessageResponse represents a thread message.
type MessageResponse struct {
	ID        int64     `json:"id"`
	ListingID string    `json:"listing_id"`
	SenderID  string    `json:"sender_id"`
	BuyerID   string    `json:"buyer_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadListingResponse is the listing context a thread view renders.
type ThreadListingResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SellerID string `json:"seller_id"`
}

// ParticipantResponse is a thread counterpart's public identity.
type ParticipantResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// ThreadResponse is one read of a thread.
type ThreadResponse struct {
	Messages  []MessageResponse     `json:"messages"`
	Listing   ThreadListingResponse `json:"listing"`
	OtherUser *ParticipantResponse  `json:"other_user"`
}

// ConversationSummaryResponse is one row of the conversations list.
type ConversationSummaryResponse struct {
	ListingID      string    `json:"listing_id"`
	BuyerID        string    `json:"buyer_id"`
	ListingTitle   string    `json:"listing_title"`
	OtherUsername  string    `json:"other_username"`
	OtherAvatarURL *string   `json:"other_avatar_url"`
	LastBody       string    `json:"last_body"`
	LastSenderID   string    `json:"last_sender_id"`
	LastAt         time.Time `json:"last_at"`
}
