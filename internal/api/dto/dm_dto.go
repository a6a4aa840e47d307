package dto

import "time"

// SendDirectMessageRequest payload.
type SendDirectMessageRequest struct {
	Body string `json:"body"`
}

// DirectMessageResponse represents a direct message.
type DirectMessageResponse struct {
	ID         int64     `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// DirectConversationResponse is one read of a direct conversation.
type DirectConversationResponse struct {
	Messages  []DirectMessageResponse `json:"messages"`
	OtherUser *ParticipantResponse    `json:"other_user"`
}
