package domain

import "time"

// DirectMessage is a user-to-user message outside any listing thread.
type DirectMessage struct {
	ID         int64
	SenderID   string
	ReceiverID string
	Body       string
	CreatedAt  time.Time
}
