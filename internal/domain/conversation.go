package domain

import "time"

// ConversationSummary reduces a thread to its representative (most recent)
// message plus the counterpart's identity, for the conversations list.
type ConversationSummary struct {
	ListingID      string
	BuyerID        string
	ListingTitle   string
	OtherUserID    string
	OtherUsername  string
	OtherAvatarURL *string
	LastBody       string
	LastSenderID   string
	LastMessageID  int64
	LastAt         time.Time
}
