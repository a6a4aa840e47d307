package domain

import "time"

// ThreadKey identifies a conversation. A thread is not stored anywhere; it is
// derived from the composite key on messages. BuyerID is always the
// non-seller participant, regardless of who sent any individual message.
type ThreadKey struct {
	ListingID string
	BuyerID   string
}

// Message is one immutable entry in a listing thread. IDs are assigned by the
// store in creation order, which makes them the stable tiebreak when two
// messages share a created_at.
type Message struct {
	ID        int64
	ListingID string
	SenderID  string
	BuyerID   string
	Body      string
	CreatedAt time.Time
}

// Thread returns the message's thread key.
func (m Message) Thread() ThreadKey {
	return ThreadKey{ListingID: m.ListingID, BuyerID: m.BuyerID}
}
