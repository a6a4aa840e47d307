package domain

import "time"

// ListingType distinguishes offers from requests.
type ListingType string

const (
	ListingTypeSelling ListingType = "selling"
	ListingTypeBuying  ListingType = "buying"
)

// ListingStatus tracks whether a listing is still open.
type ListingStatus string

const (
	ListingStatusActive ListingStatus = "active"
	ListingStatusTraded ListingStatus = "traded"
)

// Listing is a posted offer or request for API/service credits.
// Monetary amounts are cents.
type Listing struct {
	ID          string
	UserID      string
	Type        ListingType
	Provider    string
	Title       string
	Description *string
	FaceValue   *int
	AskingPrice int
	CreditType  string
	ProofLink   *string
	ContactInfo string
	Status      ListingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
