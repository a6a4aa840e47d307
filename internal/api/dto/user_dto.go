package dto

import "time"

// UserResponse is a user's public identity.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
}

// ProfileStatsResponse summarizes a profile's marketplace activity.
type ProfileStatsResponse struct {
	TotalListings  int   `json:"total_listings"`
	TotalFaceValue int   `json:"total_face_value"`
	TrustScore     int64 `json:"trust_score"`
}

// ProfileResponse is the public profile page payload.
type ProfileResponse struct {
	User     UserResponse         `json:"user"`
	Stats    ProfileStatsResponse `json:"stats"`
	Listings []ListingResponse    `json:"listings"`
}

// MeResponse is the authenticated user's own view.
type MeResponse struct {
	User     UserResponse      `json:"user"`
	Listings []ListingResponse `json:"listings"`
}
