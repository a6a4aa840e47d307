package domain

import "time"

// User is the domain model for marketplace participants. Identity comes from
// GitHub OAuth; there is no local credential material.
type User struct {
	ID        string
	GitHubID  int64
	Username  string
	AvatarURL *string
	CreatedAt time.Time
}
