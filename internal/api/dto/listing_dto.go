package dto

import (
	"time"

	"github.com/spec-kit/credit-market/internal/domain"
)

// CreateListingRequest payload. Amounts are cents.
type CreateListingRequest struct {
	Type        string  `json:"type" validate:"required,oneof=selling buying"`
	Provider    string  `json:"provider" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	FaceValue   *int    `json:"face_value" validate:"omitempty,gt=0"`
	AskingPrice int     `json:"asking_price" validate:"required,gt=0"`
	CreditType  string  `json:"credit_type" validate:"required"`
	ProofLink   *string `json:"proof_link"`
	ContactInfo string  `json:"contact_info" validate:"required"`
}

// UpdateListingRequest payload; nil fields are left unchanged.
type UpdateListingRequest struct {
	Type        *string `json:"type" validate:"omitempty,oneof=selling buying"`
	Provider    *string `json:"provider"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	FaceValue   *int    `json:"face_value" validate:"omitempty,gt=0"`
	AskingPrice *int    `json:"asking_price" validate:"omitempty,gt=0"`
	CreditType  *string `json:"credit_type"`
	ProofLink   *string `json:"proof_link"`
	ContactInfo *string `json:"contact_info"`
}

// ListingResponse is the public listing shape, including owner identity.
type ListingResponse struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	Type        domain.ListingType   `json:"type"`
	Provider    string               `json:"provider"`
	Title       string               `json:"title"`
	Description *string              `json:"description"`
	FaceValue   *int                 `json:"face_value"`
	AskingPrice int                  `json:"asking_price"`
	CreditType  string               `json:"credit_type"`
	ProofLink   *string              `json:"proof_link"`
	ContactInfo string               `json:"contact_info"`
	Status      domain.ListingStatus `json:"status"`
	Username    string               `json:"username,omitempty"`
	AvatarURL   *string              `json:"avatar_url,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}
