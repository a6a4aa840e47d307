package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/events"
	"github.com/spec-kit/credit-market/internal/repository"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

// ListingService coordinates listing workflows.
type ListingService struct {
	listings   repository.ListingRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// ListingDependencies bundles repositories for the listing service.
type ListingDependencies struct {
	ListingRepo repository.ListingRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// NewListingService constructs the service.
func NewListingService(deps ListingDependencies) *ListingService {
	return &ListingService{
		listings:   deps.ListingRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// ListingCreateInput describes listing creation payload. Amounts are cents.
type ListingCreateInput struct {
	Type        domain.ListingType
	Provider    string
	Title       string
	Description *string
	FaceValue   *int
	AskingPrice int
	CreditType  string
	ProofLink   *string
	ContactInfo string
}

// ListingUpdateInput carries optional field updates.
type ListingUpdateInput struct {
	Type        *domain.ListingType
	Provider    *string
	Title       *string
	Description *string
	FaceValue   *int
	AskingPrice *int
	CreditType  *string
	ProofLink   *string
	ContactInfo *string
}

// ListingWithOwner pairs a listing with its owner's public identity.
type ListingWithOwner struct {
	domain.Listing
	Username  string
	AvatarURL *string
}

// CreateListing creates a listing owned by the user.
func (s *ListingService) CreateListing(ctx context.Context, userID string, input ListingCreateInput) (*domain.Listing, error) {
	if input.Type != domain.ListingTypeSelling && input.Type != domain.ListingTypeBuying {
		return nil, apperrors.NewValidationError("type must be selling or buying", nil)
	}
	if input.AskingPrice <= 0 {
		return nil, apperrors.NewValidationError("asking_price must be positive", nil)
	}

	listing := &domain.Listing{
		UserID:      userID,
		Type:        input.Type,
		Provider:    strings.TrimSpace(input.Provider),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		FaceValue:   input.FaceValue,
		AskingPrice: input.AskingPrice,
		CreditType:  input.CreditType,
		ProofLink:   input.ProofLink,
		ContactInfo: input.ContactInfo,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventListingCreated,
		ActorID: userID,
		Payload: events.ListingCreatedPayload{
			ListingID: listing.ID,
			Type:      listing.Type,
			Provider:  listing.Provider,
			Title:     listing.Title,
		},
	})
	return listing, nil
}

// ListListings returns the public feed, optionally filtered by type.
func (s *ListingService) ListListings(ctx context.Context, typeFilter *domain.ListingType) ([]ListingWithOwner, error) {
	listings, err := s.listings.List(ctx, repository.ListingFilter{Type: typeFilter})
	if err != nil {
		return nil, err
	}
	return s.attachOwners(ctx, listings)
}

// GetListing returns one listing with its owner identity.
func (s *ListingService) GetListing(ctx context.Context, id string) (*ListingWithOwner, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("listing", nil)
		}
		return nil, err
	}
	enriched, err := s.attachOwners(ctx, []domain.Listing{*listing})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// ListForUser returns a user's own listings, newest first.
func (s *ListingService) ListForUser(ctx context.Context, userID string) ([]domain.Listing, error) {
	listings, err := s.listings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	return listings, nil
}

// UpdateListing applies the supplied field changes after an ownership check.
func (s *ListingService) UpdateListing(ctx context.Context, userID, listingID string, input ListingUpdateInput) (*domain.Listing, error) {
	listing, err := s.getOwned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}

	if input.Type != nil {
		if *input.Type != domain.ListingTypeSelling && *input.Type != domain.ListingTypeBuying {
			return nil, apperrors.NewValidationError("type must be selling or buying", nil)
		}
		listing.Type = *input.Type
	}
	if input.Provider != nil {
		listing.Provider = strings.TrimSpace(*input.Provider)
	}
	if input.Title != nil {
		listing.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		listing.Description = input.Description
	}
	if input.FaceValue != nil {
		listing.FaceValue = input.FaceValue
	}
	if input.AskingPrice != nil {
		if *input.AskingPrice <= 0 {
			return nil, apperrors.NewValidationError("asking_price must be positive", nil)
		}
		listing.AskingPrice = *input.AskingPrice
	}
	if input.CreditType != nil {
		listing.CreditType = *input.CreditType
	}
	if input.ProofLink != nil {
		listing.ProofLink = input.ProofLink
	}
	if input.ContactInfo != nil {
		listing.ContactInfo = *input.ContactInfo
	}

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// MarkTraded flips the listing status to traded and emits the trade event
// that feeds the trust graph.
func (s *ListingService) MarkTraded(ctx context.Context, userID, listingID string) (*domain.Listing, error) {
	listing, err := s.getOwned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}

	listing.Status = domain.ListingStatusTraded
	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventListingTraded,
		ActorID: userID,
		Payload: events.ListingTradedPayload{
			ListingID: listing.ID,
			SellerID:  listing.UserID,
			Provider:  listing.Provider,
		},
	})
	return listing, nil
}

// DeleteListing removes the listing and, via cascade, its message threads.
func (s *ListingService) DeleteListing(ctx context.Context, userID, listingID string) error {
	if _, err := s.getOwned(ctx, userID, listingID); err != nil {
		return err
	}
	return s.listings.Delete(ctx, listingID)
}

// Stats returns admin analytics counts.
func (s *ListingService) Stats(ctx context.Context) (int64, *repository.ListingStats, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return 0, nil, err
	}
	listingStats, err := s.listings.Stats(ctx)
	if err != nil {
		return 0, nil, err
	}
	return userCount, listingStats, nil
}

func (s *ListingService) getOwned(ctx context.Context, userID, listingID string) (*domain.Listing, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("listing", nil)
		}
		return nil, err
	}
	if listing.UserID != userID {
		return nil, apperrors.NewForbidden("not the listing owner")
	}
	return listing, nil
}

func (s *ListingService) attachOwners(ctx context.Context, listings []domain.Listing) ([]ListingWithOwner, error) {
	owners := map[string]*domain.User{}
	result := make([]ListingWithOwner, 0, len(listings))
	for _, listing := range listings {
		owner, ok := owners[listing.UserID]
		if !ok {
			var err error
			owner, err = s.users.GetByID(ctx, listing.UserID)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
			owners[listing.UserID] = owner
		}
		item := ListingWithOwner{Listing: listing}
		if owner != nil {
			item.Username = owner.Username
			item.AvatarURL = owner.AvatarURL
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *ListingService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
