package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/repository"
)

// fakeClock hands out timestamps under test control. Successive calls return
// the same instant until Advance is called, which is how equal-timestamp
// scenarios are produced.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type memUserRepo struct {
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*domain.User{}}
}

func (r *memUserRepo) add(id, username string) *domain.User {
	user := &domain.User{ID: id, Username: username, CreatedAt: time.Now()}
	r.users[id] = user
	return user
}

func (r *memUserRepo) UpsertByGitHubID(_ context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.GitHubID == user.GitHubID {
			existing.Username = user.Username
			existing.AvatarURL = user.AvatarURL
			*user = *existing
			return nil
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) Count(context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

type memListingRepo struct {
	listings map[string]*domain.Listing
	clock    *fakeClock
}

func newMemListingRepo(clock *fakeClock) *memListingRepo {
	return &memListingRepo{listings: map[string]*domain.Listing{}, clock: clock}
}

func (r *memListingRepo) Create(_ context.Context, listing *domain.Listing) error {
	listing.ID = uuid.NewString()
	listing.Status = domain.ListingStatusActive
	listing.CreatedAt = r.clock.Now()
	listing.UpdatedAt = r.clock.Now()
	clone := *listing
	r.listings[listing.ID] = &clone
	return nil
}

func (r *memListingRepo) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	listing, ok := r.listings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *listing
	return &clone, nil
}

func (r *memListingRepo) List(_ context.Context, filter repository.ListingFilter) ([]domain.Listing, error) {
	var out []domain.Listing
	for _, listing := range r.listings {
		if filter.Type != nil && listing.Type != *filter.Type {
			continue
		}
		out = append(out, *listing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memListingRepo) ListByUser(_ context.Context, userID string) ([]domain.Listing, error) {
	var out []domain.Listing
	for _, listing := range r.listings {
		if listing.UserID == userID {
			out = append(out, *listing)
		}
	}
	return out, nil
}

func (r *memListingRepo) Update(_ context.Context, listing *domain.Listing) error {
	if _, ok := r.listings[listing.ID]; !ok {
		return pgx.ErrNoRows
	}
	listing.UpdatedAt = r.clock.Now()
	clone := *listing
	r.listings[listing.ID] = &clone
	return nil
}

func (r *memListingRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.listings[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.listings, id)
	return nil
}

func (r *memListingRepo) Stats(context.Context) (*repository.ListingStats, error) {
	stats := &repository.ListingStats{
		ByType:     map[string]int64{},
		ByStatus:   map[string]int64{},
		ByProvider: map[string]int64{},
	}
	for _, listing := range r.listings {
		stats.Total++
		stats.ByType[string(listing.Type)]++
		stats.ByStatus[string(listing.Status)]++
		stats.ByProvider[listing.Provider]++
	}
	return stats, nil
}

// memMessageRepo mimics the store's contract: it assigns ids in creation
// order, stamps created_at at append time, and ranges ascending with the id
// tiebreak.
type memMessageRepo struct {
	msgs     []domain.Message
	nextID   int64
	clock    *fakeClock
	listings *memListingRepo
}

func newMemMessageRepo(clock *fakeClock, listings *memListingRepo) *memMessageRepo {
	return &memMessageRepo{clock: clock, listings: listings}
}

func (r *memMessageRepo) Append(_ context.Context, msg *domain.Message) error {
	r.nextID++
	msg.ID = r.nextID
	msg.CreatedAt = r.clock.Now()
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *memMessageRepo) Range(_ context.Context, key domain.ThreadKey, after *time.Time) ([]domain.Message, error) {
	var out []domain.Message
	for _, msg := range r.msgs {
		if msg.Thread() != key {
			continue
		}
		if after != nil && !msg.CreatedAt.After(*after) {
			continue
		}
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memMessageRepo) ThreadsFor(_ context.Context, userID string) ([]domain.ThreadKey, error) {
	seen := map[domain.ThreadKey]struct{}{}
	var out []domain.ThreadKey
	for _, msg := range r.msgs {
		key := msg.Thread()
		if _, dup := seen[key]; dup {
			continue
		}
		listing, ok := r.listings.listings[key.ListingID]
		if key.BuyerID != userID && (!ok || listing.UserID != userID) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out, nil
}

func (r *memMessageRepo) LatestByThread(_ context.Context, key domain.ThreadKey) (*domain.Message, error) {
	var latest *domain.Message
	for i := range r.msgs {
		msg := r.msgs[i]
		if msg.Thread() != key {
			continue
		}
		if latest == nil || msg.CreatedAt.After(latest.CreatedAt) ||
			(msg.CreatedAt.Equal(latest.CreatedAt) && msg.ID > latest.ID) {
			latest = &msg
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	clone := *latest
	return &clone, nil
}

type memDirectMessageRepo struct {
	msgs   []domain.DirectMessage
	nextID int64
	clock  *fakeClock
}

func newMemDirectMessageRepo(clock *fakeClock) *memDirectMessageRepo {
	return &memDirectMessageRepo{clock: clock}
}

func (r *memDirectMessageRepo) Append(_ context.Context, msg *domain.DirectMessage) error {
	r.nextID++
	msg.ID = r.nextID
	msg.CreatedAt = r.clock.Now()
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *memDirectMessageRepo) ListBetween(_ context.Context, userA, userB string, after *time.Time) ([]domain.DirectMessage, error) {
	var out []domain.DirectMessage
	for _, msg := range r.msgs {
		pair := (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA)
		if !pair {
			continue
		}
		if after != nil && !msg.CreatedAt.After(*after) {
			continue
		}
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
