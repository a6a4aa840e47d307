package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/credit-market/internal/domain"
)

// ListingFilter narrows the public listing feed.
type ListingFilter struct {
	Type *domain.ListingType
}

// ListingStats aggregates counts for admin analytics.
type ListingStats struct {
	Total      int64
	ByType     map[string]int64
	ByStatus   map[string]int64
	ByProvider map[string]int64
}

// ListingRepository defines persistence access for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]domain.Listing, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Listing, error)
	Update(ctx context.Context, listing *domain.Listing) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*ListingStats, error)
}

type listingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository returns a Postgres-backed implementation.
func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &listingRepository{pool: pool}
}

const listingColumns = `id, user_id, type, provider, title, description, face_value,
        asking_price, credit_type, proof_link, contact_info, status, created_at, updated_at`

func (r *listingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	const query = `
        INSERT INTO listings (user_id, type, provider, title, description, face_value,
            asking_price, credit_type, proof_link, contact_info)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, status, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		listing.UserID,
		listing.Type,
		listing.Provider,
		listing.Title,
		listing.Description,
		listing.FaceValue,
		listing.AskingPrice,
		listing.CreditType,
		listing.ProofLink,
		listing.ContactInfo,
	).Scan(&listing.ID, &listing.Status, &listing.CreatedAt, &listing.UpdatedAt)
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id=$1`

	var listing domain.Listing
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&listing.ID,
		&listing.UserID,
		&listing.Type,
		&listing.Provider,
		&listing.Title,
		&listing.Description,
		&listing.FaceValue,
		&listing.AskingPrice,
		&listing.CreditType,
		&listing.ProofLink,
		&listing.ContactInfo,
		&listing.Status,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, filter ListingFilter) ([]domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`
	args := []any{}
	if filter.Type != nil {
		query += ` WHERE type=$1`
		args = append(args, *filter.Type)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *listingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE user_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *listingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	const query = `
        UPDATE listings SET type=$1, provider=$2, title=$3, description=$4, face_value=$5,
            asking_price=$6, credit_type=$7, proof_link=$8, contact_info=$9, status=$10,
            updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		listing.Type,
		listing.Provider,
		listing.Title,
		listing.Description,
		listing.FaceValue,
		listing.AskingPrice,
		listing.CreditType,
		listing.ProofLink,
		listing.ContactInfo,
		listing.Status,
		listing.ID,
	).Scan(&listing.UpdatedAt)
}

// Delete removes the listing; thread messages go with it via ON DELETE CASCADE.
func (r *listingRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *listingRepository) Stats(ctx context.Context) (*ListingStats, error) {
	stats := &ListingStats{
		ByType:     map[string]int64{},
		ByStatus:   map[string]int64{},
		ByProvider: map[string]int64{},
	}
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM listings`).Scan(&stats.Total); err != nil {
		return nil, err
	}
	for column, dest := range map[string]map[string]int64{
		"type":     stats.ByType,
		"status":   stats.ByStatus,
		"provider": stats.ByProvider,
	} {
		if err := r.countBy(ctx, column, dest); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (r *listingRepository) countBy(ctx context.Context, column string, dest map[string]int64) error {
	// column comes from a fixed set above, never from request input.
	rows, err := r.pool.Query(ctx, `SELECT `+column+`, count(*) FROM listings GROUP BY `+column)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}

func scanListings(rows pgx.Rows) ([]domain.Listing, error) {
	var result []domain.Listing
	for rows.Next() {
		var listing domain.Listing
		if err := rows.Scan(
			&listing.ID,
			&listing.UserID,
			&listing.Type,
			&listing.Provider,
			&listing.Title,
			&listing.Description,
			&listing.FaceValue,
			&listing.AskingPrice,
			&listing.CreditType,
			&listing.ProofLink,
			&listing.ContactInfo,
			&listing.Status,
			&listing.CreatedAt,
			&listing.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, listing)
	}
	return result, rows.Err()
}
