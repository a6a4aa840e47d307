package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/credit-market/internal/domain"
)

// MessageRepository is the append-only store for listing thread messages.
//
// Ordering contract: Range returns ascending created_at with the message id
// as a stable tiebreak, so same-timestamp sends keep their arrival order.
// Append leaves created_at assignment to the database so the persistence
// moment, not the request moment, is the cursor key.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.Message) error
	Range(ctx context.Context, key domain.ThreadKey, after *time.Time) ([]domain.Message, error)
	ThreadsFor(ctx context.Context, userID string) ([]domain.ThreadKey, error)
	LatestByThread(ctx context.Context, key domain.ThreadKey) (*domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds the repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Append(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (listing_id, sender_id, buyer_id, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		msg.ListingID,
		msg.SenderID,
		msg.BuyerID,
		msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) Range(ctx context.Context, key domain.ThreadKey, after *time.Time) ([]domain.Message, error) {
	query := `
        SELECT id, listing_id, sender_id, buyer_id, body, created_at
        FROM messages WHERE listing_id=$1 AND buyer_id=$2`
	args := []any{key.ListingID, key.BuyerID}
	if after != nil {
		query += ` AND created_at > $3`
		args = append(args, *after)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ThreadsFor returns every thread where the user is the buyer or the seller
// of the referenced listing.
func (r *messageRepository) ThreadsFor(ctx context.Context, userID string) ([]domain.ThreadKey, error) {
	const query = `
        SELECT DISTINCT m.listing_id, m.buyer_id
        FROM messages m
        JOIN listings l ON l.id = m.listing_id
        WHERE m.buyer_id=$1 OR l.user_id=$1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.ThreadKey
	for rows.Next() {
		var key domain.ThreadKey
		if err := rows.Scan(&key.ListingID, &key.BuyerID); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *messageRepository) LatestByThread(ctx context.Context, key domain.ThreadKey) (*domain.Message, error) {
	const query = `
        SELECT id, listing_id, sender_id, buyer_id, body, created_at
        FROM messages WHERE listing_id=$1 AND buyer_id=$2
        ORDER BY created_at DESC, id DESC LIMIT 1`

	var msg domain.Message
	if err := r.pool.QueryRow(ctx, query, key.ListingID, key.BuyerID).Scan(
		&msg.ID,
		&msg.ListingID,
		&msg.SenderID,
		&msg.BuyerID,
		&msg.Body,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ListingID,
			&msg.SenderID,
			&msg.BuyerID,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
