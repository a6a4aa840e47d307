package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/credit-market/internal/domain"
)

// DirectMessageRepository stores user-to-user messages.
type DirectMessageRepository interface {
	Append(ctx context.Context, msg *domain.DirectMessage) error
	ListBetween(ctx context.Context, userA, userB string, after *time.Time) ([]domain.DirectMessage, error)
}

type directMessageRepository struct {
	pool *pgxpool.Pool
}

// NewDirectMessageRepository builds the repository.
func NewDirectMessageRepository(pool *pgxpool.Pool) DirectMessageRepository {
	return &directMessageRepository{pool: pool}
}

func (r *directMessageRepository) Append(ctx context.Context, msg *domain.DirectMessage) error {
	const query = `
        INSERT INTO direct_messages (sender_id, receiver_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		msg.SenderID,
		msg.ReceiverID,
		msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *directMessageRepository) ListBetween(ctx context.Context, userA, userB string, after *time.Time) ([]domain.DirectMessage, error) {
	query := `
        SELECT id, sender_id, receiver_id, body, created_at
        FROM direct_messages
        WHERE ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))`
	args := []any{userA, userB}
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

	var result []domain.DirectMessage
	for rows.Next() {
		var msg domain.DirectMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
