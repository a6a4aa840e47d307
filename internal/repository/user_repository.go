package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/credit-market/internal/domain"
)

// UserRepository defines persistence access for marketplace users.
type UserRepository interface {
	UpsertByGitHubID(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// UpsertByGitHubID inserts the user on first login and refreshes the GitHub
// profile fields on subsequent logins.
func (r *userRepository) UpsertByGitHubID(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (github_id, username, avatar_url)
        VALUES ($1, $2, $3)
        ON CONFLICT (github_id) DO UPDATE SET username=EXCLUDED.username, avatar_url=EXCLUDED.avatar_url
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		user.GitHubID,
		user.Username,
		user.AvatarURL,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, github_id, username, avatar_url, created_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.GitHubID,
		&user.Username,
		&user.AvatarURL,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT id, github_id, username, avatar_url, created_at
        FROM users WHERE username=$1
        ORDER BY created_at ASC LIMIT 1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.GitHubID,
		&user.Username,
		&user.AvatarURL,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count)
	return count, err
}
