package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth_state:"

// StateStore keeps pending OAuth state nonces in Redis so the callback can
// prove the login leg originated here. Entries expire on their own.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateStore constructs the store.
func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

// Put registers a state nonce.
func (s *StateStore) Put(ctx context.Context, state string) error {
	return s.client.Set(ctx, stateKeyPrefix+state, "1", s.ttl).Err()
}

// Consume validates and burns a state nonce. Returns false for unknown,
// expired, or replayed states.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	res, err := s.client.GetDel(ctx, stateKeyPrefix+state).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res != "", nil
}
