package oauth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore persists one-time CSRF state tokens for the authorization flow.
type StateStore interface {
	// StoreState records a state token valid until expiresAt.
	StoreState(ctx context.Context, state string, expiresAt time.Time) error

	// ConsumeState atomically checks that the token exists and removes it.
	// Returns ErrStateNotFound when the token is unknown, expired or was
	// already consumed. Atomicity prevents replay via concurrent callbacks.
	ConsumeState(ctx context.Context, state string) error
}

const stateKeyPrefix = "oauthstate:"

// RedisStateStore implements StateStore on Redis with native TTL expiry.
type RedisStateStore struct {
	client redis.UniversalClient
}

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// StoreState records the token with a TTL until expiresAt.
func (s *RedisStateStore) StoreState(ctx context.Context, state string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return ErrStateNotFound
	}
	return s.client.Set(ctx, stateKeyPrefix+state, 1, ttl).Err()
}

// ConsumeState deletes the token; a zero delete count means it never existed
// or already expired.
func (s *RedisStateStore) ConsumeState(ctx context.Context, state string) error {
	n, err := s.client.Del(ctx, stateKeyPrefix+state).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStateNotFound
	}
	return nil
}

// MemoryStateStore implements StateStore in memory. Intended for tests.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

// NewMemoryStateStore creates an in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]time.Time)}
}

// StoreState records the token.
func (s *MemoryStateStore) StoreState(ctx context.Context, state string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = expiresAt
	return nil
}

// ConsumeState removes the token, enforcing expiry.
func (s *MemoryStateStore) ConsumeState(ctx context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, exists := s.states[state]
	if !exists {
		return ErrStateNotFound
	}
	delete(s.states, state)

	if time.Now().After(expiresAt) {
		return ErrStateNotFound
	}
	return nil
}

var (
	_ StateStore = (*RedisStateStore)(nil)
	_ StateStore = (*MemoryStateStore)(nil)
)
