package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// minRedisTTL keeps a short grace window on records whose logical expiry has
// already passed by the time they are written, so the logical check still
// observes them rather than racing an instant reclamation.
const minRedisTTL = time.Minute

// RedisStore implements Store on Redis. Records are JSON blobs under
// "session:<id>" with a native TTL derived from ExpiresAt, so Redis reclaims
// dead sessions on its own as a secondary cleanup mechanism.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Put upserts the full record atomically with a TTL matching its expiry.
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrInvalidSession
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl < minRedisTTL {
		ttl = minRedisTTL
	}

	if err := s.client.Set(ctx, redisKeyPrefix+sess.ID, data, ttl).Err(); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

// Get retrieves the record by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return &sess, nil
}

// Delete removes the record. Idempotent by Redis semantics.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

// Touch rewrites only the last-activity timestamp, keeping the existing TTL.
// Best-effort read-modify-write: concurrent writers may clobber each other's
// activity timestamp, which is acceptable for a monitoring field.
func (s *RedisStore) Touch(ctx context.Context, id string, lastActivity time.Time) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	sess.LastActivityAt = lastActivity

	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+id, data, redis.KeepTTL).Err(); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}
