package redis

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/enewspaper/newsroom/internal/core/domain"
)

const sessionIDBytes = 32

// sessionClient is the subset of *redis.Client the store needs.
type sessionClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SessionStore keeps session id -> account id mappings in Redis.
// Key format: session:<sha256(session_id)>
type SessionStore struct {
	client sessionClient
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client sessionClient) *SessionStore {
	return &SessionStore{client: client}
}

// Create stores a new random session for accountID that expires after ttl.
func (s *SessionStore) Create(ctx context.Context, accountID string, ttl time.Duration) (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").Wrap(err)
	}
	id := hex.EncodeToString(b)

	if err := s.client.Set(ctx, s.key(id), accountID, ttl).Err(); err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").With("operation", "redis set").Wrap(err)
	}
	return id, nil
}

// Get returns the account bound to sessionID or domain.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", domain.ErrSessionNotFound
	}
	accountID, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrSessionNotFound
	}
	if err != nil {
		return "", oops.Code("SESSION_LOOKUP_FAILED").With("operation", "redis get").Wrap(err)
	}
	return accountID, nil
}

// Delete removes the session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

// key hashes the id so raw session cookies never appear in Redis.
func (s *SessionStore) key(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return "session:" + hex.EncodeToString(sum[:])
}
