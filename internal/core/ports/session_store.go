package ports

import (
	"context"
	"time"
)

// SessionStore keeps the server-side half of browser sessions.
type SessionStore interface {
	// Create binds a new random session id to accountID for ttl.
	Create(ctx context.Context, accountID string, ttl time.Duration) (string, error)
	// Get returns the account id, or domain.ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}
