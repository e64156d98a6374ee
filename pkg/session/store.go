package session

import (
	"context"
	"time"
)

// Store defines durable persistence for session records keyed by session id.
//
// Implementations may reclaim expired records on their own schedule (native
// TTL, cleanup ticker); that physical cleanup is best-effort only. The
// Manager's logical expiry check remains authoritative, so Get must return
// whatever record is physically present, expired or not.
type Store interface {
	// Put upserts a complete record atomically.
	Put(ctx context.Context, session *Session) error

	// Get retrieves a record by id. Returns ErrSessionNotFound when absent;
	// never returns a partially populated record.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a record by id. Idempotent: deleting a missing id is
	// not an error.
	Delete(ctx context.Context, id string) error

	// Touch updates only the last-activity timestamp. Best-effort: callers
	// never fail their request on a Touch error.
	Touch(ctx context.Context, id string, lastActivity time.Time) error
}
