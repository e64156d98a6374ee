package session

import "errors"

var (
	// ErrSessionNotFound indicates no valid session exists for the id. It
	// covers genuinely absent records, expired records, and store failures
	// during lookup (fail-closed for authentication).
	ErrSessionNotFound = errors.New("session: not found")

	// ErrStorageFailure indicates the backing store was unreachable or
	// errored on a write the caller depends on.
	ErrStorageFailure = errors.New("session: storage failure")

	// ErrInvalidSession indicates a store was handed an incomplete record.
	ErrInvalidSession = errors.New("session: invalid record")

	// ErrIDGeneration indicates session id generation failed.
	ErrIDGeneration = errors.New("session: id generation failed")
)
