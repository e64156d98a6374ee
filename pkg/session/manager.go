package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/launchbase/launchbase/pkg/logger"
)

// Manager owns the session lifecycle: it creates, validates, refreshes and
// destroys session records against an injected Store.
//
// Activity touches and expiry deletions never run on the request path. They
// are dispatched to a background worker through a bounded queue; their only
// failure channel is the manager's logger.
type Manager struct {
	store Store
	codec *CookieCodec
	cfg   Config
	log   *slog.Logger
	tasks chan storeTask
	done  chan struct{}
}

type taskKind uint8

const (
	taskTouch taskKind = iota
	taskReap
)

type storeTask struct {
	kind taskKind
	id   string
	at   time.Time
}

// New creates a session manager backed by the given store. The store is
// required; there is no implicit process-wide default.
func New(store Store, opts ...Option) *Manager {
	if store == nil {
		panic("session: store is required")
	}

	m := &Manager{
		store: store,
		cfg:   DefaultConfig(),
		log:   slog.New(slog.DiscardHandler),
		done:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.codec == nil {
		m.codec = NewCookieCodec(m.cfg.CookieName, m.cfg.SecureCookies)
	}

	if m.cfg.TaskQueueSize <= 0 {
		m.cfg.TaskQueueSize = DefaultConfig().TaskQueueSize
	}
	m.tasks = make(chan storeTask, m.cfg.TaskQueueSize)

	go m.worker()

	return m
}

// Codec returns the cookie codec the manager was configured with, so route
// handlers can set and clear the session cookie themselves.
func (m *Manager) Codec() *CookieCodec {
	return m.codec
}

// TTL returns the fixed sliding expiry window.
func (m *Manager) TTL() time.Duration {
	return m.cfg.TTL
}

// Create generates a new session for the given identity and writes it to the
// store. It returns the opaque session id to be set as the cookie value.
//
// A storage failure is surfaced to the caller: no cookie must be issued for a
// session that was never persisted.
func (m *Manager) Create(ctx context.Context, identity Identity) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", err
	}

	sess := NewSession(id, identity, m.cfg.TTL)
	if err := m.store.Put(ctx, sess); err != nil {
		return "", errors.Join(ErrStorageFailure, err)
	}

	return id, nil
}

// Validate resolves a session id to its record.
//
// Every uncertain outcome collapses to ErrSessionNotFound: empty id, missing
// record, store failure (fail-closed, logged) and logical expiry. An expired
// record additionally gets a best-effort asynchronous deletion dispatched;
// the caller never waits on it. A valid hit dispatches a non-blocking
// activity touch whose outcome cannot affect the returned result.
func (m *Manager) Validate(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.log.Error("session lookup failed",
				logger.Error(err),
				logger.SessionID(id),
				logger.Component("session"),
			)
		}
		return nil, ErrSessionNotFound
	}

	if sess.IsExpired() {
		m.dispatch(storeTask{kind: taskReap, id: id})
		return nil, ErrSessionNotFound
	}

	m.dispatch(storeTask{kind: taskTouch, id: id, at: time.Now()})

	return sess, nil
}

// Refresh revalidates the session, merges the given identity snapshot fields
// and slides the expiry window to now + TTL. The write is a plain
// read-modify-write: concurrent refreshes race and the last write wins.
func (m *Manager) Refresh(ctx context.Context, id string, upd *IdentityUpdate) (*Session, error) {
	sess, err := m.Validate(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess.apply(upd)
	sess.ExpiresAt = now.Add(m.cfg.TTL)
	sess.LastActivityAt = now

	if err := m.store.Put(ctx, sess); err != nil {
		m.log.Error("session refresh write failed",
			logger.Error(err),
			logger.SessionID(id),
			logger.Component("session"),
		)
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

// Destroy removes the session unconditionally. It is idempotent and never
// fails the caller: a store error is logged and swallowed.
func (m *Manager) Destroy(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := m.store.Delete(ctx, id); err != nil {
		m.log.Error("session destroy failed",
			logger.Error(err),
			logger.SessionID(id),
			logger.Component("session"),
		)
	}
}

// dispatch queues a background store task without blocking the request path.
func (m *Manager) dispatch(t storeTask) {
	select {
	case m.tasks <- t:
	default:
		m.log.Warn("session task queue full, dropping task",
			logger.SessionID(t.id),
			logger.Component("session"),
		)
	}
}

// worker drains background tasks until Close.
func (m *Manager) worker() {
	for {
		select {
		case t := <-m.tasks:
			m.run(t)
		case <-m.done:
			for {
				select {
				case t := <-m.tasks:
					m.run(t)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) run(t storeTask) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch t.kind {
	case taskTouch:
		if err := m.store.Touch(ctx, t.id, t.at); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.log.Error("session activity touch failed",
				logger.Error(err),
				logger.SessionID(t.id),
				logger.Component("session"),
			)
		}
	case taskReap:
		if err := m.store.Delete(ctx, t.id); err != nil {
			m.log.Error("expired session cleanup failed",
				logger.Error(err),
				logger.SessionID(t.id),
				logger.Component("session"),
			)
		}
	}
}

// Close shuts down the background worker, draining queued tasks first.
// Safe for repeated calls.
func (m *Manager) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	return nil
}

// generateID produces a time-ordered opaque session id. UUIDv7 keeps ids
// monotonically sortable by creation instant.
func generateID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", errors.Join(ErrIDGeneration, err)
	}
	return id.String(), nil
}
