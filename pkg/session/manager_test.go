package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchbase/launchbase/pkg/session"
)

// spyStore wraps a Store and records calls, so tests can observe background
// store activity.
type spyStore struct {
	session.Store

	mu          sync.Mutex
	deleteCalls []string
	touchCalls  []string
	putErr      error
	getErr      error
	deleteErr   error
}

func newSpyStore(t *testing.T) *spyStore {
	t.Helper()
	inner := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = inner.Close() })
	return &spyStore{Store: inner}
}

func (s *spyStore) Put(ctx context.Context, sess *session.Session) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.Store.Put(ctx, sess)
}

func (s *spyStore) Get(ctx context.Context, id string) (*session.Session, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.Get(ctx, id)
}

func (s *spyStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.deleteCalls = append(s.deleteCalls, id)
	s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.Delete(ctx, id)
}

func (s *spyStore) Touch(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	s.touchCalls = append(s.touchCalls, id)
	s.mu.Unlock()
	return s.Store.Touch(ctx, id, at)
}

func (s *spyStore) deleteCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, call := range s.deleteCalls {
		if call == id {
			n++
		}
	}
	return n
}

func (s *spyStore) touchCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, call := range s.touchCalls {
		if call == id {
			n++
		}
	}
	return n
}

func newManager(t *testing.T, store session.Store, opts ...session.Option) *session.Manager {
	t.Helper()
	m := session.New(store, opts...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func testIdentity() session.Identity {
	return session.Identity{
		UserID:    "u1",
		UserEmail: "a@x.com",
		UserName:  "A",
	}
}

func TestManager_Create(t *testing.T) {
	t.Parallel()

	t.Run("round trip preserves identity and sets expiry window", func(t *testing.T) {
		t.Parallel()

		m := newManager(t, newSpyStore(t))

		before := time.Now()
		id, err := m.Create(context.Background(), testIdentity())
		require.NoError(t, err)
		require.NotEmpty(t, id)

		sess, err := m.Validate(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "u1", sess.UserID)
		assert.Equal(t, "a@x.com", sess.UserEmail)
		assert.Equal(t, "A", sess.UserName)
		assert.WithinDuration(t, sess.CreatedAt.Add(24*time.Hour), sess.ExpiresAt, time.Second)
		assert.WithinDuration(t, before.Add(24*time.Hour), sess.ExpiresAt, 5*time.Second)
	})

	t.Run("ids are unique and time ordered", func(t *testing.T) {
		t.Parallel()

		m := newManager(t, newSpyStore(t))

		first, err := m.Create(context.Background(), testIdentity())
		require.NoError(t, err)
		second, err := m.Create(context.Background(), testIdentity())
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.Less(t, first, second)
	})

	t.Run("surfaces storage failure", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		store.putErr = errors.New("backend down")
		m := newManager(t, store)

		id, err := m.Create(context.Background(), testIdentity())
		assert.Empty(t, id)
		assert.ErrorIs(t, err, session.ErrStorageFailure)
	})
}

func TestManager_Validate(t *testing.T) {
	t.Parallel()

	t.Run("empty id is absent without store lookup", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		store.getErr = errors.New("should not be called")
		m := newManager(t, store)

		_, err := m.Validate(context.Background(), "")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("unknown id is absent", func(t *testing.T) {
		t.Parallel()

		m := newManager(t, newSpyStore(t))

		_, err := m.Validate(context.Background(), "no-such-session")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("store error is fail-closed", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		store.getErr = errors.New("backend down")
		m := newManager(t, store)

		_, err := m.Validate(context.Background(), "any-id")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("expired record is absent before physical reclamation", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		m := newManager(t, store)

		expired := session.NewSession("expired-1", testIdentity(), 24*time.Hour)
		expired.ExpiresAt = time.Now().Add(-time.Second)
		require.NoError(t, store.Put(context.Background(), expired))

		_, err := m.Validate(context.Background(), "expired-1")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("expired record gets exactly one async delete", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		m := newManager(t, store)

		expired := session.NewSession("expired-2", testIdentity(), 24*time.Hour)
		expired.ExpiresAt = time.Now().Add(-time.Second)
		require.NoError(t, store.Put(context.Background(), expired))

		_, err := m.Validate(context.Background(), "expired-2")
		require.ErrorIs(t, err, session.ErrSessionNotFound)

		require.Eventually(t, func() bool {
			return store.deleteCount("expired-2") == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("valid hit dispatches an activity touch", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		m := newManager(t, store)

		id, err := m.Create(context.Background(), testIdentity())
		require.NoError(t, err)

		_, err = m.Validate(context.Background(), id)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return store.touchCount(id) == 1
		}, time.Second, 10*time.Millisecond)

		sess, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, sess.LastActivityAt.IsZero())
	})
}

func TestManager_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("updates snapshot and slides expiry, preserves identity", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		m := newManager(t, store)

		id, err := m.Create(context.Background(), testIdentity())
		require.NoError(t, err)

		orig, err := store.Get(context.Background(), id)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		newName := "New Name"
		refreshed, err := m.Refresh(context.Background(), id, &session.IdentityUpdate{UserName: &newName})
		require.NoError(t, err)

		assert.Equal(t, "New Name", refreshed.UserName)
		assert.Equal(t, orig.UserID, refreshed.UserID)
		assert.Equal(t, orig.CreatedAt, refreshed.CreatedAt)
		assert.True(t, refreshed.ExpiresAt.After(orig.ExpiresAt))
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), refreshed.ExpiresAt, 5*time.Second)
	})

	t.Run("nil update only slides expiry", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		m := newManager(t, store)

		id, err := m.Create(context.Background(), testIdentity())
		require.NoError(t, err)

		refreshed, err := m.Refresh(context.Background(), id, nil)
		require.NoError(t, err)
		assert.Equal(t, "A", refreshed.UserName)
	})

	t.Run("absent session cannot be refreshed", func(t *testing.T) {
		t.Parallel()

		m := newManager(t, newSpyStore(t))

		_, err := m.Refresh(context.Background(), "no-such-session", nil)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("write failure collapses to absent", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		m := newManager(t, store)

		id, err := m.Create(context.Background(), testIdentity())
		require.NoError(t, err)

		store.putErr = errors.New("backend down")
		_, err = m.Refresh(context.Background(), id, nil)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}

func TestManager_Destroy(t *testing.T) {
	t.Parallel()

	t.Run("create validate destroy validate", func(t *testing.T) {
		t.Parallel()

		m := newManager(t, newSpyStore(t))

		id, err := m.Create(context.Background(), testIdentity())
		require.NoError(t, err)

		sess, err := m.Validate(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "u1", sess.UserID)

		m.Destroy(context.Background(), id)

		_, err = m.Validate(context.Background(), id)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		m := newManager(t, newSpyStore(t))

		id, err := m.Create(context.Background(), testIdentity())
		require.NoError(t, err)

		m.Destroy(context.Background(), id)
		m.Destroy(context.Background(), id)

		_, err = m.Validate(context.Background(), id)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		store.deleteErr = errors.New("backend down")
		m := newManager(t, store)

		assert.NotPanics(t, func() {
			m.Destroy(context.Background(), "any-id")
		})
	})
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	t.Run("drains queued tasks", func(t *testing.T) {
		t.Parallel()

		store := newSpyStore(t)
		m := session.New(store)

		expired := session.NewSession("expired-3", testIdentity(), 24*time.Hour)
		expired.ExpiresAt = time.Now().Add(-time.Second)
		require.NoError(t, store.Put(context.Background(), expired))

		_, err := m.Validate(context.Background(), "expired-3")
		require.ErrorIs(t, err, session.ErrSessionNotFound)

		require.NoError(t, m.Close())

		require.Eventually(t, func() bool {
			return store.deleteCount("expired-3") == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("safe to call twice", func(t *testing.T) {
		t.Parallel()

		m := session.New(newSpyStore(t))
		require.NoError(t, m.Close())
		require.NoError(t, m.Close())
	})
}
