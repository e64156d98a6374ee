package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchbase/launchbase/modules/account"
	"github.com/launchbase/launchbase/pkg/session"
	"github.com/launchbase/launchbase/pkg/user"
)

type fixture struct {
	sessions *session.Manager
	users    *user.MemoryStore
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	sessions := session.New(store)
	t.Cleanup(func() { _ = sessions.Close() })

	users := user.NewMemoryStore()

	r := chi.NewRouter()
	r.Use(sessions.RequireSession)
	r.Mount("/", account.Router(account.Deps{
		Sessions: sessions,
		Users:    users,
		Deletion: account.NewDeletionService(users, nil, nil, nil),
	}))

	return &fixture{sessions: sessions, users: users, handler: r}
}

func (f *fixture) signIn(t *testing.T) (*user.User, string) {
	t.Helper()

	u, err := user.NewUser(user.NewUserParams{Email: "jane@example.com", GoogleID: "g1", Name: "Jane Doe"})
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), u))

	id, err := f.sessions.Create(context.Background(), session.Identity{
		UserID:    u.ID,
		UserEmail: u.Email,
		UserName:  u.Name,
	})
	require.NoError(t, err)
	return u, id
}

func (f *fixture) do(method, path, sessionID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "app_session", Value: sessionID})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestGetMe(t *testing.T) {
	t.Parallel()

	t.Run("returns the signed-in user", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		u, id := f.signIn(t)

		rec := f.do(http.MethodGet, "/me", id, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "jane@example.com", got.Email)
	})

	t.Run("requires a session", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		rec := f.do(http.MethodGet, "/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user gone is a 404", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		u, id := f.signIn(t)
		require.NoError(t, f.users.Delete(context.Background(), u.ID))

		rec := f.do(http.MethodGet, "/me", id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPatchMe(t *testing.T) {
	t.Parallel()

	t.Run("applies a partial update and returns the user", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, id := f.signIn(t)

		rec := f.do(http.MethodPatch, "/me", id, `{"name":"New Name","givenName":"New"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var got user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "New Name", got.Name)
		assert.Equal(t, "New", got.GivenName)
		assert.Equal(t, "jane@example.com", got.Email)
	})

	t.Run("updates the session snapshot on name change", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, id := f.signIn(t)

		rec := f.do(http.MethodPatch, "/me", id, `{"name":"New Name"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		sess, err := f.sessions.Validate(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "New Name", sess.UserName)
	})

	t.Run("rejects an empty update", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, id := f.signIn(t)

		rec := f.do(http.MethodPatch, "/me", id, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, id := f.signIn(t)

		rec := f.do(http.MethodPatch, "/me", id, `{"email":"evil@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a blank name", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, id := f.signIn(t)

		rec := f.do(http.MethodPatch, "/me", id, `{"name":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects oversized values", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, id := f.signIn(t)

		rec := f.do(http.MethodPatch, "/me", id, `{"name":"`+strings.Repeat("x", 300)+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()

	t.Run("removes the user and kills the session", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		u, id := f.signIn(t)

		rec := f.do(http.MethodDelete, "/account", id, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")

		_, err := f.users.FindByID(context.Background(), u.ID)
		assert.ErrorIs(t, err, user.ErrUserNotFound)

		_, err = f.sessions.Validate(context.Background(), id)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("user already gone is a 404", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		u, id := f.signIn(t)
		require.NoError(t, f.users.Delete(context.Background(), u.ID))

		rec := f.do(http.MethodDelete, "/account", id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
