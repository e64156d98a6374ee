package oauth_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchbase/launchbase/pkg/oauth"
	"github.com/launchbase/launchbase/pkg/user"
)

type fakeAdapter struct {
	profile    oauth.Profile
	resolveErr error
	lastState  string
}

func (a *fakeAdapter) ProviderID() string { return "fake" }

func (a *fakeAdapter) AuthURL(state string) string {
	a.lastState = state
	return "https://provider.example/authorize?state=" + url.QueryEscape(state)
}

func (a *fakeAdapter) ResolveProfile(ctx context.Context, code string) (oauth.Profile, error) {
	if a.resolveErr != nil {
		return oauth.Profile{}, a.resolveErr
	}
	return a.profile, nil
}

func verifiedProfile() oauth.Profile {
	return oauth.Profile{
		ProviderUserID: "google-123",
		Email:          "jane@example.com",
		EmailVerified:  true,
		Name:           "Jane Doe",
		GivenName:      "Jane",
		FamilyName:     "Doe",
		Picture:        "https://lh3.example/photo.jpg",
	}
}

func TestService_Begin(t *testing.T) {
	t.Parallel()

	t.Run("returns auth url carrying stored state", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{profile: verifiedProfile()}
		states := oauth.NewMemoryStateStore()
		svc := oauth.NewService(user.NewMemoryStore(), adapter, states)

		authURL, err := svc.Begin(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, adapter.lastState)
		assert.Contains(t, authURL, url.QueryEscape(adapter.lastState))

		// The state issued must be consumable exactly once.
		require.NoError(t, states.ConsumeState(context.Background(), adapter.lastState))
		assert.ErrorIs(t, states.ConsumeState(context.Background(), adapter.lastState), oauth.ErrStateNotFound)
	})

	t.Run("unique state per call", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{}
		svc := oauth.NewService(user.NewMemoryStore(), adapter, oauth.NewMemoryStateStore())

		_, err := svc.Begin(context.Background())
		require.NoError(t, err)
		first := adapter.lastState

		_, err = svc.Begin(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, first, adapter.lastState)
	})
}

func TestService_Complete(t *testing.T) {
	t.Parallel()

	begin := func(t *testing.T, svc *oauth.Service, adapter *fakeAdapter) string {
		t.Helper()
		_, err := svc.Begin(context.Background())
		require.NoError(t, err)
		return adapter.lastState
	}

	t.Run("creates user on first sign-in", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{profile: verifiedProfile()}
		users := user.NewMemoryStore()
		svc := oauth.NewService(users, adapter, oauth.NewMemoryStateStore())

		state := begin(t, svc, adapter)
		u, err := svc.Complete(context.Background(), "code", state)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, "jane@example.com", u.Email)
		assert.Equal(t, "google-123", u.GoogleID)
		assert.Equal(t, "Jane Doe", u.Name)

		stored, err := users.FindByEmail(context.Background(), "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, stored.ID)
	})

	t.Run("returns existing user on repeat sign-in", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{profile: verifiedProfile()}
		users := user.NewMemoryStore()
		svc := oauth.NewService(users, adapter, oauth.NewMemoryStateStore())

		first, err := svc.Complete(context.Background(), "code", begin(t, svc, adapter))
		require.NoError(t, err)

		second, err := svc.Complete(context.Background(), "code", begin(t, svc, adapter))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("matches existing user by normalized email", func(t *testing.T) {
		t.Parallel()

		profile := verifiedProfile()
		profile.Email = "Jane@Example.COM"
		adapter := &fakeAdapter{profile: profile}
		users := user.NewMemoryStore()

		existing, err := user.NewUser(user.NewUserParams{Email: "jane@example.com", GoogleID: "google-123"})
		require.NoError(t, err)
		require.NoError(t, users.Create(context.Background(), existing))

		svc := oauth.NewService(users, adapter, oauth.NewMemoryStateStore())
		u, err := svc.Complete(context.Background(), "code", begin(t, svc, adapter))
		require.NoError(t, err)
		assert.Equal(t, existing.ID, u.ID)
	})

	t.Run("rejects unknown state", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{profile: verifiedProfile()}
		svc := oauth.NewService(user.NewMemoryStore(), adapter, oauth.NewMemoryStateStore())

		_, err := svc.Complete(context.Background(), "code", "never-issued")
		assert.ErrorIs(t, err, oauth.ErrInvalidState)
	})

	t.Run("rejects empty state", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{profile: verifiedProfile()}
		svc := oauth.NewService(user.NewMemoryStore(), adapter, oauth.NewMemoryStateStore())

		_, err := svc.Complete(context.Background(), "code", "")
		assert.ErrorIs(t, err, oauth.ErrInvalidState)
	})

	t.Run("rejects replayed state", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{profile: verifiedProfile()}
		svc := oauth.NewService(user.NewMemoryStore(), adapter, oauth.NewMemoryStateStore())

		state := begin(t, svc, adapter)
		_, err := svc.Complete(context.Background(), "code", state)
		require.NoError(t, err)

		_, err = svc.Complete(context.Background(), "code", state)
		assert.ErrorIs(t, err, oauth.ErrInvalidState)
	})

	t.Run("rejects expired state", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{profile: verifiedProfile()}
		svc := oauth.NewService(user.NewMemoryStore(), adapter, oauth.NewMemoryStateStore(),
			oauth.WithStateTTL(time.Nanosecond))

		state := begin(t, svc, adapter)
		time.Sleep(5 * time.Millisecond)

		_, err := svc.Complete(context.Background(), "code", state)
		assert.ErrorIs(t, err, oauth.ErrInvalidState)
	})

	t.Run("rejects unverified email by default", func(t *testing.T) {
		t.Parallel()

		profile := verifiedProfile()
		profile.EmailVerified = false
		adapter := &fakeAdapter{profile: profile}
		users := user.NewMemoryStore()
		svc := oauth.NewService(users, adapter, oauth.NewMemoryStateStore())

		_, err := svc.Complete(context.Background(), "code", begin(t, svc, adapter))
		assert.ErrorIs(t, err, oauth.ErrUnverifiedEmail)

		_, err = users.FindByEmail(context.Background(), profile.Email)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("allows unverified email when disabled", func(t *testing.T) {
		t.Parallel()

		profile := verifiedProfile()
		profile.EmailVerified = false
		adapter := &fakeAdapter{profile: profile}
		svc := oauth.NewService(user.NewMemoryStore(), adapter, oauth.NewMemoryStateStore(),
			oauth.WithVerifiedOnly(false))

		u, err := svc.Complete(context.Background(), "code", begin(t, svc, adapter))
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", u.Email)
	})

	t.Run("propagates code exchange failure", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{resolveErr: oauth.ErrInvalidCode}
		svc := oauth.NewService(user.NewMemoryStore(), adapter, oauth.NewMemoryStateStore())

		_, err := svc.Complete(context.Background(), "bad-code", begin(t, svc, adapter))
		assert.ErrorIs(t, err, oauth.ErrInvalidCode)
	})

	t.Run("state is consumed even when exchange fails", func(t *testing.T) {
		t.Parallel()

		adapter := &fakeAdapter{resolveErr: errors.New("provider down")}
		svc := oauth.NewService(user.NewMemoryStore(), adapter, oauth.NewMemoryStateStore())

		state := begin(t, svc, adapter)
		_, err := svc.Complete(context.Background(), "code", state)
		require.Error(t, err)

		adapter.resolveErr = nil
		_, err = svc.Complete(context.Background(), "code", state)
		assert.ErrorIs(t, err, oauth.ErrInvalidState)
	})
}
