package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchbase/launchbase/pkg/user"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("builds a complete record", func(t *testing.T) {
		t.Parallel()

		u, err := user.NewUser(user.NewUserParams{
			Email:     "Jane@Example.com",
			GoogleID:  "google-123",
			Name:      "Jane Doe",
			GivenName: "Jane",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, "jane@example.com", u.Email)
		assert.Equal(t, "google-123", u.GoogleID)
		assert.False(t, u.CreatedAt.IsZero())
		assert.Equal(t, u.CreatedAt, u.UpdatedAt)
	})

	t.Run("requires email and google id", func(t *testing.T) {
		t.Parallel()

		_, err := user.NewUser(user.NewUserParams{GoogleID: "google-123"})
		assert.Error(t, err)

		_, err = user.NewUser(user.NewUserParams{Email: "jane@example.com"})
		assert.Error(t, err)
	})

	t.Run("ids are unique", func(t *testing.T) {
		t.Parallel()

		a, err := user.NewUser(user.NewUserParams{Email: "a@example.com", GoogleID: "g1"})
		require.NoError(t, err)
		b, err := user.NewUser(user.NewUserParams{Email: "b@example.com", GoogleID: "g2"})
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jane@example.com", user.NormalizeEmail("  Jane@EXAMPLE.com "))
	assert.Equal(t, "", user.NormalizeEmail("   "))
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, user.ProfileUpdate{}.IsEmpty())

	name := "Jane"
	assert.False(t, user.ProfileUpdate{Name: &name}.IsEmpty())
}
