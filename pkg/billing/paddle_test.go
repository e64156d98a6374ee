package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchbase/launchbase/pkg/billing"
)

func TestNewPaddleProvider(t *testing.T) {
	t.Parallel()

	t.Run("requires api key", func(t *testing.T) {
		t.Parallel()

		_, err := billing.NewPaddleProvider(billing.Config{})
		assert.ErrorIs(t, err, billing.ErrNotConfigured)
	})

	t.Run("sandbox environment", func(t *testing.T) {
		t.Parallel()

		p, err := billing.NewPaddleProvider(billing.Config{APIKey: "test-key", Environment: "sandbox"})
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("production by default", func(t *testing.T) {
		t.Parallel()

		p, err := billing.NewPaddleProvider(billing.Config{APIKey: "test-key"})
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("rejects unknown environment", func(t *testing.T) {
		t.Parallel()

		_, err := billing.NewPaddleProvider(billing.Config{APIKey: "test-key", Environment: "staging"})
		assert.Error(t, err)
	})
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	assert.False(t, billing.Config{}.Enabled())
	assert.True(t, billing.Config{APIKey: "test-key"}.Enabled())
}
