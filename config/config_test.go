package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults in test environment", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "test")
		t.Setenv("DATABASE_URL", "")

		cfg, err := load()
		require.NoError(t, err)

		assert.Equal(t, 2, cfg.DefaultMinPlayers)
		assert.Equal(t, 10, cfg.DefaultMaxPlayers)
		assert.Equal(t, 5, cfg.DefaultCommissionRate)
		assert.Equal(t, 5*time.Second, cfg.LockTimeout)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 24*time.Hour, cfg.ScoreboardInterval)
	})

	t.Run("parses overrides", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("DATABASE_URL", "postgres://localhost:5432")
		t.Setenv("LOCK_TIMEOUT", "750ms")
		t.Setenv("ROUND_DURATION", "2m")
		t.Setenv("DEFAULT_COMMISSION_RATE", "10")
		t.Setenv("ADMIN_USER_IDS", "7, 42,")

		cfg, err := load()
		require.NoError(t, err)

		assert.Equal(t, 750*time.Millisecond, cfg.LockTimeout)
		assert.Equal(t, 2*time.Minute, cfg.RoundDuration)
		assert.Equal(t, 10, cfg.DefaultCommissionRate)
		assert.Equal(t, []int64{7, 42}, cfg.AdminUserIDs)
		assert.True(t, cfg.IsAdmin(42))
		assert.False(t, cfg.IsAdmin(8))
	})

	t.Run("requires database URL outside tests", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("DATABASE_URL", "")

		_, err := load()
		assert.ErrorContains(t, err, "DATABASE_URL is required")
	})

	t.Run("rejects commission above cap", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("DATABASE_URL", "postgres://localhost:5432")
		t.Setenv("DEFAULT_COMMISSION_RATE", "25")

		_, err := load()
		assert.ErrorContains(t, err, "DEFAULT_COMMISSION_RATE")
	})

	t.Run("rejects malformed duration", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "test")
		t.Setenv("LOCK_TIMEOUT", "soon")

		_, err := load()
		assert.ErrorContains(t, err, "LOCK_TIMEOUT")
	})
}
