package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/chathub-go/apperror"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_USER", "chathub")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "chathub_test")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 10, cfg.DB.MaxSize)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, 5*time.Minute, cfg.Presence.OnlineWindow)
	assert.Equal(t, 100, cfg.Feed.DefaultLimit)
	assert.Equal(t, 500, cfg.Feed.MaxLimit)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.StatsInterval)
	assert.Equal(t, "./migrations", cfg.Server.MigrationsPath)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("PRESENCE_ONLINE_WINDOW", "90s")
	t.Setenv("FEED_DEFAULT_LIMIT", "25")
	t.Setenv("FEED_MAX_LIMIT", "50")
	t.Setenv("STATS_INTERVAL", "0s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 5433, cfg.DB.Port)
	assert.Equal(t, 90*time.Second, cfg.Presence.OnlineWindow)
	assert.Equal(t, 25, cfg.Feed.DefaultLimit)
	assert.Equal(t, 50, cfg.Feed.MaxLimit)
	assert.Equal(t, time.Duration(0), cfg.Server.StatsInterval)
}

func TestLoadConfigCollectsAllErrors(t *testing.T) {
	// Only one required variable set: the error must name every missing one
	// plus the invalid int, in a single pass. t.Setenv before Unsetenv keeps
	// the restore-on-cleanup behavior.
	for _, key := range []string{"DB_PASSWORD", "DB_NAME", "JWT_SECRET"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("DB_USER", "chathub")
	t.Setenv("DB_PORT", "not-a-number")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.ConfigError))
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "DB_NAME")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_PORT")
}

func TestLoadConfigRejectsBadLimits(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FEED_DEFAULT_LIMIT", "100")
	t.Setenv("FEED_MAX_LIMIT", "10")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed limits")
}

func TestLoadConfigRejectsNonPositiveWindow(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PRESENCE_ONLINE_WINDOW", "-1m")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRESENCE_ONLINE_WINDOW")
}
