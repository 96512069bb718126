package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketloom/socialconnect/internal/config"
	"github.com/marketloom/socialconnect/internal/domain"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_BASE_URL", "https://app.example.com/")
	t.Setenv("SESSION_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/socialconnect")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	// Trailing slash is stripped so redirect URIs never double up.
	require.Equal(t, "https://app.example.com", cfg.AppBaseURL)
	require.Equal(t, "https://app.example.com", cfg.AppOrigin())
	require.Equal(t, 10*time.Minute, cfg.StateTTL)
	require.Len(t, cfg.SessionKey, 32)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_BASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsShortSessionKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_SIGNING_KEY", "too-short")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadPlatformCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TWITTER_CLIENT_ID", "tw-id")
	t.Setenv("TWITTER_CLIENT_SECRET", "tw-secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	creds, ok := cfg.Platforms[domain.PlatformTwitter]
	require.True(t, ok)
	require.Equal(t, "tw-id", creds.ClientID)
	require.Equal(t, "tw-secret", creds.ClientSecret)
}
