package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("NEXTAUTH_SECRET", "test-secret-32-bytes-xxxxxxxxxxx")
	t.Setenv("USER_SERVICE_URL", "http://users.internal:8001")
	t.Setenv("API_FRONTEND_USER_KEY", "user-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Services.GatewayURL)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.SessionTTL)
}

func TestLoadMissingSecretNamesVariable(t *testing.T) {
	t.Setenv("NEXTAUTH_SECRET", "")
	t.Setenv("USER_SERVICE_URL", "http://users.internal:8001")
	t.Setenv("API_FRONTEND_USER_KEY", "user-key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEXTAUTH_SECRET")
}

func TestLoadMissingServiceKeyNamesVariable(t *testing.T) {
	t.Setenv("NEXTAUTH_SECRET", "test-secret-32-bytes-xxxxxxxxxxx")
	t.Setenv("USER_SERVICE_URL", "http://users.internal:8001")
	t.Setenv("API_FRONTEND_USER_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_FRONTEND_USER_KEY")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("NEXT_PUBLIC_GATEWAY_URL", "https://gw.briefly.app")
	t.Setenv("CHAT_SERVICE_URL", "http://chat.internal:8002")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gw.briefly.app", cfg.Services.GatewayURL)
	assert.Equal(t, "http://chat.internal:8002", cfg.Services.ChatURL)
	assert.True(t, cfg.RateLimit.Enabled)
}
