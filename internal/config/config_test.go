package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("LMS_ENV", "")
	t.Setenv("LMS_TIMEZONE", "")
	path := writeConfig(t, `
env: production
timezone: Asia/Kolkata
server:
  port: "9000"
auth:
  jwtSecret: file-secret-0123456789
quiz:
  ttl: 2m
  allowMultipleAttemptsPerTopic: false
`)
	t.Setenv("PORT", "9100")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "file-secret-0123456789", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Quiz.AllowMultipleAttemptsPerTopic)
	assert.Equal(t, 2*time.Minute, TTLDuration(cfg.Quiz.TTL, time.Minute))
	assert.Equal(t, "24h", cfg.Auth.TokenTTL, "unset keys keep defaults")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret-0123456789")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.True(t, cfg.Quiz.AllowMultipleAttemptsPerTopic)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"short secret": "auth:\n  jwtSecret: short\n",
		"bad timezone": "timezone: Mars/Olympus\nauth:\n  jwtSecret: long-enough-secret-123\n",
		"bad env":      "env: staging\nauth:\n  jwtSecret: long-enough-secret-123\n",
	}
	t.Setenv("JWT_SECRET", "")
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsBadAttemptsFlag(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret-0123456789")
	t.Setenv("LMS_ALLOW_MULTIPLE_ATTEMPTS", "maybe")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestTTLDuration(t *testing.T) {
	t.Parallel()
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
	assert.Equal(t, 90*time.Second, TTLDuration("90s", time.Minute))
}
