package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func requiredValues() map[string]interface{} {
	return map[string]interface{}{
		"DB_DSN":            "postgres://localhost/complaints",
		"JWT_ACCESS_SECRET": "secret",
		"GEMINI_API_KEY":    "key",
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(requiredValues()))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, 12*time.Hour, cfg.Auth.AccessTTL)
	assert.False(t, cfg.Auth.SignupEnabled)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.AI.Model)
	assert.Equal(t, "http://localhost:7090/media", cfg.Storage.PublicBaseURL)
	assert.Equal(t, int64(4*1024*1024), cfg.Storage.MaxImageBytes)
	assert.Equal(t, RealtimeSourcePostgres, cfg.Realtime.Source)
	assert.Equal(t, 20, cfg.Limits.SubmissionsPerDay)
	assert.False(t, cfg.RateLimitEnabled())
}

func TestOverrides(t *testing.T) {
	values := requiredValues()
	values["APP_ENV"] = "production"
	values["HTTP_PORT"] = 8080
	values["STORAGE_PUBLIC_BASE_URL"] = "https://cdn.example.org/media/"
	values["REALTIME_SOURCE"] = " LOCAL "
	values["REDIS_ADDR"] = "localhost:6379"
	values["JWT_ACCESS_TTL"] = "30m"

	cfg, err := fromViper(newViper(values))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "https://cdn.example.org/media", cfg.Storage.PublicBaseURL)
	assert.Equal(t, RealtimeSourceLocal, cfg.Realtime.Source)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL)
	assert.True(t, cfg.RateLimitEnabled())
}

func TestValidation(t *testing.T) {
	for _, key := range []string{"DB_DSN", "JWT_ACCESS_SECRET", "GEMINI_API_KEY"} {
		t.Run(key, func(t *testing.T) {
			values := requiredValues()
			delete(values, key)
			_, err := fromViper(newViper(values))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}

	t.Run("unknown realtime source", func(t *testing.T) {
		values := requiredValues()
		values["REALTIME_SOURCE"] = "kafka"
		_, err := fromViper(newViper(values))
		require.Error(t, err)
	})
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://env/complaints")
	t.Setenv("JWT_ACCESS_SECRET", "env-secret")
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("HTTP_PORT", "9001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/complaints", cfg.DB.DSN)
	assert.Equal(t, 9001, cfg.HTTP.Port)
}
