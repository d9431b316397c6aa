package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("AUTH_CREDENTIAL_MODE", "")
	t.Setenv("AUTH_CREDENTIAL_TTL_MINUTES", "")
	t.Setenv("AUTH_PASSWORD_RESET_TTL_MINUTES", "")
	t.Setenv("APP_HOST", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("REDIS_DB", "")
	t.Setenv("REDIS_TIMEOUT_MS", "")
	t.Setenv("AUTH_SESSION_PRUNE_MINUTES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CredentialModeJWT, cfg.Auth.CredentialMode)
	assert.Equal(t, 500*time.Millisecond, cfg.Redis.Timeout())
	assert.Equal(t, time.Hour, cfg.Auth.SessionPruneInterval())
	assert.Equal(t, 24*time.Hour, cfg.Auth.CredentialTTL())
	assert.Equal(t, 30*time.Minute, cfg.Auth.PasswordResetTTL())
	assert.Equal(t, "0.0.0.0:5000", cfg.App.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_HOST", "")
	t.Setenv("REDIS_DB", "")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_CREDENTIAL_MODE", "SESSION")
	t.Setenv("AUTH_CREDENTIAL_TTL_MINUTES", "90")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("REDIS_TIMEOUT_MS", "0")
	t.Setenv("AUTH_SESSION_PRUNE_MINUTES", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CredentialModeSession, cfg.Auth.CredentialMode)
	assert.Equal(t, 90*time.Minute, cfg.Auth.CredentialTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Zero(t, cfg.Redis.Timeout())
	assert.Zero(t, cfg.Auth.SessionPruneInterval())
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:  AppConfig{Env: "development"},
			Auth: AuthConfig{JWTSecret: defaultJWTSecret, CredentialMode: CredentialModeJWT, CredentialTTLMinutes: 60, PasswordResetTTLMinutes: 30},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown mode", mutate: func(c *Config) { c.Auth.CredentialMode = "cookie" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.CredentialTTLMinutes = 0 }, wantErr: true},
		{name: "zero reset ttl", mutate: func(c *Config) { c.Auth.PasswordResetTTLMinutes = -1 }, wantErr: true},
		{name: "default secret in production", mutate: func(c *Config) { c.App.Env = "production" }, wantErr: true},
		{name: "custom secret in production", mutate: func(c *Config) {
			c.App.Env = "production"
			c.Auth.JWTSecret = "s3cr3t"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
	assert.Equal(t, 15*time.Second, AppConfig{RequestTimeoutSeconds: 15}.RequestTimeout())
}
