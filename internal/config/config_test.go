package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_GATEWAY_OAUTH_CLIENT_ID", "client-id")
	t.Setenv("AUTH_GATEWAY_OAUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("AUTH_GATEWAY_SESSION_SECRET", "signing-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "https://accounts.google.com", cfg.OAuth.Issuer)
	assert.Equal(t, "http://localhost:5001/auth/callback", cfg.OAuth.RedirectURL)
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.OAuth.Scopes)
	assert.Equal(t, 10*time.Second, cfg.OAuth.Timeout)
	assert.Equal(t, "http://localhost:5174", cfg.Frontend.Origin)
	assert.Equal(t, "memory", cfg.Session.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "http://127.0.0.1:5000/predict-file", cfg.Processing.URL())
	assert.Equal(t, 30*time.Second, cfg.Processing.Timeout)
	assert.Equal(t, "prediction_output.csv", cfg.Upload.ArtifactName)
	assert.Equal(t, "text/csv", cfg.Upload.ArtifactType)
	assert.Equal(t, int64(32<<20), cfg.Upload.MaxMemory)
}

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Setenv("CLIENT_ID", "legacy-id")
	t.Setenv("CLIENT_SECRET", "legacy-secret")
	t.Setenv("SECRET_KEY", "legacy-key")
	t.Setenv("FRONTEND_ORIGIN", "http://localhost:3000")
	t.Setenv("MICROSERVICE_URL", "http://ml:5000/predict-file")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "legacy-id", cfg.OAuth.ClientID)
	assert.Equal(t, "legacy-secret", cfg.OAuth.ClientSecret)
	assert.Equal(t, "legacy-key", cfg.Session.Secret)
	assert.Equal(t, "http://localhost:3000", cfg.Frontend.Origin)
	assert.Equal(t, "http://ml:5000/predict-file", cfg.Processing.URL())
}

func TestLoadPrefixedOverridesLegacy(t *testing.T) {
	setRequired(t)
	t.Setenv("CLIENT_ID", "legacy-id")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "client-id", cfg.OAuth.ClientID)
}

func TestLoadConfigFileAndFlags(t *testing.T) {
	setRequired(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	content := []byte(`
session:
  driver: redis
  ttl: 1h
  redis:
    addr: redis:6379
processing:
  base_url: http://processing:8000
  path: /v1/predict
  timeout: 5s
  auth_type: bearer
  auth_config:
    token: abc
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(flags)
	require.NoError(t, flags.Parse([]string{"--config", path, "--port", "8080", "--log-level", "debug"}))

	cfg, err := Load(flags)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "redis", cfg.Session.Driver)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "redis:6379", cfg.Session.Redis.Addr)
	assert.Equal(t, "http://processing:8000/v1/predict", cfg.Processing.URL())
	assert.Equal(t, 5*time.Second, cfg.Processing.Timeout)
	assert.Equal(t, AuthTypeBearer, cfg.Processing.AuthType)
	assert.Equal(t, "abc", cfg.Processing.AuthConfig["token"])
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			OAuth:      OAuthConfig{ClientID: "id", ClientSecret: "secret"},
			Session:    SessionConfig{Secret: "s", Driver: "memory", SameSite: "lax"},
			Processing: ProcessingConfig{BaseURL: "http://localhost:5000", AuthType: AuthTypeNone},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing client id", mutate: func(c *Config) { c.OAuth.ClientID = "" }, wantErr: "oauth.client_id"},
		{name: "missing client secret", mutate: func(c *Config) { c.OAuth.ClientSecret = "" }, wantErr: "oauth.client_secret"},
		{name: "missing session secret", mutate: func(c *Config) { c.Session.Secret = "" }, wantErr: "session.secret"},
		{name: "unknown driver", mutate: func(c *Config) { c.Session.Driver = "etcd" }, wantErr: "session driver"},
		{name: "unknown same site", mutate: func(c *Config) { c.Session.SameSite = "sometimes" }, wantErr: "same_site"},
		{name: "unknown auth type", mutate: func(c *Config) { c.Processing.AuthType = "basic" }, wantErr: "auth_type"},
		{name: "missing processing url", mutate: func(c *Config) { c.Processing.BaseURL = "" }, wantErr: "processing.base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
