package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_ValidConfig tests loading a valid configuration
func TestLoad_ValidConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "simple404.yaml")

	configContent := `
server:
  listen: ":9090"
  server_name: "example.com"
  site_root: "/srv/www"

database:
  driver: "postgres"
  host: "db.internal"
  port: 5433
  database: "notfound"
  username: "logger"
  password: "secret"
  ssl_mode: "require"

auth:
  jwt_secret: "this-is-a-very-secure-jwt-secret-with-at-least-32-characters"
  admin_username: "root"
  admin_password: "secure_password"
  token_ttl: "1h"

notfound:
  option_name: "custom-404-log"
  trust_forwarded_host: true
  serialize_writes: true

display:
  date_format: "2006-01-02"
  time_format: "15:04"
  timezone: "Europe/Berlin"

logging:
  level: "debug"
  format: "text"
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0o644))

	cfg, err := Load(configFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "example.com", cfg.Server.ServerName)
	assert.Equal(t, "/srv/www", cfg.Server.SiteRoot)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "require", cfg.Database.SSLMode)

	assert.Equal(t, "root", cfg.Auth.AdminUsername)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)

	assert.Equal(t, "custom-404-log", cfg.NotFound.OptionName)
	assert.True(t, cfg.NotFound.TrustForwardedHost)
	assert.True(t, cfg.NotFound.SerializeWrites)

	assert.Equal(t, "2006-01-02", cfg.Display.DateFormat)
	assert.Equal(t, "15:04", cfg.Display.TimeFormat)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

// TestLoad_Defaults tests that defaults are applied for a missing file
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "simple404.db", cfg.Database.Database)
	assert.Equal(t, "silent", cfg.Database.SQLLogLevel)
	assert.Equal(t, "simple-404-log", cfg.NotFound.OptionName)
	assert.False(t, cfg.NotFound.TrustForwardedHost)
	assert.False(t, cfg.NotFound.SerializeWrites)
	assert.Equal(t, "January 2, 2006", cfg.Display.DateFormat)
	assert.Equal(t, "3:04 pm", cfg.Display.TimeFormat)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 0.5, cfg.RateLimit.LoginRPS)
	assert.Equal(t, 3, cfg.RateLimit.LoginBurst)
	assert.False(t, cfg.RateLimit.TrustForwardedFor)
	assert.Equal(t, "warn", cfg.Logging.HTTPLevel)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "simple-404-log", cfg.NotFound.OptionName)
}

// TestLoad_EnvOverride tests SIMPLE404_* environment overrides
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SIMPLE404_SERVER_LISTEN", ":7070")
	t.Setenv("SIMPLE404_NOTFOUND_TRUST_FORWARDED_HOST", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Listen)
	assert.True(t, cfg.NotFound.TrustForwardedHost)
}

// TestLoad_InvalidYAML tests a malformed config file
func TestLoad_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server: [unclosed"), 0o644))

	cfg, err := Load(configFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"empty option name", "notfound:\n  option_name: \"  \"\n", "option_name"},
		{"zero burst", "ratelimit:\n  login_burst: 0\n", "login_burst"},
		{"zero ttl", "auth:\n  token_ttl: \"0s\"\n", "token_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.content), 0o644))

			_, err := Load(configFile)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDisplayConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, DisplayConfig{}.Location())
	assert.Equal(t, time.UTC, DisplayConfig{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, "UTC", DisplayConfig{Timezone: "UTC"}.Location().String())
}

// TestWatch_Reload tests that a config rewrite reaches the callback
func TestWatch_Reload(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "watch.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("display:\n  date_format: \"2006\"\n"), 0o644))

	var (
		mu       sync.Mutex
		reloaded *Config
	)
	cfg, err := Watch(configFile, func(c *Config) {
		mu.Lock()
		reloaded = c
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2006", cfg.Display.DateFormat)

	require.NoError(t, os.WriteFile(configFile, []byte("display:\n  date_format: \"02.01.2006\"\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloaded != nil && reloaded.Display.DateFormat == "02.01.2006"
	}, 5*time.Second, 50*time.Millisecond)
}
