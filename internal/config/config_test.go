package config

import (
	"net/netip"
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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 4, cfg.CooldownDays)
	assert.Equal(t, 96*time.Hour, cfg.Cooldown())
	assert.True(t, cfg.FailOpenOnReadError)
	assert.False(t, cfg.AtomicAdmission)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
store: sqlite
sqlite_path: /tmp/x.db
cooldown_days: 2
fail_open_on_read_error: false
atomic_admission: true
admin_token_ttl: 30m
rate_limit:
  requests_per_minute: 10
  burst: 3
banned_geo_locations: ["KP", "IR"]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.Equal(t, 2, cfg.CooldownDays)
	assert.False(t, cfg.FailOpenOnReadError)
	assert.True(t, cfg.AtomicAdmission)
	assert.Equal(t, 30*time.Minute, cfg.AdminTokenTTL)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, []string{"KP", "IR"}, cfg.BannedGeoLocations)
	// untouched keys keep their defaults
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GIVEAWAY_STORE", "redis")
	t.Setenv("GIVEAWAY_REDIS_ADDR", "redis:6380")
	t.Setenv("GIVEAWAY_ADMIN_PASSWORD", "hunter2")
	t.Setenv("GIVEAWAY_FAIL_OPEN", "false")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.Equal(t, "hunter2", cfg.AdminPassword)
	assert.False(t, cfg.FailOpenOnReadError)
}

func TestLoadConfig_InvalidEnvBool(t *testing.T) {
	t.Setenv("GIVEAWAY_ATOMIC_ADMISSION", "maybe")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfig(t, "store: [unterminated")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown store", func(c *Config) { c.Store = "bolt" }, true},
		{"negative cooldown", func(c *Config) { c.CooldownDays = -1 }, true},
		{"zero cooldown", func(c *Config) { c.CooldownDays = 0 }, true},
		{"zero token ttl", func(c *Config) { c.AdminTokenTTL = 0 }, true},
		{"negative burst", func(c *Config) { c.RateLimit.Burst = -5 }, true},
		{"bad proxy ignored when untrusted", func(c *Config) { c.TrustedProxies = []string{"nope"} }, false},
		{"bad proxy", func(c *Config) {
			c.TrustProxyHeaders = true
			c.TrustedProxies = []string{"nope"}
		}, true},
		{"trust without proxies", func(c *Config) {
			c.TrustProxyHeaders = true
			c.TrustedProxies = nil
		}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProxyPrefixes(t *testing.T) {
	cfg := DefaultConfig()
	prefixes, err := cfg.ProxyPrefixes()
	require.NoError(t, err)
	assert.Nil(t, prefixes, "headers are not trusted by default")

	cfg.TrustProxyHeaders = true
	cfg.TrustedProxies = []string{"10.1.2.3/8", "192.0.2.10", "fd00::/8"}
	prefixes, err = cfg.ProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.0.2.10/32", prefixes[1].String())
	assert.True(t, prefixes[2].Contains(netip.MustParseAddr("fd00::1")))
}

func TestLoadConfig_TrustProxyHeadersEnv(t *testing.T) {
	t.Setenv("GIVEAWAY_TRUST_PROXY_HEADERS", "true")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, []string{"127.0.0.1/32", "::1/128"}, cfg.TrustedProxies)
}
