package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

type Config struct {
	Env  string `yaml:"env"`
	Addr string `yaml:"addr"`

	Store      string `yaml:"store"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
	SQLitePath string `yaml:"sqlite_path"`

	CooldownDays          int  `yaml:"cooldown_days"`
	FailOpenOnReadError   bool `yaml:"fail_open_on_read_error"`
	AtomicAdmission       bool `yaml:"atomic_admission"`
	EnforceGiveawayWindow bool `yaml:"enforce_giveaway_window"`

	AdminPassword string        `yaml:"admin_password"`
	JWTSecret     string        `yaml:"jwt_secret"`
	AdminTokenTTL time.Duration `yaml:"admin_token_ttl"`

	TrustProxyHeaders  bool            `yaml:"trust_proxy_headers"`
	TrustedProxies     []string        `yaml:"trusted_proxies"`
	RateLimit          RateLimitConfig `yaml:"rate_limit"`
	GeoIPDB            string          `yaml:"geoip_db"`
	BannedGeoLocations []string        `yaml:"banned_geo_locations"`

	LogFile string `yaml:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Env:                   "development",
		Addr:                  ":8080",
		Store:                 StoreMemory,
		RedisAddr:             "localhost:6379",
		SQLitePath:            "data/giveaway.db",
		CooldownDays:          4,
		FailOpenOnReadError:   true,
		AtomicAdmission:       false,
		EnforceGiveawayWindow: true,
		AdminTokenTTL:         12 * time.Hour,
		TrustProxyHeaders:     false,
		TrustedProxies:        []string{"127.0.0.1/32", "::1/128"},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Burst:             20,
		},
		BannedGeoLocations: []string{},
	}
}

// LoadConfig reads the YAML file at path over DefaultConfig and then applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "GIVEAWAY_ENV")
	setString(&c.Addr, "GIVEAWAY_ADDR")
	setString(&c.Store, "GIVEAWAY_STORE")
	setString(&c.RedisAddr, "GIVEAWAY_REDIS_ADDR")
	setString(&c.SQLitePath, "GIVEAWAY_SQLITE_PATH")
	setString(&c.AdminPassword, "GIVEAWAY_ADMIN_PASSWORD")
	setString(&c.JWTSecret, "GIVEAWAY_JWT_SECRET")
	setString(&c.GeoIPDB, "GIVEAWAY_GEOIP_DB")
	setString(&c.LogFile, "GIVEAWAY_LOG_FILE")
	if v := os.Getenv("GIVEAWAY_ATOMIC_ADMISSION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GIVEAWAY_ATOMIC_ADMISSION: %w", err)
		}
		c.AtomicAdmission = b
	}
	if v := os.Getenv("GIVEAWAY_TRUST_PROXY_HEADERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GIVEAWAY_TRUST_PROXY_HEADERS: %w", err)
		}
		c.TrustProxyHeaders = b
	}
	if v := os.Getenv("GIVEAWAY_FAIL_OPEN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GIVEAWAY_FAIL_OPEN: %w", err)
		}
		c.FailOpenOnReadError = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks values that would otherwise fail deep inside the service.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.CooldownDays < 1 {
		return fmt.Errorf("cooldown_days must be at least 1, got %d", c.CooldownDays)
	}
	if c.AdminTokenTTL <= 0 {
		return fmt.Errorf("admin_token_ttl must be positive, got %s", c.AdminTokenTTL)
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	if _, err := c.ProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// ProxyPrefixes parses trusted_proxies. It returns nil when proxy headers
// are not trusted at all. Bare addresses are treated as single hosts.
func (c *Config) ProxyPrefixes() ([]netip.Prefix, error) {
	if !c.TrustProxyHeaders {
		return nil, nil
	}
	if len(c.TrustedProxies) == 0 {
		return nil, errors.New("trust_proxy_headers needs at least one trusted_proxies entry")
	}
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, v := range c.TrustedProxies {
		p, err := netip.ParsePrefix(v)
		if err != nil {
			addr, aerr := netip.ParseAddr(v)
			if aerr != nil {
				return nil, fmt.Errorf("invalid trusted_proxies entry %q: %w", v, err)
			}
			p = netip.PrefixFrom(addr, addr.BitLen())
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

// Cooldown is the entry lock-out window as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}
