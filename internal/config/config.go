// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/hkdf"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIURL        string `env:"MPDB_API_URL" envDefault:"http://localhost:5000"`
	DBPath        string `env:"MPDB_DB_PATH" envDefault:"./data/mpdb-web.db"`
	SessionSecret string `env:"MPDB_SESSION_SECRET,required"`
	ServerHost    string `env:"MPDB_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"MPDB_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"MPDB_ENV" envDefault:"development"`
	LogLevel      string `env:"MPDB_LOG_LEVEL" envDefault:"info"`
	SiteURL       string `env:"MPDB_SITE_URL"` // Public base URL for sitemap links; request host when empty

	// Backend API client
	APITimeout     time.Duration `env:"MPDB_API_TIMEOUT" envDefault:"15s"`
	UploadMaxMB    int64         `env:"MPDB_UPLOAD_MAX_MB" envDefault:"20"`
	TrustedOrigins []string      `env:"MPDB_TRUSTED_ORIGINS" envSeparator:","`

	// Identity cache configuration
	RedisURL     string        `env:"MPDB_REDIS_URL"`                        // Optional Redis URL for a shared identity cache
	CachePrefix  string        `env:"MPDB_CACHE_PREFIX" envDefault:"mpdb:"`  // Redis key prefix
	IdentityTTL  time.Duration `env:"MPDB_IDENTITY_TTL" envDefault:"5m"`     // How long a who-am-I answer is reused
	CacheMaxSize int           `env:"MPDB_CACHE_MAX_SIZE" envDefault:"5000"` // Max memory cache entries

	// Backend reachability probe (cron spec)
	HealthSchedule string `env:"MPDB_HEALTH_SCHEDULE" envDefault:"@every 1m"`

	// Optional GeoLite2-Country database; request logs get a country code
	GeoIPDBPath         string `env:"MPDB_GEOIP_DB_PATH"`
	GeoIPReloadSchedule string `env:"MPDB_GEOIP_RELOAD_SCHEDULE" envDefault:"@daily"`

	// Event log
	EventRetention       time.Duration `env:"MPDB_EVENT_RETENTION" envDefault:"720h"`
	EventCleanupSchedule string        `env:"MPDB_EVENT_CLEANUP_SCHEDULE" envDefault:"@daily"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UploadMaxBytes returns the multipart upload limit in bytes.
func (c Config) UploadMaxBytes() int64 {
	return c.UploadMaxMB << 20
}

// CSRFKey derives a 32-byte CSRF authentication key from the session secret,
// so the two never share raw key material.
func (c Config) CSRFKey() []byte {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(c.SessionSecret), nil, []byte("mpdb-web csrf"))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails after 255*32 bytes of output
		panic(err)
	}
	return key
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("MPDB_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("MPDB_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("MPDB_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("MPDB_API_URL must be an absolute URL, got %q", cfg.APIURL)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")

	if cfg.UploadMaxMB <= 0 {
		return nil, fmt.Errorf("MPDB_UPLOAD_MAX_MB must be positive, got %d", cfg.UploadMaxMB)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
