// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"bytes"
	"os"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "MPDB_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIURL != "http://localhost:5000" {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, "http://localhost:5000")
	}
	if cfg.DBPath != "./data/mpdb-web.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/mpdb-web.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("APITimeout = %v, want 15s", cfg.APITimeout)
	}
	if cfg.IdentityTTL != 5*time.Minute {
		t.Errorf("IdentityTTL = %v, want 5m", cfg.IdentityTTL)
	}
	if cfg.HealthSchedule != "@every 1m" {
		t.Errorf("HealthSchedule = %q, want %q", cfg.HealthSchedule, "@every 1m")
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() = true, want false without MPDB_REDIS_URL")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "MPDB_SESSION_SECRET", testSecret)
	setEnv(t, "MPDB_API_URL", "https://api.example.org/")
	setEnv(t, "MPDB_SERVER_PORT", "3000")
	setEnv(t, "MPDB_ENV", "production")
	setEnv(t, "MPDB_API_TIMEOUT", "3s")
	setEnv(t, "MPDB_REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "MPDB_TRUSTED_ORIGINS", "mpdb.example.org,www.mpdb.example.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIURL != "https://api.example.org" {
		t.Errorf("APIURL = %q, want trailing slash trimmed", cfg.APIURL)
	}
	if cfg.ServerPort != 3000 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 3000)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.APITimeout != 3*time.Second {
		t.Errorf("APITimeout = %v, want 3s", cfg.APITimeout)
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false, want true")
	}
	if len(cfg.TrustedOrigins) != 2 {
		t.Errorf("TrustedOrigins = %v, want 2 entries", cfg.TrustedOrigins)
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when MPDB_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "MPDB_SESSION_SECRET", tt.secret)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_WeakSecretRejected(t *testing.T) {
	for _, weak := range knownWeakSecrets {
		os.Clearenv()
		setEnv(t, "MPDB_SESSION_SECRET", weak)

		if _, err := Load(); err == nil {
			t.Errorf("Load() accepted known weak secret %q", weak)
		}
	}
}

func TestLoad_InvalidAPIURL(t *testing.T) {
	tests := []string{"localhost:5000", "/api", "not a url"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "MPDB_SESSION_SECRET", testSecret)
			setEnv(t, "MPDB_API_URL", raw)

			if _, err := Load(); err == nil {
				t.Errorf("Load() accepted MPDB_API_URL=%q", raw)
			}
		})
	}
}

func TestConfig_ServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := Config{ServerHost: tt.host, ServerPort: tt.port}
			if got := cfg.ServerAddr(); got != tt.want {
				t.Errorf("ServerAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_CSRFKey(t *testing.T) {
	a := Config{SessionSecret: testSecret}
	b := Config{SessionSecret: "another-secret-key-32-bytes-long"}

	ka := a.CSRFKey()
	if len(ka) != 32 {
		t.Fatalf("len(CSRFKey()) = %d, want 32", len(ka))
	}
	if !bytes.Equal(ka, a.CSRFKey()) {
		t.Error("CSRFKey() is not deterministic")
	}
	if bytes.Equal(ka, b.CSRFKey()) {
		t.Error("different secrets produced the same CSRF key")
	}
	if bytes.Equal(ka, []byte(testSecret)) {
		t.Error("CSRF key must not equal the raw session secret")
	}
}

func TestConfig_UploadMaxBytes(t *testing.T) {
	cfg := Config{UploadMaxMB: 20}
	if got := cfg.UploadMaxBytes(); got != 20<<20 {
		t.Errorf("UploadMaxBytes() = %d, want %d", got, 20<<20)
	}
}
