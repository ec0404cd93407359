package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"APP_ENV", "DB_PATH", "PORT", "TOKEN_TTL", "LOG_FORMAT", "EXCHANGE_RATE_TTL", "REDIS_ADDR"} {
		unsetEnv(t, key)
	}

	cfg := Load()

	if !cfg.IsDev() {
		t.Fatalf("expected development env, got %q", cfg.Env)
	}
	if cfg.DBPath != defaultDBPath || cfg.Port != defaultPort {
		t.Fatalf("unexpected db/port defaults: %+v", cfg)
	}
	if cfg.TokenTTL != defaultTokenTTL || cfg.ExchangeRateTTL != defaultExchangeRateTTL {
		t.Fatalf("unexpected duration defaults: %+v", cfg)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("LogFormat=%q, want console in development", cfg.LogFormat)
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("EXCHANGE_RATE_TTL", "not-a-duration")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	unsetEnv(t, "LOG_FORMAT")

	cfg := Load()

	if cfg.IsDev() {
		t.Fatalf("expected production env")
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("TokenTTL=%v, want 30m", cfg.TokenTTL)
	}
	if cfg.ExchangeRateTTL != defaultExchangeRateTTL {
		t.Fatalf("ExchangeRateTTL=%v, want fallback", cfg.ExchangeRateTTL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("RedisAddr=%q", cfg.RedisAddr)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("LogFormat=%q, want json outside development", cfg.LogFormat)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore Chdir: %v", err)
		}
	})
}
