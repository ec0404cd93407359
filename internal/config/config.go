package config

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultEnv             = "development"
	defaultDBPath          = "./dev.db"
	defaultPort            = "8080"
	defaultTokenTTL        = 12 * time.Hour
	defaultLogLevel        = "info"
	defaultDefaultsPath    = "./defaults.yaml"
	defaultExchangeRateURL = "https://api.frankfurter.app"
	defaultExchangeRateTTL = time.Hour
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env             string
	AdminEmail      string
	AdminPassword   string
	JWTSecret       string
	TokenTTL        time.Duration
	DBPath          string
	Port            string
	LogLevel        string
	LogFormat       string
	DefaultsPath    string
	ExchangeRateURL string
	ExchangeRateTTL time.Duration
	RedisAddr       string
	WebDir          string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Local development convenience; production injects real environment variables.
	if err := loadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}

	cfg := Config{
		Env:             getEnv("APP_ENV", defaultEnv),
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenTTL:        getDuration("TOKEN_TTL", defaultTokenTTL),
		DBPath:          getEnv("DB_PATH", defaultDBPath),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        getEnv("LOG_LEVEL", defaultLogLevel),
		LogFormat:       os.Getenv("LOG_FORMAT"),
		DefaultsPath:    getEnv("DEFAULTS_PATH", defaultDefaultsPath),
		ExchangeRateURL: getEnv("EXCHANGE_RATE_URL", defaultExchangeRateURL),
		ExchangeRateTTL: getDuration("EXCHANGE_RATE_TTL", defaultExchangeRateTTL),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		WebDir:          os.Getenv("WEB_DIR"),
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if cfg.IsDev() {
			cfg.LogFormat = "console"
		}
	}

	if cfg.AdminEmail == "" {
		log.Warn().Msg("ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Warn().Msg("ADMIN_PASSWORD is not set")
	}
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set")
	}

	return cfg
}

// IsDev reports whether the application runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
		return fallback
	}
	return d
}
