package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Simplici0/listino/internal/auth"
	"github.com/Simplici0/listino/internal/config"
	"github.com/Simplici0/listino/internal/db"
	"github.com/Simplici0/listino/internal/exchange"
	"github.com/Simplici0/listino/internal/logging"
	"github.com/Simplici0/listino/internal/migrations"
	"github.com/Simplici0/listino/internal/seed"
	"github.com/Simplici0/listino/internal/store"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// rateSource resolves live exchange rates for parameter-set editing.
type rateSource interface {
	Rate(ctx context.Context, purchaseCurrency, sellingCurrency string) (exchange.Quote, error)
}

type server struct {
	db            *sql.DB
	users         *store.UserStore
	parameterSets *store.ParameterSetStore
	calculations  *store.CalculationStore
	tokens        *auth.Issuer
	rates         rateSource
}

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	log.Logger = logger

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret, err := tokenSecret(cfg, logger)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(database, logger); err != nil {
		return err
	}

	defaults, err := config.LoadDefaults(cfg.DefaultsPath)
	if err != nil {
		return err
	}

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		ParameterSet:  defaults.ParameterSet,
	})
	if err != nil {
		return err
	}
	logger.Info().Int("inserts", stats.Inserts).Msg("seed complete")

	srv := &server{
		db:            database,
		users:         store.NewUserStore(database),
		parameterSets: store.NewParameterSetStore(database),
		calculations:  store.NewCalculationStore(database),
		tokens:        auth.NewIssuer(secret, cfg.TokenTTL),
		rates:         exchange.NewProvider(cfg.ExchangeRateURL, nil, newRateCache(ctx, cfg, logger), cfg.ExchangeRateTTL),
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(logger, cfg.WebDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// tokenSecret returns the configured JWT secret. Outside development an empty
// secret stops startup; in development a random per-process secret is used.
func tokenSecret(cfg config.Config, logger zerolog.Logger) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}
	if !cfg.IsDev() {
		return "", errors.New("JWT_SECRET must be set outside development")
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	logger.Warn().Msg("JWT_SECRET is not set, tokens are signed with a random secret until restart")
	return hex.EncodeToString(buf), nil
}

// newRateCache prefers Redis when configured and reachable.
func newRateCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) exchange.Cache {
	if cfg.RedisAddr == "" {
		return exchange.NewMemoryCache()
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-memory exchange rate cache")
		_ = rdb.Close()
		return exchange.NewMemoryCache()
	}
	return exchange.NewRedisCache(rdb)
}

func (s *server) routes(logger zerolog.Logger, webDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/profile", s.handleProfileGet)
			r.Put("/profile", s.handleProfileUpdate)
			r.Put("/profile/password", s.handlePasswordChange)

			r.Get("/parameters", s.handleParameterSetsList)
			r.Post("/parameters", s.handleParameterSetCreate)
			r.Get("/parameters/default", s.handleParameterSetDefault)
			r.Get("/parameters/{id}", s.handleParameterSetGet)
			r.Put("/parameters/{id}", s.handleParameterSetUpdate)
			r.Delete("/parameters/{id}", s.handleParameterSetDelete)
			r.Post("/parameters/{id}/default", s.handleParameterSetMakeDefault)

			r.Post("/calculate/sell", s.handleCalculateSell)
			r.Post("/calculate/buy", s.handleCalculateBuy)
			r.Get("/calculations", s.handleCalculationsList)

			r.Get("/exchange-rate", s.handleExchangeRate)
		})
	})

	if webDir != "" {
		r.Handle("/*", spaHandler(webDir))
	}

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := db.Check(r.Context(), s.db); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// spaHandler serves the built single-page app, falling back to index.html for client routes.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
