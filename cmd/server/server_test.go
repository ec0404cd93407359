package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Simplici0/listino/internal/auth"
	"github.com/Simplici0/listino/internal/config"
	"github.com/Simplici0/listino/internal/db"
	"github.com/Simplici0/listino/internal/exchange"
	"github.com/Simplici0/listino/internal/migrations"
	"github.com/Simplici0/listino/internal/seed"
	"github.com/Simplici0/listino/internal/store"
)

const (
	testAdminEmail    = "admin@listino.test"
	testAdminPassword = "password123"
)

type fakeRates struct {
	quote exchange.Quote
	err   error
}

func (f fakeRates) Rate(_ context.Context, from, to string) (exchange.Quote, error) {
	if f.err != nil {
		return exchange.Quote{}, f.err
	}
	q := f.quote
	q.From, q.To = from, to
	return q, nil
}

func newTestServer(t *testing.T) (*server, http.Handler) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database, zerolog.Nop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(context.Background(), database, seed.Config{
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
		ParameterSet:  config.BuiltinDefaults().ParameterSet,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	srv := &server{
		db:            database,
		users:         store.NewUserStore(database),
		parameterSets: store.NewParameterSetStore(database),
		calculations:  store.NewCalculationStore(database),
		tokens:        auth.NewIssuer("test-secret", time.Hour),
		rates:         fakeRates{quote: exchange.Quote{Rate: 1.07}},
	}
	return srv, srv.routes(zerolog.Nop(), "")
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()

	rr := doJSON(t, h, http.MethodPost, "/api/auth/login", "", loginRequest{Email: testAdminEmail, Password: testAdminPassword})
	expectStatus(t, rr, http.StatusOK)

	var resp loginResponse
	decodeBody(t, rr, &resp)
	if resp.Token == "" {
		t.Fatalf("expected token in login response")
	}
	return resp.Token
}

func TestHealthIsPublic(t *testing.T) {
	srv, h := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/api/health", "", nil)
	expectStatus(t, rr, http.StatusOK)

	_ = srv.db.Close()
	rr = doJSON(t, h, http.MethodGet, "/api/health", "", nil)
	expectStatus(t, rr, http.StatusServiceUnavailable)
}
