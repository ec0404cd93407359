package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_FallsBackToInfoOnUnknownLevel(t *testing.T) {
	logger := newWithWriter(&bytes.Buffer{}, "chatty", "json")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info", logger.GetLevel())
	}
}

func TestRequestLogger_LogsStatusAndPropagatesID(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "debug", "json")

	var ctxLoggerSeen bool
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Debug().Msg("inside")
		ctxLoggerSeen = true
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !ctxLoggerSeen {
		t.Fatalf("handler was not called")
	}
	if got := rr.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("response request id = %q, want req-123", got)
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(lines[1], &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["request_id"] != "req-123" || entry["path"] != "/api/health" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if status, _ := entry["status"].(float64); status != http.StatusTeapot {
		t.Fatalf("status = %v, want %d", entry["status"], http.StatusTeapot)
	}
}

func TestRequestLogger_GeneratesIDWhenMissing(t *testing.T) {
	handler := RequestLogger(newWithWriter(&bytes.Buffer{}, "info", "json"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if len(rr.Header().Get(RequestIDHeader)) != 36 {
		t.Fatalf("expected generated uuid request id, got %q", rr.Header().Get(RequestIDHeader))
	}
}
