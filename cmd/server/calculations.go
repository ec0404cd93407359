package main

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

func (s *server) handleCalculationsList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
			return
		}
		limit = n
	}

	calculations, err := s.calculations.List(r.Context(), query, limit)
	if err != nil {
		writeInternalError(w, r, "failed to load calculations", err)
		return
	}

	writeJSON(w, http.StatusOK, calculations)
}
