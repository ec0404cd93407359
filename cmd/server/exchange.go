package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Simplici0/listino/internal/exchange"
)

func (s *server) handleExchangeRate(w http.ResponseWriter, r *http.Request) {
	from := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("from")))
	to := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("to")))
	if !isCurrencyCode(from) || !isCurrencyCode(to) {
		writeError(w, http.StatusBadRequest, "from and to must be 3-letter currency codes")
		return
	}

	quote, err := s.rates.Rate(r.Context(), from, to)
	if errors.Is(err, exchange.ErrUnsupportedCurrency) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeInternalErrorStatus(w, r, http.StatusBadGateway, "exchange rate service unavailable", err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}
