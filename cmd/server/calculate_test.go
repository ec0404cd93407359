package main

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Simplici0/listino/internal/exchange"
	"github.com/Simplici0/listino/internal/pricing"
	"github.com/Simplici0/listino/internal/store"
)

func TestCalculateSellUsesDefaultSet(t *testing.T) {
	_, h := newTestServer(t)
	token := login(t, h)

	rr := doJSON(t, h, http.MethodPost, "/api/calculate/sell", token, map[string]float64{"purchasePrice": 100})
	expectStatus(t, rr, http.StatusOK)

	var resp sellResponse
	decodeBody(t, rr, &resp)

	if resp.RetailPrice != 564.9 {
		t.Fatalf("retailPrice = %v, want 564.9", resp.RetailPrice)
	}
	if math.Abs(resp.CompanyMargin-0.5192307692307693) > 1e-9 {
		t.Fatalf("companyMargin = %v", resp.CompanyMargin)
	}
	if resp.PurchaseCurrency != "USD" || resp.SellingCurrency != "EUR" || resp.ParameterSetName != "Default" {
		t.Fatalf("unexpected calculation context: %+v", resp.calculationContext)
	}
	if resp.Parameters.RetailMultiplier != 2.48 {
		t.Fatalf("expected parameters to be echoed, got %+v", resp.Parameters)
	}
	if resp.Display.RetailPrice != "564.90" || resp.Display.PurchasePrice != "100.00" {
		t.Fatalf("unexpected display values: %+v", resp.Display)
	}
	if resp.CalculationID == 0 {
		t.Fatalf("expected calculation to be recorded")
	}
}

func TestCalculateBuyUsesRequestedSet(t *testing.T) {
	srv, h := newTestServer(t)
	token := login(t, h)

	def, err := srv.parameterSets.GetDefault(context.Background())
	if err != nil {
		t.Fatalf("GetDefault: %v", err)
	}

	rr := doJSON(t, h, http.MethodPost, "/api/calculate/buy", token, map[string]any{"retailPrice": 564.9, "parameterSetId": def.ID})
	expectStatus(t, rr, http.StatusOK)

	var resp buyResponse
	decodeBody(t, rr, &resp)
	if resp.PurchasePrice != 100.1 {
		t.Fatalf("purchasePrice = %v, want 100.1", resp.PurchasePrice)
	}
	if resp.Display.PurchasePrice != "100.10" {
		t.Fatalf("display purchasePrice = %q", resp.Display.PurchasePrice)
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	_, h := newTestServer(t)
	token := login(t, h)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing purchase price", "/api/calculate/sell", map[string]any{}, http.StatusBadRequest},
		{"zero purchase price", "/api/calculate/sell", map[string]any{"purchasePrice": 0}, http.StatusBadRequest},
		{"negative retail price", "/api/calculate/buy", map[string]any{"retailPrice": -10}, http.StatusBadRequest},
		{"string price", "/api/calculate/sell", map[string]any{"purchasePrice": "100"}, http.StatusBadRequest},
		{"unknown parameter set", "/api/calculate/sell", map[string]any{"purchasePrice": 10, "parameterSetId": 999}, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectStatus(t, doJSON(t, h, http.MethodPost, tc.path, token, tc.body), tc.want)
		})
	}
}

func TestCalculationsHistoryListsNewestFirst(t *testing.T) {
	_, h := newTestServer(t)
	token := login(t, h)

	expectStatus(t, doJSON(t, h, http.MethodPost, "/api/calculate/sell", token, map[string]float64{"purchasePrice": 20}), http.StatusOK)
	expectStatus(t, doJSON(t, h, http.MethodPost, "/api/calculate/buy", token, map[string]float64{"retailPrice": 124.9}), http.StatusOK)

	rr := doJSON(t, h, http.MethodGet, "/api/calculations?q=Def", token, nil)
	expectStatus(t, rr, http.StatusOK)

	var history []store.Calculation
	decodeBody(t, rr, &history)
	if len(history) != 2 {
		t.Fatalf("expected 2 calculations, got %+v", history)
	}
	if history[0].Direction != directionBuy || history[0].InputPrice != 124.9 {
		t.Fatalf("expected buy calculation first, got %+v", history[0])
	}
	if history[1].Direction != directionSell || history[1].ResultPrice != 124.9 {
		t.Fatalf("unexpected sell calculation: %+v", history[1])
	}
	if history[0].UserEmail != testAdminEmail {
		t.Fatalf("UserEmail = %q", history[0].UserEmail)
	}

	rr = doJSON(t, h, http.MethodGet, "/api/calculations?q=nothing-matches", token, nil)
	expectStatus(t, rr, http.StatusOK)
	decodeBody(t, rr, &history)
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %+v", history)
	}

	expectStatus(t, doJSON(t, h, http.MethodGet, "/api/calculations?limit=0", token, nil), http.StatusBadRequest)
}

func TestExchangeRateEndpoint(t *testing.T) {
	srv, h := newTestServer(t)
	token := login(t, h)

	rr := doJSON(t, h, http.MethodGet, "/api/exchange-rate?from=usd&to=EUR", token, nil)
	expectStatus(t, rr, http.StatusOK)

	var quote exchange.Quote
	decodeBody(t, rr, &quote)
	if quote.From != "USD" || quote.To != "EUR" || quote.Rate != 1.07 {
		t.Fatalf("unexpected quote: %+v", quote)
	}

	expectStatus(t, doJSON(t, h, http.MethodGet, "/api/exchange-rate?from=US&to=EUR", token, nil), http.StatusBadRequest)

	srv.rates = fakeRates{err: errors.New("upstream down")}
	expectStatus(t, doJSON(t, h, http.MethodGet, "/api/exchange-rate?from=USD&to=EUR", token, nil), http.StatusBadGateway)

	srv.rates = fakeRates{err: exchange.ErrUnsupportedCurrency}
	expectStatus(t, doJSON(t, h, http.MethodGet, "/api/exchange-rate?from=USD&to=XXX", token, nil), http.StatusBadRequest)
}

func TestCalculateRejectsOverflowingResults(t *testing.T) {
	srv, h := newTestServer(t)
	token := login(t, h)

	huge, err := srv.parameterSets.Create(context.Background(), store.ParameterSet{
		Name:             "Huge multiplier",
		PurchaseCurrency: "USD",
		SellingCurrency:  "EUR",
		Parameters: pricing.Parameters{
			ExchangeRate:      1,
			CompanyMultiplier: 1e308,
			RetailMultiplier:  1,
		},
	})
	if err != nil {
		t.Fatalf("create parameter set: %v", err)
	}
	subnormal, err := srv.parameterSets.Create(context.Background(), store.ParameterSet{
		Name:             "Subnormal multiplier",
		PurchaseCurrency: "USD",
		SellingCurrency:  "EUR",
		Parameters: pricing.Parameters{
			ExchangeRate:      1,
			CompanyMultiplier: 1,
			RetailMultiplier:  1e-320,
		},
	})
	if err != nil {
		t.Fatalf("create parameter set: %v", err)
	}

	tests := []struct {
		name string
		path string
		body map[string]any
	}{
		{"huge purchase price", "/api/calculate/sell", map[string]any{"purchasePrice": 1e308}},
		{"huge company multiplier", "/api/calculate/sell", map[string]any{"purchasePrice": 100, "parameterSetId": huge.ID}},
		{"subnormal retail multiplier", "/api/calculate/buy", map[string]any{"retailPrice": 564.9, "parameterSetId": subnormal.ID}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, tc.path, token, tc.body)
			expectStatus(t, rr, http.StatusUnprocessableEntity)

			var resp errorResponse
			decodeBody(t, rr, &resp)
			if resp.Error != errCalculationOverflow {
				t.Fatalf("error = %q, want %q", resp.Error, errCalculationOverflow)
			}
		})
	}

	history, err := srv.calculations.List(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("list calculations: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("overflowing calculations must not be recorded, got %+v", history)
	}
}

func TestWriteJSONReportsEncodingFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, map[string]float64{"price": math.Inf(1)})
	expectStatus(t, rr, http.StatusInternalServerError)

	var resp errorResponse
	decodeBody(t, rr, &resp)
	if resp.Error == "" {
		t.Fatalf("expected a JSON error body, got %q", rr.Body.String())
	}
}
