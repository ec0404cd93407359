package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Simplici0/listino/internal/pricing"
	"github.com/Simplici0/listino/internal/store"
)

const (
	directionSell = "sell"
	directionBuy  = "buy"

	errCalculationOverflow = "calculation overflowed"
)

type sellRequest struct {
	PurchasePrice  *float64 `json:"purchasePrice"`
	ParameterSetID int64    `json:"parameterSetId"`
}

type buyRequest struct {
	RetailPrice    *float64 `json:"retailPrice"`
	ParameterSetID int64    `json:"parameterSetId"`
}

// calculationContext is merged into every calculation response.
type calculationContext struct {
	PurchaseCurrency string             `json:"purchaseCurrency"`
	SellingCurrency  string             `json:"sellingCurrency"`
	ParameterSetID   int64              `json:"parameterSetId"`
	ParameterSetName string             `json:"parameterSetName"`
	Parameters       pricing.Parameters `json:"parameters"`
	CalculationID    int64              `json:"calculationId,omitempty"`
}

type sellDisplay struct {
	PurchasePrice  string `json:"purchasePrice"`
	LandedCost     string `json:"landedCost"`
	WholesalePrice string `json:"wholesalePrice"`
	RetailPrice    string `json:"retailPrice"`
}

type sellResponse struct {
	pricing.SellResult
	calculationContext
	Display sellDisplay `json:"display"`
}

type buyDisplay struct {
	RetailPrice    string `json:"retailPrice"`
	WholesalePrice string `json:"wholesalePrice"`
	LandedCost     string `json:"landedCost"`
	PurchasePrice  string `json:"purchasePrice"`
}

type buyResponse struct {
	pricing.BuyResult
	calculationContext
	Display buyDisplay `json:"display"`
}

func (s *server) handleCalculateSell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PurchasePrice == nil {
		writeError(w, http.StatusBadRequest, "purchasePrice is required")
		return
	}
	if err := pricing.ValidatePrice(*req.PurchasePrice); err != nil {
		writeError(w, http.StatusBadRequest, "purchasePrice: "+err.Error())
		return
	}

	ps, ok := s.resolveParameterSet(w, r, req.ParameterSetID)
	if !ok {
		return
	}

	result := pricing.Sell(*req.PurchasePrice, ps.Parameters)
	if !result.Finite() {
		writeError(w, http.StatusUnprocessableEntity, errCalculationOverflow)
		return
	}
	resp := sellResponse{
		SellResult:         result,
		calculationContext: newCalculationContext(ps),
		Display: sellDisplay{
			PurchasePrice:  pricing.RoundUpToTwoDecimals(result.PurchasePrice),
			LandedCost:     pricing.RoundUpToTwoDecimals(result.LandedCost),
			WholesalePrice: pricing.RoundUpToTwoDecimals(result.WholesalePrice),
			RetailPrice:    pricing.RoundUpToTwoDecimals(result.RetailPrice),
		},
	}

	resp.CalculationID = s.recordCalculation(r.Context(), ps, directionSell, result.PurchasePrice, result.RetailPrice, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleCalculateBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RetailPrice == nil {
		writeError(w, http.StatusBadRequest, "retailPrice is required")
		return
	}
	if err := pricing.ValidatePrice(*req.RetailPrice); err != nil {
		writeError(w, http.StatusBadRequest, "retailPrice: "+err.Error())
		return
	}

	ps, ok := s.resolveParameterSet(w, r, req.ParameterSetID)
	if !ok {
		return
	}

	result := pricing.Buy(*req.RetailPrice, ps.Parameters)
	if !result.Finite() {
		writeError(w, http.StatusUnprocessableEntity, errCalculationOverflow)
		return
	}
	resp := buyResponse{
		BuyResult:          result,
		calculationContext: newCalculationContext(ps),
		Display: buyDisplay{
			RetailPrice:    pricing.RoundUpToTwoDecimals(result.RetailPrice),
			WholesalePrice: pricing.RoundUpToTwoDecimals(result.WholesalePrice),
			LandedCost:     pricing.RoundUpToTwoDecimals(result.LandedCost),
			PurchasePrice:  pricing.RoundUpToTwoDecimals(result.PurchasePrice),
		},
	}

	resp.CalculationID = s.recordCalculation(r.Context(), ps, directionBuy, result.RetailPrice, result.PurchasePrice, resp)
	writeJSON(w, http.StatusOK, resp)
}

// resolveParameterSet loads the requested set, or the default one when id is 0.
func (s *server) resolveParameterSet(w http.ResponseWriter, r *http.Request, id int64) (store.ParameterSet, bool) {
	var (
		ps  store.ParameterSet
		err error
	)
	if id == 0 {
		ps, err = s.parameterSets.GetDefault(r.Context())
	} else {
		ps, err = s.parameterSets.Get(r.Context(), id)
	}

	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "parameter set not found")
		return store.ParameterSet{}, false
	}
	if err != nil {
		writeInternalError(w, r, "failed to load parameter set", err)
		return store.ParameterSet{}, false
	}

	if err := ps.Parameters.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "parameter set is invalid: "+err.Error())
		return store.ParameterSet{}, false
	}
	return ps, true
}

// recordCalculation stores a snapshot of resp. History is best effort: failures are logged.
func (s *server) recordCalculation(ctx context.Context, ps store.ParameterSet, direction string, input, output float64, resp any) int64 {
	logger := zerolog.Ctx(ctx)

	snapshot, err := json.Marshal(resp)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode calculation snapshot")
		return 0
	}

	id, err := s.calculations.Create(ctx, store.Calculation{
		UserID:           userIDFromContext(ctx),
		ParameterSetID:   ps.ID,
		ParameterSetName: ps.Name,
		Direction:        direction,
		PurchaseCurrency: ps.PurchaseCurrency,
		SellingCurrency:  ps.SellingCurrency,
		InputPrice:       input,
		ResultPrice:      output,
		Result:           snapshot,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to record calculation")
		return 0
	}
	return id
}

func newCalculationContext(ps store.ParameterSet) calculationContext {
	return calculationContext{
		PurchaseCurrency: ps.PurchaseCurrency,
		SellingCurrency:  ps.SellingCurrency,
		ParameterSetID:   ps.ID,
		ParameterSetName: ps.Name,
		Parameters:       ps.Parameters,
	}
}
