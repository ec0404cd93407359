package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Simplici0/listino/internal/pricing"
	"github.com/Simplici0/listino/internal/store"
)

const maxParameterSetNameLength = 100

type parameterSetRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	PurchaseCurrency string `json:"purchaseCurrency"`
	SellingCurrency  string `json:"sellingCurrency"`
	pricing.Parameters
}

func (s *server) handleParameterSetsList(w http.ResponseWriter, r *http.Request) {
	sets, err := s.parameterSets.List(r.Context())
	if err != nil {
		writeInternalError(w, r, "failed to load parameter sets", err)
		return
	}

	writeJSON(w, http.StatusOK, sets)
}

func (s *server) handleParameterSetCreate(w http.ResponseWriter, r *http.Request) {
	ps, ok := parseParameterSetRequest(w, r)
	if !ok {
		return
	}

	created, err := s.parameterSets.Create(r.Context(), ps)
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "a parameter set with this name already exists")
		return
	}
	if err != nil {
		writeInternalError(w, r, "failed to create parameter set", err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleParameterSetDefault(w http.ResponseWriter, r *http.Request) {
	ps, err := s.parameterSets.GetDefault(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no default parameter set configured")
		return
	}
	if err != nil {
		writeInternalError(w, r, "failed to load parameter set", err)
		return
	}

	writeJSON(w, http.StatusOK, ps)
}

func (s *server) handleParameterSetGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid parameter set id")
		return
	}

	ps, err := s.parameterSets.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "parameter set not found")
		return
	}
	if err != nil {
		writeInternalError(w, r, "failed to load parameter set", err)
		return
	}

	writeJSON(w, http.StatusOK, ps)
}

func (s *server) handleParameterSetUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid parameter set id")
		return
	}

	ps, ok := parseParameterSetRequest(w, r)
	if !ok {
		return
	}

	updated, err := s.parameterSets.Update(r.Context(), id, ps)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "parameter set not found")
		return
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "a parameter set with this name already exists")
		return
	case err != nil:
		writeInternalError(w, r, "failed to update parameter set", err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *server) handleParameterSetDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid parameter set id")
		return
	}

	err := s.parameterSets.Delete(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "parameter set not found")
		return
	case errors.Is(err, store.ErrDefaultSet):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeInternalError(w, r, "failed to delete parameter set", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleParameterSetMakeDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid parameter set id")
		return
	}

	ps, err := s.parameterSets.SetDefault(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "parameter set not found")
		return
	}
	if err != nil {
		writeInternalError(w, r, "failed to set default parameter set", err)
		return
	}

	writeJSON(w, http.StatusOK, ps)
}

// parseParameterSetRequest decodes and validates the body, writing a 400 on failure.
func parseParameterSetRequest(w http.ResponseWriter, r *http.Request) (store.ParameterSet, bool) {
	var req parameterSetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return store.ParameterSet{}, false
	}

	ps := store.ParameterSet{
		Name:             strings.TrimSpace(req.Name),
		Description:      strings.TrimSpace(req.Description),
		PurchaseCurrency: strings.ToUpper(strings.TrimSpace(req.PurchaseCurrency)),
		SellingCurrency:  strings.ToUpper(strings.TrimSpace(req.SellingCurrency)),
		Parameters:       req.Parameters,
	}

	if err := validateParameterSet(ps); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return store.ParameterSet{}, false
	}
	return ps, true
}

func validateParameterSet(ps store.ParameterSet) error {
	if ps.Name == "" {
		return errors.New("name is required")
	}
	if len(ps.Name) > maxParameterSetNameLength {
		return fmt.Errorf("name must be at most %d characters", maxParameterSetNameLength)
	}
	if !isCurrencyCode(ps.PurchaseCurrency) {
		return errors.New("purchaseCurrency must be a 3-letter currency code")
	}
	if !isCurrencyCode(ps.SellingCurrency) {
		return errors.New("sellingCurrency must be a 3-letter currency code")
	}
	return ps.Parameters.Validate()
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
