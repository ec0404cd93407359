package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Simplici0/listino/internal/auth"
	"github.com/Simplici0/listino/internal/store"
)

type profileRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), userIDFromContext(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	if err != nil {
		writeInternalError(w, r, "failed to load profile", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.TrimSpace(req.Email)
	displayName := strings.TrimSpace(req.DisplayName)
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "email must be a valid address")
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), userIDFromContext(r.Context()), email, displayName)
	switch {
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "email is already in use")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "user no longer exists")
		return
	case err != nil:
		writeInternalError(w, r, "failed to update profile", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *server) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	var req passwordChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.NewPassword) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, "new password is too short")
		return
	}

	userID := userIDFromContext(r.Context())
	user, err := s.users.GetByID(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	if err != nil {
		writeInternalError(w, r, "failed to load profile", err)
		return
	}

	valid, err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		writeInternalError(w, r, "failed to verify password", err)
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeInternalError(w, r, "failed to update password", err)
		return
	}
	if err := s.users.UpdatePasswordHash(r.Context(), userID, hash); err != nil {
		writeInternalError(w, r, "failed to update password", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
