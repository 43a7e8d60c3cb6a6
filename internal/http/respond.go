// Package http exposes the JSON API over a chi router.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// maxBodyBytes bounds JSON request bodies; CSV uploads have their own limit.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields
// and trailing garbage.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

var badRequestErrs = []error{
	core.ErrInvalidAmount,
	core.ErrTitleTooShort,
	core.ErrInvalidType,
	core.ErrInvalidCurrency,
	core.ErrInvalidFrequency,
	core.ErrMissingCategory,
	core.ErrInvalidDate,
	core.ErrEndBeforeStart,
	core.ErrNoMembers,
	services.ErrCategoryMismatch,
}

// respondServiceError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 and gets logged; the client only sees a generic
// message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrBatchNotFound):
		respondError(w, http.StatusNotFound, "import batch not found or expired")
	case errors.Is(err, storage.ErrDuplicate):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, services.ErrNotGroupMember):
		respondError(w, http.StatusForbidden, "not a member of this group")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case isBadRequest(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isBadRequest(err error) bool {
	for _, sentinel := range badRequestErrs {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
