package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (req categoryRequest) toCore(userID int64) core.Category {
	return core.Category{
		UserID: userID,
		Name:   sanitizeText(req.Name),
		Type:   strings.ToLower(strings.TrimSpace(req.Type)),
		Color:  strings.TrimSpace(req.Color),
		Icon:   strings.TrimSpace(req.Icon),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	cats, err := s.store.ListCategories(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryJSON(c))
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := req.toCore(userID)
	if err := c.Validate(); err != nil {
		respondServiceError(w, r, err)
		return
	}

	created, err := s.store.CreateCategory(r.Context(), c)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCategoryJSON(created))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := req.toCore(userID)
	c.ID = id
	if err := c.Validate(); err != nil {
		respondServiceError(w, r, err)
		return
	}

	// Defaults are shared rows; UpdateCategory refuses them with ErrNotFound.
	if err := s.store.UpdateCategory(r.Context(), c); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCategoryJSON(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteCategory(r.Context(), id, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
