package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type recurringRequest struct {
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Type        string `json:"type"`
	CategoryID  int64  `json:"category_id"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func (req recurringRequest) toCore(userID int64, defaultCurrency string) (core.RecurringTransaction, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return core.RecurringTransaction{}, core.ErrInvalidDate
	}
	var end time.Time
	if strings.TrimSpace(req.EndDate) != "" {
		end, err = time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return core.RecurringTransaction{}, core.ErrInvalidDate
		}
	}

	return core.RecurringTransaction{
		UserID:     userID,
		Title:      sanitizeText(req.Title),
		Amount:     core.Money{Cents: req.AmountCents},
		Currency:   currency,
		Type:       core.TransactionType(req.Type),
		CategoryID: req.CategoryID,
		Frequency:  core.Frequency(req.Frequency),
		StartDate:  start,
		EndDate:    end,
	}, nil
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	series, err := s.store.ListRecurring(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	today := time.Now().UTC()
	out := make([]recurringJSON, 0, len(series))
	for _, rt := range series {
		out = append(out, toRecurringJSON(rt, today))
	}
	respondJSON(w, http.StatusOK, map[string]any{"recurring": out})
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, _ := s.displayFor(r.Context(), userID)
	rt, err := req.toCore(userID, code)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := rt.Validate(); err != nil {
		respondServiceError(w, r, err)
		return
	}

	created, err := s.store.CreateRecurring(r.Context(), rt)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRecurringJSON(created, time.Now().UTC()))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := s.store.GetRecurring(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	code, _ := s.displayFor(r.Context(), userID)
	rt, err := req.toCore(userID, code)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	rt.ID = id
	rt.LastProcessed = existing.LastProcessed
	if err := rt.Validate(); err != nil {
		respondServiceError(w, r, err)
		return
	}

	if err := s.store.UpdateRecurring(r.Context(), rt); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecurringJSON(rt, time.Now().UTC()))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Materialized transactions keep their recurring_id cleared by the
	// schema's ON DELETE SET NULL; history stays intact.
	if err := s.store.DeleteRecurring(r.Context(), id, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
