package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/events"
)

type settingsRequest struct {
	Currency         string `json:"currency"`
	BudgetCents      int64  `json:"budget_cents"`
	SavingsGoalCents int64  `json:"savings_goal_cents"`
	NotifyBudget     bool   `json:"notify_budget"`
	NotifyRecurring  bool   `json:"notify_recurring"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	settings, err := s.store.GetSettings(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSettingsJSON(settings))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !core.ValidCurrency(code) {
		respondServiceError(w, r, core.ErrInvalidCurrency)
		return
	}
	if req.BudgetCents < 0 || req.SavingsGoalCents < 0 {
		respondError(w, http.StatusBadRequest, "budget and savings goal must not be negative")
		return
	}

	previous, err := s.store.GetSettings(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	updated := core.UserSettings{
		UserID:          userID,
		Currency:        code,
		BudgetLimit:     core.Money{Cents: req.BudgetCents},
		SavingsGoal:     core.Money{Cents: req.SavingsGoalCents},
		NotifyBudget:    req.NotifyBudget,
		NotifyRecurring: req.NotifyRecurring,
	}
	if err := s.store.UpsertSettings(r.Context(), updated); err != nil {
		respondServiceError(w, r, err)
		return
	}

	if previous.Currency != code {
		s.onCurrencyChanged(r, userID, code)
	}

	respondJSON(w, http.StatusOK, toSettingsJSON(updated))
}

// onCurrencyChanged notifies summary consumers that stored summaries are in
// the wrong currency. Without an event bus the recompute runs inline.
func (s *Server) onCurrencyChanged(r *http.Request, userID int64, code string) {
	event := events.NewCurrencyChangedEvent(userID, code)
	if s.eventClient != nil {
		if err := s.eventClient.Publish(r.Context(), event); err != nil {
			s.logger.Error("Failed to publish currency change", "user_id", userID, "error", err)
		}
		return
	}
	if s.summaries == nil {
		return
	}
	if err := s.summaries.HandleEvent(r.Context(), event); err != nil {
		s.logger.Error("Inline summary recompute failed", "user_id", userID, "error", err)
	}
}
