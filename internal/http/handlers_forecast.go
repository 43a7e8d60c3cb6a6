package http

import (
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/forecast"
)

type forecastResponse struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Currency      string  `json:"currency"`
	Predicted     float64 `json:"predicted_expenses"`
	IncomeCents   int64   `json:"income_cents"`
	ExpenseCents  int64   `json:"expense_cents"`
	SavingsCents  int64   `json:"savings_cents"`
	ForecastMonth int     `json:"forecast_month"`
}

// handleForecast predicts next month's spending from the requested month's
// totals in the user's display currency.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	year, month, err := parseYearMonth(r.URL.Query(), time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.monthSummary(r.Context(), userID, year, month)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	savings := summary.Net()
	if savings.Cents < 0 {
		savings.Cents = 0
	}

	predicted, err := forecast.Predict(forecast.Input{
		Income:   summary.Income.Float64(),
		Expenses: summary.Expenses.Float64(),
		Month:    month,
		Savings:  savings.Float64(),
	})
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	next := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	code, _ := s.displayFor(r.Context(), userID)

	respondJSON(w, http.StatusOK, forecastResponse{
		Year:          year,
		Month:         month,
		Currency:      code,
		Predicted:     predicted,
		IncomeCents:   summary.Income.Cents,
		ExpenseCents:  summary.Expenses.Cents,
		SavingsCents:  savings.Cents,
		ForecastMonth: int(next.Month()),
	})
}
