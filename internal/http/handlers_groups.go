package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	g, err := s.groups.CreateGroup(r.Context(), sanitizeText(req.Name), userID, user.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGroupJSON(g))
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	groupID, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	g, err := s.groups.Join(r.Context(), groupID, code, userID, user.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupJSON(g))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	groups, err := s.groups.ListGroups(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]groupJSON, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupJSON(g))
	}
	respondJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (s *Server) handleListGroupMembers(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	groupID, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	members, err := s.groups.ListMembers(r.Context(), groupID, userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	type memberJSON struct {
		UserID   int64  `json:"user_id"`
		Name     string `json:"name"`
		JoinedAt string `json:"joined_at"`
	}
	out := make([]memberJSON, 0, len(members))
	for _, m := range members {
		out = append(out, memberJSON{
			UserID:   m.UserID,
			Name:     m.Name,
			JoinedAt: m.JoinedAt.Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": out})
}

type groupTransactionRequest struct {
	GroupID     int64  `json:"group_id"`
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	CategoryID  int64  `json:"category_id"`
	Date        string `json:"date"`
}

func (s *Server) handleAddGroupTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req groupTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GroupID <= 0 {
		respondError(w, http.StatusBadRequest, "group_id is required")
		return
	}

	var err error

	date := time.Now().UTC()
	if strings.TrimSpace(req.Date) != "" {
		date, err = time.Parse(dateLayout, req.Date)
		if err != nil {
			respondServiceError(w, r, core.ErrInvalidDate)
			return
		}
	}

	code, _ := s.displayFor(r.Context(), userID)
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = code
	}

	gt := core.GroupTransaction{
		GroupID:    req.GroupID,
		Title:      sanitizeText(req.Title),
		Amount:     core.Money{Cents: req.AmountCents},
		Currency:   currency,
		CategoryID: req.CategoryID,
		Date:       date,
	}

	created, err := s.groups.AddExpense(r.Context(), gt, userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGroupTransactionJSON(created))
}

func (s *Server) handleListGroupTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	groupID, err := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	if err != nil || groupID <= 0 {
		respondError(w, http.StatusBadRequest, "group_id query parameter is required")
		return
	}

	expenses, err := s.groups.ListExpenses(r.Context(), groupID, userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]groupTransactionJSON, 0, len(expenses))
	for _, gt := range expenses {
		out = append(out, toGroupTransactionJSON(gt))
	}
	respondJSON(w, http.StatusOK, map[string]any{"group_transactions": out})
}

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	groupID, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	balances, err := s.groups.Balances(r.Context(), groupID, userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

// handleSettleGroupTransaction settles the caller's own pending share.
// Nothing to settle (wrong member, already settled) reads as 404.
func (s *Server) handleSettleGroupTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	groupTxnID, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.groups.SettleExpense(r.Context(), groupTxnID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}
