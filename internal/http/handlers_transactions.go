package http

import (
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type transactionListResponse struct {
	Transactions []transactionJSON `json:"transactions"`
	Total        int               `json:"total"`
	Page         int               `json:"page"`
	PerPage      int               `json:"per_page"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	query := r.URL.Query()

	filters, err := parseFilters(query)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, perPage, err := parsePagination(query)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, display := s.displayFor(r.Context(), userID)

	txs, err := s.store.ListTransactions(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	for _, f := range filters {
		txs = core.ApplyFilter(txs, f, display)
	}
	pageTxs, total := core.Paginate(txs, page, perPage)

	respondJSON(w, http.StatusOK, transactionListResponse{
		Transactions: toTransactionList(pageTxs, display),
		Total:        total,
		Page:         page,
		PerPage:      perPage,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, _ := s.displayFor(r.Context(), userID)
	t, err := req.toCore(userID, code)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboard(r.Context(), userID, created.Date)
	respondJSON(w, http.StatusCreated, toTransactionJSON(created, nil))
}

type bulkCreateRequest struct {
	Transactions []transactionRequest `json:"transactions"`
}

func (s *Server) handleBulkCreateTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req bulkCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Transactions) == 0 {
		respondError(w, http.StatusBadRequest, "transactions must not be empty")
		return
	}

	code, _ := s.displayFor(r.Context(), userID)
	txns := make([]core.Transaction, 0, len(req.Transactions))
	for _, tr := range req.Transactions {
		t, err := tr.toCore(userID, code)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		txns = append(txns, t)
	}

	created, err := s.transactions.BulkCreate(r.Context(), txns)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	for _, t := range created {
		s.invalidateDashboard(r.Context(), userID, t.Date)
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"transactions": toTransactionList(created, nil),
		"count":        len(created),
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.store.GetTransaction(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	_, display := s.displayFor(r.Context(), userID)
	respondJSON(w, http.StatusOK, toTransactionJSON(t, display))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.store.GetTransaction(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := s.transactions.Delete(r.Context(), id, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboard(r.Context(), userID, t.Date)
	respondJSON(w, http.StatusNoContent, nil)
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleBulkDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req bulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}

	// Capture affected months before the rows disappear.
	var dates []time.Time
	for _, id := range req.IDs {
		if t, err := s.store.GetTransaction(r.Context(), id, userID); err == nil {
			dates = append(dates, t.Date)
		}
	}

	if err := s.transactions.BulkDelete(r.Context(), req.IDs, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboard(r.Context(), userID, dates...)
	respondJSON(w, http.StatusNoContent, nil)
}
