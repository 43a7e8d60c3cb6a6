package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/csvimport"
)

// maxImportBytes bounds CSV uploads.
const maxImportBytes = 5 << 20

type importRowJSON struct {
	Line      int      `json:"line"`
	Errors    []string `json:"errors,omitempty"`
	Duplicate bool     `json:"duplicate,omitempty"`
}

type importStageResponse struct {
	BatchID string           `json:"batch_id"`
	Report  csvimport.Report `json:"report"`
	Rows    []importRowJSON  `json:"rows"`
}

// handleImportCSV accepts a multipart upload under the "file" field,
// validates it and stages the batch. Nothing is written until commit.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	batch, err := s.imports.Stage(r.Context(), userID, file)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	rows := make([]importRowJSON, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		// Clean rows add nothing the client cannot infer from the report.
		if row.Valid && !row.Duplicate {
			continue
		}
		rows = append(rows, importRowJSON{
			Line:      row.Line,
			Errors:    row.Errors,
			Duplicate: row.Duplicate,
		})
	}

	respondJSON(w, http.StatusOK, importStageResponse{
		BatchID: batch.ID,
		Report:  batch.Report,
		Rows:    rows,
	})
}

type importCommitRequest struct {
	BatchID string `json:"batch_id"`
}

// handleImportCommit applies a staged batch atomically.
func (s *Server) handleImportCommit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req importCommitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.BatchID) == "" {
		respondError(w, http.StatusBadRequest, "batch_id is required")
		return
	}

	count, err := s.imports.Commit(r.Context(), userID, req.BatchID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	// Imported rows can land in any month; a fresh dashboard read will
	// recompute whatever these writes touched.
	s.invalidateDashboardAll(r.Context(), userID)

	respondJSON(w, http.StatusOK, map[string]any{"imported": count})
}
