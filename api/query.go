package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/activity"
	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/rag"
)

// MaxQueryLength bounds a single question.
const MaxQueryLength = 8192

// QueryService answers one question and records it.
type QueryService interface {
	Answer(ctx context.Context, query, sessionID string) string
}

// IngestService runs the document ingestion pipeline.
type IngestService interface {
	Ingest(ctx context.Context, dir string) (rag.Report, error)
}

// queryHandler handles the question-answering and ingestion endpoints.
type queryHandler struct {
	service      QueryService
	ingestor     IngestService
	activity     ActivityStore
	documentsDir string
	logger       log.Logger
}

// RegisterRoutes registers query routes on the given mux.
func (h *queryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.query)
	mux.HandleFunc("POST /api/ingest", h.ingest)
}

// QueryRequest is the request body for POST /api/query.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// QueryResponse is the response body for POST /api/query.
type QueryResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// query answers a single question. The response is always 200 with a
// response text: blocked queries and pipeline failures surface as answer
// text, not as transport errors.
func (h *queryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query is required", h.logger)
		return
	}
	if len(req.Query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, "query_too_long", "query exceeds maximum length", h.logger)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	response := h.service.Answer(r.Context(), req.Query, req.SessionID)

	writeJSON(w, http.StatusOK, QueryResponse{
		Response:  response,
		SessionID: req.SessionID,
	}, h.logger)
}

// IngestRequest is the request body for POST /api/ingest. The body is
// optional; an empty body ingests with the default admin identity.
type IngestRequest struct {
	Username string `json:"username"`
}

// IngestResponse is the response body for POST /api/ingest.
type IngestResponse struct {
	Summary     string          `json:"summary"`
	TotalChunks int             `json:"total_chunks"`
	FilesLoaded int             `json:"files_loaded"`
	Files       []docFileResult `json:"files"`
}

type docFileResult struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ingest runs ingestion over the configured documents folder.
func (h *queryHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	// Body is optional for this endpoint.
	_ = json.NewDecoder(r.Body).Decode(&req)
	username := req.Username
	if username == "" {
		username = "admin"
	}

	report, err := h.ingestor.Ingest(r.Context(), h.documentsDir)
	if err != nil {
		h.logger.Error("ingestion failed", "error", err)
		writeError(w, http.StatusInternalServerError, "ingest_failed", err.Error(), h.logger)
		return
	}

	if h.activity != nil {
		if err := h.activity.LogAdmin(activity.ActionIngestDocuments, username, report.Summary); err != nil {
			h.logger.Error("admin log append failed", "error", err)
		}
	}

	resp := IngestResponse{
		Summary:     report.Summary,
		TotalChunks: report.TotalChunks,
		FilesLoaded: report.FilesLoaded,
		Files:       make([]docFileResult, 0, len(report.Files)),
	}
	for _, f := range report.Files {
		resp.Files = append(resp.Files, docFileResult{
			Path:   f.Path,
			Status: string(f.Status),
			Error:  f.Error,
		})
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}
