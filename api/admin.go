package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/docsage/docsage/internal/activity"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/log"
)

// MaxBlockedTerms bounds the blocklist size per update.
const MaxBlockedTerms = 1000

// BlocklistStore reads and replaces the blocked terms.
type BlocklistStore interface {
	Terms() []string
	SetTerms(terms []string) error
}

// ModelStore reads and updates the model selection.
type ModelStore interface {
	Load() (config.ModelConfig, error)
	Update(upd config.ModelUpdate) error
}

// ActivityStore exposes the audit trails and metrics series.
type ActivityStore interface {
	LogAdmin(action, username, details string) error
	Queries() []activity.QueryEntry
	Admin() []activity.AdminEntry
	Metrics() []activity.IngestionMetric
}

// adminHandler handles the admin surfaces: blocklist, models, logs, metrics.
type adminHandler struct {
	blocklist BlocklistStore
	models    ModelStore
	activity  ActivityStore
	logger    log.Logger
}

// RegisterRoutes registers admin routes on the given mux. Routes whose
// backing store is absent are not registered.
func (h *adminHandler) RegisterRoutes(mux *http.ServeMux) {
	if h.blocklist != nil {
		mux.HandleFunc("GET /api/blocklist", h.getBlocklist)
		mux.HandleFunc("PUT /api/blocklist", h.putBlocklist)
	}
	if h.models != nil {
		mux.HandleFunc("GET /api/models", h.getModels)
		mux.HandleFunc("PUT /api/models", h.putModels)
	}
	if h.activity != nil {
		mux.HandleFunc("GET /api/logs/queries", h.queryLogs)
		mux.HandleFunc("GET /api/logs/admin", h.adminLogs)
		mux.HandleFunc("GET /api/metrics", h.metrics)
	}
}

// BlocklistResponse is the body for GET /api/blocklist.
type BlocklistResponse struct {
	Terms []string `json:"terms"`
}

func (h *adminHandler) getBlocklist(w http.ResponseWriter, _ *http.Request) {
	terms := h.blocklist.Terms()
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, BlocklistResponse{Terms: terms}, h.logger)
}

// UpdateBlocklistRequest is the body for PUT /api/blocklist. The full term
// list is replaced; an empty list clears the blocklist.
type UpdateBlocklistRequest struct {
	Terms    []string `json:"terms"`
	Username string   `json:"username"`
}

func (h *adminHandler) putBlocklist(w http.ResponseWriter, r *http.Request) {
	var req UpdateBlocklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if len(req.Terms) > MaxBlockedTerms {
		writeError(w, http.StatusBadRequest, "too_many_terms",
			fmt.Sprintf("at most %d terms allowed", MaxBlockedTerms), h.logger)
		return
	}

	if err := h.blocklist.SetTerms(req.Terms); err != nil {
		h.logger.Error("updating blocklist failed", "error", err)
		writeError(w, http.StatusInternalServerError, "update_failed", "failed to save blocked terms", h.logger)
		return
	}

	h.logAdmin(activity.ActionUpdateBlockedTerms, req.Username,
		fmt.Sprintf("%d terms", len(req.Terms)))

	terms := h.blocklist.Terms()
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, BlocklistResponse{Terms: terms}, h.logger)
}

func (h *adminHandler) getModels(w http.ResponseWriter, _ *http.Request) {
	mc, err := h.models.Load()
	if err != nil {
		h.logger.Error("loading model config failed", "error", err)
		writeError(w, http.StatusInternalServerError, "load_failed", "failed to load model configuration", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, mc, h.logger)
}

// UpdateModelsRequest is the body for PUT /api/models. Absent fields keep
// their current value.
type UpdateModelsRequest struct {
	GenerationModel *string `json:"generation_model"`
	EmbeddingModel  *string `json:"embedding_model"`
	Username        string  `json:"username"`
}

func (h *adminHandler) putModels(w http.ResponseWriter, r *http.Request) {
	var req UpdateModelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if req.GenerationModel == nil && req.EmbeddingModel == nil {
		writeError(w, http.StatusBadRequest, "empty_update", "no model fields provided", h.logger)
		return
	}

	upd := config.ModelUpdate{
		GenerationModel: req.GenerationModel,
		EmbeddingModel:  req.EmbeddingModel,
	}
	if err := h.models.Update(upd); err != nil {
		h.logger.Error("updating model config failed", "error", err)
		writeError(w, http.StatusInternalServerError, "update_failed", "failed to save model configuration", h.logger)
		return
	}

	mc, err := h.models.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load_failed", "failed to reload model configuration", h.logger)
		return
	}

	var changed []string
	if req.GenerationModel != nil {
		changed = append(changed, "generation_model="+mc.GenerationModel)
	}
	if req.EmbeddingModel != nil {
		changed = append(changed, "embedding_model="+mc.EmbeddingModel)
	}
	h.logAdmin(activity.ActionUpdateModels, req.Username, strings.Join(changed, " "))

	writeJSON(w, http.StatusOK, mc, h.logger)
}

func (h *adminHandler) queryLogs(w http.ResponseWriter, _ *http.Request) {
	entries := h.activity.Queries()
	if entries == nil {
		entries = []activity.QueryEntry{}
	}
	writeJSON(w, http.StatusOK, entries, h.logger)
}

func (h *adminHandler) adminLogs(w http.ResponseWriter, _ *http.Request) {
	entries := h.activity.Admin()
	if entries == nil {
		entries = []activity.AdminEntry{}
	}
	writeJSON(w, http.StatusOK, entries, h.logger)
}

func (h *adminHandler) metrics(w http.ResponseWriter, _ *http.Request) {
	series := h.activity.Metrics()
	if series == nil {
		series = []activity.IngestionMetric{}
	}
	writeJSON(w, http.StatusOK, series, h.logger)
}

// logAdmin best-effort appends an admin audit entry.
func (h *adminHandler) logAdmin(action, username, details string) {
	if h.activity == nil {
		return
	}
	if username == "" {
		username = "admin"
	}
	if err := h.activity.LogAdmin(action, username, details); err != nil {
		h.logger.Error("admin log append failed", "action", action, "error", err)
	}
}
