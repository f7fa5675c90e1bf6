package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/medgraph/medrecords-qa/internal/application/services"
	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	apperrors "github.com/medgraph/medrecords-qa/pkg/errors"
)

// QueryHandler handles question-answering HTTP requests
type QueryHandler struct {
	pipeline  *services.QueryPipeline
	analytics *services.QueryAnalyticsService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(pipeline *services.QueryPipeline, analytics *services.QueryAnalyticsService) *QueryHandler {
	return &QueryHandler{
		pipeline:  pipeline,
		analytics: analytics,
	}
}

// HandleQuery handles POST /api/query
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req entities.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.pipeline.Run(r.Context(), req)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GetUnansweredQueries handles GET /api/analytics/unanswered-queries
func (h *QueryHandler) GetUnansweredQueries(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		respondWithError(w, http.StatusServiceUnavailable, "analytics not available")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	events, err := h.analytics.UnansweredQueries(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load unanswered queries")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": events,
		"count":   len(events),
	})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
