package handlers

import (
	"net/http"
	"strings"

	"github.com/medgraph/medrecords-qa/internal/domain/repositories"
	apperrors "github.com/medgraph/medrecords-qa/pkg/errors"
)

// PatientHandler handles patient and record HTTP requests
type PatientHandler struct {
	records repositories.RecordRepository
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(records repositories.RecordRepository) *PatientHandler {
	return &PatientHandler{records: records}
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.records.ListPatients(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list patients")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// GetPatientRecords handles GET /api/patients/{id}/records
func (h *PatientHandler) GetPatientRecords(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	records, err := h.records.PatientHistory(r.Context(), patientID)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Type == apperrors.ErrorTypeNotFound {
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patient_id": patientID,
		"records":    records,
		"count":      len(records),
	})
}

// SearchRecords handles GET /api/records/search
func (h *PatientHandler) SearchRecords(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	patientID := r.URL.Query().Get("patient_id")

	records, err := h.records.Search(r.Context(), query, patientID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to search records")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"records": records,
		"count":   len(records),
	})
}
