package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/domain/repositories"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/observability"
)

const (
	defaultRetrievalLimit   = 5
	patientFilterConfidence = 0.85
	patientHistoryTopN      = 3
)

// RetrievalService gathers candidate records for a question. Semantic hits
// from the search index are merged with the patient's most recent history
// when a patient filter is present. Retrieval never fails the query: backend
// errors degrade to an empty candidate list.
type RetrievalService struct {
	search  repositories.RecordSearchRepository
	records repositories.RecordRepository
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(search repositories.RecordSearchRepository, records repositories.RecordRepository) *RetrievalService {
	return &RetrievalService{search: search, records: records}
}

// Retrieve returns up to limit candidates ordered by descending confidence.
func (s *RetrievalService) Retrieve(ctx context.Context, question, patientID string, limit int) []entities.RetrievedRecord {
	results, err := s.retrieve(ctx, question, patientID, limit)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("patient_id", patientID).
			Msg("retrieval degraded to empty candidate list")
		return []entities.RetrievedRecord{}
	}
	return results
}

func (s *RetrievalService) retrieve(ctx context.Context, question, patientID string, limit int) ([]entities.RetrievedRecord, error) {
	if limit <= 0 {
		limit = defaultRetrievalLimit
	}

	if s.search == nil {
		return nil, fmt.Errorf("search backend not configured")
	}

	hits, err := s.search.VectorSearch(ctx, question, limit)
	if err != nil {
		return nil, err
	}

	results := make([]entities.RetrievedRecord, 0, limit)
	for _, hit := range hits {
		if patientID != "" && hit.Record.PatientID != patientID {
			continue
		}
		if hasPatientDate(results, hit.Record.PatientID, hit.Record.Date) {
			continue
		}
		record := hit.Record
		record.Confidence = math.Max(0, 1-hit.Distance)
		record.SearchMethod = entities.SearchMethodVector
		results = append(results, record)
	}

	if patientID != "" {
		history, err := s.records.PatientHistory(ctx, patientID)
		if err != nil {
			return nil, err
		}
		if len(history) > patientHistoryTopN {
			history = history[:patientHistoryTopN]
		}
		for i := range history {
			record := &history[i]
			if hasPatientDate(results, record.PatientID, record.Date) {
				continue
			}
			results = append(results, entities.RetrievedRecord{
				SourceID:     fmt.Sprintf("db_%d", record.ID),
				PatientID:    record.PatientID,
				PatientName:  record.PatientName,
				Date:         record.Date,
				RecordType:   record.RecordType,
				Text:         record.DocumentText(),
				Medication:   record.Medication,
				Diagnosis:    record.Diagnosis,
				LabResult:    record.LabResult,
				Confidence:   patientFilterConfidence,
				SearchMethod: entities.SearchMethodPatientFilter,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func hasPatientDate(records []entities.RetrievedRecord, patientID, date string) bool {
	for _, r := range records {
		if r.PatientID == patientID && r.Date == date {
			return true
		}
	}
	return false
}
