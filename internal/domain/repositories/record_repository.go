package repositories

import (
	"context"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
)

// RecordRepository defines the interface for medical record store operations
type RecordRepository interface {
	// Create persists a new medical record
	Create(ctx context.Context, record *entities.MedicalRecord) error

	// PatientHistory retrieves all records for a patient, most recent first
	PatientHistory(ctx context.Context, patientID string) ([]entities.MedicalRecord, error)

	// Search performs keyword search over descriptions, diagnoses and
	// medications, optionally restricted to one patient
	Search(ctx context.Context, query, patientID string) ([]entities.MedicalRecord, error)

	// ListPatients returns all distinct patients in the corpus
	ListPatients(ctx context.Context) ([]entities.PatientInfo, error)

	// InitSchema ensures the backing tables exist
	InitSchema(ctx context.Context) error
}

// VectorHit is one nearest-neighbour result from the search backend. Distance
// is the backend-reported dissimilarity; the retrieval stage converts it to a
// confidence score.
type VectorHit struct {
	Record   entities.RetrievedRecord
	Distance float64
}

// RecordSearchRepository defines the interface for semantic search over the
// record corpus (e.g. Typesense)
type RecordSearchRepository interface {
	// VectorSearch returns up to limit nearest-neighbour hits for the query
	VectorSearch(ctx context.Context, query string, limit int) ([]VectorHit, error)

	// Index adds or replaces a record in the search index
	Index(ctx context.Context, record *entities.MedicalRecord) error

	// Delete removes a record from the search index
	Delete(ctx context.Context, sourceID string) error
}

// QueryAnalyticsRepository persists per-query analytics events
type QueryAnalyticsRepository interface {
	// LogEvent records one processed query
	LogEvent(ctx context.Context, event *entities.QueryEvent) error

	// GetUnansweredQueries returns recent queries that produced no citations
	GetUnansweredQueries(ctx context.Context, limit int) ([]*entities.QueryEvent, error)
}
