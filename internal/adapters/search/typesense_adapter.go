package search

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/domain/repositories"
	tsclient "github.com/medgraph/medrecords-qa/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements semantic record search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements RecordSearchRepository
var _ repositories.RecordSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense search adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index adds or replaces a record in the search index
func (a *TypesenseAdapter) Index(ctx context.Context, record *entities.MedicalRecord) error {
	document := map[string]interface{}{
		"id":           fmt.Sprintf("record_%d", record.ID),
		"patient_id":   record.PatientID,
		"patient_name": record.PatientName,
		"date":         record.Date,
		"record_type":  record.RecordType,
		"description":  record.Description,
		"document":     record.DocumentText(),
		"medication":   record.Medication,
		"diagnosis":    record.Diagnosis,
		"lab_result":   record.LabResult,
		"indexed_at":   time.Now().Unix(),
	}

	_, err := a.client.Client().Collection(tsclient.RecordsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index record: %w", err)
	}

	return nil
}

// Delete removes a record from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, sourceID string) error {
	_, err := a.client.Client().Collection(tsclient.RecordsCollection).Document(sourceID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete record from index: %w", err)
	}
	return nil
}

// VectorSearch returns up to limit nearest-neighbour hits for the query. The
// embedding field is auto-populated by Typesense, so querying by it performs
// semantic search; vector_distance is the backend-reported dissimilarity.
func (a *TypesenseAdapter) VectorSearch(ctx context.Context, query string, limit int) ([]repositories.VectorHit, error) {
	if limit <= 0 {
		limit = 5
	}

	searchParams := &api.SearchCollectionParams{
		Q:             pointer.String(query),
		QueryBy:       pointer.String("embedding"),
		ExcludeFields: pointer.String("embedding"),
		Page:          pointer.Int(1),
		PerPage:       pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.RecordsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}

	if result.Hits == nil {
		return nil, nil
	}

	hits := make([]repositories.VectorHit, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document

		record := entities.RetrievedRecord{
			SourceID:    docString(doc, "id"),
			PatientID:   docString(doc, "patient_id"),
			PatientName: docString(doc, "patient_name"),
			Date:        docString(doc, "date"),
			RecordType:  docString(doc, "record_type"),
			Text:        docString(doc, "document"),
			Medication:  docString(doc, "medication"),
			Diagnosis:   docString(doc, "diagnosis"),
			LabResult:   docString(doc, "lab_result"),
		}

		distance := 0.0
		if hit.VectorDistance != nil {
			distance = float64(*hit.VectorDistance)
		}

		hits = append(hits, repositories.VectorHit{
			Record:   record,
			Distance: distance,
		})
	}

	return hits, nil
}

func docString(doc map[string]interface{}, key string) string {
	if val, ok := doc[key].(string); ok {
		return val
	}
	return ""
}
