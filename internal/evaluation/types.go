package evaluation

import (
	"time"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
)

// GoldenQuery represents a labeled test question with expected outcomes.
type GoldenQuery struct {
	ID              string            `json:"id"`
	Question        string            `json:"question"`
	PatientID       string            `json:"patient_id,omitempty"`
	Category        entities.Category `json:"category"`
	ExpectedSources []string          `json:"expected_sources"`
	Difficulty      string            `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single question.
type EvalResult struct {
	QueryID          string
	Question         string
	Category         entities.Category
	CategoryCorrect  bool
	RecallAt5        float64
	MRRAt5           float64
	CitationCount    int
	RetrievedSources []string
	Answered         bool
	Latency          time.Duration
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	TotalQueries     int
	AvgRecallAt5     float64
	AvgMRRAt5        float64
	AvgLatency       time.Duration
	QueriesAnswered  int // queries that produced at least one citation
	CategoryAccuracy float64
	ByCategory       map[entities.Category]*CategorySummary
}

// CategorySummary holds metrics grouped by expected category.
type CategorySummary struct {
	Count        int
	AvgRecallAt5 float64
	AvgMRRAt5    float64
}
