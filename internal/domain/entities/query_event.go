package entities

import "time"

// QueryEvent is an analytics row recorded for every processed query.
type QueryEvent struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	PatientID       string    `json:"patient_id,omitempty"`
	Category        Category  `json:"category"`
	CitationCount   int       `json:"citation_count"`
	RetrievalTimeMs int64     `json:"retrieval_time_ms"`
	TotalTimeMs     int64     `json:"total_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}
