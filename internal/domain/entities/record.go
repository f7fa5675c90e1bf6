package entities

import (
	"fmt"
	"time"
)

// Search method provenance tags for retrieved records.
const (
	SearchMethodVector        = "vector"
	SearchMethodPatientFilter = "patient_filter"
)

// MedicalRecord represents one persisted medical encounter.
type MedicalRecord struct {
	ID          int64     `json:"id" db:"id"`
	PatientID   string    `json:"patient_id" db:"patient_id"`
	PatientName string    `json:"patient_name" db:"patient_name"`
	Date        string    `json:"date" db:"date"`
	RecordType  string    `json:"record_type" db:"record_type"`
	Description string    `json:"description" db:"description"`
	Medication  string    `json:"medication,omitempty" db:"medication"`
	Diagnosis   string    `json:"diagnosis,omitempty" db:"diagnosis"`
	LabResult   string    `json:"lab_result,omitempty" db:"lab_result"`
	Doctor      string    `json:"doctor" db:"doctor"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DocumentText renders the record as the labeled text block that is embedded
// for semantic search and used as evidence text for patient-filter hits. The
// "Description:" label is also a snippet-extraction fallback anchor.
func (r *MedicalRecord) DocumentText() string {
	return fmt.Sprintf(
		"Patient: %s (ID: %s)\nDate: %s\nType: %s\nDescription: %s\nDiagnosis: %s\nMedication: %s\nLab Results: %s\nDoctor: %s",
		r.PatientName, r.PatientID, r.Date, r.RecordType,
		orNA(r.Description), orNA(r.Diagnosis), orNA(r.Medication), orNA(r.LabResult), r.Doctor,
	)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// RetrievedRecord is a transient retrieval candidate, reconstructed fresh per
// query. The confidence reflects the retrieval method: inverse vector distance
// for semantic hits, a fixed value for patient-filter hits.
type RetrievedRecord struct {
	SourceID     string  `json:"source_id"`
	PatientID    string  `json:"patient_id"`
	PatientName  string  `json:"patient_name"`
	Date         string  `json:"date"`
	RecordType   string  `json:"record_type"`
	Text         string  `json:"text"`
	Medication   string  `json:"medication,omitempty"`
	Diagnosis    string  `json:"diagnosis,omitempty"`
	LabResult    string  `json:"lab_result,omitempty"`
	Confidence   float64 `json:"confidence"`
	SearchMethod string  `json:"search_method"`
}

// PatientInfo identifies a patient in the record corpus.
type PatientInfo struct {
	PatientID   string `json:"patient_id" db:"patient_id"`
	PatientName string `json:"patient_name" db:"patient_name"`
}
