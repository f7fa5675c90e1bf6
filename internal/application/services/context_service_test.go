package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
)

func sampleRecords() []entities.RetrievedRecord {
	return []entities.RetrievedRecord{
		{
			SourceID:    "rec2",
			PatientID:   "P001",
			PatientName: "John Doe",
			Date:        "2024-03-10",
			RecordType:  "visit",
			Diagnosis:   "Hypertension Stage 1",
			Medication:  "Lisinopril 10mg daily",
			Confidence:  0.88,
		},
		{
			SourceID:    "rec1",
			PatientID:   "P001",
			PatientName: "John Doe",
			Date:        "2024-07-18",
			RecordType:  "visit",
			Diagnosis:   "Hypertension Stage 1",
			Medication:  "Lisinopril 10mg daily",
			Confidence:  0.95,
		},
	}
}

func TestBuildContext_Empty(t *testing.T) {
	service := NewContextService()
	qc := service.Build("any question", nil, entities.CategoryGeneral)

	assert.Equal(t, "No relevant records found.", qc.Summary)
	assert.Equal(t, 0, qc.TotalRecords)
	assert.Empty(t, qc.Records)
	assert.Empty(t, qc.KeyFindings)
}

func TestBuildContext_SortsByDateDescending(t *testing.T) {
	service := NewContextService()
	qc := service.Build("question", sampleRecords(), entities.CategoryGeneral)

	require.Len(t, qc.Records, 2)
	assert.Equal(t, "2024-07-18", qc.Records[0].Date)
	assert.Equal(t, "2024-03-10", qc.Records[1].Date)
}

func TestBuildContext_UnparseableDateKeepsInputOrder(t *testing.T) {
	records := sampleRecords()
	records[1].Date = "July 18, 2024"

	service := NewContextService()
	qc := service.Build("question", records, entities.CategoryGeneral)

	require.Len(t, qc.Records, 2)
	assert.Equal(t, "rec2", qc.Records[0].SourceID)
	assert.Equal(t, "rec1", qc.Records[1].SourceID)
}

func TestBuildContext_MedicationFindings(t *testing.T) {
	records := sampleRecords()
	records = append(records, entities.RetrievedRecord{
		SourceID:    "rec3",
		PatientID:   "P001",
		PatientName: "John Doe",
		Date:        "2024-01-05",
		RecordType:  "visit",
		Medication:  "none",
	})

	service := NewContextService()
	qc := service.Build("question", records, entities.CategoryMedication)

	require.NotEmpty(t, qc.KeyFindings)
	assert.Equal(t, "Medications found: Lisinopril 10mg daily", qc.KeyFindings[0])
}

func TestBuildContext_DiagnosisFindings(t *testing.T) {
	service := NewContextService()
	qc := service.Build("question", sampleRecords(), entities.CategoryDiagnosis)

	require.NotEmpty(t, qc.KeyFindings)
	assert.Equal(t, "Diagnoses found: Hypertension Stage 1", qc.KeyFindings[0])
}

func TestBuildContext_TimelineFindings(t *testing.T) {
	service := NewContextService()
	qc := service.Build("question", sampleRecords(), entities.CategoryTimeline)

	require.Len(t, qc.KeyFindings, 3)
	assert.Equal(t, "Records span from 2024-03-10 to 2024-07-18", qc.KeyFindings[0])
	assert.Equal(t, "Total visits/records: 2", qc.KeyFindings[1])
}

func TestBuildContext_LabFindings(t *testing.T) {
	records := sampleRecords()
	records[0].RecordType = "lab"

	service := NewContextService()
	qc := service.Build("question", records, entities.CategoryLabResults)

	assert.Contains(t, qc.KeyFindings, "Found 1 lab result(s)")
}

func TestBuildContext_LabFindingOmittedWhenNone(t *testing.T) {
	service := NewContextService()
	qc := service.Build("question", sampleRecords(), entities.CategoryLabResults)

	// only the patient finding remains
	require.Len(t, qc.KeyFindings, 1)
	assert.Equal(t, "All records for patient: John Doe", qc.KeyFindings[0])
}

func TestBuildContext_MultiPatientFinding(t *testing.T) {
	records := sampleRecords()
	records[0].PatientID = "P002"
	records[0].PatientName = "Jane Roe"

	service := NewContextService()
	qc := service.Build("question", records, entities.CategoryGeneral)

	assert.Contains(t, qc.KeyFindings, "Records from 2 patient(s)")
}

func TestBuildContext_Summary(t *testing.T) {
	service := NewContextService()
	qc := service.Build("question", sampleRecords(), entities.CategoryGeneral)

	assert.Equal(t, "Found 2 record(s) for John Doe. Date range: 2024-03-10 to 2024-07-18.", qc.Summary)
}

func TestBuildContext_GroupsByPatientPreservingOrder(t *testing.T) {
	records := sampleRecords()
	records = append(records, entities.RetrievedRecord{
		SourceID:    "rec3",
		PatientID:   "P002",
		PatientName: "Jane Roe",
		Date:        "2024-05-01",
		RecordType:  "visit",
	})

	service := NewContextService()
	qc := service.Build("question", records, entities.CategoryGeneral)

	require.Len(t, qc.PatientGroups, 2)
	group := qc.PatientGroups["P001"]
	require.Len(t, group, 2)
	assert.Equal(t, "2024-07-18", group[0].Date)
	assert.Equal(t, "2024-03-10", group[1].Date)
}

func TestBuildContext_SortIsIdempotent(t *testing.T) {
	service := NewContextService()
	first := service.Build("question", sampleRecords(), entities.CategoryGeneral)
	second := service.Build("question", first.Records, entities.CategoryGeneral)

	assert.Equal(t, first.Records, second.Records)
}
