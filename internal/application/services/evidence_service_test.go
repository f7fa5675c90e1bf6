package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
)

func evidenceContext(records ...entities.RetrievedRecord) *entities.QueryContext {
	return &entities.QueryContext{
		Records:      records,
		TotalRecords: len(records),
	}
}

func TestScore_MedicationScenario(t *testing.T) {
	record := entities.RetrievedRecord{
		SourceID:    "rec1",
		PatientID:   "P001",
		PatientName: "John Doe",
		Date:        "2024-07-18",
		RecordType:  "visit",
		Text:        "Patient visit. Medication prescribed: Lisinopril 10mg daily. Follow up in 3 months.",
		Medication:  "Lisinopril 10mg daily",
		Confidence:  0.95,
	}

	service := NewEvidenceService()
	citations := service.Score("What medications is John Doe taking?", evidenceContext(record))

	require.Len(t, citations, 1)
	// 0.95 + 0.10 + (7/12)*0.10 caps at 1.0
	assert.Equal(t, 1.0, citations[0].Confidence)
	assert.Contains(t, citations[0].Text, "Lisinopril")
}

func TestScore_DefaultBaseConfidence(t *testing.T) {
	record := entities.RetrievedRecord{
		SourceID: "rec1",
		Date:     "2023-05-01",
		Text:     "Routine checkup, nothing remarkable.",
	}

	service := NewEvidenceService()
	citations := service.Score("How is the patient doing?", evidenceContext(record))

	require.Len(t, citations, 1)
	assert.Equal(t, 0.7, citations[0].Confidence)
}

func TestScore_LabBoost(t *testing.T) {
	record := entities.RetrievedRecord{
		SourceID:   "rec1",
		Date:       "2023-02-01",
		RecordType: "lab",
		Text:       "Lab test performed.",
		Confidence: 0.5,
	}

	service := NewEvidenceService()
	citations := service.Score("Show me the lab results", evidenceContext(record))

	require.Len(t, citations, 1)
	assert.Equal(t, 0.65, citations[0].Confidence)
}

func TestScore_RecencyBoostScalesWithMonth(t *testing.T) {
	january := entities.RetrievedRecord{SourceID: "a", Date: "2024-01-15", Text: "x", Confidence: 0.5}
	december := entities.RetrievedRecord{SourceID: "b", Date: "2024-12-15", Text: "x", Confidence: 0.5}

	service := NewEvidenceService()
	citations := service.Score("anything", evidenceContext(january, december))

	require.Len(t, citations, 2)
	// December outranks January on recency alone.
	assert.Equal(t, "b", citations[0].SourceID)
	assert.Equal(t, 0.6, citations[0].Confidence)
	assert.InDelta(t, 0.51, citations[1].Confidence, 1e-9)
}

func TestScore_SortedDescendingWithinBounds(t *testing.T) {
	records := []entities.RetrievedRecord{
		{SourceID: "a", Date: "2023-01-01", Text: "x", Confidence: 0.4},
		{SourceID: "b", Date: "2024-11-01", Text: "x", Confidence: 0.95},
		{SourceID: "c", Date: "2023-06-01", Text: "x", Confidence: 0.8},
	}

	service := NewEvidenceService()
	citations := service.Score("anything", evidenceContext(records...))

	require.Len(t, citations, 3)
	for i, citation := range citations {
		assert.GreaterOrEqual(t, citation.Confidence, 0.0)
		assert.LessOrEqual(t, citation.Confidence, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, citation.Confidence, citations[i-1].Confidence)
		}
	}
}

func TestScore_StableOrderOnTies(t *testing.T) {
	records := []entities.RetrievedRecord{
		{SourceID: "first", Date: "2023-01-01", Text: "x", Confidence: 0.8},
		{SourceID: "second", Date: "2023-01-01", Text: "x", Confidence: 0.8},
	}

	service := NewEvidenceService()
	citations := service.Score("anything", evidenceContext(records...))

	require.Len(t, citations, 2)
	assert.Equal(t, "first", citations[0].SourceID)
	assert.Equal(t, "second", citations[1].SourceID)
}

func TestExtractSnippet_RelevantSentences(t *testing.T) {
	text := "Initial consult went well. Medication adjusted to 20mg. Diagnosis unchanged. Patient reports no side effects from the medication. Next visit scheduled."

	snippet := extractSnippet(text, "What medication changes were made?")

	assert.Equal(t, "Medication adjusted to 20mg. Patient reports no side effects from the medication", snippet)
}

func TestExtractSnippet_DescriptionFallback(t *testing.T) {
	text := "Patient: John Doe (ID: P001)\nDescription: Annual physical examination\nDoctor: Dr. Smith"

	snippet := extractSnippet(text, "What happened during the checkup?")

	assert.Equal(t, "Annual physical examination", snippet)
}

func TestExtractSnippet_PrefixFallback(t *testing.T) {
	text := strings.Repeat("a", 300)

	snippet := extractSnippet(text, "What happened?")

	assert.Len(t, snippet, 200)
}

func TestExtractSnippet_PrefixFallbackKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("å", 300)

	snippet := extractSnippet(text, "What happened?")

	assert.True(t, utf8.ValidString(snippet))
	assert.Equal(t, strings.Repeat("å", 200), snippet)
}

func TestFormatCitations(t *testing.T) {
	citations := []entities.Citation{
		{PatientName: "John Doe", Date: "2024-07-18", Text: "Lisinopril 10mg daily", Confidence: 0.95},
		{PatientName: "Maria Garcia", Date: "2024-04-18", Text: "HbA1c 7.2%", Confidence: 0.8},
	}

	out := FormatCitations(citations)

	assert.True(t, strings.HasPrefix(out, "Sources:\n"))
	assert.Contains(t, out, "[1] John Doe - 2024-07-18")
	assert.Contains(t, out, "Lisinopril 10mg daily")
	assert.Contains(t, out, "(Confidence: 95%)")
	assert.Contains(t, out, "[2] Maria Garcia - 2024-04-18")
}

func TestFormatCitations_Empty(t *testing.T) {
	assert.Equal(t, "No citations available.", FormatCitations(nil))
}
