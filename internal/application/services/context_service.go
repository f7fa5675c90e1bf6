package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
)

const recordDateLayout = "2006-01-02"

const noRecordsSummary = "No relevant records found."

// ContextService organizes raw candidates into the structured aggregate the
// downstream stages consume: chronological order, category-specific key
// findings, a short summary and per-patient grouping.
type ContextService struct{}

// NewContextService creates a new context service.
func NewContextService() *ContextService {
	return &ContextService{}
}

// Build produces the organized context for a candidate list. A nil or empty
// candidate list yields the empty context, never nil.
func (s *ContextService) Build(question string, records []entities.RetrievedRecord, category entities.Category) *entities.QueryContext {
	if len(records) == 0 {
		return &entities.QueryContext{
			Summary:     noRecordsSummary,
			Records:     []entities.RetrievedRecord{},
			KeyFindings: []string{},
			Category:    category,
		}
	}

	sorted := sortByDateDesc(records)

	return &entities.QueryContext{
		Summary:       buildSummary(sorted),
		TotalRecords:  len(sorted),
		Records:       sorted,
		KeyFindings:   extractKeyFindings(sorted, category),
		PatientGroups: groupByPatient(sorted),
		Category:      category,
	}
}

// sortByDateDesc orders records most recent first. If any date fails to
// parse the input order is kept for all of them.
func sortByDateDesc(records []entities.RetrievedRecord) []entities.RetrievedRecord {
	sorted := make([]entities.RetrievedRecord, len(records))
	copy(sorted, records)

	parsed := make([]time.Time, len(sorted))
	for i, record := range sorted {
		t, err := time.Parse(recordDateLayout, record.Date)
		if err != nil {
			return sorted
		}
		parsed[i] = t
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return parsed[i].After(parsed[j])
	})
	return sorted
}

func extractKeyFindings(records []entities.RetrievedRecord, category entities.Category) []string {
	findings := []string{}

	switch category {
	case entities.CategoryMedication:
		if meds := distinctFieldValues(records, func(r entities.RetrievedRecord) string { return r.Medication }); len(meds) > 0 {
			findings = append(findings, "Medications found: "+strings.Join(meds, ", "))
		}
	case entities.CategoryDiagnosis:
		if diagnoses := distinctFieldValues(records, func(r entities.RetrievedRecord) string { return r.Diagnosis }); len(diagnoses) > 0 {
			findings = append(findings, "Diagnoses found: "+strings.Join(diagnoses, ", "))
		}
	case entities.CategoryTimeline:
		earliest := records[len(records)-1].Date
		latest := records[0].Date
		findings = append(findings, fmt.Sprintf("Records span from %s to %s", earliest, latest))
		findings = append(findings, fmt.Sprintf("Total visits/records: %d", len(records)))
	case entities.CategoryLabResults:
		labCount := 0
		for _, record := range records {
			if record.RecordType == "lab" {
				labCount++
			}
		}
		if labCount > 0 {
			findings = append(findings, fmt.Sprintf("Found %d lab result(s)", labCount))
		}
	}

	patients := distinctPatientNames(records)
	if len(patients) == 1 {
		findings = append(findings, "All records for patient: "+patients[0])
	} else {
		findings = append(findings, fmt.Sprintf("Records from %d patient(s)", len(patients)))
	}

	return findings
}

func buildSummary(records []entities.RetrievedRecord) string {
	patients := distinctPatientNames(records)

	var summary string
	if len(patients) == 1 {
		summary = fmt.Sprintf("Found %d record(s) for %s. ", len(records), patients[0])
	} else {
		summary = fmt.Sprintf("Found %d record(s) across %d patient(s). ", len(records), len(patients))
	}

	summary += fmt.Sprintf("Date range: %s to %s.", records[len(records)-1].Date, records[0].Date)
	return summary
}

func groupByPatient(records []entities.RetrievedRecord) map[string][]entities.RetrievedRecord {
	groups := make(map[string][]entities.RetrievedRecord)
	for _, record := range records {
		groups[record.PatientID] = append(groups[record.PatientID], record)
	}
	return groups
}

// distinctFieldValues collects distinct non-empty values of one field in
// encounter order, skipping placeholder values.
func distinctFieldValues(records []entities.RetrievedRecord, field func(entities.RetrievedRecord) string) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for _, record := range records {
		value := strings.TrimSpace(field(record))
		lower := strings.ToLower(value)
		if value == "" || lower == "none" || lower == "n/a" {
			continue
		}
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		values = append(values, value)
	}
	return values
}

func distinctPatientNames(records []entities.RetrievedRecord) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, record := range records {
		if _, ok := seen[record.PatientName]; ok {
			continue
		}
		seen[record.PatientName] = struct{}{}
		names = append(names, record.PatientName)
	}
	return names
}
