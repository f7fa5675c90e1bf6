package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
)

const (
	defaultBaseConfidence = 0.7
	snippetFallbackLength = 200
	maxSnippetSentences   = 2
)

var (
	sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)
	descriptionLine  = regexp.MustCompile(`Description:\s*([^\n]+)`)
)

// evidenceKeywords are the terms a snippet sentence must share with the
// question to count as relevant.
var evidenceKeywords = []string{
	"medication", "diagnosis", "lab", "result", "test",
	"prescribed", "treatment", "condition", "visit",
}

// EvidenceService turns organized context records into scored citations:
// one citation per record, carrying the most relevant snippet and a
// confidence combining retrieval score, keyword relevance and recency.
type EvidenceService struct{}

// NewEvidenceService creates a new evidence service.
func NewEvidenceService() *EvidenceService {
	return &EvidenceService{}
}

// Score produces citations for every record in the context, ordered by
// descending confidence.
func (s *EvidenceService) Score(question string, qc *entities.QueryContext) []entities.Citation {
	citations := make([]entities.Citation, 0, len(qc.Records))
	for _, record := range qc.Records {
		citations = append(citations, entities.Citation{
			SourceID:    record.SourceID,
			PatientID:   record.PatientID,
			PatientName: record.PatientName,
			Date:        record.Date,
			RecordType:  record.RecordType,
			Text:        extractSnippet(record.Text, question),
			Confidence:  scoreRecord(record, question),
		})
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].Confidence > citations[j].Confidence
	})
	return citations
}

// extractSnippet picks the sentences of the record text sharing a keyword
// with the question, falling back to the description line and finally to a
// plain prefix of the text.
func extractSnippet(text, question string) string {
	questionLower := strings.ToLower(question)

	relevant := []string{}
	for _, sentence := range sentenceBoundary.Split(text, -1) {
		sentenceLower := strings.ToLower(sentence)
		for _, term := range evidenceKeywords {
			if strings.Contains(questionLower, term) && strings.Contains(sentenceLower, term) {
				relevant = append(relevant, strings.TrimSpace(sentence))
				break
			}
		}
	}
	if len(relevant) > 0 {
		if len(relevant) > maxSnippetSentences {
			relevant = relevant[:maxSnippetSentences]
		}
		return strings.Join(relevant, ". ")
	}

	if m := descriptionLine.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if runes := []rune(text); len(runes) > snippetFallbackLength {
		return string(runes[:snippetFallbackLength])
	}
	return text
}

// scoreRecord combines the retrieval confidence with keyword and recency
// boosts, capped at 1.0 and rounded to two decimals.
func scoreRecord(record entities.RetrievedRecord, question string) float64 {
	base := record.Confidence
	if base <= 0 {
		base = defaultBaseConfidence
	}

	questionLower := strings.ToLower(question)
	boost := 0.0
	if strings.Contains(questionLower, "medication") && record.Medication != "" {
		boost += 0.1
	}
	if strings.Contains(questionLower, "diagnosis") && record.Diagnosis != "" {
		boost += 0.1
	}
	if strings.Contains(questionLower, "lab") && record.RecordType == "lab" {
		boost += 0.15
	}

	recency := 0.0
	if strings.Contains(record.Date, "2024") {
		month := 1
		if parts := strings.Split(record.Date, "-"); len(parts) > 1 {
			if m, err := strconv.Atoi(parts[1]); err == nil {
				month = m
			}
		}
		recency = float64(month) / 12 * 0.1
	}

	total := math.Min(1.0, base+boost+recency)
	return math.Round(total*100) / 100
}

// FormatCitations renders citations as readable text for CLI output.
func FormatCitations(citations []entities.Citation) string {
	if len(citations) == 0 {
		return "No citations available."
	}

	var b strings.Builder
	b.WriteString("Sources:\n")
	for i, citation := range citations {
		fmt.Fprintf(&b, "\n[%d] %s - %s\n", i+1, citation.PatientName, citation.Date)
		fmt.Fprintf(&b, "    %s\n", citation.Text)
		fmt.Fprintf(&b, "    (Confidence: %.0f%%)\n", citation.Confidence*100)
	}
	return b.String()
}
