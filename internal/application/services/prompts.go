package services

import (
	"fmt"
	"strings"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
)

const classificationPromptTemplate = `You are a medical query router. Classify the following question into ONE category:

Categories:
1. MEDICATION - Questions about medications, prescriptions, drug names
2. DIAGNOSIS - Questions about diagnoses, conditions, diseases
3. LAB_RESULTS - Questions about lab tests, test results, measurements
4. TIMELINE - Questions about medical history, visit dates, chronological events
5. GENERAL - General questions about patient health or multiple topics

Question: %s

Respond with ONLY the category name (e.g., MEDICATION).
Category:`

func buildClassificationPrompt(question string) string {
	return fmt.Sprintf(classificationPromptTemplate, question)
}

const answerPromptTemplate = `You are a medical records assistant. Answer the question based ONLY on the provided evidence.

Question: %s

Context Summary: %s

Key Findings:
%s

Evidence from Medical Records:
%s

Instructions:
1. Answer the question directly and concisely
2. Use ONLY information from the evidence provided above
3. Be specific - mention patient names, dates, medications, diagnoses, etc.
4. If the evidence shows conflicting information, mention both
5. If the evidence is insufficient, say so clearly
6. Do NOT make up or infer information not in the evidence
7. Keep your answer focused and under 150 words

Answer:`

func buildAnswerPrompt(question string, qc *entities.QueryContext, citations []entities.Citation) string {
	findings := make([]string, 0, len(qc.KeyFindings))
	for _, finding := range qc.KeyFindings {
		findings = append(findings, "- "+finding)
	}

	return fmt.Sprintf(answerPromptTemplate,
		question,
		qc.Summary,
		strings.Join(findings, "\n"),
		formatEvidence(citations),
	)
}

func formatEvidence(citations []entities.Citation) string {
	blocks := make([]string, 0, len(citations))
	for i, citation := range citations {
		block := fmt.Sprintf("[Source %d]\nPatient: %s (%s)\nDate: %s\nType: %s\nContent: %s",
			i+1,
			citation.PatientName,
			citation.PatientID,
			citation.Date,
			citation.RecordType,
			citation.Text,
		)
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}
