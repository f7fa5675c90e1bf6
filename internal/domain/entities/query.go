package entities

// Classification is the classifier stage output for a question.
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// QueryContext is the organized, read-only aggregate over the candidate list
// produced by the context stage.
type QueryContext struct {
	Summary       string                       `json:"context_summary"`
	TotalRecords  int                          `json:"total_records"`
	Records       []RetrievedRecord            `json:"records"`
	KeyFindings   []string                     `json:"key_findings"`
	PatientGroups map[string][]RetrievedRecord `json:"patient_groups,omitempty"`
	Category      Category                     `json:"category"`
}

// Citation is one scored evidence snippet grounding the final answer.
type Citation struct {
	SourceID    string  `json:"source_id"`
	PatientID   string  `json:"patient_id"`
	PatientName string  `json:"patient_name"`
	Date        string  `json:"date"`
	RecordType  string  `json:"record_type"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
}

// QueryRequest is a question submitted against the record corpus.
type QueryRequest struct {
	Question   string `json:"question"`
	PatientID  string `json:"patient_id,omitempty"`
	MaxSources int    `json:"max_sources,omitempty"`
}

// PipelineTrace records which stages ran and how long processing took.
type PipelineTrace struct {
	Category        Category `json:"category"`
	StagesExecuted  []string `json:"stages_executed"`
	RetrievalTimeMs int64    `json:"retrieval_time_ms"`
	TotalTimeMs     int64    `json:"total_time_ms"`
}

// QueryResponse is the full pipeline result returned to callers.
type QueryResponse struct {
	Answer    string        `json:"answer"`
	Citations []Citation    `json:"citations"`
	Trace     PipelineTrace `json:"trace"`
}
