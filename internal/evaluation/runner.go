package evaluation

import (
	"context"
	"time"

	"github.com/medgraph/medrecords-qa/internal/application/services"
	"github.com/medgraph/medrecords-qa/internal/domain/entities"
)

const evalK = 5

// QueryRunner is the pipeline surface the evaluation drives.
type QueryRunner interface {
	Run(ctx context.Context, req entities.QueryRequest) (*entities.QueryResponse, error)
}

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	pipeline QueryRunner
}

func NewRunner(pipeline QueryRunner) *Runner {
	return &Runner{pipeline: pipeline}
}

func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByCategory:   make(map[entities.Category]*CategorySummary),
	}

	correct := 0
	for _, gq := range queries {
		start := time.Now()
		resp, err := r.pipeline.Run(ctx, entities.QueryRequest{
			Question:   gq.Question,
			PatientID:  gq.PatientID,
			MaxSources: evalK,
		})
		duration := time.Since(start)

		if err != nil {
			continue
		}

		sources := make([]string, len(resp.Citations))
		for i, citation := range resp.Citations {
			sources[i] = citation.SourceID
		}

		result := EvalResult{
			QueryID:          gq.ID,
			Question:         gq.Question,
			Category:         gq.Category,
			CategoryCorrect:  resp.Trace.Category == gq.Category,
			RecallAt5:        RecallAtK(gq.ExpectedSources, sources, evalK),
			MRRAt5:           MRRAtK(gq.ExpectedSources, sources, evalK),
			CitationCount:    len(resp.Citations),
			RetrievedSources: sources,
			Answered:         resp.Answer != services.RefusalAnswer,
			Latency:          duration,
		}
		if result.CategoryCorrect {
			correct++
		}

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary, correct)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgRecallAt5 += res.RecallAt5
	s.AvgMRRAt5 += res.MRRAt5
	s.AvgLatency += res.Latency
	if res.CitationCount > 0 {
		s.QueriesAnswered++
	}

	if _, ok := s.ByCategory[res.Category]; !ok {
		s.ByCategory[res.Category] = &CategorySummary{}
	}
	cs := s.ByCategory[res.Category]
	cs.Count++
	cs.AvgRecallAt5 += res.RecallAt5
	cs.AvgMRRAt5 += res.MRRAt5
}

func (r *Runner) finalizeSummary(s *EvalSummary, correct int) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.AvgRecallAt5 /= n
		s.AvgMRRAt5 /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
		s.CategoryAccuracy = float64(correct) / n
	}

	for _, cs := range s.ByCategory {
		if cs.Count > 0 {
			n := float64(cs.Count)
			cs.AvgRecallAt5 /= n
			cs.AvgMRRAt5 /= n
		}
	}
}
