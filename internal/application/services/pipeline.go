package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/observability"
	apperrors "github.com/medgraph/medrecords-qa/pkg/errors"
)

// Stage names recorded in the response trace, in execution order.
const (
	StageClassifier        = "classifier"
	StageRetriever         = "retriever"
	StageContextBuilder    = "context_builder"
	StageEvidenceScorer    = "evidence_scorer"
	StageAnswerSynthesizer = "answer_synthesizer"
)

const defaultMaxSources = 5

// QueryPipeline runs the five processing stages in fixed order, threading
// one state value per request. Stages never run concurrently within a
// request; concurrent requests each get an independent state.
type QueryPipeline struct {
	classifier     *ClassifierService
	retriever      *RetrievalService
	contextBuilder *ContextService
	evidenceScorer *EvidenceService
	synthesizer    *AnswerService
	analytics      *QueryAnalyticsService
	metrics        *observability.Metrics
}

// pipelineState accumulates stage outputs for one request.
type pipelineState struct {
	classification entities.Classification
	candidates     []entities.RetrievedRecord
	context        *entities.QueryContext
	citations      []entities.Citation
	answer         string
	stages         []string
	retrievalTime  time.Duration
}

// NewQueryPipeline creates a pipeline over the five stage services.
func NewQueryPipeline(
	classifier *ClassifierService,
	retriever *RetrievalService,
	contextBuilder *ContextService,
	evidenceScorer *EvidenceService,
	synthesizer *AnswerService,
) *QueryPipeline {
	return &QueryPipeline{
		classifier:     classifier,
		retriever:      retriever,
		contextBuilder: contextBuilder,
		evidenceScorer: evidenceScorer,
		synthesizer:    synthesizer,
	}
}

// SetAnalytics enables best-effort query event recording.
func (p *QueryPipeline) SetAnalytics(analytics *QueryAnalyticsService) {
	p.analytics = analytics
}

// SetMetrics enables pipeline metrics recording.
func (p *QueryPipeline) SetMetrics(metrics *observability.Metrics) {
	p.metrics = metrics
}

// Run processes one question through all five stages.
func (p *QueryPipeline) Run(ctx context.Context, req entities.QueryRequest) (*entities.QueryResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, apperrors.NewValidationError("question is required")
	}
	if req.MaxSources <= 0 {
		req.MaxSources = defaultMaxSources
	}

	ctx, span := observability.StartSpan(ctx, "qa.pipeline")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)
	start := time.Now()
	state := &pipelineState{}

	state.classification = p.classifier.Classify(ctx, question)
	state.stages = append(state.stages, StageClassifier)
	logger.Debug().
		Str("category", state.classification.Category.String()).
		Float64("confidence", state.classification.Confidence).
		Msg("question classified")

	retrievalStart := time.Now()
	state.candidates = p.retriever.Retrieve(ctx, question, req.PatientID, req.MaxSources)
	state.retrievalTime = time.Since(retrievalStart)
	state.stages = append(state.stages, StageRetriever)
	logger.Debug().
		Int("candidates", len(state.candidates)).
		Dur("retrieval_time", state.retrievalTime).
		Msg("candidates retrieved")

	state.context = p.contextBuilder.Build(question, state.candidates, state.classification.Category)
	state.stages = append(state.stages, StageContextBuilder)

	state.citations = p.evidenceScorer.Score(question, state.context)
	state.stages = append(state.stages, StageEvidenceScorer)

	state.answer = p.synthesizer.Synthesize(ctx, question, state.context, state.citations)
	state.stages = append(state.stages, StageAnswerSynthesizer)

	total := time.Since(start)
	resp := &entities.QueryResponse{
		Answer:    state.answer,
		Citations: state.citations,
		Trace: entities.PipelineTrace{
			Category:        state.classification.Category,
			StagesExecuted:  state.stages,
			RetrievalTimeMs: state.retrievalTime.Milliseconds(),
			TotalTimeMs:     total.Milliseconds(),
		},
	}

	observability.SetSpanAttributes(span,
		attribute.String("qa.category", state.classification.Category.String()),
		attribute.Int("qa.citations", len(state.citations)),
	)
	observability.RecordPipelineMetric(ctx, p.metrics,
		state.classification.Category.String(),
		len(state.citations),
		resp.Trace.RetrievalTimeMs,
		resp.Trace.TotalTimeMs,
	)

	if p.analytics != nil {
		event := &entities.QueryEvent{
			Question:        question,
			PatientID:       req.PatientID,
			Category:        state.classification.Category,
			CitationCount:   len(state.citations),
			RetrievalTimeMs: resp.Trace.RetrievalTimeMs,
			TotalTimeMs:     resp.Trace.TotalTimeMs,
		}
		// Recording must not delay the response; the detached context keeps
		// the write alive after the request context is cancelled.
		go p.analytics.Record(context.WithoutCancel(ctx), event)
	}

	return resp, nil
}
