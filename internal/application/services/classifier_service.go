package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/domain/providers"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/observability"
)

const (
	matchedConfidence    = 0.9
	unmatchedConfidence  = 0.5
	degradedConfidence   = 0.3
	classificationKeyTTL = 24 * time.Hour
)

// ClassifierService routes an incoming question into one questioning category
// by asking the generation backend for a single category name. The service
// never fails: backend errors degrade to a low-confidence GENERAL result.
type ClassifierService struct {
	generator providers.TextGenerator
	cache     providers.CacheProvider
	metrics   *observability.Metrics
}

// NewClassifierService creates a new classifier service.
func NewClassifierService(generator providers.TextGenerator) *ClassifierService {
	return &ClassifierService{generator: generator}
}

// SetCache sets the cache provider for classification results.
func (s *ClassifierService) SetCache(cache providers.CacheProvider) {
	s.cache = cache
}

// SetMetrics sets the metrics recorder for cache hit/miss counters.
func (s *ClassifierService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Classify determines the category of the given question.
func (s *ClassifierService) Classify(ctx context.Context, question string) entities.Classification {
	cacheKey := "classify:" + strings.ToLower(strings.TrimSpace(question))

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached entities.Classification
			if json.Unmarshal(data, &cached) == nil && cached.Category.IsValid() {
				observability.RecordCacheMetric(ctx, s.metrics, true)
				return cached
			}
		}
		observability.RecordCacheMetric(ctx, s.metrics, false)
	}

	response, err := s.generate(ctx, question)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Msg("classification degraded to GENERAL")
		return entities.Classification{
			Category:   entities.CategoryGeneral,
			Confidence: degradedConfidence,
			Reasoning:  "Error during routing: " + err.Error(),
		}
	}

	upper := strings.ToUpper(strings.TrimSpace(response))
	result := entities.Classification{
		Category:   entities.CategoryGeneral,
		Confidence: unmatchedConfidence,
		Reasoning:  "Could not clearly classify query",
	}
	for _, category := range entities.CategoriesByPriority() {
		if strings.Contains(upper, string(category)) {
			result = entities.Classification{
				Category:   category,
				Confidence: matchedConfidence,
				Reasoning:  "Query classified as " + string(category),
			}
			break
		}
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, classificationKeyTTL)
		}
	}

	return result
}

func (s *ClassifierService) generate(ctx context.Context, question string) (string, error) {
	if s.generator == nil {
		return "", providers.ErrGenerationUnavailable
	}
	return s.generator.Generate(ctx, buildClassificationPrompt(question))
}
