package services

import (
	"context"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/domain/repositories"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/observability"
)

const defaultUnansweredLimit = 50

// QueryAnalyticsService records per-query analytics events and surfaces
// queries the corpus could not answer.
type QueryAnalyticsService struct {
	repo repositories.QueryAnalyticsRepository
}

// NewQueryAnalyticsService creates a new query analytics service.
func NewQueryAnalyticsService(repo repositories.QueryAnalyticsRepository) *QueryAnalyticsService {
	return &QueryAnalyticsService{repo: repo}
}

// Record logs one processed query. Persistence failures are logged and
// swallowed so analytics never affects query processing.
func (s *QueryAnalyticsService) Record(ctx context.Context, event *entities.QueryEvent) {
	if err := s.repo.LogEvent(ctx, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("question", event.Question).
			Msg("failed to record query event")
	}
}

// UnansweredQueries returns the most recent queries that produced no
// citations.
func (s *QueryAnalyticsService) UnansweredQueries(ctx context.Context, limit int) ([]*entities.QueryEvent, error) {
	if limit <= 0 {
		limit = defaultUnansweredLimit
	}
	return s.repo.GetUnansweredQueries(ctx, limit)
}
