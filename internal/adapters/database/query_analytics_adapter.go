package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/domain/repositories"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/postgres"
	apperrors "github.com/medgraph/medrecords-qa/pkg/errors"
)

var _ repositories.QueryAnalyticsRepository = (*QueryAnalyticsAdapter)(nil)

const analyticsTable = "query_analytics"

// QueryAnalyticsAdapter implements QueryAnalyticsRepository on PostgreSQL
type QueryAnalyticsAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewQueryAnalyticsAdapter creates a new query analytics adapter
func NewQueryAnalyticsAdapter(client *postgres.Client) *QueryAnalyticsAdapter {
	return &QueryAnalyticsAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// InitSchema ensures the query_analytics table exists
func (a *QueryAnalyticsAdapter) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS query_analytics (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			patient_id TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			citation_count INT NOT NULL,
			retrieval_time_ms BIGINT NOT NULL,
			total_time_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_query_analytics_created_at ON query_analytics(created_at);
	`

	if _, err := a.client.DB().ExecContext(ctx, schema); err != nil {
		return apperrors.NewInternalError("failed to init query_analytics schema", err)
	}

	return nil
}

// LogEvent records one processed query
func (a *QueryAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.QueryEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	row := goqu.Record{
		"id":                event.ID,
		"question":          event.Question,
		"patient_id":        event.PatientID,
		"category":          string(event.Category),
		"citation_count":    event.CitationCount,
		"retrieval_time_ms": event.RetrievalTimeMs,
		"total_time_ms":     event.TotalTimeMs,
		"created_at":        event.CreatedAt,
	}

	query, args, err := a.db.Insert(analyticsTable).Rows(row).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build analytics insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log query event", err)
	}

	return nil
}

// GetUnansweredQueries returns recent queries that produced no citations
func (a *QueryAnalyticsAdapter) GetUnansweredQueries(ctx context.Context, limit int) ([]*entities.QueryEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query, args, err := a.db.From(analyticsTable).
		Select("id", "question", "patient_id", "category", "citation_count",
			"retrieval_time_ms", "total_time_ms", "created_at").
		Where(goqu.C("citation_count").Eq(0)).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build unanswered queries query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get unanswered queries", err)
	}
	defer rows.Close()

	var events []*entities.QueryEvent
	for rows.Next() {
		e := &entities.QueryEvent{}
		var category string
		err := rows.Scan(
			&e.ID,
			&e.Question,
			&e.PatientID,
			&category,
			&e.CitationCount,
			&e.RetrievalTimeMs,
			&e.TotalTimeMs,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan query event", err)
		}
		e.Category = entities.Category(category)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate query events", err)
	}

	return events, nil
}
