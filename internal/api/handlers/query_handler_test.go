package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medgraph/medrecords-qa/internal/api/handlers"
	"github.com/medgraph/medrecords-qa/internal/application/services"
	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/domain/repositories"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) VectorSearch(ctx context.Context, query string, limit int) ([]repositories.VectorHit, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.VectorHit), args.Error(1)
}

func (m *MockSearchRepository) Index(ctx context.Context, record *entities.MedicalRecord) error {
	return nil
}

func (m *MockSearchRepository) Delete(ctx context.Context, sourceID string) error {
	return nil
}

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) LogEvent(ctx context.Context, event *entities.QueryEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAnalyticsRepository) GetUnansweredQueries(ctx context.Context, limit int) ([]*entities.QueryEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.QueryEvent), args.Error(1)
}

func newQueryHandler(gen *MockGenerator, search *MockSearchRepository, records *MockRecordRepository, analytics *services.QueryAnalyticsService) *handlers.QueryHandler {
	pipeline := services.NewQueryPipeline(
		services.NewClassifierService(gen),
		services.NewRetrievalService(search, records),
		services.NewContextService(),
		services.NewEvidenceService(),
		services.NewAnswerService(gen),
	)
	if analytics != nil {
		pipeline.SetAnalytics(analytics)
	}
	return handlers.NewQueryHandler(pipeline, analytics)
}

func TestQueryHandler_HandleQuery(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "medical query router")
	})).Return("MEDICATION", nil).Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return("John Doe takes Lisinopril.", nil).Once()

	search := new(MockSearchRepository)
	search.On("VectorSearch", mock.Anything, mock.Anything, mock.Anything).Return([]repositories.VectorHit{
		{
			Record: entities.RetrievedRecord{
				SourceID:    "rec1",
				PatientID:   "P001",
				PatientName: "John Doe",
				Date:        "2024-07-18",
				RecordType:  "visit",
				Text:        "Medication prescribed: Lisinopril 10mg daily",
				Medication:  "Lisinopril 10mg daily",
			},
			Distance: 0.1,
		},
	}, nil)

	handler := newQueryHandler(gen, search, new(MockRecordRepository), nil)

	payload := `{"question": "What medications is John Doe taking?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.HandleQuery(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp entities.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "John Doe takes Lisinopril.", resp.Answer)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, entities.CategoryMedication, resp.Trace.Category)
	assert.Len(t, resp.Trace.StagesExecuted, 5)
}

func TestQueryHandler_HandleQuery_InvalidBody(t *testing.T) {
	handler := newQueryHandler(new(MockGenerator), new(MockSearchRepository), new(MockRecordRepository), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.HandleQuery(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_HandleQuery_EmptyQuestion(t *testing.T) {
	handler := newQueryHandler(new(MockGenerator), new(MockSearchRepository), new(MockRecordRepository), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"question": ""}`))
	rec := httptest.NewRecorder()
	handler.HandleQuery(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_GetUnansweredQueries(t *testing.T) {
	repo := new(MockAnalyticsRepository)
	repo.On("GetUnansweredQueries", mock.Anything, 10).Return([]*entities.QueryEvent{
		{Question: "Unanswerable?", CitationCount: 0},
	}, nil)

	handler := handlers.NewQueryHandler(nil, services.NewQueryAnalyticsService(repo))

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/unanswered-queries?limit=10", nil)
	rec := httptest.NewRecorder()
	handler.GetUnansweredQueries(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Queries []*entities.QueryEvent `json:"queries"`
		Count   int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestQueryHandler_GetUnansweredQueries_BadLimit(t *testing.T) {
	handler := handlers.NewQueryHandler(nil, services.NewQueryAnalyticsService(new(MockAnalyticsRepository)))

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/unanswered-queries?limit=abc", nil)
	rec := httptest.NewRecorder()
	handler.GetUnansweredQueries(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
