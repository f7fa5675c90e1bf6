package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/domain/repositories"
	apperrors "github.com/medgraph/medrecords-qa/pkg/errors"
)

type MockAnalyticsRepo struct {
	mock.Mock
}

func (m *MockAnalyticsRepo) LogEvent(ctx context.Context, event *entities.QueryEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAnalyticsRepo) GetUnansweredQueries(ctx context.Context, limit int) ([]*entities.QueryEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.QueryEvent), args.Error(1)
}

func newTestPipeline(gen *MockTextGenerator, search *MockSearchRepo, records *MockRecordRepo) *QueryPipeline {
	return NewQueryPipeline(
		NewClassifierService(gen),
		NewRetrievalService(search, records),
		NewContextService(),
		NewEvidenceService(),
		NewAnswerService(gen),
	)
}

func TestPipeline_FullRun(t *testing.T) {
	gen := new(MockTextGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return len(prompt) > 0 && prompt[:28] == "You are a medical query rout"
	})).Return("MEDICATION", nil).Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return("John Doe takes Lisinopril 10mg daily.", nil).Once()

	search := new(MockSearchRepo)
	search.On("VectorSearch", mock.Anything, mock.Anything, 5).Return([]repositories.VectorHit{
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
			Distance: 0.05,
		},
	}, nil)

	pipeline := newTestPipeline(gen, search, new(MockRecordRepo))
	resp, err := pipeline.Run(context.Background(), entities.QueryRequest{
		Question: "What medications is John Doe taking?",
	})

	require.NoError(t, err)
	assert.Equal(t, "John Doe takes Lisinopril 10mg daily.", resp.Answer)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "rec1", resp.Citations[0].SourceID)
	assert.Equal(t, entities.CategoryMedication, resp.Trace.Category)
	assert.Equal(t, []string{
		StageClassifier,
		StageRetriever,
		StageContextBuilder,
		StageEvidenceScorer,
		StageAnswerSynthesizer,
	}, resp.Trace.StagesExecuted)
	gen.AssertExpectations(t)
}

func TestPipeline_EmptyQuestionRejected(t *testing.T) {
	pipeline := newTestPipeline(new(MockTextGenerator), new(MockSearchRepo), new(MockRecordRepo))

	resp, err := pipeline.Run(context.Background(), entities.QueryRequest{Question: "   "})

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestPipeline_EmptyRetrievalYieldsRefusalWithoutSynthesis(t *testing.T) {
	gen := new(MockTextGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("GENERAL", nil)

	search := new(MockSearchRepo)
	search.On("VectorSearch", mock.Anything, mock.Anything, mock.Anything).Return([]repositories.VectorHit{}, nil)

	pipeline := newTestPipeline(gen, search, new(MockRecordRepo))
	resp, err := pipeline.Run(context.Background(), entities.QueryRequest{Question: "Unknown topic?"})

	require.NoError(t, err)
	assert.Equal(t, RefusalAnswer, resp.Answer)
	assert.Empty(t, resp.Citations)
	// only the classification call reached the generator
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestPipeline_RecordsAnalyticsEvent(t *testing.T) {
	gen := new(MockTextGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("GENERAL", nil)

	search := new(MockSearchRepo)
	search.On("VectorSearch", mock.Anything, mock.Anything, mock.Anything).Return([]repositories.VectorHit{}, nil)

	logged := make(chan *entities.QueryEvent, 1)
	analytics := new(MockAnalyticsRepo)
	analytics.On("LogEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		logged <- args.Get(1).(*entities.QueryEvent)
	}).Return(nil)

	pipeline := newTestPipeline(gen, search, new(MockRecordRepo))
	pipeline.SetAnalytics(NewQueryAnalyticsService(analytics))

	_, err := pipeline.Run(context.Background(), entities.QueryRequest{Question: "Unknown topic?"})
	require.NoError(t, err)

	select {
	case event := <-logged:
		assert.Equal(t, "Unknown topic?", event.Question)
		assert.Equal(t, 0, event.CitationCount)
	case <-time.After(time.Second):
		t.Fatal("query event was not recorded")
	}
}

func TestPipeline_SlowAnalyticsSinkDoesNotDelayResponse(t *testing.T) {
	gen := new(MockTextGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("GENERAL", nil)

	search := new(MockSearchRepo)
	search.On("VectorSearch", mock.Anything, mock.Anything, mock.Anything).Return([]repositories.VectorHit{}, nil)

	logged := make(chan struct{})
	analytics := new(MockAnalyticsRepo)
	analytics.On("LogEvent", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		time.Sleep(300 * time.Millisecond)
		close(logged)
	}).Return(nil)

	pipeline := newTestPipeline(gen, search, new(MockRecordRepo))
	pipeline.SetAnalytics(NewQueryAnalyticsService(analytics))

	start := time.Now()
	_, err := pipeline.Run(context.Background(), entities.QueryRequest{Question: "anything"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 200*time.Millisecond, "response must not wait for the analytics write")

	select {
	case <-logged:
	case <-time.After(time.Second):
		t.Fatal("query event was not recorded")
	}
}

func TestPipeline_MaxSourcesDefaultsToFive(t *testing.T) {
	gen := new(MockTextGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("GENERAL", nil)

	search := new(MockSearchRepo)
	search.On("VectorSearch", mock.Anything, mock.Anything, 5).Return([]repositories.VectorHit{}, nil)

	pipeline := newTestPipeline(gen, search, new(MockRecordRepo))
	_, err := pipeline.Run(context.Background(), entities.QueryRequest{Question: "anything"})

	require.NoError(t, err)
	search.AssertExpectations(t)
}
