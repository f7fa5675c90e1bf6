package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medgraph/medrecords-qa/internal/api/handlers"
	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	apperrors "github.com/medgraph/medrecords-qa/pkg/errors"
)

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Create(ctx context.Context, record *entities.MedicalRecord) error {
	return nil
}

func (m *MockRecordRepository) PatientHistory(ctx context.Context, patientID string) ([]entities.MedicalRecord, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.MedicalRecord), args.Error(1)
}

func (m *MockRecordRepository) Search(ctx context.Context, query, patientID string) ([]entities.MedicalRecord, error) {
	args := m.Called(ctx, query, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.MedicalRecord), args.Error(1)
}

func (m *MockRecordRepository) ListPatients(ctx context.Context) ([]entities.PatientInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.PatientInfo), args.Error(1)
}

func (m *MockRecordRepository) InitSchema(ctx context.Context) error {
	return nil
}

func TestPatientHandler_ListPatients(t *testing.T) {
	repo := new(MockRecordRepository)
	repo.On("ListPatients", mock.Anything).Return([]entities.PatientInfo{
		{PatientID: "P001", PatientName: "John Doe"},
		{PatientID: "P002", PatientName: "Maria Garcia"},
	}, nil)

	handler := handlers.NewPatientHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()
	handler.ListPatients(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Patients []entities.PatientInfo `json:"patients"`
		Count    int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "P001", body.Patients[0].PatientID)
}

func TestPatientHandler_GetPatientRecords(t *testing.T) {
	repo := new(MockRecordRepository)
	repo.On("PatientHistory", mock.Anything, "P001").Return([]entities.MedicalRecord{
		{ID: 1, PatientID: "P001", PatientName: "John Doe", Date: "2024-07-18", RecordType: "visit"},
	}, nil)

	handler := handlers.NewPatientHandler(repo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/patients/{id}/records", handler.GetPatientRecords)

	req := httptest.NewRequest(http.MethodGet, "/api/patients/P001/records", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		PatientID string                   `json:"patient_id"`
		Records   []entities.MedicalRecord `json:"records"`
		Count     int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "P001", body.PatientID)
	assert.Equal(t, 1, body.Count)
}

func TestPatientHandler_GetPatientRecords_NotFound(t *testing.T) {
	repo := new(MockRecordRepository)
	repo.On("PatientHistory", mock.Anything, "P999").Return(nil, apperrors.NewNotFoundError("patient not found"))

	handler := handlers.NewPatientHandler(repo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/patients/{id}/records", handler.GetPatientRecords)

	req := httptest.NewRequest(http.MethodGet, "/api/patients/P999/records", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatientHandler_SearchRecords_RequiresQuery(t *testing.T) {
	handler := handlers.NewPatientHandler(new(MockRecordRepository))

	req := httptest.NewRequest(http.MethodGet, "/api/records/search", nil)
	rec := httptest.NewRecorder()
	handler.SearchRecords(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatientHandler_SearchRecords(t *testing.T) {
	repo := new(MockRecordRepository)
	repo.On("Search", mock.Anything, "lisinopril", "P001").Return([]entities.MedicalRecord{
		{ID: 1, PatientID: "P001", Medication: "Lisinopril 10mg daily"},
	}, nil)

	handler := handlers.NewPatientHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/records/search?q=lisinopril&patient_id=P001", nil)
	rec := httptest.NewRecorder()
	handler.SearchRecords(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}
