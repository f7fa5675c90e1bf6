package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/medgraph/medrecords-qa/internal/domain/entities"
	"github.com/medgraph/medrecords-qa/internal/domain/repositories"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/postgres"
	apperrors "github.com/medgraph/medrecords-qa/pkg/errors"
)

const recordsTable = "medical_records"

// RecordAdapter implements the RecordRepository interface on PostgreSQL
type RecordAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRecordAdapter creates a new record adapter
func NewRecordAdapter(client *postgres.Client) repositories.RecordRepository {
	return &RecordAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// InitSchema ensures the medical_records table and its indexes exist
func (a *RecordAdapter) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS medical_records (
			id SERIAL PRIMARY KEY,
			patient_id TEXT NOT NULL,
			patient_name TEXT NOT NULL,
			date TEXT NOT NULL,
			record_type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			medication TEXT NOT NULL DEFAULT '',
			diagnosis TEXT NOT NULL DEFAULT '',
			lab_result TEXT NOT NULL DEFAULT '',
			doctor TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_medical_records_patient_id ON medical_records(patient_id);
		CREATE INDEX IF NOT EXISTS idx_medical_records_date ON medical_records(date);
	`

	if _, err := a.client.DB().ExecContext(ctx, schema); err != nil {
		return apperrors.NewInternalError("failed to init medical_records schema", err)
	}

	return nil
}

// Create persists a new medical record and fills in its assigned id
func (a *RecordAdapter) Create(ctx context.Context, record *entities.MedicalRecord) error {
	row := goqu.Record{
		"patient_id":   record.PatientID,
		"patient_name": record.PatientName,
		"date":         record.Date,
		"record_type":  record.RecordType,
		"description":  record.Description,
		"medication":   record.Medication,
		"diagnosis":    record.Diagnosis,
		"lab_result":   record.LabResult,
		"doctor":       record.Doctor,
	}

	query, args, err := a.db.Insert(recordsTable).Rows(row).Returning("id", "created_at").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return apperrors.NewInternalError("failed to create medical record", err)
	}

	return nil
}

// PatientHistory retrieves all records for a patient, most recent first
func (a *RecordAdapter) PatientHistory(ctx context.Context, patientID string) ([]entities.MedicalRecord, error) {
	query, args, err := a.db.From(recordsTable).
		Select(recordColumns()...).
		Where(goqu.C("patient_id").Eq(patientID)).
		Order(goqu.C("date").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build history query", err)
	}

	return a.queryRecords(ctx, query, args)
}

// Search performs keyword search over descriptions, diagnoses and medications
func (a *RecordAdapter) Search(ctx context.Context, query, patientID string) ([]entities.MedicalRecord, error) {
	pattern := "%" + query + "%"
	ds := a.db.From(recordsTable).
		Select(recordColumns()...).
		Where(goqu.Or(
			goqu.C("description").ILike(pattern),
			goqu.C("diagnosis").ILike(pattern),
			goqu.C("medication").ILike(pattern),
		)).
		Order(goqu.C("date").Desc())

	if patientID != "" {
		ds = ds.Where(goqu.C("patient_id").Eq(patientID))
	}

	sqlQuery, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search query", err)
	}

	return a.queryRecords(ctx, sqlQuery, args)
}

// ListPatients returns all distinct patients in the corpus
func (a *RecordAdapter) ListPatients(ctx context.Context) ([]entities.PatientInfo, error) {
	query, args, err := a.db.From(recordsTable).
		Select("patient_id", "patient_name").
		Distinct().
		Order(goqu.C("patient_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build patients query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	var patients []entities.PatientInfo
	for rows.Next() {
		var p entities.PatientInfo
		if err := rows.Scan(&p.PatientID, &p.PatientName); err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}
		patients = append(patients, p)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate patients", err)
	}

	return patients, nil
}

func recordColumns() []interface{} {
	return []interface{}{
		"id", "patient_id", "patient_name", "date", "record_type",
		"description", "medication", "diagnosis", "lab_result", "doctor", "created_at",
	}
}

func (a *RecordAdapter) queryRecords(ctx context.Context, query string, args []interface{}) ([]entities.MedicalRecord, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query medical records", err)
	}
	defer rows.Close()

	var records []entities.MedicalRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate medical records", err)
	}

	return records, nil
}

func scanRecord(rows *sql.Rows) (entities.MedicalRecord, error) {
	var r entities.MedicalRecord
	err := rows.Scan(
		&r.ID,
		&r.PatientID,
		&r.PatientName,
		&r.Date,
		&r.RecordType,
		&r.Description,
		&r.Medication,
		&r.Diagnosis,
		&r.LabResult,
		&r.Doctor,
		&r.CreatedAt,
	)
	if err != nil {
		return entities.MedicalRecord{}, apperrors.NewInternalError("failed to scan medical record", err)
	}
	return r, nil
}
