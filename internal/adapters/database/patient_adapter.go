package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
)

var patientColumns = []interface{}{
	"id", "patient_id", "name", "date_of_birth", "phone", "email", "address",
	"start_date", "current_status", "total_sessions", "completed_sessions",
	"remaining_sessions", "chief_complaint", "notes", "outstanding_balance",
	"created_at", "updated_at",
}

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new patient
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	record := goqu.Record{
		"id":                  patient.ID,
		"patient_id":          patient.PatientID,
		"name":                patient.Name,
		"date_of_birth":       patient.DateOfBirth,
		"phone":               patient.Phone,
		"email":               patient.Email,
		"address":             patient.Address,
		"start_date":          patient.StartDate,
		"current_status":      patient.CurrentStatus,
		"total_sessions":      patient.TotalSessions,
		"completed_sessions":  patient.CompletedSessions,
		"remaining_sessions":  patient.RemainingSessions,
		"chief_complaint":     patient.ChiefComplaint,
		"notes":               patient.Notes,
		"outstanding_balance": patient.OutstandingBalance,
		"created_at":          patient.CreatedAt,
		"updated_at":          patient.UpdatedAt,
	}

	query, args, err := a.db.Insert("patients").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}

	return nil
}

// GetByID retrieves a patient by internal id
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, id)
}

// GetByPatientID retrieves a patient by their clinic-facing patient id
func (a *PatientAdapter) GetByPatientID(ctx context.Context, patientID string) (*entities.Patient, error) {
	return a.getOne(ctx, goqu.Ex{"patient_id": patientID}, patientID)
}

func (a *PatientAdapter) getOne(ctx context.Context, where goqu.Ex, ref string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient, err := scanPatient(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient %s not found", ref))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}

	return patient, nil
}

// Update updates a patient
func (a *PatientAdapter) Update(ctx context.Context, patient *entities.Patient) error {
	patient.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":                patient.Name,
		"date_of_birth":       patient.DateOfBirth,
		"phone":               patient.Phone,
		"email":               patient.Email,
		"address":             patient.Address,
		"start_date":          patient.StartDate,
		"current_status":      patient.CurrentStatus,
		"total_sessions":      patient.TotalSessions,
		"completed_sessions":  patient.CompletedSessions,
		"remaining_sessions":  patient.RemainingSessions,
		"chief_complaint":     patient.ChiefComplaint,
		"notes":               patient.Notes,
		"outstanding_balance": patient.OutstandingBalance,
		"updated_at":          patient.UpdatedAt,
	}

	query, args, err := a.db.Update("patients").
		Set(record).
		Where(goqu.Ex{"id": patient.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient %s not found", patient.ID))
	}

	return nil
}

// List retrieves patients matching the filter
func (a *PatientAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	ds := a.db.Select(patientColumns...).From("patients")

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"current_status": filter.Status})
	}

	ds = ds.Order(goqu.I("name").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryPatients(ctx, query, args)
}

// SearchByName retrieves patients whose name matches the query
func (a *PatientAdapter) SearchByName(ctx context.Context, q string, limit int) ([]*entities.Patient, error) {
	if limit <= 0 {
		limit = 20
	}

	ds := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Or(
			goqu.C("name").ILike("%"+q+"%"),
			goqu.C("patient_id").ILike("%"+q+"%"),
		)).
		Order(goqu.I("name").Asc()).
		Limit(uint(limit))

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search query", err)
	}

	return a.queryPatients(ctx, query, args)
}

// CascadeDelete removes a patient together with their appointments and
// transactions. All deletes plus the call-state cleanup commit as one
// transaction.
func (a *PatientAdapter) CascadeDelete(ctx context.Context, id string) error {
	if _, err := a.GetByID(ctx, id); err != nil {
		return err
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, stmt := range []struct {
		query string
		args  []interface{}
	}{
		{"DELETE FROM transactions WHERE patient_id = $1", []interface{}{id}},
		{"DELETE FROM appointments WHERE patient_id = $1", []interface{}{id}},
		{"DELETE FROM patients WHERE id = $1", []interface{}{id}},
		{
			`UPDATE call_state
			    SET current_called_patient_id = NULL,
			        assigned_room_number = NULL,
			        called_time = NULL,
			        updated_at = $2
			  WHERE id = $1 AND current_called_patient_id = $3`,
			[]interface{}{entities.CallStateID, time.Now(), id},
		},
	} {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return apperrors.NewInternalError("failed to cascade delete patient", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit cascade delete", err)
	}

	return nil
}

func (a *PatientAdapter) queryPatients(ctx context.Context, query string, args []interface{}) ([]*entities.Patient, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	var patients []*entities.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}
		patients = append(patients, patient)
	}

	return patients, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*entities.Patient, error) {
	patient := &entities.Patient{}
	var phone, email, address, chiefComplaint, notes sql.NullString

	err := row.Scan(
		&patient.ID,
		&patient.PatientID,
		&patient.Name,
		&patient.DateOfBirth,
		&phone,
		&email,
		&address,
		&patient.StartDate,
		&patient.CurrentStatus,
		&patient.TotalSessions,
		&patient.CompletedSessions,
		&patient.RemainingSessions,
		&chiefComplaint,
		&notes,
		&patient.OutstandingBalance,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	patient.Phone = phone.String
	patient.Email = email.String
	patient.Address = address.String
	patient.ChiefComplaint = chiefComplaint.String
	patient.Notes = notes.String

	return patient, nil
}
