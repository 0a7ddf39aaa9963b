package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
)

var appointmentColumns = []interface{}{
	"id", "patient_id", "status", "description", "queue_time",
	"assigned_room_number", "called_time", "completed_time",
	"created_at", "updated_at",
}

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	record := goqu.Record{
		"id":                   appointment.ID,
		"patient_id":           appointment.PatientID,
		"status":               appointment.Status,
		"description":          appointment.Description,
		"queue_time":           appointment.QueueTime,
		"assigned_room_number": appointment.AssignedRoomNumber,
		"called_time":          appointment.CalledTime,
		"completed_time":       appointment.CompletedTime,
		"created_at":           appointment.CreatedAt,
		"updated_at":           appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create appointment", err)
	}

	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}

	return appointment, nil
}

// List retrieves appointments matching the filter, FIFO by queue time
func (a *AppointmentAdapter) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).From("appointments")
	ds = applyAppointmentFilter(ds, filter)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

// ListByPatient retrieves appointments for a patient
func (a *AppointmentAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"patient_id": patientID})
	ds = applyAppointmentFilter(ds, filter)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

// ListActiveInRooms retrieves all appointments currently holding a room.
// This is the single read behind the derived room view.
func (a *AppointmentAdapter) ListActiveInRooms(ctx context.Context) ([]*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(
			goqu.C("status").In(
				entities.AppointmentStatusInRoom,
				entities.AppointmentStatusInConsultation,
			),
			goqu.C("assigned_room_number").IsNotNull(),
		).
		Order(goqu.I("assigned_room_number").Asc(), goqu.I("called_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

func applyAppointmentFilter(ds *goqu.SelectDataset, filter repositories.AppointmentFilter) *goqu.SelectDataset {
	if len(filter.Statuses) > 0 {
		statuses := make([]interface{}, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s
		}
		ds = ds.Where(goqu.C("status").In(statuses...))
	}

	if filter.From != nil {
		ds = ds.Where(goqu.C("queue_time").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("queue_time").Lte(*filter.To))
	}

	ds = ds.Order(goqu.I("queue_time").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	return ds
}

func (a *AppointmentAdapter) queryAppointments(ctx context.Context, query string, args []interface{}) ([]*entities.Appointment, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	var appointments []*entities.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}

	return appointments, nil
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var description sql.NullString
	var roomNumber sql.NullInt64
	var calledTime, completedTime sql.NullTime

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.Status,
		&description,
		&appointment.QueueTime,
		&roomNumber,
		&calledTime,
		&completedTime,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	appointment.Description = description.String
	if roomNumber.Valid {
		n := int(roomNumber.Int64)
		appointment.AssignedRoomNumber = &n
	}
	if calledTime.Valid {
		t := calledTime.Time
		appointment.CalledTime = &t
	}
	if completedTime.Valid {
		t := completedTime.Time
		appointment.CompletedTime = &t
	}

	return appointment, nil
}
