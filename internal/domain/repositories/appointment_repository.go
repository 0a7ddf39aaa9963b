package repositories

import (
	"context"
	"time"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations
type AppointmentRepository interface {
	// Create creates a new appointment
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// List retrieves appointments matching the filter, FIFO by queue time
	List(ctx context.Context, filter AppointmentFilter) ([]*entities.Appointment, error)

	// ListByPatient retrieves appointments for a patient
	ListByPatient(ctx context.Context, patientID string, filter AppointmentFilter) ([]*entities.Appointment, error)

	// ListActiveInRooms retrieves all appointments currently holding a room
	// (status in_room or in_consultation with a room number assigned)
	ListActiveInRooms(ctx context.Context) ([]*entities.Appointment, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Statuses []entities.AppointmentStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
