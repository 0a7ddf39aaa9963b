package repositories

import (
	"context"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
)

// PatientRepository defines the interface for patient data operations
type PatientRepository interface {
	// Create creates a new patient
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByID retrieves a patient by internal id
	GetByID(ctx context.Context, id string) (*entities.Patient, error)

	// GetByPatientID retrieves a patient by their clinic-facing patient id
	GetByPatientID(ctx context.Context, patientID string) (*entities.Patient, error)

	// Update updates a patient
	Update(ctx context.Context, patient *entities.Patient) error

	// List retrieves patients matching the filter
	List(ctx context.Context, filter PatientFilter) ([]*entities.Patient, error)

	// SearchByName retrieves patients whose name matches the query. This is
	// the database fallback path when the search index is unavailable.
	SearchByName(ctx context.Context, query string, limit int) ([]*entities.Patient, error)

	// CascadeDelete removes a patient together with their appointments and
	// transactions in one transaction, and clears the call state if it still
	// refers to the patient
	CascadeDelete(ctx context.Context, id string) error
}

// PatientFilter defines filters for listing patients
type PatientFilter struct {
	Status entities.PatientStatus
	Limit  int
	Offset int
}
