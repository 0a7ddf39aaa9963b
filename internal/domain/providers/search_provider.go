package providers

import (
	"context"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
)

// PatientSearchProvider defines the interface for the patient search index
type PatientSearchProvider interface {
	// EnsureCollection creates the search collection if it does not exist
	EnsureCollection(ctx context.Context) error

	// IndexPatient upserts a patient document into the index
	IndexPatient(ctx context.Context, patient *entities.Patient) error

	// RemovePatient deletes a patient document from the index
	RemovePatient(ctx context.Context, id string) error

	// Search returns ids of patients matching the query, best match first
	Search(ctx context.Context, query string, limit int) ([]string, error)
}
