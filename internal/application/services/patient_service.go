package services

import (
	"context"
	"strings"
	"time"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
	"github.com/google/uuid"
)

const defaultSearchLimit = 20

// PatientService handles patient registration, treatment tracking and search
type PatientService struct {
	repo           repositories.PatientRepository
	searchProvider providers.PatientSearchProvider
}

// NewPatientService creates a new patient service
func NewPatientService(repo repositories.PatientRepository, searchProvider providers.PatientSearchProvider) *PatientService {
	return &PatientService{
		repo:           repo,
		searchProvider: searchProvider,
	}
}

// Create registers a new patient and indexes them for search
func (s *PatientService) Create(ctx context.Context, patient *entities.Patient) error {
	if err := s.validate(patient); err != nil {
		return err
	}

	if patient.ID == "" {
		patient.ID = uuid.New().String()
	}
	if patient.CurrentStatus == "" {
		patient.CurrentStatus = entities.PatientStatusActiveTreatment
	}
	patient.SyncSessionCounters()

	now := time.Now()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	if err := s.repo.Create(ctx, patient); err != nil {
		return err
	}

	s.index(ctx, patient)
	return nil
}

// GetByID retrieves a patient by internal id
func (s *PatientService) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByPatientID retrieves a patient by their clinic-facing patient id
func (s *PatientService) GetByPatientID(ctx context.Context, patientID string) (*entities.Patient, error) {
	return s.repo.GetByPatientID(ctx, patientID)
}

// Update updates a patient and refreshes their search document
func (s *PatientService) Update(ctx context.Context, patient *entities.Patient) error {
	if err := s.validate(patient); err != nil {
		return err
	}

	patient.SyncSessionCounters()
	patient.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, patient); err != nil {
		return err
	}

	s.index(ctx, patient)
	return nil
}

// List retrieves patients matching the filter
func (s *PatientService) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	return s.repo.List(ctx, filter)
}

// Search finds patients by name, clinic id or phone. The search index is the
// primary path; when it is unavailable the service degrades to a database
// name match so the front desk keeps working.
func (s *PatientService) Search(ctx context.Context, query string, limit int) ([]*entities.Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("search query is required")
	}
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}

	if s.searchProvider != nil {
		ids, err := s.searchProvider.Search(ctx, query, limit)
		if err == nil {
			return s.loadByIDs(ctx, ids)
		}
		observability.GetLogger().Warn().Err(err).
			Msg("patient search index unavailable, falling back to database")
	}

	return s.repo.SearchByName(ctx, query, limit)
}

// Delete removes a patient together with their appointments and ledger
// entries, and drops them from the search index
func (s *PatientService) Delete(ctx context.Context, id string) error {
	if err := s.repo.CascadeDelete(ctx, id); err != nil {
		return err
	}

	if s.searchProvider != nil {
		if err := s.searchProvider.RemovePatient(ctx, id); err != nil {
			observability.GetLogger().Warn().Err(err).Str("patient_id", id).
				Msg("failed to remove patient from search index")
		}
	}

	return nil
}

// RecordCompletedSession bumps the completed-session counter after a visit
// and keeps the remaining counter in sync
func (s *PatientService) RecordCompletedSession(ctx context.Context, id string) (*entities.Patient, error) {
	patient, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patient.CompletedSessions >= patient.TotalSessions {
		return nil, apperrors.NewValidationError("all planned sessions are already completed")
	}

	patient.CompletedSessions++
	patient.SyncSessionCounters()
	patient.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}

	s.index(ctx, patient)
	return patient, nil
}

func (s *PatientService) validate(patient *entities.Patient) error {
	if strings.TrimSpace(patient.Name) == "" {
		return apperrors.NewValidationError("patient name is required")
	}
	if strings.TrimSpace(patient.PatientID) == "" {
		return apperrors.NewValidationError("patient id is required")
	}
	if !patient.ValidateSessionCounters() {
		return apperrors.NewValidationError("completed sessions cannot exceed total sessions")
	}
	return nil
}

func (s *PatientService) loadByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	patients := make([]*entities.Patient, 0, len(ids))
	for _, id := range ids {
		patient, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
				// Stale index entry; the indexer will catch up.
				continue
			}
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, nil
}

// index is best-effort; the database stays the source of truth and the
// indexer can rebuild the collection.
func (s *PatientService) index(ctx context.Context, patient *entities.Patient) {
	if s.searchProvider == nil {
		return
	}
	if err := s.searchProvider.IndexPatient(ctx, patient); err != nil {
		observability.GetLogger().Warn().Err(err).Str("patient_id", patient.ID).
			Msg("failed to index patient")
	}
}
