package services_test

import (
	"context"
	"testing"

	"github.com/clinicflow/frontdesk/internal/application/services"
	"github.com/clinicflow/frontdesk/internal/domain/entities"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func validPatient() *entities.Patient {
	return &entities.Patient{
		PatientID:         "P-1001",
		Name:              "أحمد علي",
		Phone:             "0501234567",
		TotalSessions:     10,
		CompletedSessions: 4,
	}
}

func TestPatientService_Create(t *testing.T) {
	t.Run("assigns id, defaults and keeps counters in sync", func(t *testing.T) {
		repo := new(MockPatientRepository)
		search := new(MockPatientSearchProvider)
		service := services.NewPatientService(repo, search)
		patient := validPatient()

		repo.On("Create", mock.Anything, mock.MatchedBy(func(p *entities.Patient) bool {
			return p.ID != "" &&
				p.CurrentStatus == entities.PatientStatusActiveTreatment &&
				p.RemainingSessions == 6
		})).Return(nil)
		search.On("IndexPatient", mock.Anything, mock.Anything).Return(nil)

		err := service.Create(context.Background(), patient)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
		search.AssertExpectations(t)
	})

	t.Run("rejects missing name", func(t *testing.T) {
		repo := new(MockPatientRepository)
		service := services.NewPatientService(repo, nil)
		patient := validPatient()
		patient.Name = "   "

		err := service.Create(context.Background(), patient)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects completed sessions beyond total", func(t *testing.T) {
		repo := new(MockPatientRepository)
		service := services.NewPatientService(repo, nil)
		patient := validPatient()
		patient.CompletedSessions = 11

		err := service.Create(context.Background(), patient)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("succeeds even when indexing fails", func(t *testing.T) {
		repo := new(MockPatientRepository)
		search := new(MockPatientSearchProvider)
		service := services.NewPatientService(repo, search)

		repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		search.On("IndexPatient", mock.Anything, mock.Anything).Return(assert.AnError)

		err := service.Create(context.Background(), validPatient())

		assert.NoError(t, err)
	})
}

func TestPatientService_Search(t *testing.T) {
	t.Run("resolves index hits through the repository", func(t *testing.T) {
		repo := new(MockPatientRepository)
		search := new(MockPatientSearchProvider)
		service := services.NewPatientService(repo, search)

		search.On("Search", mock.Anything, "ahmed", 20).Return([]string{"id-1", "id-2"}, nil)
		repo.On("GetByID", mock.Anything, "id-1").
			Return(&entities.Patient{ID: "id-1", Name: "Ahmed"}, nil)
		repo.On("GetByID", mock.Anything, "id-2").
			Return(&entities.Patient{ID: "id-2", Name: "Ahmad"}, nil)

		patients, err := service.Search(context.Background(), "  ahmed ", 0)

		assert.NoError(t, err)
		assert.Len(t, patients, 2)
		repo.AssertNotCalled(t, "SearchByName", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("skips patients deleted since indexing", func(t *testing.T) {
		repo := new(MockPatientRepository)
		search := new(MockPatientSearchProvider)
		service := services.NewPatientService(repo, search)

		search.On("Search", mock.Anything, "ahmed", 20).Return([]string{"gone", "id-2"}, nil)
		repo.On("GetByID", mock.Anything, "gone").
			Return(nil, apperrors.NewNotFoundError("patient not found"))
		repo.On("GetByID", mock.Anything, "id-2").
			Return(&entities.Patient{ID: "id-2", Name: "Ahmad"}, nil)

		patients, err := service.Search(context.Background(), "ahmed", 20)

		assert.NoError(t, err)
		assert.Len(t, patients, 1)
		assert.Equal(t, "id-2", patients[0].ID)
	})

	t.Run("falls back to database search when the index is down", func(t *testing.T) {
		repo := new(MockPatientRepository)
		search := new(MockPatientSearchProvider)
		service := services.NewPatientService(repo, search)

		search.On("Search", mock.Anything, "ahmed", 20).Return(nil, assert.AnError)
		repo.On("SearchByName", mock.Anything, "ahmed", 20).
			Return([]*entities.Patient{{ID: "id-1", Name: "Ahmed"}}, nil)

		patients, err := service.Search(context.Background(), "ahmed", 20)

		assert.NoError(t, err)
		assert.Len(t, patients, 1)
	})

	t.Run("rejects an empty query", func(t *testing.T) {
		service := services.NewPatientService(new(MockPatientRepository), nil)

		_, err := service.Search(context.Background(), "   ", 10)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestPatientService_Delete(t *testing.T) {
	t.Run("cascades the delete and drops the search document", func(t *testing.T) {
		repo := new(MockPatientRepository)
		search := new(MockPatientSearchProvider)
		service := services.NewPatientService(repo, search)

		repo.On("CascadeDelete", mock.Anything, "id-1").Return(nil)
		search.On("RemovePatient", mock.Anything, "id-1").Return(nil)

		err := service.Delete(context.Background(), "id-1")

		assert.NoError(t, err)
		repo.AssertExpectations(t)
		search.AssertExpectations(t)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		repo := new(MockPatientRepository)
		search := new(MockPatientSearchProvider)
		service := services.NewPatientService(repo, search)

		repo.On("CascadeDelete", mock.Anything, "missing").
			Return(apperrors.NewNotFoundError("patient not found"))

		err := service.Delete(context.Background(), "missing")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		search.AssertNotCalled(t, "RemovePatient", mock.Anything, mock.Anything)
	})
}

func TestPatientService_RecordCompletedSession(t *testing.T) {
	t.Run("bumps the counter and updates remaining sessions", func(t *testing.T) {
		repo := new(MockPatientRepository)
		service := services.NewPatientService(repo, nil)
		patient := validPatient()
		patient.ID = "id-1"

		repo.On("GetByID", mock.Anything, "id-1").Return(patient, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(p *entities.Patient) bool {
			return p.CompletedSessions == 5 && p.RemainingSessions == 5
		})).Return(nil)

		updated, err := service.RecordCompletedSession(context.Background(), "id-1")

		assert.NoError(t, err)
		assert.Equal(t, 5, updated.CompletedSessions)
	})

	t.Run("refuses to exceed the planned total", func(t *testing.T) {
		repo := new(MockPatientRepository)
		service := services.NewPatientService(repo, nil)
		patient := validPatient()
		patient.ID = "id-1"
		patient.CompletedSessions = patient.TotalSessions

		repo.On("GetByID", mock.Anything, "id-1").Return(patient, nil)

		_, err := service.RecordCompletedSession(context.Background(), "id-1")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
