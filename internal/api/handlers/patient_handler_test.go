package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicflow/frontdesk/internal/api/handlers"
	"github.com/clinicflow/frontdesk/internal/application/services"
	"github.com/clinicflow/frontdesk/internal/domain/entities"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newPatientHandler() (*handlers.PatientHandler, *MockPatientRepository) {
	repo := new(MockPatientRepository)
	service := services.NewPatientService(repo, nil)
	return handlers.NewPatientHandler(service), repo
}

func TestPatientHandler_CreatePatient(t *testing.T) {
	t.Run("creates a patient", func(t *testing.T) {
		handler, repo := newPatientHandler()

		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		body, _ := json.Marshal(map[string]interface{}{
			"patient_id":     "P-1001",
			"name":           "أحمد علي",
			"total_sessions": 10,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreatePatient(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var created entities.Patient
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, 10, created.RemainingSessions)
	})

	t.Run("returns 400 when validation fails", func(t *testing.T) {
		handler, repo := newPatientHandler()

		body, _ := json.Marshal(map[string]interface{}{"patient_id": "P-1001"})
		req := httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreatePatient(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestPatientHandler_SearchPatients(t *testing.T) {
	t.Run("searches by name", func(t *testing.T) {
		handler, repo := newPatientHandler()

		repo.On("SearchByName", mock.Anything, "ahmed", 20).
			Return([]*entities.Patient{{ID: "id-1", Name: "Ahmed"}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/patients/search?q=ahmed", nil)
		w := httptest.NewRecorder()

		handler.SearchPatients(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Patients []*entities.Patient `json:"patients"`
			Count    int                 `json:"count"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Count)
	})

	t.Run("returns 400 for an empty query", func(t *testing.T) {
		handler, _ := newPatientHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/patients/search", nil)
		w := httptest.NewRecorder()

		handler.SearchPatients(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPatientHandler_DeletePatient(t *testing.T) {
	t.Run("deletes and returns no content", func(t *testing.T) {
		handler, repo := newPatientHandler()

		repo.On("CascadeDelete", mock.Anything, "id-1").Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/patients/id-1", nil)
		req.SetPathValue("id", "id-1")
		w := httptest.NewRecorder()

		handler.DeletePatient(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("returns 404 for an unknown patient", func(t *testing.T) {
		handler, repo := newPatientHandler()

		repo.On("CascadeDelete", mock.Anything, "ghost").
			Return(apperrors.NewNotFoundError("patient not found"))

		req := httptest.NewRequest(http.MethodDelete, "/api/patients/ghost", nil)
		req.SetPathValue("id", "ghost")
		w := httptest.NewRecorder()

		handler.DeletePatient(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPatientHandler_CompleteSession(t *testing.T) {
	t.Run("bumps the completed counter", func(t *testing.T) {
		handler, repo := newPatientHandler()

		repo.On("GetByID", mock.Anything, "id-1").Return(&entities.Patient{
			ID:                "id-1",
			PatientID:         "P-1001",
			Name:              "Ahmed",
			TotalSessions:     10,
			CompletedSessions: 4,
		}, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/api/patients/id-1/sessions/complete", nil)
		req.SetPathValue("id", "id-1")
		w := httptest.NewRecorder()

		handler.CompleteSession(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var patient entities.Patient
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &patient))
		assert.Equal(t, 5, patient.CompletedSessions)
		assert.Equal(t, 5, patient.RemainingSessions)
	})

	t.Run("returns 400 once all sessions are complete", func(t *testing.T) {
		handler, repo := newPatientHandler()

		repo.On("GetByID", mock.Anything, "id-1").Return(&entities.Patient{
			ID:                "id-1",
			TotalSessions:     10,
			CompletedSessions: 10,
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/patients/id-1/sessions/complete", nil)
		req.SetPathValue("id", "id-1")
		w := httptest.NewRecorder()

		handler.CompleteSession(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
