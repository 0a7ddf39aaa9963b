package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/clinicflow/frontdesk/internal/application/services"
	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
)

// QueueHandler handles appointment queue HTTP requests
type QueueHandler struct {
	queueService *services.QueueService
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queueService *services.QueueService) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
	}
}

// CreateAppointment handles POST /api/appointments
func (h *QueueHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var appointment entities.Appointment
	if err := json.NewDecoder(r.Body).Decode(&appointment); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.queueService.Enqueue(r.Context(), &appointment); err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, appointment)
}

// GetAppointment handles GET /api/appointments/{id}
func (h *QueueHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.queueService.GetAppointment(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// ListAppointments handles GET /api/appointments
func (h *QueueHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAppointmentFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointments, err := h.queueService.ListAppointments(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// ListPatientAppointments handles GET /api/patients/{id}/appointments
func (h *QueueHandler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	filter, err := parseAppointmentFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointments, err := h.queueService.ListByPatient(r.Context(), id, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

type callRequest struct {
	RoomNumber int `json:"room_number"`
}

// CallToRoom handles POST /api/appointments/{id}/call
func (h *QueueHandler) CallToRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appointment, err := h.queueService.CallToRoom(r.Context(), id, req.RoomNumber)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// StartConsultation handles POST /api/appointments/{id}/start
func (h *QueueHandler) StartConsultation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.queueService.StartConsultation)
}

// CompleteVisit handles POST /api/appointments/{id}/complete
func (h *QueueHandler) CompleteVisit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.queueService.CompleteVisit)
}

// CancelVisit handles POST /api/appointments/{id}/cancel
func (h *QueueHandler) CancelVisit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.queueService.CancelVisit)
}

// MarkMissed handles POST /api/appointments/{id}/miss
func (h *QueueHandler) MarkMissed(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.queueService.MarkMissed)
}

// GetCallState handles GET /api/call-state
func (h *QueueHandler) GetCallState(w http.ResponseWriter, r *http.Request) {
	callState, err := h.queueService.GetCallState(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, callState)
}

func (h *QueueHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id string) (*entities.Appointment, error),
) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := apply(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

func parseAppointmentFilter(r *http.Request) (repositories.AppointmentFilter, error) {
	query := r.URL.Query()

	filter := repositories.AppointmentFilter{
		Limit:  parseIntParam(query.Get("limit"), 100),
		Offset: parseIntParam(query.Get("offset"), 0),
	}

	if statuses := query.Get("status"); statuses != "" {
		for _, status := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, entities.AppointmentStatus(status))
		}
	}

	if from := query.Get("from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, err
		}
		filter.From = &parsed
	}

	if to := query.Get("to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, err
		}
		filter.To = &parsed
	}

	return filter, nil
}
