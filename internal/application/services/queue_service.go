package services

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
	"github.com/google/uuid"
)

// QueueService drives the appointment lifecycle: queue entry, calling a
// patient to a room, consultation, and the terminal outcomes. Every status
// change goes through the state machine, persists atomically together with
// its call-state side effect, and is broadcast on the event bus afterwards.
type QueueService struct {
	appointmentRepo repositories.AppointmentRepository
	queueRepo       repositories.QueueRepository
	patientRepo     repositories.PatientRepository
	callStateRepo   repositories.CallStateRepository
	eventBus        providers.EventBus
	announcer       *AnnouncementService
	roomCount       int
	metrics         *observability.Metrics
}

// NewQueueService creates a new queue service
func NewQueueService(
	appointmentRepo repositories.AppointmentRepository,
	queueRepo repositories.QueueRepository,
	patientRepo repositories.PatientRepository,
	callStateRepo repositories.CallStateRepository,
	eventBus providers.EventBus,
	announcer *AnnouncementService,
	roomCount int,
	metrics *observability.Metrics,
) *QueueService {
	if roomCount <= 0 {
		roomCount = 5
	}
	return &QueueService{
		appointmentRepo: appointmentRepo,
		queueRepo:       queueRepo,
		patientRepo:     patientRepo,
		callStateRepo:   callStateRepo,
		eventBus:        eventBus,
		announcer:       announcer,
		roomCount:       roomCount,
		metrics:         metrics,
	}
}

// Enqueue registers a new appointment at the back of the waiting queue
func (s *QueueService) Enqueue(ctx context.Context, appointment *entities.Appointment) error {
	if appointment.PatientID == "" {
		return apperrors.NewValidationError("patient id is required")
	}

	if _, err := s.patientRepo.GetByID(ctx, appointment.PatientID); err != nil {
		return err
	}

	now := time.Now()
	if appointment.ID == "" {
		appointment.ID = uuid.New().String()
	}
	appointment.Status = entities.AppointmentStatusWaiting
	appointment.AssignedRoomNumber = nil
	appointment.CalledTime = nil
	appointment.CompletedTime = nil
	if appointment.QueueTime.IsZero() {
		appointment.QueueTime = now
	}
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
		return err
	}

	s.publishQueueUpdated(ctx, appointment)
	return nil
}

// GetAppointment retrieves an appointment by ID
func (s *QueueService) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.appointmentRepo.GetByID(ctx, id)
}

// ListAppointments retrieves appointments matching the filter, FIFO by queue time
func (s *QueueService) ListAppointments(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return s.appointmentRepo.List(ctx, filter)
}

// ListByPatient retrieves a patient's appointments
func (s *QueueService) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return s.appointmentRepo.ListByPatient(ctx, patientID, filter)
}

// GetCallState retrieves the current "now serving" state
func (s *QueueService) GetCallState(ctx context.Context) (*entities.CallState, error) {
	return s.callStateRepo.Get(ctx)
}

// CallToRoom moves a waiting patient into a room. The room-occupancy check,
// the appointment update and the call-state overwrite commit as one database
// transaction; a concurrent call for the same room loses with a conflict
// error and changes nothing.
func (s *QueueService) CallToRoom(ctx context.Context, appointmentID string, roomNumber int) (*entities.Appointment, error) {
	if roomNumber < 1 || roomNumber > s.roomCount {
		return nil, apperrors.NewValidationError(fmt.Sprintf("room number must be between 1 and %d", s.roomCount))
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !entities.CanTransition(appointment.Status, entities.AppointmentStatusInRoom) {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot call a %s appointment to a room", appointment.Status))
	}

	calledTime := s.nextCalledTime(ctx)

	appointment.Status = entities.AppointmentStatusInRoom
	appointment.AssignedRoomNumber = &roomNumber
	appointment.CalledTime = &calledTime
	appointment.UpdatedAt = calledTime

	callState := entities.NewCallState(appointment.PatientID, roomNumber, calledTime)

	if err := s.queueRepo.CallToRoom(ctx, appointment, callState); err != nil {
		return nil, err
	}

	observability.RecordTransition(ctx, s.metrics, string(entities.AppointmentStatusInRoom))

	patient, perr := s.patientRepo.GetByID(ctx, appointment.PatientID)
	if perr != nil {
		observability.GetLogger().Warn().Err(perr).Str("patient_id", appointment.PatientID).
			Msg("failed to resolve called patient")
	}

	event := entities.NewQueueEvent(entities.QueueEventTypePatientCalled)
	event.AppointmentID = appointment.ID
	event.PatientID = appointment.PatientID
	if patient != nil {
		event.PatientName = patient.Name
	}
	event.RoomNumber = &roomNumber
	event.CalledTime = &calledTime
	s.publish(ctx, providers.EventChannelCalled, event)
	s.publishQueueUpdated(ctx, appointment)

	// The announcement runs detached: its outcome never touches the
	// committed transition.
	if s.announcer != nil && patient != nil {
		go s.announcer.Announce(context.WithoutCancel(ctx), appointment, patient)
	}

	return appointment, nil
}

// StartConsultation moves an in-room patient into consultation. The call
// state is deliberately left alone; the "now serving" banner persists until
// the visit ends.
func (s *QueueService) StartConsultation(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !entities.CanTransition(appointment.Status, entities.AppointmentStatusInConsultation) {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot start consultation from %s", appointment.Status))
	}
	if appointment.AssignedRoomNumber == nil {
		return nil, apperrors.NewInvalidTransitionError("appointment has no room assigned")
	}

	appointment.Status = entities.AppointmentStatusInConsultation
	appointment.UpdatedAt = time.Now()

	if err := s.queueRepo.ApplyTransition(ctx, appointment, false); err != nil {
		return nil, err
	}

	observability.RecordTransition(ctx, s.metrics, string(entities.AppointmentStatusInConsultation))

	event := entities.NewQueueEvent(entities.QueueEventTypeConsultationStarted)
	event.AppointmentID = appointment.ID
	event.PatientID = appointment.PatientID
	event.RoomNumber = appointment.AssignedRoomNumber
	s.publish(ctx, providers.EventChannelQueueUpdates, event)

	return appointment, nil
}

// CompleteVisit ends an appointment successfully
func (s *QueueService) CompleteVisit(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return s.finish(ctx, appointmentID, entities.AppointmentStatusCompleted, entities.QueueEventTypeVisitCompleted)
}

// CancelVisit cancels an appointment
func (s *QueueService) CancelVisit(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return s.finish(ctx, appointmentID, entities.AppointmentStatusCanceled, entities.QueueEventTypeVisitCanceled)
}

// MarkMissed marks an appointment as missed
func (s *QueueService) MarkMissed(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return s.finish(ctx, appointmentID, entities.AppointmentStatusMissed, entities.QueueEventTypePatientMissed)
}

// finish applies a terminal transition. All three terminal statuses clear
// the call state when it still refers to this appointment's patient, so the
// display never keeps announcing a patient whose visit is over.
func (s *QueueService) finish(ctx context.Context, appointmentID string, status entities.AppointmentStatus, eventType entities.QueueEventType) (*entities.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !entities.CanTransition(appointment.Status, status) {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot move a %s appointment to %s", appointment.Status, status))
	}

	wasCalled := false
	if callState, csErr := s.callStateRepo.Get(ctx); csErr == nil {
		wasCalled = callState.Refers(appointment.PatientID)
	}

	now := time.Now()
	appointment.Status = status
	if status == entities.AppointmentStatusCompleted {
		appointment.CompletedTime = &now
	}
	appointment.UpdatedAt = now

	if err := s.queueRepo.ApplyTransition(ctx, appointment, true); err != nil {
		return nil, err
	}

	observability.RecordTransition(ctx, s.metrics, string(status))

	event := entities.NewQueueEvent(eventType)
	event.AppointmentID = appointment.ID
	event.PatientID = appointment.PatientID
	event.RoomNumber = appointment.AssignedRoomNumber
	s.publish(ctx, providers.EventChannelQueueUpdates, event)

	if wasCalled {
		cleared := entities.NewQueueEvent(entities.QueueEventTypeCallCleared)
		cleared.AppointmentID = appointment.ID
		cleared.PatientID = appointment.PatientID
		s.publish(ctx, providers.EventChannelCalled, cleared)
	}

	return appointment, nil
}

// nextCalledTime returns a call timestamp strictly after the previous one.
// The display keys its attention pulse off called-time changes, so two calls
// in the same instant must still produce distinct timestamps.
func (s *QueueService) nextCalledTime(ctx context.Context) time.Time {
	now := time.Now()
	callState, err := s.callStateRepo.Get(ctx)
	if err != nil || callState.CalledTime == nil {
		return now
	}
	if now.After(*callState.CalledTime) {
		return now
	}
	return callState.CalledTime.Add(time.Millisecond)
}

func (s *QueueService) publishQueueUpdated(ctx context.Context, appointment *entities.Appointment) {
	event := entities.NewQueueEvent(entities.QueueEventTypeQueueUpdated)
	event.AppointmentID = appointment.ID
	event.PatientID = appointment.PatientID
	s.publish(ctx, providers.EventChannelQueueUpdates, event)
}

// publish is best-effort: consumers rebuild from snapshots, so a failed
// broadcast is logged and swallowed.
func (s *QueueService) publish(ctx context.Context, channel string, event *entities.QueueEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, channel, event); err != nil {
		observability.GetLogger().Warn().Err(err).
			Str("channel", channel).
			Str("event_type", string(event.EventType)).
			Msg("failed to publish queue event")
	}
}
