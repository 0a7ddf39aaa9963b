package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/clinicflow/frontdesk/internal/application/services"
	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/providers"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type queueServiceMocks struct {
	appointments *MockAppointmentRepository
	queue        *MockQueueRepository
	patients     *MockPatientRepository
	callState    *MockCallStateRepository
	bus          *MockEventBus
}

func newQueueService(roomCount int) (*services.QueueService, *queueServiceMocks) {
	m := &queueServiceMocks{
		appointments: new(MockAppointmentRepository),
		queue:        new(MockQueueRepository),
		patients:     new(MockPatientRepository),
		callState:    new(MockCallStateRepository),
		bus:          new(MockEventBus),
	}
	service := services.NewQueueService(
		m.appointments, m.queue, m.patients, m.callState, m.bus, nil, roomCount, nil,
	)
	return service, m
}

func waitingAppointment() *entities.Appointment {
	return &entities.Appointment{
		ID:        "appt-1",
		PatientID: "patient-1",
		Status:    entities.AppointmentStatusWaiting,
		QueueTime: time.Now().Add(-10 * time.Minute),
	}
}

func TestQueueService_Enqueue(t *testing.T) {
	t.Run("creates waiting appointment and publishes update", func(t *testing.T) {
		service, m := newQueueService(5)

		m.patients.On("GetByID", mock.Anything, "patient-1").
			Return(&entities.Patient{ID: "patient-1", Name: "Ahmed"}, nil)
		m.appointments.On("Create", mock.Anything, mock.MatchedBy(func(a *entities.Appointment) bool {
			return a.Status == entities.AppointmentStatusWaiting &&
				a.ID != "" && !a.QueueTime.IsZero() &&
				a.AssignedRoomNumber == nil && a.CalledTime == nil
		})).Return(nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelQueueUpdates, mock.MatchedBy(func(e *entities.QueueEvent) bool {
			return e.EventType == entities.QueueEventTypeQueueUpdated
		})).Return(nil)

		err := service.Enqueue(context.Background(), &entities.Appointment{PatientID: "patient-1"})

		assert.NoError(t, err)
		m.appointments.AssertExpectations(t)
		m.bus.AssertExpectations(t)
	})

	t.Run("rejects unknown patient", func(t *testing.T) {
		service, m := newQueueService(5)

		m.patients.On("GetByID", mock.Anything, "ghost").
			Return(nil, apperrors.NewNotFoundError("patient not found"))

		err := service.Enqueue(context.Background(), &entities.Appointment{PatientID: "ghost"})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		m.appointments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestQueueService_CallToRoom(t *testing.T) {
	t.Run("moves waiting patient into room and sets call state", func(t *testing.T) {
		service, m := newQueueService(5)
		appointment := waitingAppointment()

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)
		m.callState.On("Get", mock.Anything).Return(entities.ClearedCallState(), nil)
		m.queue.On("CallToRoom", mock.Anything,
			mock.MatchedBy(func(a *entities.Appointment) bool {
				return a.Status == entities.AppointmentStatusInRoom &&
					a.AssignedRoomNumber != nil && *a.AssignedRoomNumber == 3 &&
					a.CalledTime != nil
			}),
			mock.MatchedBy(func(cs *entities.CallState) bool {
				return cs.Refers("patient-1") &&
					cs.AssignedRoomNumber != nil && *cs.AssignedRoomNumber == 3
			}),
		).Return(nil)
		m.patients.On("GetByID", mock.Anything, "patient-1").
			Return(&entities.Patient{ID: "patient-1", PatientID: "P-1001", Name: "Ahmed"}, nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelCalled, mock.MatchedBy(func(e *entities.QueueEvent) bool {
			return e.EventType == entities.QueueEventTypePatientCalled &&
				e.PatientName == "Ahmed" &&
				e.RoomNumber != nil && *e.RoomNumber == 3 &&
				e.CalledTime != nil
		})).Return(nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelQueueUpdates, mock.Anything).Return(nil)

		result, err := service.CallToRoom(context.Background(), "appt-1", 3)

		assert.NoError(t, err)
		assert.Equal(t, entities.AppointmentStatusInRoom, result.Status)
		m.queue.AssertExpectations(t)
		m.bus.AssertExpectations(t)
	})

	t.Run("rejects room number outside configured range", func(t *testing.T) {
		service, m := newQueueService(5)

		_, err := service.CallToRoom(context.Background(), "appt-1", 6)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		m.appointments.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)

		_, err = service.CallToRoom(context.Background(), "appt-1", 0)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects calling a non-waiting appointment", func(t *testing.T) {
		service, m := newQueueService(5)
		appointment := waitingAppointment()
		appointment.Status = entities.AppointmentStatusCompleted

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)

		_, err := service.CallToRoom(context.Background(), "appt-1", 2)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
		m.queue.AssertNotCalled(t, "CallToRoom", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates room conflict without publishing", func(t *testing.T) {
		service, m := newQueueService(5)
		appointment := waitingAppointment()

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)
		m.callState.On("Get", mock.Anything).Return(entities.ClearedCallState(), nil)
		m.queue.On("CallToRoom", mock.Anything, mock.Anything, mock.Anything).
			Return(apperrors.NewConflictError("room 2 is already occupied"))

		_, err := service.CallToRoom(context.Background(), "appt-1", 2)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		m.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("keeps called time strictly increasing", func(t *testing.T) {
		service, m := newQueueService(5)
		appointment := waitingAppointment()

		// Previous call stamped slightly in the future, e.g. clock skew
		// between two front-desk machines.
		future := time.Now().Add(time.Second)
		previous := entities.NewCallState("patient-0", 1, future)

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)
		m.callState.On("Get", mock.Anything).Return(previous, nil)
		m.queue.On("CallToRoom", mock.Anything, mock.Anything, mock.MatchedBy(func(cs *entities.CallState) bool {
			return cs.CalledTime.Equal(future.Add(time.Millisecond))
		})).Return(nil)
		m.patients.On("GetByID", mock.Anything, "patient-1").
			Return(&entities.Patient{ID: "patient-1", Name: "Ahmed"}, nil)
		m.bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := service.CallToRoom(context.Background(), "appt-1", 2)

		assert.NoError(t, err)
		m.queue.AssertExpectations(t)
	})
}

func TestQueueService_StartConsultation(t *testing.T) {
	t.Run("moves in-room patient to consultation without touching call state", func(t *testing.T) {
		service, m := newQueueService(5)
		room := 2
		appointment := waitingAppointment()
		appointment.Status = entities.AppointmentStatusInRoom
		appointment.AssignedRoomNumber = &room

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)
		m.queue.On("ApplyTransition", mock.Anything, mock.MatchedBy(func(a *entities.Appointment) bool {
			return a.Status == entities.AppointmentStatusInConsultation
		}), false).Return(nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelQueueUpdates, mock.MatchedBy(func(e *entities.QueueEvent) bool {
			return e.EventType == entities.QueueEventTypeConsultationStarted
		})).Return(nil)

		result, err := service.StartConsultation(context.Background(), "appt-1")

		assert.NoError(t, err)
		assert.Equal(t, entities.AppointmentStatusInConsultation, result.Status)
		m.callState.AssertNotCalled(t, "Get", mock.Anything)
		m.queue.AssertExpectations(t)
	})

	t.Run("rejects consultation from waiting", func(t *testing.T) {
		service, m := newQueueService(5)
		appointment := waitingAppointment()

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)

		_, err := service.StartConsultation(context.Background(), "appt-1")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
		m.queue.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestQueueService_CompleteVisit(t *testing.T) {
	t.Run("stamps completed time and clears matching call state", func(t *testing.T) {
		service, m := newQueueService(5)
		room := 4
		appointment := waitingAppointment()
		appointment.Status = entities.AppointmentStatusInConsultation
		appointment.AssignedRoomNumber = &room

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)
		m.callState.On("Get", mock.Anything).
			Return(entities.NewCallState("patient-1", room, time.Now()), nil)
		m.queue.On("ApplyTransition", mock.Anything, mock.MatchedBy(func(a *entities.Appointment) bool {
			return a.Status == entities.AppointmentStatusCompleted && a.CompletedTime != nil
		}), true).Return(nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelQueueUpdates, mock.MatchedBy(func(e *entities.QueueEvent) bool {
			return e.EventType == entities.QueueEventTypeVisitCompleted
		})).Return(nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelCalled, mock.MatchedBy(func(e *entities.QueueEvent) bool {
			return e.EventType == entities.QueueEventTypeCallCleared
		})).Return(nil)

		result, err := service.CompleteVisit(context.Background(), "appt-1")

		assert.NoError(t, err)
		assert.NotNil(t, result.CompletedTime)
		m.queue.AssertExpectations(t)
		m.bus.AssertExpectations(t)
	})

	t.Run("does not publish call-cleared when another patient is called", func(t *testing.T) {
		service, m := newQueueService(5)
		room := 4
		appointment := waitingAppointment()
		appointment.Status = entities.AppointmentStatusInRoom
		appointment.AssignedRoomNumber = &room

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)
		m.callState.On("Get", mock.Anything).
			Return(entities.NewCallState("patient-9", 1, time.Now()), nil)
		m.queue.On("ApplyTransition", mock.Anything, mock.Anything, true).Return(nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelQueueUpdates, mock.Anything).Return(nil)

		_, err := service.CompleteVisit(context.Background(), "appt-1")

		assert.NoError(t, err)
		m.bus.AssertNotCalled(t, "Publish", mock.Anything, providers.EventChannelCalled, mock.Anything)
	})

	t.Run("rejects completing from waiting", func(t *testing.T) {
		service, m := newQueueService(5)
		appointment := waitingAppointment()

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)

		_, err := service.CompleteVisit(context.Background(), "appt-1")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})
}

func TestQueueService_CancelAndMiss(t *testing.T) {
	t.Run("cancels a waiting appointment without completed time", func(t *testing.T) {
		service, m := newQueueService(5)
		appointment := waitingAppointment()

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)
		m.callState.On("Get", mock.Anything).Return(entities.ClearedCallState(), nil)
		m.queue.On("ApplyTransition", mock.Anything, mock.MatchedBy(func(a *entities.Appointment) bool {
			return a.Status == entities.AppointmentStatusCanceled && a.CompletedTime == nil
		}), true).Return(nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelQueueUpdates, mock.MatchedBy(func(e *entities.QueueEvent) bool {
			return e.EventType == entities.QueueEventTypeVisitCanceled
		})).Return(nil)

		result, err := service.CancelVisit(context.Background(), "appt-1")

		assert.NoError(t, err)
		assert.Nil(t, result.CompletedTime)
	})

	t.Run("marks an in-room appointment missed and clears its call", func(t *testing.T) {
		service, m := newQueueService(5)
		room := 1
		appointment := waitingAppointment()
		appointment.Status = entities.AppointmentStatusInRoom
		appointment.AssignedRoomNumber = &room

		m.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)
		m.callState.On("Get", mock.Anything).
			Return(entities.NewCallState("patient-1", room, time.Now()), nil)
		m.queue.On("ApplyTransition", mock.Anything, mock.MatchedBy(func(a *entities.Appointment) bool {
			return a.Status == entities.AppointmentStatusMissed
		}), true).Return(nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelQueueUpdates, mock.MatchedBy(func(e *entities.QueueEvent) bool {
			return e.EventType == entities.QueueEventTypePatientMissed
		})).Return(nil)
		m.bus.On("Publish", mock.Anything, providers.EventChannelCalled, mock.MatchedBy(func(e *entities.QueueEvent) bool {
			return e.EventType == entities.QueueEventTypeCallCleared
		})).Return(nil)

		_, err := service.MarkMissed(context.Background(), "appt-1")

		assert.NoError(t, err)
		m.bus.AssertExpectations(t)
	})
}
