package entities_test

import (
	"testing"
	"time"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to entities.AppointmentStatus
	}{
		{entities.AppointmentStatusWaiting, entities.AppointmentStatusInRoom},
		{entities.AppointmentStatusWaiting, entities.AppointmentStatusCanceled},
		{entities.AppointmentStatusWaiting, entities.AppointmentStatusMissed},
		{entities.AppointmentStatusInRoom, entities.AppointmentStatusInConsultation},
		{entities.AppointmentStatusInRoom, entities.AppointmentStatusCompleted},
		{entities.AppointmentStatusInRoom, entities.AppointmentStatusCanceled},
		{entities.AppointmentStatusInRoom, entities.AppointmentStatusMissed},
		{entities.AppointmentStatusInConsultation, entities.AppointmentStatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, entities.CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct {
		from, to entities.AppointmentStatus
	}{
		{entities.AppointmentStatusWaiting, entities.AppointmentStatusInConsultation},
		{entities.AppointmentStatusWaiting, entities.AppointmentStatusCompleted},
		{entities.AppointmentStatusInConsultation, entities.AppointmentStatusCanceled},
		{entities.AppointmentStatusInConsultation, entities.AppointmentStatusMissed},
		{entities.AppointmentStatusInConsultation, entities.AppointmentStatusWaiting},
		{entities.AppointmentStatusCompleted, entities.AppointmentStatusWaiting},
		{entities.AppointmentStatusCompleted, entities.AppointmentStatusInRoom},
		{entities.AppointmentStatusCanceled, entities.AppointmentStatusInRoom},
		{entities.AppointmentStatusMissed, entities.AppointmentStatusWaiting},
		{entities.AppointmentStatusInRoom, entities.AppointmentStatusWaiting},
	}
	for _, tc := range denied {
		assert.False(t, entities.CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestAppointmentStatus_IsTerminal(t *testing.T) {
	assert.True(t, entities.AppointmentStatusCompleted.IsTerminal())
	assert.True(t, entities.AppointmentStatusCanceled.IsTerminal())
	assert.True(t, entities.AppointmentStatusMissed.IsTerminal())
	assert.False(t, entities.AppointmentStatusWaiting.IsTerminal())
	assert.False(t, entities.AppointmentStatusInRoom.IsTerminal())
	assert.False(t, entities.AppointmentStatusInConsultation.IsTerminal())
}

func TestAppointmentStatus_IsActiveInRoom(t *testing.T) {
	assert.True(t, entities.AppointmentStatusInRoom.IsActiveInRoom())
	assert.True(t, entities.AppointmentStatusInConsultation.IsActiveInRoom())
	assert.False(t, entities.AppointmentStatusWaiting.IsActiveInRoom())
	assert.False(t, entities.AppointmentStatusCompleted.IsActiveInRoom())
}

func TestCallState_Refers(t *testing.T) {
	state := entities.NewCallState("patient-1", 3, time.Now())
	assert.True(t, state.Refers("patient-1"))
	assert.False(t, state.Refers("patient-2"))

	cleared := entities.ClearedCallState()
	assert.False(t, cleared.Refers("patient-1"))

	var nilState *entities.CallState
	assert.False(t, nilState.Refers("patient-1"))
}

func TestPatient_SyncSessionCounters(t *testing.T) {
	p := &entities.Patient{TotalSessions: 12, CompletedSessions: 5}
	p.SyncSessionCounters()
	assert.Equal(t, 7, p.RemainingSessions)

	// Remaining never goes negative even when counters are inconsistent
	p = &entities.Patient{TotalSessions: 3, CompletedSessions: 5}
	p.SyncSessionCounters()
	assert.Equal(t, 0, p.RemainingSessions)
}

func TestPatient_ValidateSessionCounters(t *testing.T) {
	assert.True(t, (&entities.Patient{TotalSessions: 10, CompletedSessions: 10}).ValidateSessionCounters())
	assert.True(t, (&entities.Patient{TotalSessions: 10, CompletedSessions: 0}).ValidateSessionCounters())
	assert.False(t, (&entities.Patient{TotalSessions: 3, CompletedSessions: 5}).ValidateSessionCounters())
	assert.False(t, (&entities.Patient{TotalSessions: -1, CompletedSessions: 0}).ValidateSessionCounters())
}
