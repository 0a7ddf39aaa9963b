package entities

import (
	"time"
)

// AppointmentStatus represents the status of an appointment in the queue
type AppointmentStatus string

const (
	AppointmentStatusWaiting        AppointmentStatus = "waiting"
	AppointmentStatusInRoom         AppointmentStatus = "in_room"
	AppointmentStatusInConsultation AppointmentStatus = "in_consultation"
	AppointmentStatusCompleted      AppointmentStatus = "completed"
	AppointmentStatusCanceled       AppointmentStatus = "canceled"
	AppointmentStatusMissed         AppointmentStatus = "missed"
)

// validTransitions maps each status to the statuses reachable from it.
// Completed, Canceled and Missed are terminal.
var validTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusWaiting: {
		AppointmentStatusInRoom,
		AppointmentStatusCanceled,
		AppointmentStatusMissed,
	},
	AppointmentStatusInRoom: {
		AppointmentStatusInConsultation,
		AppointmentStatusCompleted,
		AppointmentStatusCanceled,
		AppointmentStatusMissed,
	},
	AppointmentStatusInConsultation: {
		AppointmentStatusCompleted,
	},
}

// CanTransition reports whether the state machine allows moving from one
// status to another.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status ends the appointment lifecycle
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCanceled, AppointmentStatusMissed:
		return true
	}
	return false
}

// IsActiveInRoom reports whether a status occupies a room
func (s AppointmentStatus) IsActiveInRoom() bool {
	return s == AppointmentStatusInRoom || s == AppointmentStatusInConsultation
}

// Appointment represents a patient's visit tracked from queue entry to completion
type Appointment struct {
	ID                 string            `json:"id" db:"id"`
	PatientID          string            `json:"patient_id" db:"patient_id"`
	Status             AppointmentStatus `json:"status" db:"status"`
	Description        string            `json:"description" db:"description"`
	QueueTime          time.Time         `json:"queue_time" db:"queue_time"`
	AssignedRoomNumber *int              `json:"assigned_room_number,omitempty" db:"assigned_room_number"`
	CalledTime         *time.Time        `json:"called_time,omitempty" db:"called_time"`
	CompletedTime      *time.Time        `json:"completed_time,omitempty" db:"completed_time"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at" db:"updated_at"`
}
