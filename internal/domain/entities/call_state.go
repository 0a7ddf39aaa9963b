package entities

import (
	"time"
)

// CallStateID is the fixed id of the singleton call state record
const CallStateID = "current"

// CallState is the singleton record broadcasting which patient and room are
// "currently called". The waiting-room display renders its "now serving"
// panel from this record. It is overwritten whenever a patient is called to
// a room and cleared when that patient's visit ends.
type CallState struct {
	ID                     string     `json:"id" db:"id"`
	CurrentCalledPatientID *string    `json:"current_called_patient_id" db:"current_called_patient_id"`
	AssignedRoomNumber     *int       `json:"assigned_room_number" db:"assigned_room_number"`
	CalledTime             *time.Time `json:"called_time" db:"called_time"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// NewCallState builds the call state for a freshly called patient
func NewCallState(patientID string, roomNumber int, calledTime time.Time) *CallState {
	return &CallState{
		ID:                     CallStateID,
		CurrentCalledPatientID: &patientID,
		AssignedRoomNumber:     &roomNumber,
		CalledTime:             &calledTime,
		UpdatedAt:              calledTime,
	}
}

// ClearedCallState builds the empty call state, meaning no patient is
// currently called
func ClearedCallState() *CallState {
	return &CallState{
		ID:        CallStateID,
		UpdatedAt: time.Now(),
	}
}

// Refers reports whether the call state currently points at the given patient
func (s *CallState) Refers(patientID string) bool {
	return s != nil && s.CurrentCalledPatientID != nil && *s.CurrentCalledPatientID == patientID
}
