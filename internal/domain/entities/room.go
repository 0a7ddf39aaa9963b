package entities

// RoomStatus represents the live occupancy status of a consultation room
type RoomStatus string

const (
	// RoomStatusAvailable means no active appointment maps to the room
	RoomStatusAvailable RoomStatus = "available"

	// RoomStatusAssigned means a patient has been called to the room but the
	// consultation has not started yet
	RoomStatusAssigned RoomStatus = "assigned"

	// RoomStatusOccupied means a consultation is in progress in the room
	RoomStatusOccupied RoomStatus = "occupied"
)

// Room is a read-side projection of room occupancy. Rooms are never persisted;
// each one is derived from the active appointment assigned to its number.
type Room struct {
	RoomNumber    int        `json:"room_number"`
	CurrentStatus RoomStatus `json:"current_status"`
	AppointmentID string     `json:"appointment_id,omitempty"`
	PatientID     string     `json:"patient_id,omitempty"`
	PatientName   string     `json:"patient_name,omitempty"`
}
