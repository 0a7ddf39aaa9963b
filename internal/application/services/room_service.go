package services

import (
	"context"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
)

// RoomService derives live room occupancy. Rooms have no table of their own;
// each snapshot is computed from the appointments currently holding a room.
type RoomService struct {
	appointmentRepo repositories.AppointmentRepository
	patientRepo     repositories.PatientRepository
	roomCount       int
}

// NewRoomService creates a new room service
func NewRoomService(
	appointmentRepo repositories.AppointmentRepository,
	patientRepo repositories.PatientRepository,
	roomCount int,
) *RoomService {
	if roomCount <= 0 {
		roomCount = 5
	}
	return &RoomService{
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		roomCount:       roomCount,
	}
}

// RoomCount returns the configured number of consultation rooms
func (s *RoomService) RoomCount() int {
	return s.roomCount
}

// Snapshot returns the status of every room, numbered 1..roomCount. A room
// with no active appointment is available; in_room maps to assigned and
// in_consultation to occupied. Two active appointments claiming the same
// room is an invariant violation; the snapshot keeps the earliest-called
// one and logs the rest.
func (s *RoomService) Snapshot(ctx context.Context) ([]*entities.Room, error) {
	active, err := s.appointmentRepo.ListActiveInRooms(ctx)
	if err != nil {
		return nil, err
	}

	byRoom := make(map[int]*entities.Appointment, len(active))
	for _, appointment := range active {
		if appointment.AssignedRoomNumber == nil {
			continue
		}
		room := *appointment.AssignedRoomNumber
		if existing, ok := byRoom[room]; ok {
			observability.GetLogger().Warn().
				Int("room_number", room).
				Str("kept_appointment_id", existing.ID).
				Str("dropped_appointment_id", appointment.ID).
				Msg("multiple active appointments claim the same room")
			continue
		}
		byRoom[room] = appointment
	}

	rooms := make([]*entities.Room, 0, s.roomCount)
	for number := 1; number <= s.roomCount; number++ {
		room := &entities.Room{
			RoomNumber:    number,
			CurrentStatus: entities.RoomStatusAvailable,
		}
		if appointment, ok := byRoom[number]; ok {
			room.AppointmentID = appointment.ID
			room.PatientID = appointment.PatientID
			room.PatientName = s.patientName(ctx, appointment.PatientID)
			if appointment.Status == entities.AppointmentStatusInConsultation {
				room.CurrentStatus = entities.RoomStatusOccupied
			} else {
				room.CurrentStatus = entities.RoomStatusAssigned
			}
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

func (s *RoomService) patientName(ctx context.Context, patientID string) string {
	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil || patient == nil {
		return ""
	}
	return patient.Name
}
