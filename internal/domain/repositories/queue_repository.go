package repositories

import (
	"context"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
)

// QueueRepository applies validated appointment status transitions. It is the
// write side of the queue: the appointment update and the call-state side
// effect are committed as a single database transaction so readers never
// observe a halfway state, and the room-conflict check happens under a row
// lock inside the same transaction.
type QueueRepository interface {
	// CallToRoom moves a waiting appointment into a room. It fails with a
	// conflict error when a different active appointment already holds the
	// room, and upserts the call state in the same transaction.
	CallToRoom(ctx context.Context, appointment *entities.Appointment, callState *entities.CallState) error

	// ApplyTransition persists a non-calling status change. When clearCall is
	// true the call state is reset in the same transaction, but only if it
	// still refers to the appointment's patient.
	ApplyTransition(ctx context.Context, appointment *entities.Appointment, clearCall bool) error
}
