package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
)

// QueueAdapter implements the QueueRepository interface. Each transition is a
// single database transaction covering the appointment row and the call-state
// singleton, so the waiting-room display never reads a halfway state.
type QueueAdapter struct {
	client *postgres.Client
}

// NewQueueAdapter creates a new queue adapter
func NewQueueAdapter(client *postgres.Client) repositories.QueueRepository {
	return &QueueAdapter{client: client}
}

// CallToRoom moves an appointment into a room. The room-conflict check runs
// under a row lock inside the same transaction as the write, so two front
// desks calling patients into the same room concurrently cannot both succeed.
func (a *QueueAdapter) CallToRoom(ctx context.Context, appointment *entities.Appointment, callState *entities.CallState) error {
	if appointment.AssignedRoomNumber == nil {
		return apperrors.NewValidationError("room number is required to call a patient")
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// Lock any active appointment already holding the room.
	var occupantID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM appointments
		  WHERE assigned_room_number = $1
		    AND status IN ($2, $3)
		    AND id <> $4
		  FOR UPDATE`,
		*appointment.AssignedRoomNumber,
		entities.AppointmentStatusInRoom,
		entities.AppointmentStatusInConsultation,
		appointment.ID,
	).Scan(&occupantID)
	if err == nil {
		return apperrors.NewConflictError(
			fmt.Sprintf("room %d is already occupied by appointment %s", *appointment.AssignedRoomNumber, occupantID))
	}
	if err != sql.ErrNoRows {
		return apperrors.NewInternalError("failed to check room occupancy", err)
	}

	appointment.UpdatedAt = time.Now()
	if err := updateAppointmentTx(ctx, tx, appointment); err != nil {
		return err
	}

	if err := putCallStateTx(ctx, tx, callState); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transition", err)
	}

	return nil
}

// ApplyTransition persists a non-calling status change. When clearCall is
// true the call state is reset in the same transaction, guarded so it only
// clears while still referring to this appointment's patient.
func (a *QueueAdapter) ApplyTransition(ctx context.Context, appointment *entities.Appointment, clearCall bool) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	appointment.UpdatedAt = time.Now()
	if err := updateAppointmentTx(ctx, tx, appointment); err != nil {
		return err
	}

	if clearCall {
		_, err := tx.ExecContext(ctx,
			`UPDATE call_state
			    SET current_called_patient_id = NULL,
			        assigned_room_number = NULL,
			        called_time = NULL,
			        updated_at = $2
			  WHERE id = $1 AND current_called_patient_id = $3`,
			entities.CallStateID, time.Now(), appointment.PatientID,
		)
		if err != nil {
			return apperrors.NewInternalError("failed to clear call state", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transition", err)
	}

	return nil
}

func updateAppointmentTx(ctx context.Context, tx *sql.Tx, appointment *entities.Appointment) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE appointments
		    SET status = $2,
		        assigned_room_number = $3,
		        called_time = $4,
		        completed_time = $5,
		        updated_at = $6
		  WHERE id = $1`,
		appointment.ID,
		appointment.Status,
		appointment.AssignedRoomNumber,
		appointment.CalledTime,
		appointment.CompletedTime,
		appointment.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to update appointment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment %s not found", appointment.ID))
	}

	return nil
}

func putCallStateTx(ctx context.Context, tx *sql.Tx, state *entities.CallState) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO call_state (id, current_called_patient_id, assigned_room_number, called_time, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		    SET current_called_patient_id = EXCLUDED.current_called_patient_id,
		        assigned_room_number = EXCLUDED.assigned_room_number,
		        called_time = EXCLUDED.called_time,
		        updated_at = EXCLUDED.updated_at`,
		state.ID,
		state.CurrentCalledPatientID,
		state.AssignedRoomNumber,
		state.CalledTime,
		state.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to put call state", err)
	}
	return nil
}
