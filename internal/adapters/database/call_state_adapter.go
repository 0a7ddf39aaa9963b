package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
)

// CallStateAdapter implements read access to the call-state singleton
type CallStateAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCallStateAdapter creates a new call state adapter
func NewCallStateAdapter(client *postgres.Client) repositories.CallStateRepository {
	return &CallStateAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Get retrieves the current call state. A missing row means nobody has ever
// been called; callers get a cleared state rather than an error.
func (a *CallStateAdapter) Get(ctx context.Context) (*entities.CallState, error) {
	query, args, err := a.db.Select(
		"id", "current_called_patient_id", "assigned_room_number", "called_time", "updated_at",
	).From("call_state").
		Where(goqu.Ex{"id": entities.CallStateID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	state := &entities.CallState{}
	var patientID sql.NullString
	var roomNumber sql.NullInt64
	var calledTime sql.NullTime

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&state.ID,
		&patientID,
		&roomNumber,
		&calledTime,
		&state.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return entities.ClearedCallState(), nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get call state", err)
	}

	if patientID.Valid {
		state.CurrentCalledPatientID = &patientID.String
	}
	if roomNumber.Valid {
		n := int(roomNumber.Int64)
		state.AssignedRoomNumber = &n
	}
	if calledTime.Valid {
		t := calledTime.Time
		state.CalledTime = &t
	}

	return state, nil
}
