package repositories

import (
	"context"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
)

// CallStateRepository defines read access to the singleton call state record.
// Writes happen only through the QueueRepository so they stay atomic with the
// appointment transition that caused them.
type CallStateRepository interface {
	// Get retrieves the current call state. A missing record is returned as
	// a cleared state, not an error.
	Get(ctx context.Context) (*entities.CallState, error)
}
