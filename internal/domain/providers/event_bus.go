package providers

import (
	"context"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to queue events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.QueueEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// Channel names for the cross-surface signal. The front desk is the sole
// publisher; the dashboard tabs and the waiting-room display subscribe.
const (
	// EventChannelQueueUpdates carries every appointment collection change
	EventChannelQueueUpdates = "queue:updates"

	// EventChannelCalled carries call-state changes (a patient called to a
	// room, or the call cleared)
	EventChannelCalled = "queue:called"

	// EventChannelAnnounce carries fallback speech instructions for the
	// display surface when server-side synthesis fails
	EventChannelAnnounce = "queue:announce"
)
