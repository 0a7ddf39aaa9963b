package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clinicflow/frontdesk/internal/application/services"
	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
)

// displayChannels are the bus channels relayed to the waiting-room display
var displayChannels = []string{
	providers.EventChannelQueueUpdates,
	providers.EventChannelCalled,
	providers.EventChannelAnnounce,
}

// DisplayHandler serves the waiting-room display surface: a live SSE stream
// of queue events, a snapshot endpoint the display polls as a backstop, and
// the synthesized announcement audio.
type DisplayHandler struct {
	eventBus     providers.EventBus
	cache        providers.CacheProvider
	queueService *services.QueueService
	roomService  *services.RoomService
}

// NewDisplayHandler creates a new display handler
func NewDisplayHandler(
	eventBus providers.EventBus,
	cache providers.CacheProvider,
	queueService *services.QueueService,
	roomService *services.RoomService,
) *DisplayHandler {
	return &DisplayHandler{
		eventBus:     eventBus,
		cache:        cache,
		queueService: queueService,
		roomService:  roomService,
	}
}

// StreamUpdates handles GET /api/display/stream. It relays queue, call-state
// and announcement events as SSE, with a heartbeat every 30 seconds. Events
// are advisory; the display also polls the snapshot endpoint so a dropped
// event only delays the UI by one polling interval.
func (h *DisplayHandler) StreamUpdates(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Fan the three bus channels into one client channel
	clientChan := make(chan *entities.QueueEvent, 50)
	for _, channel := range displayChannels {
		eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
		if err != nil {
			observability.GetLogger().Error().Err(err).Str("channel", channel).
				Msg("failed to subscribe to display channel")
			respondWithError(w, http.StatusInternalServerError, "failed to subscribe to updates")
			return
		}
		go forwardEvents(r.Context(), eventChan, clientChan)
	}

	h.sendEvent(w, "connected", fmt.Sprintf(`{"timestamp":%q}`, time.Now().Format(time.RFC3339)))
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", fmt.Sprintf(`{"timestamp":%q}`, time.Now().Format(time.RFC3339)))
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendJSONEvent(w, event)
			flusher.Flush()
		}
	}
}

// DisplaySnapshot is the display's polling payload. ServerTime lets the
// client derive "time since called" and the attention pulse without trusting
// its own clock.
type DisplaySnapshot struct {
	CallState  *entities.CallState     `json:"call_state"`
	Waiting    []*entities.Appointment `json:"waiting"`
	Rooms      []*entities.Room        `json:"rooms"`
	ServerTime time.Time               `json:"server_time"`
}

// GetSnapshot handles GET /api/display/snapshot
func (h *DisplayHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callState, err := h.queueService.GetCallState(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	waiting, err := h.queueService.ListAppointments(ctx, repositories.AppointmentFilter{
		Statuses: []entities.AppointmentStatus{entities.AppointmentStatusWaiting},
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	rooms, err := h.roomService.Snapshot(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, DisplaySnapshot{
		CallState:  callState,
		Waiting:    waiting,
		Rooms:      rooms,
		ServerTime: time.Now(),
	})
}

// GetAnnouncementAudio handles GET /api/display/announcements/{id}. The clip
// expires shortly after synthesis; a 404 tells the display to rely on the
// fallback speech event instead.
func (h *DisplayHandler) GetAnnouncementAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	audio, err := h.cache.Get(r.Context(), services.AnnouncementAudioKey(id))
	if err != nil || len(audio) == 0 {
		respondWithError(w, http.StatusNotFound, "announcement audio not found")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

func (h *DisplayHandler) sendEvent(w http.ResponseWriter, eventType, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
}

func (h *DisplayHandler) sendJSONEvent(w http.ResponseWriter, event *entities.QueueEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Str("event_id", event.ID).
			Msg("failed to marshal queue event for SSE")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, data)
}

// forwardEvents drains a bus subscription into the client channel, dropping
// events when the client cannot keep up
func forwardEvents(ctx context.Context, eventChan <-chan *entities.QueueEvent, clientChan chan<- *entities.QueueEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
			}
		}
	}
}
