package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// QueueEventType represents the type of queue event
type QueueEventType string

const (
	QueueEventTypePatientCalled        QueueEventType = "patient_called"
	QueueEventTypeConsultationStarted  QueueEventType = "consultation_started"
	QueueEventTypeVisitCompleted       QueueEventType = "visit_completed"
	QueueEventTypeVisitCanceled        QueueEventType = "visit_canceled"
	QueueEventTypePatientMissed        QueueEventType = "patient_missed"
	QueueEventTypeQueueUpdated         QueueEventType = "queue_updated"
	QueueEventTypeCallCleared          QueueEventType = "call_cleared"
	QueueEventTypeAnnouncementReady    QueueEventType = "announcement_ready"
	QueueEventTypeAnnouncementFallback QueueEventType = "announcement_fallback"
)

// QueueEvent is a real-time update event consumed by the dashboard and the
// waiting-room display. Events are advisory: every consumer can rebuild its
// state from a snapshot read, so a missed event is never fatal.
type QueueEvent struct {
	ID            string         `json:"id"`
	EventType     QueueEventType `json:"event_type"`
	AppointmentID string         `json:"appointment_id,omitempty"`
	PatientID     string         `json:"patient_id,omitempty"`
	PatientName   string         `json:"patient_name,omitempty"`
	RoomNumber    *int           `json:"room_number,omitempty"`
	CalledTime    *time.Time     `json:"called_time,omitempty"`
	SpeechText    string         `json:"speech_text,omitempty"`
	LanguageTag   string         `json:"language_tag,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// NewQueueEvent creates a new queue event
func NewQueueEvent(eventType QueueEventType) *QueueEvent {
	return &QueueEvent{
		ID:        generateEventID(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
