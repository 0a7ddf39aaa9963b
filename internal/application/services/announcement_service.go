package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
)

const (
	// announcementTimeout bounds a single synthesis call. The room
	// transition has already committed by the time synthesis starts, so a
	// slow provider only delays the audio, never the queue.
	announcementTimeout = 15 * time.Second

	// announcementAudioTTL keeps the synthesized clip around long enough
	// for the display to fetch and replay it
	announcementAudioTTL = 120

	// announcementRepeat matches the overhead-speaker convention of
	// repeating the call three times
	announcementRepeat = 3

	announcementAudioKeyPrefix = "announcement:audio:"
)

// AnnouncementService turns a "patient called" transition into spoken audio
// for the waiting-room display. Synthesized audio is parked in the cache for
// the display to fetch; when synthesis fails the service publishes a fallback
// event so the display speaks the text locally instead.
type AnnouncementService struct {
	provider    providers.AnnouncementProvider
	eventBus    providers.EventBus
	cache       providers.CacheProvider
	languageTag string
	metrics     *observability.Metrics
}

// NewAnnouncementService creates a new announcement service
func NewAnnouncementService(
	provider providers.AnnouncementProvider,
	eventBus providers.EventBus,
	cache providers.CacheProvider,
	languageTag string,
	metrics *observability.Metrics,
) *AnnouncementService {
	if languageTag == "" {
		languageTag = "ar-SA"
	}
	return &AnnouncementService{
		provider:    provider,
		eventBus:    eventBus,
		cache:       cache,
		languageTag: languageTag,
		metrics:     metrics,
	}
}

// AnnouncementAudioKey is the cache key holding the WAV clip for an
// appointment's call announcement
func AnnouncementAudioKey(appointmentID string) string {
	return announcementAudioKeyPrefix + appointmentID
}

// BuildAnnouncementText renders the overhead announcement in Arabic,
// repeated so it carries across the waiting room
func BuildAnnouncementText(patientName, patientID string, roomNumber int) string {
	line := fmt.Sprintf("المريض %s, رقم الهوية %s, يرجى التوجه إلى الغرفة رقم %d. ",
		patientName, patientID, roomNumber)
	return strings.Repeat(line, announcementRepeat)
}

// Announce synthesizes the call announcement for an appointment. It is safe
// to run on a detached goroutine; every failure path degrades to a fallback
// event instead of returning an error to the caller.
func (s *AnnouncementService) Announce(ctx context.Context, appointment *entities.Appointment, patient *entities.Patient) {
	if appointment == nil || patient == nil || appointment.AssignedRoomNumber == nil {
		return
	}

	text := BuildAnnouncementText(patient.Name, patient.PatientID, *appointment.AssignedRoomNumber)

	ctx, cancel := context.WithTimeout(ctx, announcementTimeout)
	defer cancel()

	audio, err := s.provider.Synthesize(ctx, text)
	if err == nil && s.cache != nil {
		err = s.cache.Set(ctx, AnnouncementAudioKey(appointment.ID), audio, announcementAudioTTL)
	}
	if err != nil {
		observability.RecordAnnouncementError(ctx, s.metrics)
		observability.GetLogger().Warn().Err(err).
			Str("appointment_id", appointment.ID).
			Msg("announcement synthesis failed, falling back to display speech")
		s.publishFallback(ctx, appointment, text)
		return
	}

	event := entities.NewQueueEvent(entities.QueueEventTypeAnnouncementReady)
	event.AppointmentID = appointment.ID
	event.PatientID = appointment.PatientID
	event.RoomNumber = appointment.AssignedRoomNumber
	event.LanguageTag = s.languageTag
	s.publishAnnounce(ctx, event)
}

// publishFallback tells the display to speak the announcement itself
func (s *AnnouncementService) publishFallback(ctx context.Context, appointment *entities.Appointment, text string) {
	event := entities.NewQueueEvent(entities.QueueEventTypeAnnouncementFallback)
	event.AppointmentID = appointment.ID
	event.PatientID = appointment.PatientID
	event.RoomNumber = appointment.AssignedRoomNumber
	event.SpeechText = text
	event.LanguageTag = s.languageTag
	s.publishAnnounce(ctx, event)
}

func (s *AnnouncementService) publishAnnounce(ctx context.Context, event *entities.QueueEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelAnnounce, event); err != nil {
		observability.GetLogger().Warn().Err(err).
			Str("appointment_id", event.AppointmentID).
			Msg("failed to publish announcement event")
	}
}
