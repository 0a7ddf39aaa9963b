package announce

import (
	"context"

	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/tts"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
)

// GeminiAdapter synthesizes announcements through the Gemini speech API
type GeminiAdapter struct {
	client *tts.Client
}

var _ providers.AnnouncementProvider = (*GeminiAdapter)(nil)

// NewGeminiAdapter creates a new Gemini announcement adapter
func NewGeminiAdapter(client *tts.Client) *GeminiAdapter {
	return &GeminiAdapter{client: client}
}

// Synthesize returns announcement audio as WAV bytes
func (a *GeminiAdapter) Synthesize(ctx context.Context, text string) ([]byte, error) {
	audio, err := a.client.Synthesize(ctx, text)
	if err != nil {
		return nil, apperrors.NewExternalError("speech synthesis failed", err)
	}
	return audio, nil
}
