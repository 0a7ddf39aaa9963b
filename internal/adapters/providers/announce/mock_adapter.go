package announce

import (
	"context"

	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/tts"
)

// MockAdapter returns a short silent WAV clip for every request. Used in
// local development and tests where no speech API key is configured.
type MockAdapter struct{}

var _ providers.AnnouncementProvider = (*MockAdapter)(nil)

// NewMockAdapter creates a new mock announcement adapter
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// Synthesize returns 100ms of silence framed as WAV
func (a *MockAdapter) Synthesize(_ context.Context, _ string) ([]byte, error) {
	silence := make([]byte, 24000/10*2)
	return tts.WrapPCM(silence, 1, 24000, 2), nil
}
