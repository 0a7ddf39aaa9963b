package announce

import (
	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/tts"
	"github.com/clinicflow/frontdesk/pkg/config"
)

// NewAnnouncementProvider selects the synthesis provider from configuration.
// Without an API key the mock provider is used so development environments
// exercise the full call flow, fallback path included.
func NewAnnouncementProvider(cfg *config.TTSConfig) providers.AnnouncementProvider {
	if cfg == nil || cfg.Provider == "mock" || cfg.APIKey == "" {
		return NewMockAdapter()
	}

	client, err := tts.NewClient(cfg)
	if err != nil {
		return NewMockAdapter()
	}

	return NewGeminiAdapter(client)
}
