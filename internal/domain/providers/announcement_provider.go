package providers

import (
	"context"
)

// AnnouncementProvider synthesizes the spoken "please proceed to room N"
// announcement for a called patient. Implementations wrap an external
// text-to-speech service and must respect the context deadline; a failure
// here never affects the underlying room transition, the caller degrades to
// the display's local speech capability instead.
type AnnouncementProvider interface {
	// Synthesize returns announcement audio as WAV bytes
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
