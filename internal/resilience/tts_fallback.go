package resilience

import (
	"context"

	"github.com/MrWong99/elocute/pkg/provider/tts"
)

// TTSFallback implements [tts.Provider] with automatic failover across multiple
// speech synthesis backends.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

// Compile-time interface assertion.
var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional TTS provider as a fallback.
func (f *TTSFallback) AddFallback(name string, provider tts.Provider) {
	f.group.AddFallback(name, provider)
}

// Synthesize renders the request with the first healthy backend.
func (f *TTSFallback) Synthesize(ctx context.Context, req tts.Request) (*tts.Speech, error) {
	return ExecuteWithResult(ctx, f.group, func(p tts.Provider) (*tts.Speech, error) {
		return p.Synthesize(ctx, req)
	})
}

// Healthy reports whether any backend currently accepts calls.
func (f *TTSFallback) Healthy() bool { return f.group.Healthy() }
