package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/elocute/pkg/provider/llm"
)

// LLMFallback implements [llm.Provider] with automatic failover across multiple
// LLM backends.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

// Compile-time interface assertion.
var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional LLM provider as a fallback.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Complete sends the request to the first healthy provider and returns its
// response. Requests carrying audio only go to audio-capable backends, so
// text-only backends neither see them nor have their breakers tripped.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var keep func(llm.Provider) bool
	if req.HasAudio() {
		keep = func(p llm.Provider) bool { return p.Capabilities().SupportsAudioInput }
	}
	resp, err := executeWhere(ctx, f.group, keep, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
	if errors.Is(err, ErrNoProviders) && keep != nil {
		return nil, fmt.Errorf("resilience: %w", llm.ErrAudioUnsupported)
	}
	return resp, err
}

// Capabilities returns the capabilities of the primary, except that audio
// input is reported when any entry supports it.
func (f *LLMFallback) Capabilities() llm.ModelCapabilities {
	caps := f.group.Primary().Capabilities()
	for _, e := range f.group.entries {
		if e.value.Capabilities().SupportsAudioInput {
			caps.SupportsAudioInput = true
			break
		}
	}
	return caps
}

// Healthy reports whether any backend currently accepts calls.
func (f *LLMFallback) Healthy() bool { return f.group.Healthy() }
