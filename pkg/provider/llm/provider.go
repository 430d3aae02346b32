// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI GPT-4.1, an
// audio-capable GPT-4o model, Anthropic Claude, or a local Ollama instance) and
// exposes a uniform, request/response interface for the feedback coach without
// coupling to any specific SDK.
//
// Implementors must be safe for concurrent use.
package llm

import (
	"context"
	"errors"
)

// ErrAudioUnsupported is returned by providers that receive a message carrying
// an [AudioInput] but whose backend cannot consume audio.
var ErrAudioUnsupported = errors.New("llm: audio input not supported")

// Usage holds token accounting information returned by the LLM backend.
// All counts are in the model's native token unit and may differ between providers
// for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages and system
	// prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens. Provided as a convenience;
	// some providers return it directly rather than computing it from the parts.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Callers should treat a zero-value request as invalid; at minimum Messages must
// be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is typically from
	// the "user" role and drives the response.
	Messages []Message

	// Temperature controls output randomness in the range [0.0, 2.0]. Zero means
	// use the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// SystemPrompt is an optional high-priority instruction injected before the
	// conversation. If the provider does not natively support a dedicated system
	// prompt, implementors should prepend it as a "system"-role message.
	SystemPrompt string

	// JSONOutput asks the backend to constrain its reply to a single JSON object.
	// Backends without a native JSON mode ignore it; the prompt is expected to
	// request JSON as well.
	JSONOutput bool
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply. It may be empty when the
	// backend returned no choices or an empty message.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
//
// Implementations must be safe for concurrent use from multiple goroutines and
// must return promptly when ctx is cancelled.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	//
	// A backend reply without content is not an error: Complete returns a
	// response with empty Content so that callers can decide how to degrade.
	// Messages that carry audio must be rejected with [ErrAudioUnsupported]
	// when Capabilities().SupportsAudioInput is false.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Capabilities returns static metadata describing what this provider's
	// underlying model supports. The result is assumed to be constant for the
	// lifetime of the Provider instance.
	Capabilities() ModelCapabilities
}

// HasAudio reports whether any message in req carries inline audio.
func (req CompletionRequest) HasAudio() bool {
	for _, m := range req.Messages {
		if m.Audio != nil {
			return true
		}
	}
	return false
}
