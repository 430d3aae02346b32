// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider turns a short piece of text (a target sentence the learner
// wants to hear) into a complete encoded audio clip. Providers return the
// whole clip at once; the clips are a sentence long, so streaming would only
// add complexity for the HTTP layer that serves them.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when a Request carries no text to speak.
var ErrEmptyText = errors.New("tts: text must not be empty")

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders req.Text into audio. The returned Speech owns its
	// buffer; upstream response bodies are fully read and closed before
	// Synthesize returns.
	Synthesize(ctx context.Context, req Request) (*Speech, error)
}
