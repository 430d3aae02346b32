// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a batch transcription service (e.g., the OpenAI
// transcription API or a local whisper.cpp server) and exposes a uniform
// request/response interface. A single [Request] carries one complete
// recording together with the model and response-format hints of the current
// attempt, so callers can walk an ordered ladder of attempts against the same
// provider.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Provider is the abstraction over any STT backend.
//
// Implementations must be safe for concurrent use. Multiple transcriptions
// may be in flight simultaneously (one per inbound request).
type Provider interface {
	// Transcribe converts the recording in req into text.
	//
	// An empty Transcript.Text is a valid result (silence, noise). Errors are
	// reserved for transport, authentication and upstream failures, and must
	// carry enough detail to be shown to an operator. ctx cancellation must be
	// honoured promptly.
	Transcribe(ctx context.Context, req Request) (*Transcript, error)
}
