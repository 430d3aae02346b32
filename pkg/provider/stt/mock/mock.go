// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider to verify which attempts the caller made (model, response
// format, timestamps) and to feed controlled transcripts or failures.
//
// Example:
//
//	p := &mock.Provider{
//	    Results: []mock.Result{
//	        {Err: errors.New("unsupported format")},
//	        {Transcript: &stt.Transcript{Text: "hello"}},
//	    },
//	}
//	tr, err := p.Transcribe(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/elocute/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Req is the Request passed to Transcribe.
	Req stt.Request
}

// Result is one scripted reply of Provider.
type Result struct {
	Transcript *stt.Transcript
	Err        error
}

// Provider is a mock implementation of stt.Provider.
//
// Calls consume Results in order; once Results is exhausted every further call
// returns Transcript, Err.
type Provider struct {
	mu sync.Mutex

	// Results is the ordered script of replies.
	Results []Result

	// Transcript is returned when Results is exhausted.
	Transcript *stt.Transcript

	// Err, if non-nil, is returned when Results is exhausted.
	Err error

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns the next scripted result.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (*stt.Transcript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.TranscribeCalls)
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Req: req})
	if n < len(p.Results) {
		r := p.Results[n]
		return r.Transcript, r.Err
	}
	return p.Transcript, p.Err
}

// Calls returns a snapshot of the recorded calls. Thread-safe.
func (p *Provider) Calls() []TranscribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TranscribeCall, len(p.TranscribeCalls))
	copy(out, p.TranscribeCalls)
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
