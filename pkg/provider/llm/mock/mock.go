// Package mock is an in-memory [llm.Provider] for tests.
//
// Set the reply fields before use and read the recorded calls afterwards:
//
//	p := &mock.Provider{
//	    CompleteResponse: &llm.CompletionResponse{Content: `{"overallScore": 80}`},
//	}
//	_, _ = p.Complete(ctx, req)
//	got := p.Calls()[0].Req
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/MrWong99/elocute/pkg/provider/llm"
)

// CompleteCall is one recorded Complete invocation.
type CompleteCall struct {
	Ctx context.Context
	Req llm.CompletionRequest
}

// Provider replies with CompleteResponse and CompleteErr, or delegates to
// CompleteFunc when set. A zero Provider answers (nil, nil).
type Provider struct {
	CompleteResponse *llm.CompletionResponse
	CompleteErr      error

	// CompleteFunc overrides the static reply. It runs without the lock held,
	// so it may block or call back into the mock.
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	ModelCapabilities llm.ModelCapabilities

	mu    sync.Mutex
	calls []CompleteCall
}

var _ llm.Provider = (*Provider)(nil)

// Complete records the call, then replies.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, CompleteCall{Ctx: ctx, Req: req})
	fn, resp, err := p.CompleteFunc, p.CompleteResponse, p.CompleteErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return resp, err
}

// Capabilities returns ModelCapabilities.
func (p *Provider) Capabilities() llm.ModelCapabilities {
	return p.ModelCapabilities
}

// Calls returns a copy of the recorded calls, oldest first.
func (p *Provider) Calls() []CompleteCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}
