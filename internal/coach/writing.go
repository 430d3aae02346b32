package coach

import (
	"context"
	"fmt"

	"github.com/MrWong99/elocute/internal/feedback"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/pkg/provider/llm"
)

// Writing explains grammar and wording of a selected passage.
type Writing struct {
	llm llm.Provider
	settings
}

// NewWriting returns a [Writing] coach backed by provider.
func NewWriting(provider llm.Provider, opts ...Option) *Writing {
	return &Writing{
		llm:      provider,
		settings: newSettings(defaultWritingTemperature, opts),
	}
}

// Review asks the model about selectedText in the context of fullText. Both
// must already be trimmed; selectedText must be non-empty.
//
// An empty model reply yields the default record. A reply that is not valid
// JSON is an error.
func (w *Writing) Review(ctx context.Context, fullText, selectedText string) (*feedback.Text, error) {
	ctx, span := observe.StartSpan(ctx, "coach.Review")
	defer span.End()

	upstreamCtx, cancel := w.upstream(ctx)
	defer cancel()

	resp, err := w.llm.Complete(upstreamCtx, llm.CompletionRequest{
		SystemPrompt: writingSystemPrompt,
		Temperature:  *w.temperature,
		JSONOutput:   true,
		Messages: []llm.Message{
			{Role: "user", Content: writingUserPrompt(fullText, selectedText)},
		},
	})
	if err != nil {
		observe.FailSpan(span, err)
		return nil, fmt.Errorf("coach: text feedback generation failed: %w", err)
	}

	var content string
	if resp != nil {
		content = resp.Content
	}
	text, err := feedback.NormalizeText(content, selectedText)
	if err != nil {
		observe.FailSpan(span, err)
		return nil, fmt.Errorf("coach: %w", err)
	}
	observe.Logger(ctx).Debug("text reviewed", "suggestions", len(text.Suggestions))
	return text, nil
}
