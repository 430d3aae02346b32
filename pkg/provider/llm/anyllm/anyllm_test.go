package anyllm

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/elocute/pkg/provider/llm"
)

func TestParams(t *testing.T) {
	p := &Provider{model: "claude-3-5-haiku-latest"}

	t.Run("system prompt and sampling", func(t *testing.T) {
		params := p.params(llm.CompletionRequest{
			SystemPrompt: "You are an English writing coach.",
			Temperature:  0.3,
			MaxTokens:    512,
			Messages:     []llm.Message{{Role: "user", Content: "Selected text: teh cat"}},
		})
		if params.Model != "claude-3-5-haiku-latest" {
			t.Errorf("model = %q", params.Model)
		}
		if len(params.Messages) != 2 {
			t.Fatalf("messages = %d, want 2", len(params.Messages))
		}
		if params.Messages[0].Role != anyllmlib.RoleSystem {
			t.Errorf("first role = %q, want system", params.Messages[0].Role)
		}
		if got := params.Messages[1].ContentString(); got != "Selected text: teh cat" {
			t.Errorf("user content = %q", got)
		}
		if params.Temperature == nil || *params.Temperature != 0.3 {
			t.Errorf("temperature = %v", params.Temperature)
		}
		if params.MaxTokens == nil || *params.MaxTokens != 512 {
			t.Errorf("max tokens = %v", params.MaxTokens)
		}
	})

	t.Run("defaults left unset", func(t *testing.T) {
		params := p.params(llm.CompletionRequest{
			Messages: []llm.Message{{Role: "user", Content: "hi"}},
		})
		if len(params.Messages) != 1 {
			t.Errorf("messages = %d, want 1 without system prompt", len(params.Messages))
		}
		if params.Temperature != nil || params.MaxTokens != nil {
			t.Errorf("temperature = %v, max tokens = %v; want both nil", params.Temperature, params.MaxTokens)
		}
	})
}

func TestComplete_RejectsAudio(t *testing.T) {
	p, err := New("ollama", "llama3")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "x", Audio: &llm.AudioInput{Data: []byte{1}, Format: "webm"}}},
	})
	if !errors.Is(err, llm.ErrAudioUnsupported) {
		t.Fatalf("err = %v, want ErrAudioUnsupported", err)
	}
	if !strings.Contains(err.Error(), "ollama/llama3") {
		t.Errorf("err = %v, want backend and model named", err)
	}
}

func TestModelCapabilities(t *testing.T) {
	tests := []struct {
		model      string
		wantWindow int
		wantOutput int
	}{
		{"gpt-4.1-mini", 1_047_576, 32_768},
		{"GPT-4O-mini", 128_000, 16_384},
		{"gpt-4", 8_192, 4_096},
		{"claude-3-5-sonnet-latest", 200_000, 8_192},
		{"claude-3-opus-20240229", 200_000, 4_096},
		{"gemini-1.5-pro", 2_097_152, 8_192},
		{"gemini-1.5-flash", 1_048_576, 8_192},
		{"gemini-2.0-flash", 1_048_576, 8_192},
		{"gemini-pro", 128_000, 8_192},
		{"mistral-small-latest", 128_000, 4_096},
	}
	for _, tt := range tests {
		caps := modelCapabilities(tt.model)
		if caps.ContextWindow != tt.wantWindow || caps.MaxOutputTokens != tt.wantOutput {
			t.Errorf("%s: window %d output %d, want %d %d",
				tt.model, caps.ContextWindow, caps.MaxOutputTokens, tt.wantWindow, tt.wantOutput)
		}
		if caps.SupportsAudioInput {
			t.Errorf("%s: audio input reported", tt.model)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		model    string
		opts     []anyllmlib.Option
		wantName string
		wantErr  string
	}{
		{name: "empty backend", model: "gpt-4o", wantErr: "backend name"},
		{name: "empty model", backend: "openai", wantErr: "model"},
		{name: "unsupported", backend: "fakecloud", model: "m", opts: []anyllmlib.Option{anyllmlib.WithAPIKey("dummy")}, wantErr: "supported: anthropic"},
		{name: "anthropic with key", backend: "anthropic", model: "claude-3-5-haiku-latest", opts: []anyllmlib.Option{anyllmlib.WithAPIKey("sk-ant-test")}, wantName: "anthropic"},
		{name: "ollama mixed case", backend: "Ollama", model: "llama3", wantName: "ollama"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := New(tc.backend, tc.model, tc.opts...)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("err = %v, want mention of %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if p.name != tc.wantName || p.model != tc.model {
				t.Errorf("provider = %s/%s, want %s/%s", p.name, p.model, tc.wantName, tc.model)
			}
		})
	}
}

func TestSupportedProviders(t *testing.T) {
	got := SupportedProviders()
	if !slices.IsSorted(got) {
		t.Errorf("not sorted: %v", got)
	}
	for _, want := range []string{"anthropic", "gemini", "ollama", "openai", "llamafile"} {
		if !slices.Contains(got, want) {
			t.Errorf("%q missing from %v", want, got)
		}
	}
}
