package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MrWong99/elocute/pkg/provider/llm"
)

// chatServer returns an httptest server that records the last decoded request
// body and replies with reply as the raw JSON response.
func chatServer(t *testing.T, reply string) (*httptest.Server, func() map[string]any) {
	t.Helper()
	var (
		mu   sync.Mutex
		body map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var decoded map[string]any
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		body = decoded
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, func() map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return body
	}
}

const okReply = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o-audio-preview",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"overallScore\": 80}"}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestComplete_AudioPartAndJSONMode(t *testing.T) {
	t.Parallel()

	srv, lastBody := chatServer(t, okReply)
	p, err := New("sk-test", "gpt-4o-audio-preview", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	audio := []byte("fake-mp3-bytes")
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are a coach.",
		Temperature:  0.2,
		JSONOutput:   true,
		Messages: []llm.Message{{
			Role:    "user",
			Content: "Target sentence: hello",
			Audio:   &llm.AudioInput{Data: audio, Format: "mp3"},
		}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"overallScore": 80}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("total tokens = %d, want 15", resp.Usage.TotalTokens)
	}

	body := lastBody()
	if got := body["model"]; got != "gpt-4o-audio-preview" {
		t.Errorf("model = %v", got)
	}
	if got := body["temperature"]; got != 0.2 {
		t.Errorf("temperature = %v, want 0.2", got)
	}
	rf, _ := body["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Errorf("response_format = %v, want json_object", body["response_format"])
	}

	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	user, _ := msgs[1].(map[string]any)
	parts, _ := user["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("user content parts = %d, want 2", len(parts))
	}
	text, _ := parts[0].(map[string]any)
	if text["type"] != "text" || text["text"] != "Target sentence: hello" {
		t.Errorf("text part = %v", text)
	}
	ap, _ := parts[1].(map[string]any)
	if ap["type"] != "input_audio" {
		t.Errorf("audio part type = %v", ap["type"])
	}
	ia, _ := ap["input_audio"].(map[string]any)
	if ia["format"] != "mp3" {
		t.Errorf("audio format = %v", ia["format"])
	}
	if ia["data"] != base64.StdEncoding.EncodeToString(audio) {
		t.Errorf("audio data = %v", ia["data"])
	}
}

func TestComplete_EmptyChoicesIsEmptyContent(t *testing.T) {
	t.Parallel()

	srv, _ := chatServer(t, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4.1-mini","choices":[]}`)
	p, err := New("sk-test", "gpt-4.1-mini", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "" {
		t.Errorf("content = %q, want empty", resp.Content)
	}
}

func TestComplete_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad audio","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	p, err := New("sk-test", "gpt-4.1-mini", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	}); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestComplete_AudioRejectedForTextModel(t *testing.T) {
	t.Parallel()

	p, err := New("sk-test", "gpt-4.1-mini", WithBaseURL("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "x", Audio: &llm.AudioInput{Data: []byte{1}, Format: "wav"}}},
	})
	if !errors.Is(err, llm.ErrAudioUnsupported) {
		t.Fatalf("err = %v, want ErrAudioUnsupported", err)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "gpt-4.1-mini"); err == nil {
		t.Error("expected error for empty api key")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestWithAudioInput_Overrides(t *testing.T) {
	t.Parallel()

	p, err := New("sk-test", "my-gateway-model", WithAudioInput(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !p.Capabilities().SupportsAudioInput {
		t.Error("expected SupportsAudioInput=true after override")
	}
}

// TestConvertMessage_UnknownRole checks that unknown roles return an error.
func TestConvertMessage_UnknownRole(t *testing.T) {
	t.Parallel()

	if _, err := convertMessage(llm.Message{Role: "tool", Content: "x"}); err == nil {
		t.Fatal("expected error for unknown role, got nil")
	}
}

func TestConvertMessage_UserWithoutAudio(t *testing.T) {
	t.Parallel()

	param, err := convertMessage(llm.Message{Role: "user", Content: "Hello!"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if param.OfUser == nil {
		t.Fatal("expected OfUser to be set")
	}
	if len(param.OfUser.Content.OfArrayOfContentParts) != 0 {
		t.Error("expected plain string content")
	}
}

func TestModelCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model     string
		wantAudio bool
		wantJSON  bool
	}{
		{"gpt-4o-audio-preview", true, true},
		{"gpt-4o-mini-audio-preview", true, true},
		{"gpt-4.1-mini", false, true},
		{"gpt-4o-mini", false, true},
		{"gpt-4", false, false},
		{"o1-mini", false, false},
	}
	for _, tt := range tests {
		caps := modelCapabilities(tt.model)
		if caps.SupportsAudioInput != tt.wantAudio {
			t.Errorf("%s: SupportsAudioInput = %v, want %v", tt.model, caps.SupportsAudioInput, tt.wantAudio)
		}
		if caps.SupportsJSONMode != tt.wantJSON {
			t.Errorf("%s: SupportsJSONMode = %v, want %v", tt.model, caps.SupportsJSONMode, tt.wantJSON)
		}
	}
}
