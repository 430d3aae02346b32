package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrWong99/elocute/pkg/provider/stt"
)

// formCapture holds the multipart fields seen by the test server.
type formCapture struct {
	fields   map[string][]string
	filename string
	audio    []byte
}

func transcriptionServer(t *testing.T, status int, reply string) (*httptest.Server, *formCapture) {
	t.Helper()
	got := &formCapture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		got.fields = r.MultipartForm.Value
		if f, hdr, err := r.FormFile("file"); err == nil {
			got.filename = hdr.Filename
			got.audio, _ = io.ReadAll(f)
			_ = f.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestTranscribe_VerboseJSONWithWords(t *testing.T) {
	t.Parallel()

	srv, got := transcriptionServer(t, http.StatusOK, `{
		"text": "I live in Vancouver.",
		"language": "english",
		"duration": 1.5,
		"words": [
			{"word": "I", "start": 0.0, "end": 0.2},
			{"word": "live", "start": 0.2, "end": 0.5},
			{"word": "in", "start": 0.5, "end": 0.6},
			{"word": "Vancouver", "start": 0.6, "end": 1.4}
		]
	}`)

	p, err := New("sk-test", "gpt-4o-mini-transcribe", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr, err := p.Transcribe(context.Background(), stt.Request{
		Audio:          []byte("webm-bytes"),
		ContentType:    "audio/webm",
		Language:       "en",
		ResponseFormat: stt.FormatVerboseJSON,
		WordTimestamps: true,
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if tr.Text != "I live in Vancouver." {
		t.Errorf("text = %q", tr.Text)
	}
	if len(tr.Words) != 4 {
		t.Fatalf("words = %d, want 4", len(tr.Words))
	}
	if tr.Words[3].Word != "Vancouver" || tr.Words[3].End != 1400*time.Millisecond {
		t.Errorf("last word = %+v", tr.Words[3])
	}
	if tr.Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v", tr.Duration)
	}

	if v := got.fields["model"]; len(v) != 1 || v[0] != "gpt-4o-mini-transcribe" {
		t.Errorf("model field = %v", v)
	}
	if v := got.fields["response_format"]; len(v) != 1 || v[0] != "verbose_json" {
		t.Errorf("response_format field = %v", v)
	}
	if v := got.fields["language"]; len(v) != 1 || v[0] != "en" {
		t.Errorf("language field = %v", v)
	}
	if v := got.fields["timestamp_granularities[]"]; len(v) != 1 || v[0] != "word" {
		t.Errorf("timestamp_granularities[] field = %v", v)
	}
	if got.filename != defaultFilename {
		t.Errorf("filename = %q, want %q", got.filename, defaultFilename)
	}
	if string(got.audio) != "webm-bytes" {
		t.Errorf("audio = %q", got.audio)
	}
}

func TestTranscribe_PlainJSONOverridesModel(t *testing.T) {
	t.Parallel()

	srv, got := transcriptionServer(t, http.StatusOK, `{"text": "hello"}`)
	p, err := New("sk-test", "gpt-4o-mini-transcribe", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr, err := p.Transcribe(context.Background(), stt.Request{
		Audio:    []byte("x"),
		Filename: "clip.wav",
		Model:    "whisper-1",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Text != "hello" || tr.Words != nil {
		t.Errorf("transcript = %+v", tr)
	}
	if v := got.fields["model"]; len(v) != 1 || v[0] != "whisper-1" {
		t.Errorf("model field = %v", v)
	}
	if v := got.fields["response_format"]; len(v) != 1 || v[0] != "json" {
		t.Errorf("response_format field = %v", v)
	}
	if _, ok := got.fields["timestamp_granularities[]"]; ok {
		t.Error("timestamp granularities must not be sent without WordTimestamps")
	}
	if got.filename != "clip.wav" {
		t.Errorf("filename = %q", got.filename)
	}
}

func TestTranscribe_UpstreamError(t *testing.T) {
	t.Parallel()

	srv, _ := transcriptionServer(t, http.StatusBadRequest,
		`{"error":{"message":"response_format 'verbose_json' is not compatible","type":"invalid_request_error"}}`)
	p, err := New("sk-test", "gpt-4o-mini-transcribe", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), stt.Request{Audio: []byte("x")}); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	t.Parallel()

	p, err := New("sk-test", "whisper-1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), stt.Request{}); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "whisper-1"); err == nil {
		t.Error("expected error for empty api key")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
}
