package audio_test

import (
	"testing"

	"github.com/MrWong99/elocute/pkg/audio"
)

func TestInputFormat(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"audio/wav", "wav"},
		{"audio/x-wav", "wav"},
		{"AUDIO/WAVE", "wav"},
		{"audio/mp3", "mp3"},
		{"audio/mpeg", "mp3"},
		{"audio/m4a", "m4a"},
		{"audio/x-m4a", "m4a"},
		{"audio/mp4", "m4a"},
		{"audio/webm;codecs=opus", "webm"},
		{"audio/ogg", "webm"},
		{"", "webm"},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := audio.InputFormat(tt.contentType); got != tt.want {
				t.Errorf("InputFormat(%q) = %q, want %q", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestClip(t *testing.T) {
	c := audio.Clip{ContentType: "audio/mpeg"}
	if !c.Empty() {
		t.Error("expected empty clip")
	}
	if got := c.Format(); got != "mp3" {
		t.Errorf("Format() = %q, want mp3", got)
	}
	c.Data = []byte{1}
	if c.Empty() {
		t.Error("expected non-empty clip")
	}
}

func TestDefaultFilename(t *testing.T) {
	if got := audio.DefaultFilename("audio/wav"); got != "recording.wav" {
		t.Errorf("got %q", got)
	}
	if got := audio.DefaultFilename(""); got != "recording.webm" {
		t.Errorf("got %q", got)
	}
}
