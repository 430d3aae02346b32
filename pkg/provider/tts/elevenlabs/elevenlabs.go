// Package elevenlabs provides a TTS provider backed by the ElevenLabs
// WebSocket stream-input API.
//
// The provider sends the whole sentence in one text frame, flushes, and
// concatenates the returned audio frames into a single MP3 clip.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/coder/websocket"

	"github.com/MrWong99/elocute/pkg/provider/tts"
)

const (
	defaultBaseURL   = "wss://api.elevenlabs.io"
	streamPathFmt    = "/v1/text-to-speech/%s/stream-input?model_id=%s"
	defaultModel     = "eleven_flash_v2_5"
	defaultOutputFmt = "mp3_44100_128"

	// readLimit bounds a single WebSocket frame. Audio frames are base64 MP3
	// and routinely exceed the library's 32 KiB default.
	readLimit = 4 << 20
)

// Option is a functional option for Provider.
type Option func(*Provider)

// WithModel sets the ElevenLabs model id. Defaults to eleven_flash_v2_5.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithVoice sets the default voice id used when a Request names none.
func WithVoice(id string) Option {
	return func(p *Provider) {
		p.voice = id
	}
}

// WithBaseURL overrides the WebSocket origin (e.g., "ws://127.0.0.1:9000").
func WithBaseURL(u string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// Provider implements tts.Provider using ElevenLabs.
type Provider struct {
	apiKey  string
	model   string
	voice   string
	baseURL string
}

// New creates an ElevenLabs provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

// textMessage is a text frame; an empty Text flushes and ends the stream.
type textMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

// boiMessage is the "beginning of input" frame that authenticates the stream.
type boiMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
	XiAPIKey      string         `json:"xi_api_key"`
	OutputFormat  string         `json:"output_format,omitempty"`
}

type audioResponse struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Speech, error) {
	if req.Text == "" {
		return nil, tts.ErrEmptyText
	}
	voice := req.Voice.ID
	if voice == "" {
		voice = p.voice
	}
	if voice == "" {
		return nil, errors.New("elevenlabs: voice id must not be empty")
	}

	conn, _, err := websocket.Dial(ctx, p.streamURL(voice), nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	conn.SetReadLimit(readLimit)

	vs := &voiceSettings{Stability: 0.5, SimilarityBoost: 0.75, Speed: req.Voice.SpeedFactor}
	frames := []any{
		// ElevenLabs requires a non-empty first text value.
		boiMessage{Text: " ", VoiceSettings: vs, XiAPIKey: p.apiKey, OutputFormat: defaultOutputFmt},
		textMessage{Text: req.Text + " "},
		textMessage{Text: ""},
	}
	for _, f := range frames {
		data, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("elevenlabs: marshal frame: %w", err)
		}
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			return nil, fmt.Errorf("elevenlabs: write frame: %w", err)
		}
	}

	audio, err := readAudio(ctx, conn)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("elevenlabs: stream returned no audio")
	}
	return &tts.Speech{Audio: audio, ContentType: tts.ContentTypeFor(tts.FormatMP3)}, nil
}

// readAudio collects decoded audio frames until the server marks the stream
// final or closes the connection normally.
func readAudio(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	var audio []byte
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return audio, nil
			}
			return nil, fmt.Errorf("elevenlabs: read: %w", err)
		}
		var resp audioResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("elevenlabs: %s: %s", resp.Error, resp.Message)
		}
		if resp.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err != nil {
				return nil, fmt.Errorf("elevenlabs: decode audio frame: %w", err)
			}
			audio = append(audio, chunk...)
		}
		if resp.IsFinal {
			return audio, nil
		}
	}
}

func (p *Provider) streamURL(voice string) string {
	return p.baseURL + fmt.Sprintf(streamPathFmt, voice, p.model)
}

var _ tts.Provider = (*Provider)(nil)
