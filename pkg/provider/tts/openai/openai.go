// Package openai provides a TTS provider backed by the OpenAI speech endpoint.
//
// Usage:
//
//	p, err := openai.New("sk-...", "gpt-4o-mini-tts",
//	    openai.WithVoice("alloy"),
//	    openai.WithInstructions("Speak naturally with clear pacing."),
//	)
//	sp, err := p.Synthesize(ctx, tts.Request{Text: "I live in Vancouver."})
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/elocute/pkg/provider/tts"
)

const defaultVoice = "alloy"

// Provider implements tts.Provider using the OpenAI speech API.
type Provider struct {
	client       oai.Client
	model        string
	voice        string
	instructions string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
	voice        string
	instructions string
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) {
		c.organization = org
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithVoice sets the default voice. Defaults to "alloy".
func WithVoice(voice string) Option {
	return func(c *config) {
		c.voice = voice
	}
}

// WithInstructions sets the default delivery instructions sent with every
// request that does not carry its own.
func WithInstructions(s string) Option {
	return func(c *config) {
		c.instructions = s
	}
}

// New constructs a new OpenAI TTS Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, errors.New("openai: model must not be empty")
	}

	cfg := &config{voice: defaultVoice}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{
		client:       oai.NewClient(reqOpts...),
		model:        model,
		voice:        cfg.voice,
		instructions: cfg.instructions,
	}, nil
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Speech, error) {
	if req.Text == "" {
		return nil, tts.ErrEmptyText
	}

	voice := p.voice
	if req.Voice.ID != "" {
		voice = req.Voice.ID
	}
	instructions := p.instructions
	if req.Instructions != "" {
		instructions = req.Instructions
	}
	format := req.Format
	if format == "" {
		format = tts.FormatMP3
	}

	params := oai.AudioSpeechNewParams{
		Input:          req.Text,
		Model:          oai.SpeechModel(p.model),
		Voice:          oai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormat(format),
	}
	if instructions != "" {
		params.Instructions = oai.String(instructions)
	}
	if req.Voice.SpeedFactor > 0 {
		params.Speed = oai.Float(req.Voice.SpeedFactor)
	}

	resp, err := p.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: speech: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read speech body: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("openai: speech response was empty")
	}

	return &tts.Speech{Audio: audio, ContentType: tts.ContentTypeFor(format)}, nil
}

var _ tts.Provider = (*Provider)(nil)
