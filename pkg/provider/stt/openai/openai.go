// Package openai provides a batch STT provider backed by the OpenAI audio
// transcription endpoint (gpt-4o-transcribe family and whisper-1).
//
// Usage:
//
//	p, err := openai.New("sk-...", "gpt-4o-mini-transcribe")
//	tr, err := p.Transcribe(ctx, stt.Request{
//	    Audio:          data,
//	    Filename:       "recording.webm",
//	    Language:       "en",
//	    ResponseFormat: stt.FormatVerboseJSON,
//	    WordTimestamps: true,
//	})
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/elocute/pkg/provider/stt"
)

// defaultFilename is used when the uploader did not provide a file name.
const defaultFilename = "recording.webm"

// Provider implements stt.Provider using the OpenAI transcription API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
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

// New constructs a new OpenAI STT Provider. model is the default model used
// when a Request does not name one.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, errors.New("openai: model must not be empty")
	}

	cfg := &config{}
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

	return &Provider{client: oai.NewClient(reqOpts...), model: model}, nil
}

// verboseTranscription is the subset of the verbose_json response we consume.
// The SDK's Transcription type only exposes the text.
type verboseTranscription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Words    []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (*stt.Transcript, error) {
	if len(req.Audio) == 0 {
		return nil, errors.New("openai: audio must not be empty")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}
	format := req.ResponseFormat
	if format == "" {
		format = stt.FormatJSON
	}
	filename := req.Filename
	if filename == "" {
		filename = defaultFilename
	}

	params := oai.AudioTranscriptionNewParams{
		File:           oai.File(bytes.NewReader(req.Audio), filename, req.ContentType),
		Model:          oai.AudioModel(model),
		ResponseFormat: oai.AudioResponseFormat(format),
	}
	if req.Language != "" {
		params.Language = oai.String(req.Language)
	}
	if req.WordTimestamps {
		params.TimestampGranularities = []string{"word"}
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: transcription: %w", err)
	}

	tr := &stt.Transcript{Text: resp.Text}
	if format != stt.FormatVerboseJSON {
		return tr, nil
	}

	var verbose verboseTranscription
	if err := json.Unmarshal([]byte(resp.RawJSON()), &verbose); err != nil {
		return nil, fmt.Errorf("openai: decode verbose transcription: %w", err)
	}
	tr.Language = verbose.Language
	tr.Duration = seconds(verbose.Duration)
	for _, w := range verbose.Words {
		tr.Words = append(tr.Words, stt.WordDetail{
			Word:  w.Word,
			Start: seconds(w.Start),
			End:   seconds(w.End),
		})
	}
	return tr, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

var _ stt.Provider = (*Provider)(nil)
