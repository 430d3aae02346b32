// Package config provides the configuration schema, loader, environment
// overlay and provider registry for the elocute server.
package config

import (
	"slices"
	"time"
)

// LogLevel controls log verbosity for the elocute server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Server defaults.
const (
	DefaultListenAddr      = ":8080"
	DefaultUpstreamTimeout = 60 * time.Second
	DefaultMaxUploadBytes  = 25 << 20
	DefaultShutdownTimeout = 15 * time.Second
)

// Provider defaults. They match the hosted OpenAI models the service was
// tuned against.
const (
	DefaultProvider        = "openai"
	ProviderNone           = "none"
	DefaultSTTModel        = "gpt-4o-mini-transcribe"
	DefaultLegacySTTModel  = "whisper-1"
	DefaultAudioLLMModel   = "gpt-4o-audio-preview"
	DefaultLLMModel        = "gpt-4.1-mini"
	DefaultTextLLMModel    = "gpt-4.1-mini"
	DefaultTTSModel        = "gpt-4o-mini-tts"
	DefaultTTSVoice        = "alloy"
	DefaultTTSInstructions = "Speak naturally with clear pacing, gentle intonation, and conversational rhythm."
	DefaultServiceName     = "elocute"
)

// Config is the root configuration structure for elocute.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Resilience    ResilienceConfig    `yaml:"resilience"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

// ServerConfig holds network, logging and request limits.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. It is the only setting applied on reload.
	LogLevel LogLevel `yaml:"log_level"`

	// UpstreamTimeout bounds every individual provider call. Nil means
	// [DefaultUpstreamTimeout]; an explicit 0 disables the bound.
	UpstreamTimeout *time.Duration `yaml:"upstream_timeout"`

	// MaxUploadBytes caps request bodies. Zero means [DefaultMaxUploadBytes].
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// ShutdownTimeout bounds graceful shutdown. Zero means
	// [DefaultShutdownTimeout].
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Upstream returns the effective per-call upstream timeout.
func (s ServerConfig) Upstream() time.Duration {
	if s.UpstreamTimeout == nil {
		return DefaultUpstreamTimeout
	}
	return *s.UpstreamTimeout
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline role. Each entry selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	// STT transcribes uploaded recordings.
	STT ProviderEntry `yaml:"stt"`

	// AudioLLM analyses the recording directly. Name it [ProviderNone] to
	// send every assessment down the transcript path.
	AudioLLM ProviderEntry `yaml:"audio_llm"`

	// LLM analyses the transcript and word timings.
	LLM ProviderEntry `yaml:"llm"`

	// TextLLM explains selected passages of written text.
	TextLLM ProviderEntry `yaml:"text_llm"`

	// TTS synthesizes the "listen" audio.
	TTS ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "whisper").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4.1-mini").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`

	// Fallbacks are tried in order when this entry fails. Nested fallbacks
	// are ignored.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// keylessProviders run locally and need no credential.
var keylessProviders = []string{"whisper", "coqui", "ollama", "llamacpp", "llamafile"}

// MissingCredential reports whether e names a hosted provider but carries no
// API key.
func (e ProviderEntry) MissingCredential() bool {
	if e.Name == "" || e.Name == ProviderNone || e.APIKey != "" {
		return false
	}
	return !slices.Contains(keylessProviders, e.Name)
}

// Option returns the string option key, or "" when absent or not a string.
func (e ProviderEntry) Option(key string) string {
	s, _ := e.Options[key].(string)
	return s
}

// TranscriptionConfig overrides the transcription ladder.
type TranscriptionConfig struct {
	// Attempts replaces the default ladder when non-empty.
	Attempts []AttemptConfig `yaml:"attempts"`
}

// AttemptConfig is one rung of the transcription ladder.
type AttemptConfig struct {
	Model          string `yaml:"model"`
	ResponseFormat string `yaml:"response_format"`
	WordTimestamps bool   `yaml:"word_timestamps"`
}

// ResilienceConfig configures provider failover groups.
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig configures the per-provider breakers of a failover
// group. Zero values select the breaker's own defaults.
type CircuitBreakerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

// TelemetryConfig configures the OpenTelemetry resource and trace sampling.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`

	// TraceSampleRatio is the fraction of new traces recorded, in [0, 1].
	// Requests that arrive with a sampled traceparent are always recorded.
	// Nil means 1.
	TraceSampleRatio *float64 `yaml:"trace_sample_ratio"`
}

// SampleRatio resolves TraceSampleRatio.
func (t TelemetryConfig) SampleRatio() float64 {
	if t.TraceSampleRatio == nil {
		return 1
	}
	return *t.TraceSampleRatio
}

// Default returns the configuration used when no file is given: every role
// served by OpenAI with the stock models.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero values of cfg. A provider role without a name gets
// the OpenAI default entry; an OpenAI entry without a model gets the role's
// default model.
func applyDefaults(cfg *Config) {
	s := &cfg.Server
	if s.ListenAddr == "" {
		s.ListenAddr = DefaultListenAddr
	}
	if s.LogLevel == "" {
		s.LogLevel = LogInfo
	}
	if s.MaxUploadBytes == 0 {
		s.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}

	p := &cfg.Providers
	defaultEntry(&p.STT, DefaultSTTModel)
	defaultEntry(&p.AudioLLM, DefaultAudioLLMModel)
	defaultEntry(&p.LLM, DefaultLLMModel)
	defaultEntry(&p.TextLLM, DefaultTextLLMModel)
	defaultEntry(&p.TTS, DefaultTTSModel)

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}

func defaultEntry(e *ProviderEntry, model string) {
	if e.Name == "" {
		e.Name = DefaultProvider
	}
	if e.Name == DefaultProvider && e.Model == "" {
		e.Model = model
	}
}
