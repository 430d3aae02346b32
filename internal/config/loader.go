package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt": {"openai", "whisper", "deepgram"},
	"tts": {"openai", "elevenlabs", "coqui"},
}

// validResponseFormats are the transcription response formats the ladder
// understands. Empty selects plain JSON.
var validResponseFormats = []string{"", "json", "verbose_json"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills defaults and validates
// the result. An empty document yields [Default].
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	s := cfg.Server
	if s.LogLevel != "" && !s.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", s.LogLevel))
	}
	if s.UpstreamTimeout != nil && *s.UpstreamTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.upstream_timeout %s must not be negative", *s.UpstreamTimeout))
	}
	if s.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes %d must not be negative", s.MaxUploadBytes))
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", s.ShutdownTimeout))
	}

	// Providers
	p := cfg.Providers
	errs = append(errs, validateEntry("providers.stt", "stt", p.STT, false)...)
	errs = append(errs, validateEntry("providers.audio_llm", "llm", p.AudioLLM, true)...)
	errs = append(errs, validateEntry("providers.llm", "llm", p.LLM, false)...)
	errs = append(errs, validateEntry("providers.text_llm", "llm", p.TextLLM, false)...)
	errs = append(errs, validateEntry("providers.tts", "tts", p.TTS, false)...)

	// Transcription ladder
	for i, a := range cfg.Transcription.Attempts {
		prefix := fmt.Sprintf("transcription.attempts[%d]", i)
		if a.Model == "" {
			errs = append(errs, fmt.Errorf("%s.model is required", prefix))
		}
		if !slices.Contains(validResponseFormats, a.ResponseFormat) {
			errs = append(errs, fmt.Errorf("%s.response_format %q is invalid; valid values: json, verbose_json", prefix, a.ResponseFormat))
		}
		if a.WordTimestamps && a.ResponseFormat != "verbose_json" {
			errs = append(errs, fmt.Errorf("%s: word_timestamps requires response_format verbose_json", prefix))
		}
	}

	// Circuit breaker
	cb := cfg.Resilience.CircuitBreaker
	if cb.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("resilience.circuit_breaker.max_failures %d must not be negative", cb.MaxFailures))
	}
	if cb.ResetTimeout < 0 {
		errs = append(errs, fmt.Errorf("resilience.circuit_breaker.reset_timeout %s must not be negative", cb.ResetTimeout))
	}
	if cb.HalfOpenMax < 0 {
		errs = append(errs, fmt.Errorf("resilience.circuit_breaker.half_open_max %d must not be negative", cb.HalfOpenMax))
	}

	if r := cfg.Telemetry.SampleRatio(); r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("telemetry.trace_sample_ratio %g must be between 0 and 1", r))
	}

	return errors.Join(errs...)
}

// validateEntry checks one provider role and its fallbacks. Only audio_llm
// may be disabled with [ProviderNone].
func validateEntry(prefix, kind string, e ProviderEntry, optional bool) []error {
	var errs []error
	if e.Name == ProviderNone {
		if !optional {
			errs = append(errs, fmt.Errorf("%s.name %q is only allowed for providers.audio_llm", prefix, ProviderNone))
		}
		if len(e.Fallbacks) > 0 {
			errs = append(errs, fmt.Errorf("%s.fallbacks require a provider name", prefix))
		}
		return errs
	}
	validateProviderName(kind, e.Name)

	for i, fb := range e.Fallbacks {
		fbPrefix := fmt.Sprintf("%s.fallbacks[%d]", prefix, i)
		if fb.Name == "" || fb.Name == ProviderNone {
			errs = append(errs, fmt.Errorf("%s.name is required", fbPrefix))
			continue
		}
		if len(fb.Fallbacks) > 0 {
			slog.Warn("nested fallbacks are ignored", "entry", fbPrefix)
		}
		validateProviderName(kind, fb.Name)
	}
	return errs
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
