package app

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/MrWong99/elocute/internal/config"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/internal/resilience"
	"github.com/MrWong99/elocute/pkg/provider/llm"
	"github.com/MrWong99/elocute/pkg/provider/stt"
	"github.com/MrWong99/elocute/pkg/provider/tts"
)

// Provider roles, used as readiness check names and in log lines.
const (
	RoleSTT      = "stt"
	RoleAudioLLM = "audio_llm"
	RoleLLM      = "llm"
	RoleTextLLM  = "text_llm"
	RoleTTS      = "tts"
)

// Providers holds one interface value per provider role. Nil means the role
// has no usable backend.
type Providers struct {
	STT      stt.Provider
	AudioLLM llm.Provider
	LLM      llm.Provider
	TextLLM  llm.Provider
	TTS      tts.Provider

	// Missing lists the credentials whose absence left a role without a
	// backend: OPENAI_API_KEY for OpenAI roles, "providers.<role>.api_key"
	// otherwise.
	Missing []string
}

// BuildProviders instantiates every role named in cfg through reg. Each
// backend is instrumented with m; a role with fallbacks becomes a
// resilience failover group. Entries that lack a credential are skipped
// with a warning, and "none" disables a role.
func BuildProviders(cfg *config.Config, reg *config.Registry, m *observe.Metrics) (*Providers, error) {
	b := &builder{
		reg:     reg,
		metrics: m,
		fc:      fallbackConfig(cfg.Resilience.CircuitBreaker, m),
		ps:      &Providers{},
	}
	p := cfg.Providers

	var err error
	if b.ps.STT, err = b.buildSTT(RoleSTT, p.STT); err != nil {
		return nil, err
	}
	if b.ps.AudioLLM, err = b.buildLLM(RoleAudioLLM, p.AudioLLM); err != nil {
		return nil, err
	}
	if b.ps.LLM, err = b.buildLLM(RoleLLM, p.LLM); err != nil {
		return nil, err
	}
	if b.ps.TextLLM, err = b.buildLLM(RoleTextLLM, p.TextLLM); err != nil {
		return nil, err
	}
	if b.ps.TTS, err = b.buildTTS(RoleTTS, p.TTS); err != nil {
		return nil, err
	}
	return b.ps, nil
}

// fallbackConfig maps the configured breaker settings onto the failover
// groups. Breaker transitions are logged and counted.
func fallbackConfig(cb config.CircuitBreakerConfig, m *observe.Metrics) resilience.FallbackConfig {
	return resilience.FallbackConfig{
		DisableBreakers: !cb.Enabled,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  cb.MaxFailures,
			ResetTimeout: cb.ResetTimeout,
			HalfOpenMax:  cb.HalfOpenMax,
			OnStateChange: func(name string, from, to resilience.State) {
				slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
				m.RecordBreakerTransition(context.Background(), name, to.String())
			},
		},
	}
}

type builder struct {
	reg     *config.Registry
	metrics *observe.Metrics
	fc      resilience.FallbackConfig
	ps      *Providers
}

// usable returns the primary entry followed by its fallbacks, minus the
// entries that are disabled or lack a credential. When nothing is left
// because of a missing credential, the role is recorded in Providers.Missing.
func (b *builder) usable(role string, primary config.ProviderEntry) []config.ProviderEntry {
	if primary.Name == "" || primary.Name == config.ProviderNone {
		slog.Info("provider disabled", "kind", role)
		return nil
	}

	candidates := append([]config.ProviderEntry{primary}, primary.Fallbacks...)
	var out []config.ProviderEntry
	skipped := false
	for _, e := range candidates {
		if e.MissingCredential() {
			slog.Warn("provider skipped: no api key", "kind", role, "name", e.Name)
			skipped = true
			continue
		}
		out = append(out, e)
	}
	if len(out) == 0 && skipped {
		missing := "providers." + role + ".api_key"
		if primary.Name == config.DefaultProvider {
			missing = config.EnvAPIKey
		}
		if !slices.Contains(b.ps.Missing, missing) {
			b.ps.Missing = append(b.ps.Missing, missing)
		}
	}
	return out
}

// label names an entry inside a failover group.
func label(e config.ProviderEntry) string {
	if e.Model == "" {
		return e.Name
	}
	return e.Name + "/" + e.Model
}

func createErr(role string, e config.ProviderEntry, err error) error {
	return fmt.Errorf("app: create %s provider %q: %w", role, e.Name, err)
}

// ── per-kind construction ──────────────────────────────────────────────────

func (b *builder) buildSTT(role string, primary config.ProviderEntry) (stt.Provider, error) {
	entries := b.usable(role, primary)
	var group *resilience.STTFallback
	var single stt.Provider
	for i, e := range entries {
		p, err := b.reg.CreateSTT(e)
		if err != nil {
			return nil, createErr(role, e, err)
		}
		inst := observe.InstrumentSTT(p, e.Name, b.metrics)
		switch {
		case len(entries) == 1:
			single = inst
		case i == 0:
			group = resilience.NewSTTFallback(inst, label(e), b.fc)
		default:
			group.AddFallback(label(e), inst)
		}
		slog.Info("provider created", "kind", role, "name", e.Name, "model", e.Model)
	}
	if group != nil {
		return group, nil
	}
	return single, nil
}

func (b *builder) buildLLM(role string, primary config.ProviderEntry) (llm.Provider, error) {
	entries := b.usable(role, primary)
	var group *resilience.LLMFallback
	var single llm.Provider
	for i, e := range entries {
		p, err := b.createLLM(role, e)
		if err != nil {
			return nil, createErr(role, e, err)
		}
		inst := observe.InstrumentLLM(p, e.Name, b.metrics)
		switch {
		case len(entries) == 1:
			single = inst
		case i == 0:
			group = resilience.NewLLMFallback(inst, label(e), b.fc)
		default:
			group.AddFallback(label(e), inst)
		}
		slog.Info("provider created", "kind", role, "name", e.Name, "model", e.Model)
	}
	if group != nil {
		return group, nil
	}
	return single, nil
}

// createLLM marks audio_llm entries so factories can enable audio input.
func (b *builder) createLLM(role string, e config.ProviderEntry) (llm.Provider, error) {
	if role == RoleAudioLLM {
		opts := maps.Clone(e.Options)
		if opts == nil {
			opts = map[string]any{}
		}
		if _, ok := opts[OptionAudioInput]; !ok {
			opts[OptionAudioInput] = true
		}
		e.Options = opts
	}
	return b.reg.CreateLLM(e)
}

// OptionAudioInput is set on audio_llm entries before they reach their
// factory. Factories that support audio parts should honour it.
const OptionAudioInput = "audio_input"

func (b *builder) buildTTS(role string, primary config.ProviderEntry) (tts.Provider, error) {
	entries := b.usable(role, primary)
	var group *resilience.TTSFallback
	var single tts.Provider
	for i, e := range entries {
		p, err := b.reg.CreateTTS(e)
		if err != nil {
			return nil, createErr(role, e, err)
		}
		inst := observe.InstrumentTTS(p, e.Name, b.metrics)
		switch {
		case len(entries) == 1:
			single = inst
		case i == 0:
			group = resilience.NewTTSFallback(inst, label(e), b.fc)
		default:
			group.AddFallback(label(e), inst)
		}
		slog.Info("provider created", "kind", role, "name", e.Name, "model", e.Model)
	}
	if group != nil {
		return group, nil
	}
	return single, nil
}
