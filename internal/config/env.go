package config

import "os"

// Environment variables overlaid by [ApplyEnv].
const (
	EnvAPIKey             = "OPENAI_API_KEY"
	EnvTranscribeModel    = "OPENAI_TRANSCRIBE_MODEL"
	EnvAudioAnalysisModel = "OPENAI_AUDIO_ANALYSIS_MODEL"
	EnvModel              = "OPENAI_MODEL"
	EnvTextFeedbackModel  = "OPENAI_TEXT_FEEDBACK_MODEL"
	EnvTTSModel           = "OPENAI_TTS_MODEL"
	EnvTTSVoice           = "OPENAI_TTS_VOICE"
)

// ApplyEnv overlays the OPENAI_* environment variables onto cfg using
// [os.LookupEnv]. See [ApplyEnvFrom].
func ApplyEnv(cfg *Config) {
	ApplyEnvFrom(cfg, os.LookupEnv)
}

// ApplyEnvFrom overlays environment variables read through lookup onto cfg.
//
// The API key fills every OpenAI entry (fallbacks included) that has none.
// Model and voice variables override the primary entry of their role, but only
// when that entry is served by OpenAI. Empty values are ignored.
func ApplyEnvFrom(cfg *Config, lookup func(string) (string, bool)) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	p := &cfg.Providers
	if key := get(EnvAPIKey); key != "" {
		for _, e := range []*ProviderEntry{&p.STT, &p.AudioLLM, &p.LLM, &p.TextLLM, &p.TTS} {
			fillAPIKey(e, key)
		}
	}

	overrideModel(&p.STT, get(EnvTranscribeModel))
	overrideModel(&p.AudioLLM, get(EnvAudioAnalysisModel))
	overrideModel(&p.LLM, get(EnvModel))
	overrideModel(&p.TextLLM, get(EnvTextFeedbackModel))
	overrideModel(&p.TTS, get(EnvTTSModel))

	if voice := get(EnvTTSVoice); voice != "" && p.TTS.Name == DefaultProvider {
		if p.TTS.Options == nil {
			p.TTS.Options = map[string]any{}
		}
		p.TTS.Options["voice"] = voice
	}
}

func fillAPIKey(e *ProviderEntry, key string) {
	if e.Name == DefaultProvider && e.APIKey == "" {
		e.APIKey = key
	}
	for i := range e.Fallbacks {
		fillAPIKey(&e.Fallbacks[i], key)
	}
}

func overrideModel(e *ProviderEntry, model string) {
	if model != "" && e.Name == DefaultProvider {
		e.Model = model
	}
}
