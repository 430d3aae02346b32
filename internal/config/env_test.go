package config_test

import (
	"testing"

	"github.com/MrWong99/elocute/internal/config"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestApplyEnvFrom_OpenAIDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	config.ApplyEnvFrom(cfg, lookupFrom(map[string]string{
		config.EnvAPIKey:             "sk-test",
		config.EnvTranscribeModel:    "gpt-4o-transcribe",
		config.EnvAudioAnalysisModel: "gpt-4o-audio",
		config.EnvModel:              "gpt-4.1",
		config.EnvTextFeedbackModel:  "gpt-4.1-nano",
		config.EnvTTSModel:           "tts-1",
		config.EnvTTSVoice:           "verse",
	}))

	p := cfg.Providers
	for name, e := range map[string]config.ProviderEntry{
		"stt": p.STT, "audio_llm": p.AudioLLM, "llm": p.LLM, "text_llm": p.TextLLM, "tts": p.TTS,
	} {
		if e.APIKey != "sk-test" {
			t.Errorf("%s api_key: got %q", name, e.APIKey)
		}
	}
	if p.STT.Model != "gpt-4o-transcribe" {
		t.Errorf("stt model: got %q", p.STT.Model)
	}
	if p.AudioLLM.Model != "gpt-4o-audio" {
		t.Errorf("audio_llm model: got %q", p.AudioLLM.Model)
	}
	if p.LLM.Model != "gpt-4.1" {
		t.Errorf("llm model: got %q", p.LLM.Model)
	}
	if p.TextLLM.Model != "gpt-4.1-nano" {
		t.Errorf("text_llm model: got %q", p.TextLLM.Model)
	}
	if p.TTS.Model != "tts-1" || p.TTS.Option("voice") != "verse" {
		t.Errorf("tts: got %s / %q", p.TTS.Model, p.TTS.Option("voice"))
	}
}

func TestApplyEnvFrom_KeepsExplicitValues(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Providers.LLM.APIKey = "sk-file"
	cfg.Providers.TextLLM = config.ProviderEntry{Name: "ollama", Model: "llama3"}
	cfg.Providers.STT.Fallbacks = []config.ProviderEntry{{Name: "openai", Model: "whisper-1"}, {Name: "whisper"}}

	config.ApplyEnvFrom(cfg, lookupFrom(map[string]string{
		config.EnvAPIKey:            "sk-env",
		config.EnvTextFeedbackModel: "gpt-4.1-nano",
	}))

	p := cfg.Providers
	if p.LLM.APIKey != "sk-file" {
		t.Errorf("llm api_key overwritten: got %q", p.LLM.APIKey)
	}
	if p.TextLLM.APIKey != "" || p.TextLLM.Model != "llama3" {
		t.Errorf("ollama entry changed: got %+v", p.TextLLM)
	}
	if p.STT.Fallbacks[0].APIKey != "sk-env" {
		t.Errorf("openai fallback api_key: got %q", p.STT.Fallbacks[0].APIKey)
	}
	if p.STT.Fallbacks[1].APIKey != "" {
		t.Errorf("whisper fallback api_key: got %q", p.STT.Fallbacks[1].APIKey)
	}
}

func TestApplyEnvFrom_EmptyEnvironment(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	config.ApplyEnvFrom(cfg, lookupFrom(nil))

	if !cfg.Providers.STT.MissingCredential() {
		t.Error("expected stt to miss its credential")
	}
	if cfg.Providers.TTS.Options != nil {
		t.Errorf("tts options: got %v, want nil", cfg.Providers.TTS.Options)
	}
}
