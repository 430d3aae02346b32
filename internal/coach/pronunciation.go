package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MrWong99/elocute/internal/feedback"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/internal/resilience"
	"github.com/MrWong99/elocute/pkg/audio"
	"github.com/MrWong99/elocute/pkg/provider/llm"
	"github.com/MrWong99/elocute/pkg/provider/stt"
)

// Transcription model defaults.
const (
	DefaultTranscribeModel = "gpt-4o-mini-transcribe"
	LegacyTranscribeModel  = "whisper-1"
)

// MaxPromptWords bounds the word timings sent on the transcript path.
const MaxPromptWords = 80

// Generation paths, in the order they are tried.
const (
	PathAudio      = "audio"
	PathTranscript = "transcript"
)

// Outcomes recorded for every assessment.
const (
	OutcomeNormalized        = "normalized"
	OutcomeSpeechNotDetected = "speech_not_detected"
	OutcomeNoContent         = "no_content"
	OutcomeError             = "error"
)

var (
	// ErrTranscriptionFailed prefixes the error returned when every
	// transcription attempt failed. The attempt reasons follow it.
	ErrTranscriptionFailed = errors.New("Transcription failed.")

	// ErrGenerationFailed is returned when both generation paths failed.
	ErrGenerationFailed = errors.New("coach: feedback generation failed")

	// errNoAudioProvider marks the audio path as unavailable.
	errNoAudioProvider = errors.New("coach: no audio-capable provider configured")
)

// TranscriptionAttempt is one rung of the transcription ladder.
type TranscriptionAttempt struct {
	Model          string
	ResponseFormat string
	WordTimestamps bool
}

func (a TranscriptionAttempt) name() string {
	format := a.ResponseFormat
	if format == "" {
		format = "default"
	}
	return fmt.Sprintf("[model=%s, format=%s]", a.Model, format)
}

// DefaultTranscriptionAttempts returns the standard ladder: the preferred
// model with word timings, the preferred model as plain JSON, then the legacy
// model with word timings.
func DefaultTranscriptionAttempts(preferred, legacy string) []TranscriptionAttempt {
	return []TranscriptionAttempt{
		{Model: preferred, ResponseFormat: stt.FormatVerboseJSON, WordTimestamps: true},
		{Model: preferred, ResponseFormat: stt.FormatJSON},
		{Model: legacy, ResponseFormat: stt.FormatVerboseJSON, WordTimestamps: true},
	}
}

// Pronunciation assesses spoken attempts at a target sentence.
type Pronunciation struct {
	stt      stt.Provider
	audioLLM llm.Provider
	textLLM  llm.Provider
	settings
}

// NewPronunciation returns a [Pronunciation] coach. audioLLM may be nil, in
// which case every assessment uses the transcript path. sttProvider and
// textLLM are required.
func NewPronunciation(sttProvider stt.Provider, audioLLM, textLLM llm.Provider, opts ...Option) *Pronunciation {
	return &Pronunciation{
		stt:      sttProvider,
		audioLLM: audioLLM,
		textLLM:  textLLM,
		settings: newSettings(defaultPronunciationTemperature, opts),
	}
}

// Assess produces feedback for clip as an attempt at target. target must
// already be trimmed and non-empty, clip must carry audio.
//
// Blank transcriptions and empty model replies yield fallback records, not
// errors. Errors are returned when transcription is exhausted, when both
// generation paths fail, or when the model reply is not valid JSON.
func (p *Pronunciation) Assess(ctx context.Context, target string, clip audio.Clip) (*feedback.Pronunciation, error) {
	ctx, span := observe.StartSpan(ctx, "coach.Assess")
	defer span.End()
	log := observe.Logger(ctx)

	rec, outcome, err := p.assess(ctx, target, clip)
	p.metrics.RecordFeedbackOutcome(ctx, outcome)
	if err != nil {
		observe.FailSpan(span, err)
		log.Warn("pronunciation assessment failed", "err", err)
		return nil, err
	}
	log.Debug("pronunciation assessed", "outcome", outcome, "overall_score", rec.OverallScore)
	return rec, nil
}

func (p *Pronunciation) assess(ctx context.Context, target string, clip audio.Clip) (*feedback.Pronunciation, string, error) {
	tr, err := p.transcribe(ctx, clip)
	if err != nil {
		return nil, OutcomeError, err
	}

	transcript := strings.TrimSpace(tr.Text)
	if transcript == "" {
		return feedback.SpeechNotDetected(target), OutcomeSpeechNotDetected, nil
	}

	content, err := p.generate(ctx, target, transcript, tr.Words, clip)
	if err != nil {
		return nil, OutcomeError, err
	}

	body := feedback.StripCodeFence(content)
	if body == "" {
		return p.align(feedback.NoContent(target, transcript)), OutcomeNoContent, nil
	}

	assessment, err := feedback.Sanitize([]byte(body))
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("coach: %w", err)
	}
	return p.align(feedback.Build(assessment, target, transcript)), OutcomeNormalized, nil
}

// ── transcription ──────────────────────────────────────────────────────────

func (p *Pronunciation) transcribe(ctx context.Context, clip audio.Clip) (*stt.Transcript, error) {
	filename := clip.Filename
	if filename == "" {
		filename = audio.DefaultFilename(clip.ContentType)
	}

	steps := make([]resilience.Step[*stt.Transcript], len(p.attempts))
	for i, a := range p.attempts {
		steps[i] = resilience.Step[*stt.Transcript]{
			Name: a.name(),
			Run: func(ctx context.Context) (*stt.Transcript, error) {
				ctx, cancel := p.upstream(ctx)
				defer cancel()
				tr, err := p.stt.Transcribe(ctx, stt.Request{
					Audio:          clip.Data,
					Filename:       filename,
					ContentType:    clip.ContentType,
					Language:       p.language,
					Model:          a.Model,
					ResponseFormat: a.ResponseFormat,
					WordTimestamps: a.WordTimestamps,
				})
				if err == nil && tr == nil {
					err = errors.New("empty transcription response")
				}
				return tr, err
			},
		}
	}

	tr, used, err := resilience.RunLadder(ctx, steps)
	if err != nil {
		return nil, fmt.Errorf("%w %w", ErrTranscriptionFailed, err)
	}
	observe.Logger(ctx).Debug("transcribed", "attempt", used, "words", len(tr.Words))
	return tr, nil
}

// ── generation ─────────────────────────────────────────────────────────────

// wordTiming is the prompt representation of a transcribed word.
type wordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (p *Pronunciation) generate(ctx context.Context, target, transcript string, words []stt.WordDetail, clip audio.Clip) (string, error) {
	steps := []resilience.Step[string]{
		{Name: "[path=" + PathAudio + "]", Run: func(ctx context.Context) (string, error) {
			return p.fromAudio(ctx, target, clip)
		}},
		{Name: "[path=" + PathTranscript + "]", Run: func(ctx context.Context) (string, error) {
			return p.fromTranscript(ctx, target, transcript, words)
		}},
	}

	content, used, err := resilience.RunLadder(ctx, steps)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	path := PathAudio
	if used != steps[0].Name {
		path = PathTranscript
	}
	p.metrics.RecordGenerationPath(ctx, path)
	return content, nil
}

func (p *Pronunciation) fromAudio(ctx context.Context, target string, clip audio.Clip) (string, error) {
	if p.audioLLM == nil {
		return "", errNoAudioProvider
	}
	if !p.audioLLM.Capabilities().SupportsAudioInput {
		return "", llm.ErrAudioUnsupported
	}

	content, err := p.complete(ctx, p.audioLLM, llm.CompletionRequest{
		SystemPrompt: audioSystemPrompt,
		Messages: []llm.Message{{
			Role:    "user",
			Content: audioUserPrompt(target),
			Audio:   &llm.AudioInput{Data: clip.Data, Format: clip.Format()},
		}},
	})
	if err != nil {
		observe.Logger(ctx).Info("audio feedback path failed, using transcript", "err", err)
	}
	return content, err
}

func (p *Pronunciation) fromTranscript(ctx context.Context, target, transcript string, words []stt.WordDetail) (string, error) {
	timings, err := json.Marshal(promptTimings(words))
	if err != nil {
		return "", fmt.Errorf("coach: encode word timings: %w", err)
	}
	return p.complete(ctx, p.textLLM, llm.CompletionRequest{
		SystemPrompt: transcriptSystemPrompt,
		Messages: []llm.Message{{
			Role:    "user",
			Content: transcriptUserPrompt(target, transcript, string(timings)),
		}},
	})
}

func (p *Pronunciation) complete(ctx context.Context, provider llm.Provider, req llm.CompletionRequest) (string, error) {
	ctx, cancel := p.upstream(ctx)
	defer cancel()

	req.Temperature = *p.temperature
	req.JSONOutput = true
	resp, err := provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}

// promptTimings converts at most [MaxPromptWords] words to their prompt form.
func promptTimings(words []stt.WordDetail) []wordTiming {
	if len(words) > MaxPromptWords {
		words = words[:MaxPromptWords]
	}
	out := make([]wordTiming, len(words))
	for i, w := range words {
		out[i] = wordTiming{Word: w.Word, Start: w.Start.Seconds(), End: w.End.Seconds()}
	}
	return out
}

// align fills in the local accuracy scores of rec from its transcript.
func (p *Pronunciation) align(rec *feedback.Pronunciation) *feedback.Pronunciation {
	if strings.TrimSpace(rec.TranscribedText) == "" {
		return rec
	}
	r := p.aligner.Compare(rec.TargetText, rec.TranscribedText)
	rec.WordAccuracy = &r.WordAccuracy
	rec.PhoneticAccuracy = &r.PhoneticAccuracy
	return rec
}
