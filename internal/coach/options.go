// Package coach runs the feedback pipelines behind the learner-facing
// endpoints.
//
// [Pronunciation] turns a recorded attempt at a target sentence into a
// [feedback.Pronunciation] record: it transcribes the audio through an ordered
// ladder of model/format attempts, asks a language model for feedback (from
// the audio first, from the transcript and word timings second), and
// normalizes whatever comes back. [Writing] does the same for a selected
// passage of written text.
//
// Both are request-scoped and hold no mutable state, so a single value serves
// concurrent requests.
package coach

import (
	"context"
	"time"

	"github.com/MrWong99/elocute/internal/alignment"
	"github.com/MrWong99/elocute/internal/observe"
)

const (
	defaultPronunciationTemperature = 0.2
	defaultWritingTemperature       = 0.3
	defaultLanguage                 = "en"
	defaultUpstreamTimeout          = 60 * time.Second
)

// settings holds the knobs shared by [Pronunciation] and [Writing].
type settings struct {
	temperature *float64
	timeout     time.Duration
	language    string
	attempts    []TranscriptionAttempt
	aligner     *alignment.Aligner
	metrics     *observe.Metrics
}

// Option is a functional option for [NewPronunciation] and [NewWriting].
type Option func(*settings)

// WithTemperature overrides the sampling temperature. Defaults: 0.2 for
// pronunciation feedback, 0.3 for writing feedback.
func WithTemperature(temp float64) Option {
	return func(s *settings) {
		s.temperature = &temp
	}
}

// WithUpstreamTimeout bounds every individual provider call. Zero disables
// the bound; the request context still applies. Default: 60s.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithLanguage sets the transcription language hint. Default: "en".
func WithLanguage(lang string) Option {
	return func(s *settings) {
		s.language = lang
	}
}

// WithTranscriptionAttempts replaces the transcription ladder. An empty
// slice is ignored.
func WithTranscriptionAttempts(attempts []TranscriptionAttempt) Option {
	return func(s *settings) {
		if len(attempts) > 0 {
			s.attempts = append([]TranscriptionAttempt(nil), attempts...)
		}
	}
}

// WithAligner sets the aligner used for word and phonetic accuracy.
func WithAligner(a *alignment.Aligner) Option {
	return func(s *settings) {
		s.aligner = a
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

func newSettings(defaultTemp float64, opts []Option) settings {
	s := settings{
		timeout:  defaultUpstreamTimeout,
		language: defaultLanguage,
		attempts: DefaultTranscriptionAttempts(DefaultTranscribeModel, LegacyTranscribeModel),
	}
	for _, o := range opts {
		o(&s)
	}
	if s.temperature == nil {
		s.temperature = &defaultTemp
	}
	if s.aligner == nil {
		s.aligner = alignment.New()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// upstream derives the context for one provider call.
func (s *settings) upstream(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}
