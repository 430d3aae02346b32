// Package server exposes the learner-facing HTTP API:
//
//   - POST /api/pronunciation-feedback: multipart upload of a spoken attempt.
//   - POST /api/text-feedback: grammar and wording help for a selection.
//   - POST /api/tts: MPEG audio of a target sentence.
//
// Every failure is answered with a JSON body of the form
// {"error": "...", "detail": "..."}. A role whose provider could not be
// built (typically because no API key was given) answers 500 with
// [MsgMissingAPIKey] before looking at the request.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/MrWong99/elocute/internal/feedback"
	"github.com/MrWong99/elocute/pkg/audio"
	"github.com/MrWong99/elocute/pkg/provider/tts"
)

// DefaultMaxUploadBytes caps request bodies unless [WithMaxUploadBytes] says otherwise.
const DefaultMaxUploadBytes = 25 << 20

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// Assessor produces pronunciation feedback. Implemented by *coach.Pronunciation.
type Assessor interface {
	Assess(ctx context.Context, target string, clip audio.Clip) (*feedback.Pronunciation, error)
}

// Reviewer produces writing feedback. Implemented by *coach.Writing.
type Reviewer interface {
	Review(ctx context.Context, fullText, selectedText string) (*feedback.Text, error)
}

// Server holds the handlers' collaborators. Any of them may be absent.
type Server struct {
	assessor  Assessor
	reviewer  Reviewer
	speech    tts.Provider
	maxUpload int64
	timeout   time.Duration
}

// Option is a functional option for [New].
type Option func(*Server)

// WithAssessor serves /api/pronunciation-feedback with a.
func WithAssessor(a Assessor) Option {
	return func(s *Server) {
		s.assessor = a
	}
}

// WithReviewer serves /api/text-feedback with r.
func WithReviewer(r Reviewer) Option {
	return func(s *Server) {
		s.reviewer = r
	}
}

// WithSpeech serves /api/tts with p.
func WithSpeech(p tts.Provider) Option {
	return func(s *Server) {
		s.speech = p
	}
}

// WithMaxUploadBytes caps request bodies. Values <= 0 are ignored.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithUpstreamTimeout bounds the speech synthesis call. Zero disables the
// bound. The feedback pipelines carry their own bound.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// New returns a [Server] configured by opts.
func New(opts ...Option) *Server {
	s := &Server{maxUpload: DefaultMaxUploadBytes}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register adds the API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/pronunciation-feedback", s.PronunciationFeedback)
	mux.HandleFunc("POST /api/text-feedback", s.TextFeedback)
	mux.HandleFunc("POST /api/tts", s.TTS)
}

// upstream derives the context for one provider call made by the server.
func (s *Server) upstream(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}
