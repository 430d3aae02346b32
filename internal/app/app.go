// Package app wires the elocute subsystems into a running HTTP service.
//
// The App struct owns the full lifecycle: New builds the coaching pipelines,
// the API handlers, health checks and the metrics endpoint; Run serves until
// the context is cancelled; Shutdown drains in-flight requests.
//
// For testing, pass mock providers in [Providers] and inject a metrics sink
// via functional options. When an option is not provided, New uses the
// process-wide defaults.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/elocute/internal/coach"
	"github.com/MrWong99/elocute/internal/config"
	"github.com/MrWong99/elocute/internal/health"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/internal/server"
)

// readHeaderTimeout bounds how long a client may take to send headers.
const readHeaderTimeout = 10 * time.Second

// App owns all subsystem lifetimes of the elocute service.
type App struct {
	cfg       *config.Config
	providers *Providers

	metrics        *observe.Metrics
	metricsHandler http.Handler

	handler http.Handler
	srv     *http.Server

	// background runs alongside the server for the lifetime of Run.
	background []Runner

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithMetrics records pipeline and HTTP metrics to m instead of
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// Runner is a background task that lives as long as the server, such as the
// config watcher. Run must return once ctx is done.
type Runner interface {
	Run(ctx context.Context) error
}

// WithRunner adds a background task started by [App.Run].
func WithRunner(r Runner) Option {
	return func(a *App) {
		if r != nil {
			a.background = append(a.background, r)
		}
	}
}

// WithMetricsHandler serves /metrics with h instead of promhttp.Handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from cfg and the providers built by [BuildProviders].
// A role left nil makes the endpoints that need it answer with the
// missing-credential error, and fails readiness.
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.metricsHandler == nil {
		a.metricsHandler = promhttp.Handler()
	}

	mux := http.NewServeMux()
	a.apiServer().Register(mux)
	a.healthHandler().Register(mux)
	mux.Handle("GET /metrics", a.metricsHandler)

	a.handler = observe.Middleware(a.metrics)(mux)
	a.srv = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return a, nil
}

// apiServer builds the coaching pipelines for every role that is available.
func (a *App) apiServer() *server.Server {
	p := a.providers
	timeout := a.cfg.Server.Upstream()

	shared := []coach.Option{
		coach.WithUpstreamTimeout(timeout),
		coach.WithMetrics(a.metrics),
	}
	opts := []server.Option{
		server.WithMaxUploadBytes(a.cfg.Server.MaxUploadBytes),
		server.WithUpstreamTimeout(timeout),
	}

	if p.STT != nil && p.LLM != nil {
		popts := append([]coach.Option{
			coach.WithTranscriptionAttempts(transcriptionAttempts(a.cfg)),
		}, shared...)
		if lang := a.cfg.Providers.STT.Option("language"); lang != "" {
			popts = append(popts, coach.WithLanguage(lang))
		}
		opts = append(opts, server.WithAssessor(coach.NewPronunciation(p.STT, p.AudioLLM, p.LLM, popts...)))
	}
	if p.TextLLM != nil {
		opts = append(opts, server.WithReviewer(coach.NewWriting(p.TextLLM, shared...)))
	}
	if p.TTS != nil {
		opts = append(opts, server.WithSpeech(p.TTS))
	}
	return server.New(opts...)
}

// healthHandler builds the readiness checks: credentials plus one check per
// required role. The audio role is optional and not checked.
func (a *App) healthHandler() *health.Handler {
	p := a.providers
	return health.New(
		health.Credentials(p.Missing...),
		health.Required(RoleSTT, reporter(p.STT)),
		health.Required(RoleLLM, reporter(p.LLM)),
		health.Required(RoleTextLLM, reporter(p.TextLLM)),
		health.Required(RoleTTS, reporter(p.TTS)),
	)
}

// alwaysHealthy reports a single backend without a breaker.
type alwaysHealthy struct{}

func (alwaysHealthy) Healthy() bool { return true }

// reporter returns the readiness view of a provider: its own report for
// failover groups, always healthy for a single backend, and an untyped nil
// when the role is unset.
func reporter(p any) health.Reporter {
	if p == nil {
		return nil
	}
	if r, ok := p.(health.Reporter); ok {
		return r
	}
	return alwaysHealthy{}
}

// transcriptionAttempts resolves the ladder: the configured attempts, or the
// standard ladder built from the stt entry's model and legacy_model option.
// Nil selects the coach's built-in ladder. Backends other than OpenAI fall
// back to their own model rather than an OpenAI model name.
func transcriptionAttempts(cfg *config.Config) []coach.TranscriptionAttempt {
	if n := len(cfg.Transcription.Attempts); n > 0 {
		out := make([]coach.TranscriptionAttempt, 0, n)
		for _, at := range cfg.Transcription.Attempts {
			out = append(out, coach.TranscriptionAttempt{
				Model:          at.Model,
				ResponseFormat: at.ResponseFormat,
				WordTimestamps: at.WordTimestamps,
			})
		}
		return out
	}

	e := cfg.Providers.STT
	legacy := e.Option("legacy_model")
	if e.Name == config.DefaultProvider {
		if e.Model == "" {
			return nil
		}
		if legacy == "" {
			legacy = config.DefaultLegacySTTModel
		}
	} else if legacy == "" {
		legacy = e.Model
	}
	return coach.DefaultTranscriptionAttempts(e.Model, legacy)
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run listens on the configured address and serves until ctx is cancelled,
// running every background task next to the server. It then shuts the server down within the configured shutdown timeout. It
// returns ctx.Err() after a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.cfg.Server.ListenAddr, err)
	}
	slog.Info("app running", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	for _, r := range a.background {
		g.Go(func() error { return r.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops accepting connections and waits for in-flight requests. It
// respects the context deadline. Only the first call has an effect.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down")
		if err := a.srv.Shutdown(ctx); err != nil {
			slog.Warn("shutdown deadline exceeded", "err", err)
			shutdownErr = fmt.Errorf("app: shutdown: %w", err)
			return
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
