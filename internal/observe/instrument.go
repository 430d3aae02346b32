package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/elocute/pkg/provider/llm"
	"github.com/MrWong99/elocute/pkg/provider/stt"
	"github.com/MrWong99/elocute/pkg/provider/tts"
)

// Provider kinds used as the "kind" metric attribute.
const (
	KindSTT = "stt"
	KindLLM = "llm"
	KindTTS = "tts"
)

// ── call accounting ────────────────────────────────────────────────────────

// call records one provider invocation: a span, the latency histogram, the
// request counter and, on failure, the error counter.
func call[R any](ctx context.Context, m *Metrics, h metric.Float64Histogram, provider, kind string, attrs []attribute.KeyValue, fn func(context.Context) (R, error)) (R, error) {
	ctx, span := StartSpan(ctx, kind+"."+provider,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("provider", provider),
		}, attrs...)...),
	)
	defer span.End()

	start := time.Now()
	result, err := fn(ctx)
	h.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("provider", provider)))

	status := "ok"
	if err != nil {
		status = "error"
		m.RecordProviderError(ctx, provider, kind)
		FailSpan(span, err)
	}
	m.RecordProviderRequest(ctx, provider, kind, status)
	return result, err
}

// ── stt ────────────────────────────────────────────────────────────────────

// InstrumentedSTT wraps an [stt.Provider] with metrics and tracing.
type InstrumentedSTT struct {
	next    stt.Provider
	name    string
	metrics *Metrics
}

var _ stt.Provider = (*InstrumentedSTT)(nil)

// InstrumentSTT wraps p. name is reported as the "provider" attribute.
func InstrumentSTT(p stt.Provider, name string, m *Metrics) *InstrumentedSTT {
	return &InstrumentedSTT{next: p, name: name, metrics: m}
}

// Transcribe forwards to the wrapped provider.
func (i *InstrumentedSTT) Transcribe(ctx context.Context, req stt.Request) (*stt.Transcript, error) {
	attrs := []attribute.KeyValue{
		attribute.String("model", req.Model),
		attribute.String("response_format", req.ResponseFormat),
		attribute.Int("audio_bytes", len(req.Audio)),
	}
	return call(ctx, i.metrics, i.metrics.STTDuration, i.name, KindSTT, attrs,
		func(ctx context.Context) (*stt.Transcript, error) {
			return i.next.Transcribe(ctx, req)
		})
}

// ── llm ────────────────────────────────────────────────────────────────────

// InstrumentedLLM wraps an [llm.Provider] with metrics and tracing.
type InstrumentedLLM struct {
	next    llm.Provider
	name    string
	metrics *Metrics
}

var _ llm.Provider = (*InstrumentedLLM)(nil)

// InstrumentLLM wraps p. name is reported as the "provider" attribute.
func InstrumentLLM(p llm.Provider, name string, m *Metrics) *InstrumentedLLM {
	return &InstrumentedLLM{next: p, name: name, metrics: m}
}

// Complete forwards to the wrapped provider.
func (i *InstrumentedLLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("audio", req.HasAudio()),
		attribute.Bool("json_output", req.JSONOutput),
	}
	return call(ctx, i.metrics, i.metrics.LLMDuration, i.name, KindLLM, attrs,
		func(ctx context.Context) (*llm.CompletionResponse, error) {
			return i.next.Complete(ctx, req)
		})
}

// Capabilities forwards to the wrapped provider.
func (i *InstrumentedLLM) Capabilities() llm.ModelCapabilities {
	return i.next.Capabilities()
}

// ── tts ────────────────────────────────────────────────────────────────────

// InstrumentedTTS wraps a [tts.Provider] with metrics and tracing.
type InstrumentedTTS struct {
	next    tts.Provider
	name    string
	metrics *Metrics
}

var _ tts.Provider = (*InstrumentedTTS)(nil)

// InstrumentTTS wraps p. name is reported as the "provider" attribute.
func InstrumentTTS(p tts.Provider, name string, m *Metrics) *InstrumentedTTS {
	return &InstrumentedTTS{next: p, name: name, metrics: m}
}

// Synthesize forwards to the wrapped provider.
func (i *InstrumentedTTS) Synthesize(ctx context.Context, req tts.Request) (*tts.Speech, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("text_length", len(req.Text)),
	}
	return call(ctx, i.metrics, i.metrics.TTSDuration, i.name, KindTTS, attrs,
		func(ctx context.Context) (*tts.Speech, error) {
			return i.next.Synthesize(ctx, req)
		})
}
