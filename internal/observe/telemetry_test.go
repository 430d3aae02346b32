package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// initTelemetry runs InitProvider against a private registry and restores
// the previous global providers afterwards.
func initTelemetry(t *testing.T, ratio float64) (*prometheus.Registry, *tracetest.InMemoryExporter) {
	t.Helper()
	prevTP, prevMP, prevProp := otel.GetTracerProvider(), otel.GetMeterProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
		otel.SetTextMapPropagator(prevProp)
	})

	reg := prometheus.NewRegistry()
	exp := tracetest.NewInMemoryExporter()
	shutdown, err := InitProvider(context.Background(), ProviderConfig{
		ServiceName:    "elocute-test",
		ServiceVersion: "v0.0.0",
		SampleRatio:    ratio,
		Registerer:     reg,
		TraceExporter:  exp,
	})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })
	return reg, exp
}

func TestInitProvider_ExportsSpansAndMetrics(t *testing.T) {
	reg, exp := initTelemetry(t, 1)

	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.RecordFeedbackOutcome(context.Background(), "normalized")

	_, span := StartSpan(context.Background(), "coach.Review")
	span.End()
	if err := otel.GetTracerProvider().(interface {
		ForceFlush(context.Context) error
	}).ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush: %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "coach.Review" {
		t.Fatalf("exported spans = %v", spans.Snapshots())
	}
	var svc string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			svc = kv.Value.AsString()
		}
	}
	if svc != "elocute-test" {
		t.Errorf("service.name = %q", svc)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "elocute_feedback_outcomes") {
			found = true
		}
	}
	if !found {
		t.Error("feedback outcome counter not exposed through prometheus")
	}
}

func TestInitProvider_ZeroRatioStillCorrelates(t *testing.T) {
	_, exp := initTelemetry(t, 0)
	m, _ := newTestMetrics(t)

	h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// New root: not recorded, but the client still gets an ID.
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if len(w.Header().Get("X-Correlation-ID")) != 32 {
		t.Errorf("X-Correlation-ID = %q", w.Header().Get("X-Correlation-ID"))
	}

	// Sampled parent: recorded.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if err := otel.GetTracerProvider().(interface {
		ForceFlush(context.Context) error
	}).ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush: %v", err)
	}
	if n := len(exp.GetSpans()); n != 1 {
		t.Errorf("exported spans = %d, want only the sampled parent's", n)
	}
}
