package observe

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// apiMux mimics the service routes closely enough to exercise pattern
// labelling, status capture and panic recovery.
func apiMux(seen *string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/text-feedback", func(w http.ResponseWriter, r *http.Request) {
		*seen = CorrelationID(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"overall_feedback":"Fine."}`)
	})
	mux.HandleFunc("POST /api/tts", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"Text is required."}`, http.StatusBadRequest)
	})
	mux.HandleFunc("POST /api/pronunciation-feedback", func(http.ResponseWriter, *http.Request) {
		panic("grader exploded")
	})
	return mux
}

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMiddleware_Requests(t *testing.T) {
	rec := withRecorder(t)
	m, reader := newTestMetrics(t)

	var seen string
	h := Middleware(m)(apiMux(&seen))

	tests := []struct {
		path     string
		wantCode int
		wantErr  bool
	}{
		{"/api/text-feedback", http.StatusOK, false},
		{"/api/tts", http.StatusBadRequest, false},
		{"/api/pronunciation-feedback", http.StatusInternalServerError, true},
	}

	for _, tc := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader("{}")))

		if w.Code != tc.wantCode {
			t.Errorf("%s: code = %d, want %d", tc.path, w.Code, tc.wantCode)
		}
		if cid := w.Header().Get("X-Correlation-ID"); len(cid) != 32 {
			t.Errorf("%s: X-Correlation-ID = %q", tc.path, cid)
		}
		if tc.wantErr && !strings.Contains(w.Body.String(), "Internal server error.") {
			t.Errorf("%s: panic body = %q", tc.path, w.Body.String())
		}
	}

	if seen == "" {
		t.Error("handler context carried no correlation id")
	}

	ended := rec.Ended()
	if len(ended) != len(tests) {
		t.Fatalf("spans = %d, want %d", len(ended), len(tests))
	}
	for i, tc := range tests {
		s := ended[i]
		if want := "HTTP POST " + tc.path; s.Name() != want {
			t.Errorf("span name = %q, want %q", s.Name(), want)
		}
		if v, ok := spanAttr(s, "http.response.status_code"); !ok || v.AsInt64() != int64(tc.wantCode) {
			t.Errorf("%s: status attribute = %v", tc.path, v.Emit())
		}
		if gotErr := s.Status().Code == codes.Error; gotErr != tc.wantErr {
			t.Errorf("%s: span error = %v, want %v", tc.path, gotErr, tc.wantErr)
		}
	}

	met := findMetric(collect(t, reader), "elocute.http.request.duration")
	if met == nil {
		t.Fatal("request duration not recorded")
	}
	hist := met.Data.(metricdata.Histogram[float64])
	routes := map[string]uint64{}
	for _, dp := range hist.DataPoints {
		p, _ := dp.Attributes.Value("path")
		routes[p.AsString()] += dp.Count
	}
	for _, want := range []string{
		"POST /api/text-feedback",
		"POST /api/tts",
		"POST /api/pronunciation-feedback",
	} {
		if routes[want] != 1 {
			t.Errorf("route %q count = %d, want 1 (got %v)", want, routes[want], routes)
		}
	}
}

func TestMiddleware_UnmatchedPathLabelledByURL(t *testing.T) {
	withRecorder(t)
	m, reader := newTestMetrics(t)

	var seen string
	w := httptest.NewRecorder()
	Middleware(m)(apiMux(&seen)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", w.Code)
	}
	hist := findMetric(collect(t, reader), "elocute.http.request.duration").Data.(metricdata.Histogram[float64])
	p, _ := hist.DataPoints[0].Attributes.Value("path")
	if p.AsString() != "/nope" {
		t.Errorf("path label = %q, want /nope", p.AsString())
	}
}

func TestMiddleware_ContinuesIncomingTrace(t *testing.T) {
	withRecorder(t)
	m, _ := newTestMetrics(t)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	var seen string
	req := httptest.NewRequest(http.MethodPost, "/api/text-feedback", strings.NewReader("{}"))
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	w := httptest.NewRecorder()
	Middleware(m)(apiMux(&seen)).ServeHTTP(w, req)

	if seen != traceID {
		t.Errorf("handler correlation id = %q, want %q", seen, traceID)
	}
	if got := w.Header().Get("X-Correlation-ID"); got != traceID {
		t.Errorf("X-Correlation-ID = %q, want %q", got, traceID)
	}
	if tp := w.Header().Get("traceparent"); !strings.Contains(tp, traceID) {
		t.Errorf("traceparent response header = %q", tp)
	}
}
