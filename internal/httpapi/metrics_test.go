package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetricsMiddleware_EmitsRequestCounters verifies that wrapping a handler
// with MetricsMiddleware results in request metrics being exposed via the
// Prometheus /metrics handler.
func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	body := mrr.Body.Bytes()
	if !bytes.Contains(body, []byte("sessiond_http_requests_total")) {
		previewLen := len(body)
		if previewLen > 200 {
			previewLen = 200
		}
		t.Fatalf("expected to find sessiond_http_requests_total in metrics; got: %q", string(body[:previewLen]))
	}
}

// TestMetricsMiddleware_UsesRoutePattern ensures the metrics middleware labels
// by the chi route pattern instead of the raw URL path.
func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/tensors/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tensors/abc", nil))

	c := httpRequestsTotal.WithLabelValues("/tensors/{name}", http.MethodGet, "202")
	if got := testutil.ToFloat64(c); got != 1 {
		t.Fatalf("expected one request labeled by pattern, got %v", got)
	}
}

func TestMuxServesMetrics(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestMetricsMiddleware_InflightUsesRoutePattern(t *testing.T) {
	var during float64
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/inflight/{id}", func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(httpInflight.WithLabelValues("/inflight/{id}"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/inflight/42", nil))

	if during != 1 {
		t.Fatalf("expected the pattern gauge at 1 during the request, got %v", during)
	}
	if httpInflight.DeleteLabelValues("/inflight/42") {
		t.Fatalf("raw path must not become a gauge label")
	}
}

func TestMetricsMiddleware_UnmatchedRoutesShareOneLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/known", func(w http.ResponseWriter, r *http.Request) {})

	c := httpRequestsTotal.WithLabelValues(unmatchedRoute, http.MethodGet, "404")
	before := testutil.ToFloat64(c)
	for _, p := range []string{"/random/a", "/random/b", "/random/c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(c) - before; got != 3 {
		t.Fatalf("expected 3 unmatched requests under one label, got %v", got)
	}
	if httpInflight.DeleteLabelValues("/random/a") {
		t.Fatalf("raw path must not become a gauge label")
	}
}
