package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"linkbot.local/gee"
	"linkbot.local/internal/platform/metrics"
)

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := gee.New()
	r.Use(Metrics())
	r.GET("/items/:id", func(ctx *gee.Context) { ctx.String(http.StatusOK, "ok") })

	matched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "200")
	unmatched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	beforeMatched, beforeUnmatched := testutil.ToFloat64(matched), testutil.ToFloat64(unmatched)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/2", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/a/b", nil))

	if got := testutil.ToFloat64(matched) - beforeMatched; got != 2 {
		t.Fatalf("matched requests: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(unmatched) - beforeUnmatched; got != 1 {
		t.Fatalf("unmatched requests: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPInflightRequests); got != 0 {
		t.Fatalf("inflight after requests: got %v, want 0", got)
	}
}
