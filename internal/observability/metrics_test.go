package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordDecision("authorized")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `backoffice_access_decisions_total{status="authorized"} 1`)
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/dashboard/consumers/programs")
	req := httptest.NewRequest(http.MethodGet, "/dashboard/consumers/programs", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	metricsOut := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsOut, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, metricsOut.Body.String(), `backoffice_http_requests_total{code="418",route="/dashboard/consumers/programs"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.RecordDecision("errored")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
