package metrics_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/pkg/metrics"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func serve(t *testing.T, r *mux.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthController(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := mux.NewRouter()
		metrics.NewHealthController(pinger{}).Register(r)

		rec := serve(t, r, http.MethodGet, "/health")
		require.Equal(t, http.StatusOK, rec.Code)
		var body metrics.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
	})

	t.Run("degraded", func(t *testing.T) {
		r := mux.NewRouter()
		metrics.NewHealthController(pinger{err: errors.New("connection refused")}).Register(r)

		rec := serve(t, r, http.MethodGet, "/health")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})
}

func TestPrometheusController_ExposesRouteMetrics(t *testing.T) {
	r := mux.NewRouter()
	r.Use(metrics.Middleware())
	r.HandleFunc("/teams/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	metrics.NewPrometheusController(metrics.PrometheusOptions{}).Register(r)

	serve(t, r, http.MethodGet, "/teams/7")
	rec := serve(t, r, http.MethodGet, "/debug/prometheus")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `console_http_requests_total{code="204",method="GET",route="/teams/{id}"}`), body)
}

func TestPrometheusController_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	jobs := prometheus.NewCounter(prometheus.CounterOpts{Name: "console_test_jobs_total", Help: "jobs"})
	reg.MustRegister(jobs)
	jobs.Add(3)

	logger, hook := test.NewNullLogger()
	c := metrics.NewPrometheusController(metrics.PrometheusOptions{
		Path:       "/ops/metrics",
		Gatherer:   reg,
		Registerer: reg,
		Logger:     logger,
	})
	assert.Equal(t, "/ops/metrics", c.Key())
	r := mux.NewRouter()
	c.Register(r)

	rec := serve(t, r, http.MethodGet, "/ops/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "console_test_jobs_total 3")
	assert.NotContains(t, body, "console_http_requests_total")

	// the scrape itself is counted on the given registry
	rec = serve(t, r, http.MethodGet, "/ops/metrics")
	assert.Contains(t, rec.Body.String(), `promhttp_metric_handler_requests_total{code="200"} 1`)
	assert.Empty(t, hook.AllEntries())

	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, r, http.MethodPost, "/ops/metrics").Code)
}
