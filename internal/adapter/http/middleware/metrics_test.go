package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/iho/corebanking/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		label      string
		statusCode int
	}{
		{
			name:       "labels by route pattern",
			method:     http.MethodGet,
			path:       "/accounts/0192a3b4-0000-7000-8000-000000000001",
			label:      "/accounts/{id}",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "static route",
			method:     http.MethodPost,
			path:       "/customers",
			label:      "/customers",
			statusCode: http.StatusCreated,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/nope",
			label:      unmatchedRoute,
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())

			r := chi.NewRouter()
			r.Use(Metrics(m))
			r.Get("/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})
			r.Post("/customers", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

			assert.Equal(t, tc.statusCode, rec.Code)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(tc.method, tc.label, strconv.Itoa(tc.statusCode))))
			assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
			assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPInFlight))
		})
	}
}
