package handler

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Pinger is a dependency the service needs before it can take traffic.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. checks maps a dependency
// name to its ping.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 5 * time.Second,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if every dependency answers its ping.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	body := map[string]string{"status": "ready"}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			body[name] = "unhealthy: " + err.Error()
			body["status"] = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}

	writeJSON(w, status, body)
}
