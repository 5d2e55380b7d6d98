package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/corebanking/internal/infrastructure/metrics"
	"github.com/iho/corebanking/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayedHeader marks a response served from the store.
	IdempotentReplayedHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 255
)

// storedResponse is what gets replayed for a repeated key.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays completed responses for a repeated
// Idempotency-Key. A key is scoped to the method and path it was first
// used with.
type IdempotencyMiddleware struct {
	store   usecase.IdempotencyStore
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A
// non-positive ttl falls back to usecase.IdempotencyKeyTTL; m may be nil.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{
		store:   store,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only apply to mutating requests
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if len(key) > maxIdempotencyKeyLen {
			writeError(w, http.StatusBadRequest, "validation", "idempotency key too long")
			return
		}

		scoped := r.Method + " " + r.URL.Path + " " + key

		claimed, stored, err := m.store.Claim(r.Context(), scoped, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Str("idempotency_key", key).Msg("idempotency claim failed")
			writeError(w, http.StatusServiceUnavailable, "unavailable", "idempotency store unavailable")
			return
		}

		if !claimed {
			if stored == nil {
				m.observe("in_flight")
				writeError(w, http.StatusConflict, "conflict", "a request with this idempotency key is in progress")
				return
			}
			m.replay(w, key, stored)
			return
		}

		// The key is released unless a response gets stored, including
		// when next panics.
		completed := false
		defer func() {
			if !completed {
				m.release(r.Context(), scoped)
			}
		}()

		rec := &responseRecorder{statusRecorder: newStatusRecorder(w), body: &bytes.Buffer{}}
		next.ServeHTTP(rec, r)

		if !storable(rec.statusCode) {
			return
		}

		record, err := json.Marshal(storedResponse{
			Status:      rec.statusCode,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
		if err != nil {
			return
		}

		if err := m.store.Complete(context.WithoutCancel(r.Context()), scoped, record, m.ttl); err != nil {
			m.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotent response")
			return
		}
		completed = true
		m.observe("stored")
	})
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, key string, stored []byte) {
	var resp storedResponse
	if err := json.Unmarshal(stored, &resp); err != nil {
		m.logger.Error().Err(err).Str("idempotency_key", key).Msg("corrupt idempotent response")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	m.observe("replayed")

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set(IdempotentReplayedHeader, "true")
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}

func (m *IdempotencyMiddleware) release(ctx context.Context, scoped string) {
	if err := m.store.Release(context.WithoutCancel(ctx), scoped); err != nil {
		m.logger.Warn().Err(err).Msg("failed to release idempotency key")
		return
	}
	m.observe("released")
}

func (m *IdempotencyMiddleware) observe(result string) {
	if m.metrics != nil {
		m.metrics.IdempotencyReplays.WithLabelValues(result).Inc()
	}
}

// storable reports whether a response is final. Server errors, conflicts
// and throttling are transient and leave the key free for a retry.
func storable(status int) bool {
	switch {
	case status >= http.StatusInternalServerError:
		return false
	case status == http.StatusConflict, status == http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}

type responseRecorder struct {
	*statusRecorder

	body *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.statusRecorder.Write(b)
}
