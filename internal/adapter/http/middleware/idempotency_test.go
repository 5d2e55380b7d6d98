package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisRepo "github.com/iho/corebanking/internal/adapter/repository/redis"
	"github.com/iho/corebanking/internal/infrastructure/metrics"
)

type fakeIdempotencyStore struct {
	claimFn    func(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error)
	completeFn func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	releaseFn  func(ctx context.Context, key string) error
}

func (f *fakeIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error) {
	if f.claimFn != nil {
		return f.claimFn(ctx, key, ttl)
	}
	return true, nil, nil
}

func (f *fakeIdempotencyStore) Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.completeFn != nil {
		return f.completeFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, key)
	}
	return nil
}

func newRedisIdempotency(t *testing.T) (*IdempotencyMiddleware, *metrics.Metrics) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	m := metrics.New(prometheus.NewRegistry())
	return NewIdempotencyMiddleware(redisRepo.NewIdempotencyStore(client), time.Hour, zerolog.Nop(), m), m
}

func putRequest(path, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func TestIdempotencyMiddleware_ReplaysCompletedResponse(t *testing.T) {
	mw, m := newRedisIdempotency(t)

	var calls int32
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"balance":"110"}`))
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, putRequest("/accounts/a/deposit", "key-1", `{"amount":"10"}`))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, putRequest("/accounts/a/deposit", "key-1", `{"amount":"10"}`))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, `{"balance":"110"}`, second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotentReplayedHeader))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Empty(t, first.Header().Get(IdempotentReplayedHeader))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotencyReplays.WithLabelValues("replayed")))
}

func TestIdempotencyMiddleware_ReplaysBusinessRejection(t *testing.T) {
	mw, _ := newRedisIdempotency(t)

	var calls int32
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, putRequest("/accounts/a/withdraw", "key-2", `{"amount":"1000"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_ReleasesOnServerError(t *testing.T) {
	mw, m := newRedisIdempotency(t)

	var calls int32
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, putRequest("/accounts/a/transfer", "key-3", `{}`))
	require.Equal(t, http.StatusServiceUnavailable, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, putRequest("/accounts/a/transfer", "key-3", `{}`))

	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotencyReplays.WithLabelValues("released")))
}

func TestIdempotencyMiddleware_InFlightDuplicate(t *testing.T) {
	mw, _ := newRedisIdempotency(t)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-unblock
		w.WriteHeader(http.StatusOK)
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(httptest.NewRecorder(), putRequest("/accounts/a/deposit", "key-4", `{}`))
	}()

	<-entered
	dup := httptest.NewRecorder()
	h.ServeHTTP(dup, putRequest("/accounts/a/deposit", "key-4", `{}`))
	close(unblock)
	<-done

	assert.Equal(t, http.StatusConflict, dup.Code)
}

func TestIdempotencyMiddleware_KeyScopedToPath(t *testing.T) {
	mw, _ := newRedisIdempotency(t)

	var calls int32
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), putRequest("/accounts/a/deposit", "shared", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), putRequest("/accounts/b/deposit", "shared", `{}`))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_ReleasesOnPanic(t *testing.T) {
	var released string
	mw := NewIdempotencyMiddleware(&fakeIdempotencyStore{
		releaseFn: func(_ context.Context, key string) error {
			released = key
			return nil
		},
	}, time.Hour, zerolog.Nop(), nil)

	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	assert.Panics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), putRequest("/accounts/a/deposit", "key-5", `{}`))
	})
	assert.Equal(t, "PUT /accounts/a/deposit key-5", released)
}

func TestIdempotencyMiddleware_StoreUnavailable(t *testing.T) {
	var called bool
	mw := NewIdempotencyMiddleware(&fakeIdempotencyStore{
		claimFn: func(context.Context, string, time.Duration) (bool, []byte, error) {
			return false, nil, errors.New("connection refused")
		},
	}, time.Hour, zerolog.Nop(), nil)

	rec := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rec, putRequest("/accounts/a/deposit", "key-6", `{}`))

	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIdempotencyMiddleware_PassesThrough(t *testing.T) {
	claimed := false
	mw := NewIdempotencyMiddleware(&fakeIdempotencyStore{
		claimFn: func(context.Context, string, time.Duration) (bool, []byte, error) {
			claimed = true
			return true, nil, nil
		},
	}, time.Hour, zerolog.Nop(), nil)

	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/a", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, putRequest("/accounts/a/deposit", "", `{}`))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.False(t, claimed)
}
