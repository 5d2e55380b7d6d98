package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	apiPrefix            = "/api/v1/corebanking"
	idempotencyKeyHeader = "Idempotency-Key"
)

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// retryable reports whether the same request may succeed later. Only
// conflicts and unavailability qualify; the key makes the retry safe.
func (e *apiError) retryable() bool {
	return e.Status == http.StatusConflict || e.Status == http.StatusServiceUnavailable
}

type apiClient struct {
	baseURL string
	http    *http.Client
	retries uint64
	backoff func() backoff.BackOff
}

func newAPIClient(baseURL string, timeout time.Duration, retries uint64) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retries: retries,
		backoff: retryBackOff,
	}
}

var retryBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}

// do sends one logical request, retrying it up to c.retries times. A
// non-empty key is sent on every attempt.
func (c *apiClient) do(ctx context.Context, method, path string, body any, key string, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	operation := func() error {
		err := c.once(ctx, method, path, payload, key, out)
		if err == nil {
			return nil
		}

		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.retryable() {
			return err
		}

		var netErr net.Error
		if key != "" && errors.As(err, &netErr) {
			return err
		}

		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), c.retries), ctx)
	return backoff.Retry(operation, policy)
}

func (c *apiClient) once(ctx context.Context, method, path string, payload []byte, key string, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Code == "" {
			apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
