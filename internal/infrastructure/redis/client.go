package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client and waits up to retryMax for the first
// ping. A zero retryMax means a single attempt.
func NewClient(ctx context.Context, redisURL string, retryMax time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	var b backoff.BackOff = &backoff.StopBackOff{}
	if retryMax > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = 200 * time.Millisecond
		exp.MaxElapsedTime = retryMax
		b = exp
	}

	// Verify connection
	if err := backoff.Retry(func() error {
		return client.Ping(ctx).Err()
	}, backoff.WithContext(b, ctx)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
