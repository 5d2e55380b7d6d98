package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const processingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "idempotency:",
	}
}

// Claim reserves key with a placeholder. When the key is taken it returns
// the stored response, or nil while the owner is still processing.
func (s *IdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	set, err := s.client.SetNX(ctx, fullKey, processingMarker, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if set {
		return true, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Released or expired between the two calls; the caller retries.
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}

	if string(existing) == processingMarker {
		return false, nil, nil
	}

	return false, existing, nil
}

// Complete replaces the placeholder with the final response.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

// Release drops the key so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
