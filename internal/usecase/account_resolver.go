package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RepositoryAccountResolver resolves account numbers straight from the store.
type RepositoryAccountResolver struct {
	accountRepo AccountRepository
}

// NewRepositoryAccountResolver creates a new RepositoryAccountResolver.
func NewRepositoryAccountResolver(accountRepo AccountRepository) *RepositoryAccountResolver {
	return &RepositoryAccountResolver{accountRepo: accountRepo}
}

// ResolveAccountNumber implements AccountResolver.
func (r *RepositoryAccountResolver) ResolveAccountNumber(ctx context.Context, number string) (uuid.UUID, error) {
	account, err := r.accountRepo.GetByNumber(ctx, number)
	if err != nil {
		return uuid.Nil, err
	}
	return account.ID, nil
}

// CachedAccountResolver keeps number to id mappings in a cache. Account
// numbers are immutable, so an entry never goes stale; only hits for
// existing accounts are stored.
type CachedAccountResolver struct {
	next   AccountResolver
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedAccountResolver creates a new CachedAccountResolver.
func NewCachedAccountResolver(next AccountResolver, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedAccountResolver {
	if ttl <= 0 {
		ttl = AccountNumberCacheTTL
	}
	return &CachedAccountResolver{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// ResolveAccountNumber implements AccountResolver. Cache failures fall back to
// the store.
func (r *CachedAccountResolver) ResolveAccountNumber(ctx context.Context, number string) (uuid.UUID, error) {
	key := accountNumberKey(number)

	value, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn().Err(err).Str("account_number", number).Msg("account number cache read failed")
	}
	if err == nil && ok {
		if id, parseErr := uuid.Parse(value); parseErr == nil {
			return id, nil
		}
		r.logger.Warn().Str("account_number", number).Msg("dropping malformed account number cache entry")
		_ = r.cache.Delete(ctx, key)
	}

	id, err := r.next.ResolveAccountNumber(ctx, number)
	if err != nil {
		return uuid.Nil, err
	}

	if err := r.cache.Set(ctx, key, id.String(), r.ttl); err != nil {
		r.logger.Warn().Err(err).Str("account_number", number).Msg("account number cache write failed")
	}

	return id, nil
}

func accountNumberKey(number string) string {
	return "account-number:" + number
}
