package nphies

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// tokenKey is the fixed cache key shared by all gateway instances of one
// deployment. Never keyed per tenant.
const tokenKey = "nphies:access_token"

// RedisClient is the subset of go-redis the shared token cache uses.
// *redis.Client satisfies it.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisTokenSource shares one exchange token across concurrent, stateless
// gateway instances. Concurrent callers racing to refresh an expired token
// may each authenticate; a brief thundering herd is acceptable because
// tokens are idempotent, so no single-flight lock is taken.
type RedisTokenSource struct {
	rdb    RedisClient
	auth   *Authenticator
	logger zerolog.Logger
}

// NewRedisTokenSource wraps auth with a Redis-backed cache.
func NewRedisTokenSource(rdb RedisClient, auth *Authenticator, logger zerolog.Logger) *RedisTokenSource {
	return &RedisTokenSource{rdb: rdb, auth: auth, logger: logger}
}

// Token returns the shared cached token, authenticating on a miss. Cache
// reads and writes are best effort: a degraded Redis must not block
// submissions, so failures fall through to a direct authentication call.
func (s *RedisTokenSource) Token(ctx context.Context) (string, error) {
	val, err := s.rdb.Get(ctx, tokenKey).Result()
	switch {
	case err == nil && val != "":
		return val, nil
	case err != nil && !errors.Is(err, redis.Nil):
		s.logger.Warn().Err(err).Msg("token cache read failed, authenticating directly")
	}

	tok, err := s.auth.Authenticate(ctx)
	if err != nil {
		return "", err
	}

	if ttl := time.Until(tok.Expiry); ttl > 0 {
		if err := s.rdb.Set(ctx, tokenKey, tok.Value, ttl).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("token cache write failed")
		}
	}
	return tok.Value, nil
}

// Invalidate evicts the shared token so the next caller re-authenticates.
func (s *RedisTokenSource) Invalidate(ctx context.Context) error {
	return s.rdb.Del(ctx, tokenKey).Err()
}
