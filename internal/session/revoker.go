package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRevoker struct {
	client *redis.Client
	prefix string
}

// RedisRevoker stores revoked token digests in Redis with an expiry.
func RedisRevoker(client *redis.Client, prefix string) Revoker {
	if prefix == "" {
		prefix = "portfolio:revoked:"
	}
	return &redisRevoker{client: client, prefix: prefix}
}

func (r *redisRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(token), 1, ttl).Err()
}

func (r *redisRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := r.client.Get(ctx, r.key(token)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

func (r *redisRevoker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisRevoker) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return r.prefix + hex.EncodeToString(sum[:])
}
