package revindex

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// revokedSetKey holds the set of revoked record hashes.
const revokedSetKey = "fides:revoked"

// RedisIndex implements Index on a shared Redis set, for deployments where
// several verifier processes read the same chain.
type RedisIndex struct {
	client *redis.Client
}

func NewRedisIndex(client *redis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

func (r *RedisIndex) MarkRevoked(ctx context.Context, recordHash string) error {
	return r.client.SAdd(ctx, revokedSetKey, recordHash).Err()
}

func (r *RedisIndex) IsRevoked(ctx context.Context, recordHash string) (bool, error) {
	return r.client.SIsMember(ctx, revokedSetKey, recordHash).Result()
}
