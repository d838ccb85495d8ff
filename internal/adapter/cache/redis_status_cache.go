package cache

import (
	"context"
	"time"

	"github.com/minshop/order-api/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// RedisStatusCache keeps a best-effort copy of order status for
// polling clients. Entries are written by the Kafka status-changed
// consumer and the order-created consumer; the database stays
// authoritative.
type RedisStatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatusCache(rdb *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{rdb: rdb, ttl: ttl}
}

func (r *RedisStatusCache) SetStatus(ctx context.Context, orderNumber, status string) error {
	return r.rdb.Set(ctx, "order:status:"+orderNumber, status, r.ttl).Err()
}

func (r *RedisStatusCache) GetStatus(ctx context.Context, orderNumber string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, "order:status:"+orderNumber).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

var _ usecase.StatusCache = (*RedisStatusCache)(nil)
