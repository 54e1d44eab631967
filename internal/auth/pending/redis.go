package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pending:registration:"

// RedisCache keeps pending registrations in Redis as JSON values written
// with SET EX, so expiry is handled by the server.
type RedisCache struct {
	client redis.UniversalClient
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache parses a redis:// or rediss:// URL and creates a client.
// No connection is made until the first command.
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("pending: parse redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Set(ctx context.Context, email string, reg domain.PendingRegistration, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("pending: ttl must be positive, got %s", ttl)
	}

	raw, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("pending: encode: %w", err)
	}
	return c.client.Set(ctx, keyPrefix+email, raw, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, email string) (domain.PendingRegistration, error) {
	raw, err := c.client.Get(ctx, keyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PendingRegistration{}, ErrNotFound
	}
	if err != nil {
		return domain.PendingRegistration{}, err
	}

	var reg domain.PendingRegistration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return domain.PendingRegistration{}, fmt.Errorf("pending: decode: %w", err)
	}
	return reg, nil
}

func (c *RedisCache) Delete(ctx context.Context, email string) error {
	return c.client.Del(ctx, keyPrefix+email).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// TTL reports the remaining lifetime of the record for email.
func (c *RedisCache) TTL(ctx context.Context, email string) (time.Duration, error) {
	d, err := c.client.TTL(ctx, keyPrefix+email).Result()
	if err != nil {
		return 0, err
	}
	// -2 means the key does not exist
	if d == -2 {
		return 0, ErrNotFound
	}
	return d, nil
}

func (c *RedisCache) Close() error { return c.client.Close() }
