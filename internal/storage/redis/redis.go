package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache wraps the redis client used for feeds, rate limits and chat state.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

func New(addr, password string, db int, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis", zap.String("addr", addr), zap.Int("db", db))

	return &Cache{client: client, logger: logger}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Error("failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("set cache: %w", err)
	}
	return nil
}

func (c *Cache) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		c.logger.Error("failed to get cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("get cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// a stale entry from an older encoding is treated as absent
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return ErrCacheMiss
	}
	return nil
}

func (c *Cache) setString(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Error("failed to set string", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("set string: %w", err)
	}
	return nil
}

func (c *Cache) getString(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		c.logger.Error("failed to get string", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("get string: %w", err)
	}
	return value, nil
}

func (c *Cache) delete(ctx context.Context, keys ...string) error {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("failed to delete cache", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("delete cache: %w", err)
	}
	return nil
}

// incrementWithExpiry bumps a counter and starts its window on first use.
func (c *Cache) incrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("failed to increment with expiry", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("increment with expiry: %w", err)
	}
	return incr.Val(), nil
}
