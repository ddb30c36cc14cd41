package redis

import (
	"context"
	"fmt"
	"time"
)

const (
	FeedCacheTTL       = 5 * time.Minute
	RateLimitWindowTTL = 1 * time.Minute
	UserStateCacheTTL  = 30 * time.Minute
)

func FeedKey(workerID int64) string {
	return fmt.Sprintf("feed:worker:%d", workerID)
}

func RateLimitKey(userID int64) string {
	return fmt.Sprintf("ratelimit:user:%d", userID)
}

func UserStateKey(userID int64) string {
	return fmt.Sprintf("state:user:%d", userID)
}

// GetFeed decodes the cached feed into dest. It returns ErrCacheMiss when
// nothing is cached.
func (c *Cache) GetFeed(ctx context.Context, workerID int64, dest interface{}) error {
	return c.getJSON(ctx, FeedKey(workerID), dest)
}

func (c *Cache) SetFeed(ctx context.Context, workerID int64, feed interface{}) error {
	return c.setJSON(ctx, FeedKey(workerID), feed, FeedCacheTTL)
}

func (c *Cache) InvalidateFeed(ctx context.Context, workerID int64) error {
	return c.delete(ctx, FeedKey(workerID))
}

// IncrementUserRateLimit counts a request in the user's current window.
func (c *Cache) IncrementUserRateLimit(ctx context.Context, userID int64) (int64, error) {
	return c.incrementWithExpiry(ctx, RateLimitKey(userID), RateLimitWindowTTL)
}

// SetUserState remembers what the bot expects from the user's next message.
func (c *Cache) SetUserState(ctx context.Context, userID int64, state string) error {
	return c.setString(ctx, UserStateKey(userID), state, UserStateCacheTTL)
}

func (c *Cache) GetUserState(ctx context.Context, userID int64) (string, error) {
	return c.getString(ctx, UserStateKey(userID))
}

func (c *Cache) DeleteUserState(ctx context.Context, userID int64) error {
	return c.delete(ctx, UserStateKey(userID))
}
