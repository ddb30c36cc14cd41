package middleware

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const MaxUpdatesPerMinute = 50

// Counter counts one request in the user's current window.
type Counter interface {
	IncrementUserRateLimit(ctx context.Context, userID int64) (int64, error)
}

// RateLimit drops updates above MaxUpdatesPerMinute. A failing counter lets
// the update through.
func RateLimit(counter Counter, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			count, err := counter.IncrementUserRateLimit(ctx, user.ID)
			if err != nil {
				logger.Error("failed to check rate limit",
					zap.Int64("user_id", user.ID),
					zap.Error(err),
				)
				return next(c)
			}

			if count > MaxUpdatesPerMinute {
				logger.Warn("rate limit exceeded",
					zap.Int64("user_id", user.ID),
					zap.Int64("count", count),
				)

				msg := fmt.Sprintf("⚠️ Too many requests. Please wait a minute.\nLimit: %d per minute.", MaxUpdatesPerMinute)
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: msg})
				}
				return c.Reply(msg)
			}

			return next(c)
		}
	}
}
