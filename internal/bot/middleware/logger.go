package middleware

import (
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Logger logs every update once it is handled. Chat text is never logged,
// only commands and callback data.
func Logger(logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()

			var userID int64
			if user := c.Sender(); user != nil {
				userID = user.ID
			}

			kind, detail := describe(c)

			err := next(c)

			fields := []zap.Field{
				zap.Int64("user_id", userID),
				zap.String("type", kind),
				zap.String("detail", detail),
				zap.Duration("duration", time.Since(start)),
			}

			if err != nil {
				fields = append(fields, zap.Error(err))
				logger.Error("handler error", fields...)
			} else {
				logger.Info("update handled", fields...)
			}

			return err
		}
	}
}

func describe(c tele.Context) (kind, detail string) {
	if cb := c.Callback(); cb != nil {
		return "callback", strings.TrimPrefix(cb.Data, "\f")
	}

	msg := c.Message()
	if msg == nil {
		return "other", ""
	}
	if strings.HasPrefix(msg.Text, "/") {
		return "command", strings.Fields(msg.Text)[0]
	}
	return "message", ""
}
