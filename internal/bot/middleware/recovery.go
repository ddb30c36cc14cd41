package middleware

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Recovery middleware for panic handling
func Recovery(logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var userID int64
					if s := c.Sender(); s != nil {
						userID = s.ID
					}

					logger.Error("panic recovered",
						zap.Any("panic", r),
						zap.Stack("stack"),
						zap.Int64("user_id", userID),
					)

					err = SafeSend(logger, c, "😔 Something went wrong. Please try again later.")
				}
			}()

			return next(c)
		}
	}
}

// SafeSend sends message and turns a panic inside telebot into a log line.
func SafeSend(logger *zap.Logger, c tele.Context, message string, opts ...interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in send", zap.Any("panic", r))
		}
	}()

	return c.Send(message, opts...)
}
