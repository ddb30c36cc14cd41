package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxRequestsPerMinute = 120

func zapRequest(c *gin.Context, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int64("user_id", userOf(c)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := append(zapRequest(c, nil),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("request handled", fields...)
			return
		}
		s.logger.Info("request handled", fields...)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.Stack("stack"),
					zap.String("path", c.FullPath()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{Error: "internal error"})
			}
		}()

		c.Next()
	}
}

// rateLimit fails open when the counter store is unavailable.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.svc.Limiter == nil {
			c.Next()
			return
		}

		count, err := s.svc.Limiter.IncrementUserRateLimit(c.Request.Context(), userOf(c))
		if err != nil {
			s.logger.Error("failed to check rate limit", zapRequest(c, err)...)
			c.Next()
			return
		}

		if count > maxRequestsPerMinute {
			s.logger.Warn("rate limit exceeded", zap.Int64("user_id", userOf(c)), zap.Int64("count", count))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, envelope{Error: "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
