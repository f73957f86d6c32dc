package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request with method, path, status, user and
// duration. Errors recorded by handlers surface at warn level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"user_id", GetUserID(c),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			slog.Warn("request failed", append(attrs, "errors", c.Errors.String())...)
			return
		}
		if c.Writer.Status() >= 500 {
			slog.Error("request errored", attrs...)
			return
		}
		slog.Info("request completed", attrs...)
	}
}
