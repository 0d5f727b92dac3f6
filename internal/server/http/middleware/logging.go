package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drobyshev/leadmart/internal/domain/model"
)

// RequestLogger logs each request after completion. Feed streams are
// long-lived, so their latency field reads as stream duration.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", c.Writer.Size()),
		}
		if val, ok := c.Get(ViewerContextKey); ok {
			if viewer, ok := val.(*model.Viewer); ok && viewer != nil {
				attrs = append(attrs, slog.Int64("viewer", viewer.UserID))
			}
		}

		logger.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}
