package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mauth-dev/mauth/internal/logger"
)

// RequestLogger logs method, path, status and duration for each request.
func RequestLogger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		logger.Info("HTTP request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", duration.Milliseconds())

		if status >= 500 && len(c.Errors) > 0 {
			logger.Error("HTTP request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", c.Errors.String())
		}
	}
}
