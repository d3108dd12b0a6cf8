package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger logs one line per request, at a level chosen by the status code
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"duration":   duration,
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		})
		if query := c.Request.URL.RawQuery; query != "" {
			entry = entry.WithField("query", query)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Errorf("%s %s - %d (%s)", c.Request.Method, path, status, duration)
		case status >= 400:
			entry.Warnf("%s %s - %d (%s)", c.Request.Method, path, status, duration)
		default:
			entry.Infof("%s %s - %d (%s)", c.Request.Method, path, status, duration)
		}
	}
}
