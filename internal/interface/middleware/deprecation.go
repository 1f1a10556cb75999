package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deprecated marks a route as deprecated and points clients at its successor.
func Deprecated(logger *logrus.Logger, successor string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Deprecation", "true")
		if successor != "" {
			c.Header("Link", "<"+successor+">; rel=\"successor-version\"")
		}
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"request_id": c.GetString("request_id"),
			}).Warn("deprecated route called")
		}
		c.Next()
	}
}
