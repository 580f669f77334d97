package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore marks responses as uncacheable. API payloads carry page data and
// session-bound results.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
