package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids shared and browser caches from keeping the response. Exam
// payloads and results are per-user and time-bound.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
