package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teebalk/marketplace/internal/infrastructure/telemetry"
)

// HTTPMetrics records request count and latency per route pattern
func HTTPMetrics(m *telemetry.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
