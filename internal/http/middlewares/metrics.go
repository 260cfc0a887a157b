package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/orca-swap-router/internal/metrics"
)

const unmatchedRoute = "unmatched"

// MetricsMiddleware labels requests by route template. Requests that match
// no route share the "unmatched" label.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method

		metrics.HTTPInFlight.Inc()
		defer metrics.HTTPInFlight.Dec()

		started := time.Now()
		c.Next()
		elapsed := time.Since(started)

		metrics.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
