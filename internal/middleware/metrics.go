package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/miqaat-rms-api/internal/service"
)

// unmatchedRoute labels requests gin could not route, keeping raw paths out
// of the label set.
const unmatchedRoute = "unmatched"

// Metrics records latency, count and in-flight requests per route template.
// Paths listed in skip, typically the scrape endpoint, are not recorded.
func Metrics(metrics *service.MetricsService, skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		ignored[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := ignored[c.Request.URL.Path]; ok || metrics == nil {
			c.Next()
			return
		}
		done := metrics.TrackInFlight()
		defer done()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
