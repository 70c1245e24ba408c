package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	aws_pkg "pharmacy-storefront/pkg/aws"
)

// MetricsRecorder is satisfied by *aws_pkg.MetricsClient.
type MetricsRecorder interface {
	IsEnabled() bool
	RecordCount(ctx context.Context, name string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, name string, d time.Duration, dimensions map[string]string) error
}

// HTTPMetrics records request count, latency and errors per route. Data
// points are sent off the request path.
func HTTPMetrics(rec MetricsRecorder, service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rec == nil || !rec.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		dims := map[string]string{
			"Service": service,
			"Method":  c.Request.Method,
			"Path":    path,
			"Status":  statusRange(status),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = rec.RecordCount(ctx, aws_pkg.MetricHTTPRequests, dims)
			_ = rec.RecordLatency(ctx, aws_pkg.MetricHTTPLatency, duration, dims)
			switch {
			case status >= 500:
				_ = rec.RecordCount(ctx, aws_pkg.MetricHTTPErrors, dims)
				_ = rec.RecordCount(ctx, aws_pkg.MetricHTTP5xx, dims)
			case status >= 400:
				_ = rec.RecordCount(ctx, aws_pkg.MetricHTTPErrors, dims)
				_ = rec.RecordCount(ctx, aws_pkg.MetricHTTP4xx, dims)
			}
		}()
	}
}

func statusRange(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	}
	return "unknown"
}
