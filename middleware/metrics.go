package middleware

import (
	"context"
	"time"

	aws_pkg "github.com/brianfeister/rawelegancecreations/pkg/aws"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware sends request count, latency and error counters for
// each request as one batch, off the request path.
func MetricsMiddleware(metricsClient *aws_pkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    path,
			"Status":  statusCodeToRange(statusCode),
		}

		data := []aws_pkg.Datum{
			aws_pkg.Count(aws_pkg.MetricHTTPRequests, dimensions),
			aws_pkg.Latency(aws_pkg.MetricHTTPLatency, duration, dimensions),
		}
		switch {
		case statusCode >= 500:
			data = append(data, aws_pkg.Count(aws_pkg.MetricHTTPErrors, dimensions), aws_pkg.Count(aws_pkg.MetricHTTP5xx, dimensions))
		case statusCode >= 400:
			data = append(data, aws_pkg.Count(aws_pkg.MetricHTTPErrors, dimensions), aws_pkg.Count(aws_pkg.MetricHTTP4xx, dimensions))
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsClient.Put(ctx, data...)
		}()
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
