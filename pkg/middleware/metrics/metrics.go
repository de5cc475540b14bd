package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
)

// recorder is the subset of pkg/metrics.Recorder this middleware depends
// on, so the middleware package never imports the concrete type.
type recorder interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// New returns middleware that records request latency and status through rec.
func New(rec recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rec == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		rec.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), duration)
	}
}
