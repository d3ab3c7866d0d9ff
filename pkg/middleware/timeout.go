package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultTimeout bounds request processing when no duration is given.
const DefaultTimeout = 30 * time.Second

// TimeoutConfig defines the config for the Timeout middleware.
type TimeoutConfig struct {
	// Timeout is the request deadline. Default: 30s.
	Timeout time.Duration

	// SkipPaths lists paths excluded from the deadline, such as
	// streaming or watch endpoints.
	SkipPaths []string
}

// Timeout attaches a deadline to the request context. Handlers and the
// stores they call observe it through context cancellation.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return TimeoutWithConfig(TimeoutConfig{Timeout: timeout})
}

// TimeoutWithConfig returns a Timeout middleware with custom config.
func TimeoutWithConfig(config TimeoutConfig) gin.HandlerFunc {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	skip := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), config.Timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
