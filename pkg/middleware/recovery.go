package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/guard/pkg/errors"
)

// RecoveryConfig defines the config for the Recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace includes the stack trace in the error response.
	// Keep it off outside development.
	EnableStackTrace bool

	// OnPanic is called with the recovered value and stack, for alerting.
	OnPanic func(c *gin.Context, err interface{}, stack []byte)
}

// Recovery converts panics into a 500 JSON response and logs the stack.
func Recovery() gin.HandlerFunc {
	return RecoveryWithConfig(RecoveryConfig{})
}

// RecoveryWithConfig returns a Recovery middleware with custom config.
func RecoveryWithConfig(config RecoveryConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()

				logger.Errorw("Panic recovered",
					"error", fmt.Sprint(r),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(stack))

				if config.OnPanic != nil {
					config.OnPanic(c, r, stack)
				}

				err := errors.ErrInternal.WithMessagef("panic: %v", r)
				if config.EnableStackTrace {
					err = errors.ErrInternal.WithMessagef("panic: %v\n%s", r, stack)
				}
				abortWith(c, err)
			}
		}()
		c.Next()
	}
}
