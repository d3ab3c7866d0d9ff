package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/guard/pkg/utils/id"
)

// HeaderXRequestID is the request ID header name.
const HeaderXRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestIDConfig defines the config for the RequestID middleware.
type RequestIDConfig struct {
	// Header is the header to read and echo the request ID on.
	// Default: "X-Request-ID"
	Header string

	// Generator produces request IDs when the client sent none.
	// Default: ULID
	Generator func() string
}

// RequestID tags each request with a unique ID, echoed on the response
// header and stored in the request context for log correlation. A client
// supplied ID is kept.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig returns a RequestID middleware with custom config.
func RequestIDWithConfig(config RequestIDConfig) gin.HandlerFunc {
	if config.Header == "" {
		config.Header = HeaderXRequestID
	}
	if config.Generator == nil {
		config.Generator = id.NewULID
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(config.Header)
		if requestID == "" {
			requestID = config.Generator()
		}

		c.Writer.Header().Set(config.Header, requestID)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), requestIDKey{}, requestID))

		c.Next()
	}
}

// GetRequestID returns the request ID from the context, or "".
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}
