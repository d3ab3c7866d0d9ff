// Package middleware provides the gin middleware chain for guard services.
//
// This package includes:
//   - Authz: authorization enforcement backed by an authz.Authorizer
//   - RequestID: unique request ID per request (X-Request-ID)
//   - Logger: structured request logging
//   - Recovery: panic recovery with a JSON error response
//   - CORS: cross-origin resource sharing headers
//   - Timeout: request context deadlines
//   - gRPC unary and stream interceptors mirroring the HTTP enforcement
//
// Authentication is separate: pkg/token's middleware verifies credentials
// and stores the principal that Authz later enforces against.
//
// Usage:
//
//	r := gin.New()
//	r.Use(
//	    middleware.RequestID(),
//	    middleware.Recovery(),
//	    middleware.Logger(),
//	    token.Middleware(manager),
//	    middleware.Authz(authorizer),
//	)
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/utils/response"
)

// skipPath reports whether the path matches an exact skip entry or a
// skip prefix.
func skipPath(path string, paths, prefixes []string) bool {
	for _, p := range paths {
		if path == p {
			return true
		}
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// abortWith ends the request with the error's transport mapping and the
// unified response envelope.
func abortWith(c *gin.Context, err error) {
	errno := errors.FromError(err)
	c.AbortWithStatusJSON(errno.HTTPStatus(), response.Err(errno))
}
