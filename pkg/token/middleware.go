package token

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/utils/response"
)

// MiddlewareOption configures the authentication middleware.
type MiddlewareOption func(*middlewareOptions)

type middlewareOptions struct {
	lookup           string
	scheme           string
	skipPaths        []string
	skipPathPrefixes []string
}

// WithTokenLookup sets how the token is extracted, as "header:<name>" or
// "query:<name>". The default is "header:Authorization".
func WithTokenLookup(lookup string) MiddlewareOption {
	return func(o *middlewareOptions) {
		if lookup != "" {
			o.lookup = lookup
		}
	}
}

// WithAuthScheme sets the authorization scheme stripped from header
// tokens. The default is "Bearer".
func WithAuthScheme(scheme string) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.scheme = scheme
	}
}

// WithSkipPaths sets exact paths that bypass authentication.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.skipPaths = append(o.skipPaths, paths...)
	}
}

// WithSkipPathPrefixes sets path prefixes that bypass authentication.
func WithSkipPathPrefixes(prefixes ...string) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.skipPathPrefixes = append(o.skipPathPrefixes, prefixes...)
	}
}

// Middleware authenticates requests and stores the principal in both the
// gin context and the request context. When the manager is disabled,
// requests pass through unauthenticated and downstream authorization
// decides what an anonymous caller may do.
func Middleware(m *Manager, opts ...MiddlewareOption) gin.HandlerFunc {
	o := &middlewareOptions{
		lookup: "header:Authorization",
		scheme: "Bearer",
	}
	for _, opt := range opts {
		opt(o)
	}
	source, name := parseLookup(o.lookup)

	return func(c *gin.Context) {
		if skipPath(c.Request.URL.Path, o.skipPaths, o.skipPathPrefixes) || m.Disabled() {
			c.Next()
			return
		}

		raw := extractToken(c, source, name, o.scheme)
		if raw == "" {
			abortUnauthorized(c, errors.ErrUnauthorized.WithMessage("missing authentication token"))
			return
		}

		principal, err := m.Parse(raw)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(PrincipalKey, principal)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// FromGin returns the principal the middleware stored, if any.
func FromGin(c *gin.Context) (*Principal, bool) {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*Principal); ok && p != nil {
			return p, true
		}
	}
	return FromContext(c.Request.Context())
}

func parseLookup(lookup string) (source, name string) {
	parts := strings.SplitN(lookup, ":", 2)
	if len(parts) != 2 {
		return "header", "Authorization"
	}
	return parts[0], parts[1]
}

func extractToken(c *gin.Context, source, name, scheme string) string {
	var raw string
	switch source {
	case "query":
		raw = c.Query(name)
	default:
		raw = c.GetHeader(name)
		if scheme != "" && strings.HasPrefix(raw, scheme+" ") {
			raw = strings.TrimPrefix(raw, scheme+" ")
		}
	}
	return strings.TrimSpace(raw)
}

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

func abortUnauthorized(c *gin.Context, err error) {
	errno := errors.FromError(err)
	c.AbortWithStatusJSON(errno.HTTPStatus(), response.Err(errno))
}
