package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/authz"
	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/token"
	"github.com/kart-io/guard/pkg/tracing"
)

// ActionMapping maps HTTP methods to decision actions.
type ActionMapping map[string]string

// DefaultActionMapping is the default HTTP method to action mapping.
var DefaultActionMapping = ActionMapping{
	"GET":    "read",
	"HEAD":   "read",
	"POST":   "create",
	"PUT":    "update",
	"PATCH":  "update",
	"DELETE": "delete",
}

// AuthzOption configures the authorization middleware.
type AuthzOption func(*authzOptions)

type authzOptions struct {
	securable        func(c *gin.Context) string
	action           func(c *gin.Context) string
	skipPaths        []string
	skipPathPrefixes []string
}

// WithSecurableExtractor sets how the securable is derived from the
// request. The default takes the first path segment after any /api and
// version prefixes.
func WithSecurableExtractor(fn func(c *gin.Context) string) AuthzOption {
	return func(o *authzOptions) {
		if fn != nil {
			o.securable = fn
		}
	}
}

// WithActionExtractor sets how the action is derived from the request.
func WithActionExtractor(fn func(c *gin.Context) string) AuthzOption {
	return func(o *authzOptions) {
		if fn != nil {
			o.action = fn
		}
	}
}

// WithActionMapping derives the action from the HTTP method using the
// given mapping, falling back to the lowercased method.
func WithActionMapping(mapping ActionMapping) AuthzOption {
	return WithActionExtractor(func(c *gin.Context) string {
		if action, ok := mapping[c.Request.Method]; ok {
			return action
		}
		return strings.ToLower(c.Request.Method)
	})
}

// WithAuthzSkipPaths sets exact paths that bypass authorization.
func WithAuthzSkipPaths(paths ...string) AuthzOption {
	return func(o *authzOptions) {
		o.skipPaths = append(o.skipPaths, paths...)
	}
}

// WithAuthzSkipPathPrefixes sets path prefixes that bypass authorization.
func WithAuthzSkipPathPrefixes(prefixes ...string) AuthzOption {
	return func(o *authzOptions) {
		o.skipPathPrefixes = append(o.skipPathPrefixes, prefixes...)
	}
}

// Authz enforces authorization for every request. The principal must have
// been stored by the token middleware; requests without one are rejected
// as unauthenticated. The subject and each role are tried as principals,
// so a permit for a role name covers all its members. Denials are audit
// logged with the decision reason.
func Authz(authorizer authz.Authorizer, opts ...AuthzOption) gin.HandlerFunc {
	o := &authzOptions{
		securable: defaultSecurableExtractor,
		action:    defaultActionExtractor,
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(c *gin.Context) {
		if skipPath(c.Request.URL.Path, o.skipPaths, o.skipPathPrefixes) {
			c.Next()
			return
		}
		if authorizer == nil {
			abortWith(c, errors.ErrInternal.WithMessage("authorizer not configured"))
			return
		}

		principal, ok := token.FromGin(c)
		if !ok {
			abortWith(c, errors.ErrUnauthorized.WithMessage("no authenticated principal"))
			return
		}

		securable := o.securable(c)
		action := o.action(c)

		d, err := authorizer.AuthorizeAll(c.Request.Context(), acl.MultiQuery{
			Principals: principal.Principals(),
			Actions:    []any{action},
			Securable:  securable,
		})
		if err != nil {
			abortWith(c, err)
			return
		}
		if !d.Allowed {
			auditDenial(c, principal.Subject, securable, action, d.Reason)
			abortWith(c, errors.ErrPermissionDenied.WithMessagef(
				"access denied: principal=%s, securable=%s, action=%s",
				principal.Subject, securable, action))
			return
		}

		c.Next()
	}
}

func auditDenial(c *gin.Context, subject, securable, action, reason string) {
	fields := []interface{}{
		"subject", subject,
		"securable", securable,
		"action", action,
		"reason", reason,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	if requestID := GetRequestID(c.Request.Context()); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if traceID := tracing.TraceIDFromContext(c.Request.Context()); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}
	logger.Warnw("Request denied", fields...)
}

// defaultSecurableExtractor takes the first path segment after any API
// and version prefixes: /api/v1/reports/42 yields "reports".
func defaultSecurableExtractor(c *gin.Context) string {
	path := strings.TrimPrefix(c.Request.URL.Path, "/")
	path = strings.TrimPrefix(path, "api/")
	path = strings.TrimPrefix(path, "v1/")
	path = strings.TrimPrefix(path, "v2/")

	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// defaultActionExtractor maps the HTTP method through DefaultActionMapping.
func defaultActionExtractor(c *gin.Context) string {
	if action, ok := DefaultActionMapping[c.Request.Method]; ok {
		return action
	}
	return strings.ToLower(c.Request.Method)
}
