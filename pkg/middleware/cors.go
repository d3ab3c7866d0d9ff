package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig defines the config for the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins that may access the resource.
	// Default: ["*"]
	AllowOrigins []string

	// AllowMethods lists methods allowed when accessing the resource.
	AllowMethods []string

	// AllowHeaders lists headers that can be used in requests.
	AllowHeaders []string

	// ExposeHeaders lists headers browsers may read from responses.
	ExposeHeaders []string

	// AllowCredentials permits cookies and authorization headers.
	// Incompatible with a wildcard origin; the request origin is echoed
	// instead.
	AllowCredentials bool

	// MaxAge is how long preflight results may be cached, in seconds.
	// Default: 86400
	MaxAge int
}

// DefaultCORSConfig is the default CORS middleware config.
var DefaultCORSConfig = CORSConfig{
	AllowOrigins: []string{"*"},
	AllowMethods: []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodHead,
		http.MethodOptions,
	},
	AllowHeaders: []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		HeaderXRequestID,
	},
	MaxAge: 86400,
}

// CORS adds cross-origin resource sharing headers and answers preflight
// requests.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig)
}

// CORSWithConfig returns a CORS middleware with custom config.
func CORSWithConfig(config CORSConfig) gin.HandlerFunc {
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = DefaultCORSConfig.AllowOrigins
	}
	if len(config.AllowMethods) == 0 {
		config.AllowMethods = DefaultCORSConfig.AllowMethods
	}
	if len(config.AllowHeaders) == 0 {
		config.AllowHeaders = DefaultCORSConfig.AllowHeaders
	}
	if config.MaxAge == 0 {
		config.MaxAge = DefaultCORSConfig.MaxAge
	}

	allowMethods := strings.Join(config.AllowMethods, ", ")
	allowHeaders := strings.Join(config.AllowHeaders, ", ")
	exposeHeaders := strings.Join(config.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		allowed := allowedOrigin(config.AllowOrigins, origin)
		if allowed == "" {
			c.Next()
			return
		}
		if config.AllowCredentials && allowed == "*" {
			allowed = origin
		}

		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Origin", allowed)
		if config.AllowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		if exposeHeaders != "" {
			header.Set("Access-Control-Expose-Headers", exposeHeaders)
		}

		if c.Request.Method == http.MethodOptions {
			header.Set("Access-Control-Allow-Methods", allowMethods)
			header.Set("Access-Control-Allow-Headers", allowHeaders)
			header.Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowedOrigin(allowOrigins []string, origin string) string {
	for _, o := range allowOrigins {
		if o == "*" {
			return "*"
		}
		if strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
