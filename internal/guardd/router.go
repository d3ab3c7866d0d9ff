package guardd

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/guard/internal/guardd/handler"
	"github.com/kart-io/guard/pkg/authz"
	"github.com/kart-io/guard/pkg/middleware"
	"github.com/kart-io/guard/pkg/store"
	"github.com/kart-io/guard/pkg/token"
)

// installRoutes builds the gin engine: middleware chain per the options,
// then the decision and policy routes.
func (cfg *Config) installRoutes(
	authorizer authz.Authorizer,
	st store.Store,
	refresh handler.Refresher,
	tokenManager *token.Manager,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	mw := cfg.MiddlewareOptions
	engine.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Header: mw.RequestIDHeader,
	}))
	engine.Use(middleware.Recovery())
	engine.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		SkipPaths: mw.LoggerSkipPaths,
	}))
	if mw.EnableCORS {
		corsConfig := middleware.DefaultCORSConfig
		corsConfig.AllowOrigins = mw.CORSAllowOrigins
		engine.Use(middleware.CORSWithConfig(corsConfig))
	}
	if mw.Timeout > 0 {
		engine.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:   mw.Timeout,
			SkipPaths: mw.TimeoutSkipPaths,
		}))
	}

	engine.GET("/healthz", handler.NewHealthHandler(st).Healthz)

	decisions := handler.NewDecisionHandler(authorizer)
	policies := handler.NewPolicyHandler(st, refresh)

	v1 := engine.Group("/v1")
	v1.Use(token.Middleware(tokenManager))
	{
		v1.POST("/decisions", decisions.Check)
		v1.POST("/decisions/batch", decisions.CheckBatch)

		p := v1.Group("/policies")
		{
			p.GET("", policies.List)
			p.POST("", policies.Create)
			p.DELETE("/:id", policies.Delete)
		}
	}

	return engine
}
