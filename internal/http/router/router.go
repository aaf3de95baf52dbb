// Package router assembles the gin engine from the application modules.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	apphttp "salesflow_backend/internal/http"
	"salesflow_backend/platform/httpkit"
	"salesflow_backend/platform/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const managerRole = "manager"

// New builds the engine: global middleware, health and metrics endpoints,
// then each module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(metrics.Middleware())
	engine.Use(cors.New(corsConfig(app.Config)))

	if perMinute := app.Config.GetRateLimitPerMinute(); perMinute > 0 {
		limiter := httpkit.NewIPRateLimiter(rate.Limit(float64(perMinute)/60.0), perMinute, app.Logger)
		engine.Use(limiter.RateLimit())
	}

	engine.GET("/api/health", healthHandler(app.Health))
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := engine.Group("/api/v1")
	auth := httpkit.AuthRequired(app.Config)
	protected := v1.Group("", auth, httpkit.RequireTenant())
	manager := protected.Group("", httpkit.RequireRole(managerRole))

	routerCtx := &apphttp.RouterContext{
		Engine:         engine,
		V1:             v1,
		Protected:      protected,
		Manager:        manager,
		Config:         app.Config,
		AuthMiddleware: auth,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Info("module registered", slog.String("module", module.Name()))
	}

	return engine
}

func healthHandler(checker apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", httpkit.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", httpkit.RequestIDHeader},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return corsCfg
}
