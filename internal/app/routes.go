package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/fieldkit/internal/middleware"
	"github.com/mx-space/fieldkit/internal/modules/gateway"
	"github.com/mx-space/fieldkit/internal/modules/health"
	"github.com/mx-space/fieldkit/internal/modules/schema/contenttype"
	"github.com/mx-space/fieldkit/internal/modules/schema/editor"
	"github.com/mx-space/fieldkit/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "fieldkit",
		"version":  "1.0.0",
		"homepage": "https://github.com/mx-space/fieldkit",
	}
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, a.info(appInfo)) })
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	// Socket.IO at the root, next to the stats endpoint.
	gateway.RegisterRoutes(r.Group(""), a.hub)

	api := r.Group(apiPrefix)
	if a.rc != nil {
		if a.cfg.RateLimit.Enable {
			api.Use(middleware.RateLimit(a.rc.Raw(), a.cfg.RateLimit.Max, a.cfg.RateLimit.Window, a.logger.Named("ratelimit")))
		}
		api.Use(middleware.Idempotence(a.rc.Raw()))
	}
	api.GET("", func(c *gin.Context) { c.JSON(http.StatusOK, a.info(appInfo)) })

	var redis health.Pinger
	if a.rc != nil {
		redis = a.rc
	}
	health.NewHandler(a.db, redis, a.sched, a.cfg.LogDir()).RegisterRoutes(api)

	contenttype.NewHandler(a.types).RegisterRoutes(api)
	editor.NewHandler(a.editor).RegisterRoutes(api)
}

func (a *App) info(base gin.H) gin.H {
	out := gin.H{}
	for k, v := range base {
		out[k] = v
	}
	out["env"] = a.cfg.Env
	out["uptime"] = formatUptime(time.Since(a.started))
	out["sessions"] = a.editor.Active()
	return out
}
