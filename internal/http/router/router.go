package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/roadwatch/internal/config"
	"github.com/ignatzorin/roadwatch/internal/http/handlers"
	"github.com/ignatzorin/roadwatch/internal/http/middleware"
	"github.com/ignatzorin/roadwatch/internal/service"
)

// Handlers — набор хэндлеров, которые подключает роутер.
type Handlers struct {
	Reports  *handlers.ReportHandler
	Features *handlers.FeatureHandler
	Staff    *handlers.StaffHandler
	Health   *handlers.HealthHandler
	WS       *handlers.WSHandler
}

// SetupRouter собирает gin.Engine со всеми маршрутами API.
func SetupRouter(cfg *config.Config, h Handlers, tokens *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Env != "test" {
		r.Use(gin.Logger())
	}
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")

	writeLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	loginLimit := middleware.RateLimitMiddleware(5, time.Minute)

	api.GET("/features", h.Features.List)
	api.GET("/markers", h.Reports.Markers)
	api.GET("/ws", h.WS.Handle)

	reports := api.Group("/reports")
	{
		reports.GET("", h.Reports.List)
		reports.POST("", writeLimit, h.Reports.Create)
		reports.GET("/:id", middleware.UUIDValidator("id"), h.Reports.Get)
		reports.POST("/:id/upvote", writeLimit, middleware.UUIDValidator("id"), h.Reports.Upvote)
		reports.PATCH("/:id/status",
			middleware.AuthMiddleware(tokens),
			middleware.RequireRole(service.RoleStaff),
			middleware.UUIDValidator("id"),
			h.Reports.UpdateStatus,
		)
	}

	api.POST("/staff/login", loginLimit, h.Staff.Login)

	return r
}
