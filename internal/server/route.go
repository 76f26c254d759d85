package server

import (
	"github.com/shroukgbr89/parallel/api"
	"github.com/shroukgbr89/parallel/internal/handler"
	"github.com/shroukgbr89/parallel/pkg/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

// SetupRoutes 注册路由，auth 为 nil 时 /api/v1 不做鉴权
func SetupRoutes(cfg *viper.Viper, h *handler.Handler, auth gin.HandlerFunc) *gin.Engine {
	switch cfg.GetString("server.mode") {
	case "prod":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(logging.GinLogger(), logging.GinRecovery(true)) // 日志中间件，记录请求日志
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.AllowAllOrigins = true
	r.Use(cors.New(corsCfg)) // CORS 跨域中间件，直接放行所有跨域请求

	// 健康检查和监控端点（不需要认证）
	r.GET("/health", h.HealthCheckHandler)
	r.GET("/metrics", h.MetricsHandler)
	r.GET("/system", h.SystemInfoHandler)
	r.GET("/readiness", h.ReadinessHandler)
	r.GET("/liveness", h.LivenessHandler)

	apiV1 := r.Group("/api/v1")
	if auth != nil {
		apiV1.Use(auth)
	}
	{
		apiV1.POST("/convert", h.ConvertHandler)
		apiV1.POST("/explain", h.ExplainHandler)
		apiV1.POST("/optimize", h.OptimizeHandler)
		apiV1.POST("/detect", h.DetectHandler)
		apiV1.POST("/run", h.RunHandler)
		apiV1.POST("/compare", h.CompareHandler)
		apiV1.GET("/compare/ws", h.CompareStreamHandler)
		apiV1.GET("/history", h.HistoryHandler)
	}

	// 兼容旧前端直接请求根路径
	if cfg.GetBool("server.legacy_routes") {
		legacy := r.Group("/")
		if auth != nil {
			legacy.Use(auth)
		}
		legacy.POST("/convert", h.ConvertHandler)
		legacy.POST("/compare", h.CompareHandler)
	}

	r.NoRoute(func(c *gin.Context) {
		api.ResponseError(c, api.CodeNotFound)
	})
	return r
}
