package handler

import (
	"runtime"
	"time"

	"github.com/shroukgbr89/parallel/api"
	"github.com/shroukgbr89/parallel/internal/service"

	"github.com/gin-gonic/gin"
)

// HealthCheckHandler 健康检查接口
func (h *Handler) HealthCheckHandler(c *gin.Context) {
	api.ResponseSuccess(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "parallel-bench",
	})
}

// MetricsHandler 获取执行统计信息
func (h *Handler) MetricsHandler(c *gin.Context) {
	api.ResponseSuccess(c, service.GetGlobalMetrics().GetSnapshot())
}

// SystemInfoHandler 获取系统信息
func (h *Handler) SystemInfoHandler(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	info := gin.H{
		// Go运行时信息
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
		"cpu_cores":  runtime.NumCPU(),

		// 内存信息
		"memory": gin.H{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"gc_count":       m.NumGC,
		},

		// 执行队列信息
		"bench_stats": h.bench.Stats(),
	}
	if h.sources != nil {
		info["cache_stats"] = h.sources.GetCacheStats()
	}

	api.ResponseSuccess(c, info)
}

// ReadinessHandler 就绪检查（用于K8s等），执行队列已满时返回未就绪
func (h *Handler) ReadinessHandler(c *gin.Context) {
	if h.bench.AvailableSlots() == 0 {
		api.ResponseError(c, api.CodeServerBusy)
		return
	}

	api.ResponseSuccess(c, gin.H{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}

// LivenessHandler 存活检查（用于K8s等）
func (h *Handler) LivenessHandler(c *gin.Context) {
	api.ResponseSuccess(c, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}
