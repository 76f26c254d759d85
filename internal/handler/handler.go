package handler

import (
	"github.com/shroukgbr89/parallel/internal/cache"
	"github.com/shroukgbr89/parallel/internal/service"
)

// Handler HTTP 接口，持有各业务服务
type Handler struct {
	bench   *service.BenchService
	assist  *service.AssistService
	sources *cache.SourceCache
}

// Option 可选依赖
type Option func(*Handler)

// WithSourceCache 在系统信息中展示源码缓存状态
func WithSourceCache(sources *cache.SourceCache) Option {
	return func(h *Handler) { h.sources = sources }
}

// New 创建 Handler
func New(bench *service.BenchService, assist *service.AssistService, opts ...Option) *Handler {
	h := &Handler{bench: bench, assist: assist}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
