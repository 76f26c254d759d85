package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shroukgbr89/parallel/internal/cache"
	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/dao"
	miniodao "github.com/shroukgbr89/parallel/internal/dao/minio"
	"github.com/shroukgbr89/parallel/internal/generator"
	"github.com/shroukgbr89/parallel/internal/handler"
	"github.com/shroukgbr89/parallel/internal/middleware"
	"github.com/shroukgbr89/parallel/internal/service"
	"github.com/shroukgbr89/parallel/internal/task/runner"
	"github.com/shroukgbr89/parallel/internal/task/toolchain"
	"github.com/shroukgbr89/parallel/internal/task/workspace"
	"github.com/shroukgbr89/parallel/pkg/jwt"
	"github.com/shroukgbr89/parallel/pkg/snowflake"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app 组装好的服务依赖
type app struct {
	workspaces *workspace.Manager
	wsCfg      *conf.WorkspaceConfig
	sources    *cache.SourceCache
	bench      *service.BenchService
	assist     *service.AssistService
	jwt        *jwt.JWT
}

// newApp 按配置组装依赖，外部存储只在启用时连接
func newApp(ctx context.Context, cfg *viper.Viper) (*app, error) {
	a := &app{wsCfg: conf.LoadWorkspaceConfig(cfg)}

	if err := snowflake.Init(cfg.GetString("snowflake.start_time"), cfg.GetInt("snowflake.machine_id")); err != nil {
		return nil, err
	}

	workspaces, err := workspace.NewManager(a.wsCfg.Root, a.wsCfg.Keep)
	if err != nil {
		return nil, err
	}
	a.workspaces = workspaces

	registry := toolchain.NewRegistry(conf.LoadToolchainConfig(cfg))
	r := runner.New(registry, workspaces, conf.LoadRunnerConfig(cfg), conf.LoadSamplerConfig(cfg))

	var benchOpts []service.BenchOption
	if cfg.GetBool("minio.enabled") {
		client := dao.MustInitMinIO(cfg) // 初始化 MinIO 连接
		sources, err := cache.NewSourceCache(conf.LoadCacheConfig(cfg), miniodao.NewObjectStore(client))
		if err != nil {
			return nil, err
		}
		a.sources = sources
		benchOpts = append(benchOpts, service.WithSourceStore(sources))
	}
	if cfg.GetBool("mysql.enabled") {
		db := dao.MustInitMySQL(cfg) // 初始化 MySQL 连接
		benchOpts = append(benchOpts, service.WithHistoryStore(dao.NewComparisonDAO(db)))
	}
	a.bench = service.NewBenchService(r, conf.LoadBenchConfig(cfg), benchOpts...)

	a.assist = service.NewAssistService(newGenerator(ctx, cfg))

	if cfg.GetBool("auth.enabled") {
		j, err := jwt.NewJWT(cfg.GetString("auth.secret"), authExpire(cfg))
		if err != nil {
			return nil, fmt.Errorf("init jwt failed, err:%w", err)
		}
		a.jwt = j
	}
	return a, nil
}

// newGenerator 创建文本生成客户端，不可用时返回 nil，只影响 convert/explain/optimize
func newGenerator(ctx context.Context, cfg *viper.Viper) generator.Generator {
	genCfg := conf.LoadGeneratorConfig(cfg)
	gen, err := generator.New(ctx, genCfg)
	if err != nil {
		zap.L().Warn("文本生成服务不可用", zap.String("provider", genCfg.Provider), zap.Error(err))
		return nil
	}
	if cfg.GetBool("redis.enabled") {
		rdb := dao.MustInitRedis(cfg) // 初始化 Redis
		return generator.NewCachedGenerator(gen, generator.NewRedisCache(rdb), genCfg.Provider, genCfg.Model, genCfg.CacheTTL)
	}
	return gen
}

// startBackground 启动工作区和源码缓存的后台清理
func (a *app) startBackground(ctx context.Context) {
	if _, err := a.workspaces.Sweep(a.wsCfg.MaxAge); err != nil {
		zap.L().Warn("清理残留工作区失败", zap.Error(err))
	}
	a.workspaces.StartJanitor(ctx, a.wsCfg.SweepInterval, a.wsCfg.MaxAge)
	if a.sources != nil {
		a.sources.StartCleaner(ctx)
	}
}

// close 服务退出时清理源码缓存
func (a *app) close() {
	if a.sources != nil {
		a.sources.Clear()
	}
}

func (a *app) handler() *handler.Handler {
	var opts []handler.Option
	if a.sources != nil {
		opts = append(opts, handler.WithSourceCache(a.sources))
	}
	return handler.New(a.bench, a.assist, opts...)
}

func (a *app) authMiddleware() gin.HandlerFunc {
	if a.jwt == nil {
		return nil
	}
	return middleware.Auth(a.jwt)
}

func authExpire(cfg *viper.Viper) time.Duration {
	return time.Duration(cfg.GetInt64("auth.expire_seconds")) * time.Second
}
