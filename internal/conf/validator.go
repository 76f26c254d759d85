package conf

import (
	"fmt"

	"github.com/shroukgbr89/parallel/internal/constants"

	"github.com/spf13/viper"
)

// ValidateConfig 验证配置文件
func ValidateConfig(cfg *viper.Viper) error {
	// 验证服务器配置
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("服务器配置错误: %w", err)
	}

	// 验证对比服务配置
	if err := validateBenchConfig(cfg); err != nil {
		return fmt.Errorf("对比服务配置错误: %w", err)
	}

	// 验证执行配置
	if err := validateRunnerConfig(cfg); err != nil {
		return fmt.Errorf("执行配置错误: %w", err)
	}

	// 验证采样配置
	if err := validateSamplerConfig(cfg); err != nil {
		return fmt.Errorf("采样配置错误: %w", err)
	}

	// 验证文本生成配置
	if err := validateGeneratorConfig(cfg); err != nil {
		return fmt.Errorf("文本生成配置错误: %w", err)
	}

	// 验证缓存配置
	if err := validateCacheConfig(cfg); err != nil {
		return fmt.Errorf("缓存配置错误: %w", err)
	}

	// 验证鉴权配置
	if cfg.GetBool("auth.enabled") && cfg.GetString("auth.secret") == "" {
		return fmt.Errorf("鉴权配置错误: 启用鉴权时 auth.secret 不能为空")
	}

	return nil
}

// validateServerConfig 验证服务器配置
func validateServerConfig(cfg *viper.Viper) error {
	port := cfg.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("端口号无效: %d (应在1-65535之间)", port)
	}

	mode := cfg.GetString("server.mode")
	if mode != "dev" && mode != "prod" && mode != "test" {
		return fmt.Errorf("运行模式无效: %s (应为dev/prod/test)", mode)
	}

	return nil
}

// validateBenchConfig 验证对比服务配置
func validateBenchConfig(cfg *viper.Viper) error {
	maxConcurrent := cfg.GetInt("bench.max_concurrent")
	if maxConcurrent < constants.MinConcurrent || maxConcurrent > constants.MaxConcurrent {
		return fmt.Errorf("最大并发数无效: %d (应在%d-%d之间)",
			maxConcurrent, constants.MinConcurrent, constants.MaxConcurrent)
	}

	queueTimeout := cfg.GetInt("bench.queue_timeout")
	if queueTimeout <= 0 || queueTimeout > 600 {
		return fmt.Errorf("排队超时时间无效: %d (应在1-600秒之间)", queueTimeout)
	}

	return nil
}

// validateRunnerConfig 验证执行配置
func validateRunnerConfig(cfg *viper.Viper) error {
	maxTimeout := cfg.GetInt("runner.max_timeout")
	if maxTimeout <= 0 || maxTimeout > 3600 {
		return fmt.Errorf("最大超时时间无效: %d (应在1-3600秒之间)", maxTimeout)
	}

	defaultTimeout := cfg.GetInt("runner.default_timeout")
	if defaultTimeout <= 0 || defaultTimeout > maxTimeout {
		return fmt.Errorf("默认超时时间无效: %d (应在1-%d秒之间)", defaultTimeout, maxTimeout)
	}

	maxOutputSize := cfg.GetInt64("runner.max_output_size")
	if maxOutputSize <= 0 || maxOutputSize > 100*1024*1024 {
		return fmt.Errorf("最大输出大小无效: %d (应在1B-100MB之间)", maxOutputSize)
	}

	return nil
}

// validateSamplerConfig 验证采样配置
func validateSamplerConfig(cfg *viper.Viper) error {
	mode := cfg.GetString("sampler.mode")
	if mode != constants.SamplerModeProcess && mode != constants.SamplerModeCgroup {
		return fmt.Errorf("采样模式无效: %s (应为%s/%s)", mode, constants.SamplerModeProcess, constants.SamplerModeCgroup)
	}

	interval := cfg.GetInt("sampler.interval_ms")
	if interval < int(constants.MinSampleInterval.Milliseconds()) || interval > int(constants.MaxSampleInterval.Milliseconds()) {
		return fmt.Errorf("采样间隔无效: %d (应在%d-%d毫秒之间)",
			interval, constants.MinSampleInterval.Milliseconds(), constants.MaxSampleInterval.Milliseconds())
	}

	return nil
}

// validateGeneratorConfig 验证文本生成配置
func validateGeneratorConfig(cfg *viper.Viper) error {
	switch cfg.GetString("generator.provider") {
	case "", constants.GeneratorOllama, constants.GeneratorOpenAI, constants.GeneratorAnthropic, constants.GeneratorGemini:
	default:
		return fmt.Errorf("不支持的文本生成服务: %s", cfg.GetString("generator.provider"))
	}
	return nil
}

// validateCacheConfig 验证缓存配置
func validateCacheConfig(cfg *viper.Viper) error {
	ttl := cfg.GetInt("cache.ttl")
	if ttl <= 0 || ttl > 86400 {
		return fmt.Errorf("缓存TTL无效: %d (应在1-86400秒之间)", ttl)
	}

	maxDiskUsage := cfg.GetInt64("cache.max_disk_usage")
	if maxDiskUsage <= 0 || maxDiskUsage > 100*1024*1024*1024 {
		return fmt.Errorf("最大磁盘使用无效: %d (应在1B-100GB之间)", maxDiskUsage)
	}

	cleanFreq := cfg.GetInt("cache.clean_frequency")
	if cleanFreq <= 0 || cleanFreq > 3600 {
		return fmt.Errorf("清理频率无效: %d (应在1-3600秒之间)", cleanFreq)
	}

	return nil
}

// SetDefaultValues 设置默认配置值
func SetDefaultValues(cfg *viper.Viper) {
	// 服务器默认值
	cfg.SetDefault("server.port", constants.DefaultServerPort)
	cfg.SetDefault("server.mode", "dev")
	cfg.SetDefault("server.name", "parallel-bench")
	cfg.SetDefault("server.legacy_routes", true)

	// 对比服务默认值
	cfg.SetDefault("bench.max_concurrent", constants.DefaultMaxConcurrent)
	cfg.SetDefault("bench.queue_timeout", int(constants.MaxQueueWaitTimeout.Seconds()))

	// 执行默认值
	cfg.SetDefault("runner.default_timeout", int(constants.DefaultRunTimeout.Seconds()))
	cfg.SetDefault("runner.max_timeout", int(constants.MaxRunTimeout.Seconds()))
	cfg.SetDefault("runner.max_output_size", constants.MaxOutputSize)

	// 工作区默认值
	cfg.SetDefault("workspace.root", "")
	cfg.SetDefault("workspace.keep", false)
	cfg.SetDefault("workspace.max_age", int(constants.DefaultWorkspaceMaxAge.Seconds()))
	cfg.SetDefault("workspace.sweep_interval", int(constants.DefaultSweepInterval.Seconds()))

	// 采样默认值
	cfg.SetDefault("sampler.mode", constants.SamplerModeProcess)
	cfg.SetDefault("sampler.interval_ms", int(constants.DefaultSampleInterval.Milliseconds()))
	cfg.SetDefault("sampler.cgroup_parent", "")

	// 工具链默认值
	cfg.SetDefault("toolchain.compile_timeout", int(constants.MaxCompileTimeout.Seconds()))
	cfg.SetDefault("toolchain.python.path", constants.PythonPath)
	cfg.SetDefault("toolchain.python.launcher", constants.MPILauncher)
	cfg.SetDefault("toolchain.python.launcher_flag", constants.MPIProcsFlag)
	cfg.SetDefault("toolchain.python.syntax_check", false)
	cfg.SetDefault("toolchain.cpp.path", constants.GPPPath)
	cfg.SetDefault("toolchain.cpp.flags", constants.GPPDefaultFlags)
	cfg.SetDefault("toolchain.cpp.openmp", true)

	// 文本生成默认值
	cfg.SetDefault("generator.provider", constants.GeneratorOllama)
	cfg.SetDefault("generator.base_url", constants.DefaultOllamaBaseURL)
	cfg.SetDefault("generator.model", constants.DefaultOllamaModel)
	cfg.SetDefault("generator.max_tokens", constants.DefaultMaxTokens)
	cfg.SetDefault("generator.timeout", int(constants.GenerateTimeout.Seconds()))
	cfg.SetDefault("generator.cache_ttl", int(constants.DefaultGenerationCacheTTL.Seconds()))

	// 缓存默认值
	cfg.SetDefault("cache.dir", "")
	cfg.SetDefault("cache.ttl", int(constants.DefaultCacheTTL.Seconds()))
	cfg.SetDefault("cache.max_disk_usage", constants.DefaultMaxDiskUsage)
	cfg.SetDefault("cache.clean_frequency", int(constants.DefaultCleanFrequency.Seconds()))

	// 外部存储默认关闭
	cfg.SetDefault("mysql.enabled", false)
	cfg.SetDefault("mysql.max_idle_conns", 10)
	cfg.SetDefault("mysql.max_open_conns", 50)
	cfg.SetDefault("mysql.max_lifetime", 3600)
	cfg.SetDefault("redis.enabled", false)
	cfg.SetDefault("redis.host", "127.0.0.1")
	cfg.SetDefault("redis.port", 6379)
	cfg.SetDefault("redis.db", 0)
	cfg.SetDefault("minio.enabled", false)
	cfg.SetDefault("minio.endpoint", "127.0.0.1:9000")
	cfg.SetDefault("minio.bucket", "parallel-sources")
	cfg.SetDefault("minio.use_ssl", false)

	// 鉴权默认关闭
	cfg.SetDefault("auth.enabled", false)
	cfg.SetDefault("auth.expire_seconds", 86400)

	// 日志默认值
	cfg.SetDefault("log.level", constants.LogLevelInfo)
	cfg.SetDefault("log.filename", constants.DefaultLogFile)
	cfg.SetDefault("log.max_size", constants.DefaultLogMaxSize)
	cfg.SetDefault("log.max_age", constants.DefaultLogMaxAge)
	cfg.SetDefault("log.max_backups", constants.DefaultLogBackups)

	// Snowflake默认值
	cfg.SetDefault("snowflake.machine_id", 1)
	cfg.SetDefault("snowflake.start_time", "2025-01-01")
}
