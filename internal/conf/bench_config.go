package conf

import (
	"time"

	"github.com/spf13/viper"
)

// BenchConfig 对比服务配置
type BenchConfig struct {
	MaxConcurrent int           // 最大并发对比数
	QueueTimeout  time.Duration // 排队等待超时时间
}

// RunnerConfig 单次执行配置
type RunnerConfig struct {
	DefaultTimeout time.Duration // 请求未指定超时时使用
	MaxTimeout     time.Duration // 请求超时上限
	MaxOutputSize  int64         // 标准输出/错误最大保留字节数
}

// WorkspaceConfig 工作区配置
type WorkspaceConfig struct {
	Root          string        // 工作区根目录，为空时使用系统临时目录
	Keep          bool          // 执行结束后保留工作区（调试用）
	MaxAge        time.Duration // 残留工作区超过该时间会被清理
	SweepInterval time.Duration // 清理频率
}

// SamplerConfig 资源采样配置
type SamplerConfig struct {
	Mode         string        // process 或 cgroup
	Interval     time.Duration // 采样间隔
	CgroupParent string        // cgroup 模式下的父 cgroup 路径
}

// PythonToolchainConfig Python 工具链配置
type PythonToolchainConfig struct {
	Path         string // 解释器路径
	Launcher     string // 多进程启动器（mpiexec），为空时直接运行解释器
	LauncherFlag string // 启动器的进程数参数
	SyntaxCheck  bool   // 运行前执行 py_compile 语法检查
}

// CppToolchainConfig C++ 工具链配置
type CppToolchainConfig struct {
	Path   string // 编译器路径
	Flags  string // 编译选项
	OpenMP bool   // 追加 -fopenmp
}

// ToolchainConfig 工具链配置
type ToolchainConfig struct {
	CompileTimeout time.Duration
	Python         PythonToolchainConfig
	Cpp            CppToolchainConfig
}

// GeneratorConfig 文本生成协作方配置
type GeneratorConfig struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// CacheConfig 源码对象缓存配置
type CacheConfig struct {
	Dir            string        // 本地缓存目录
	TTL            time.Duration // 缓存时间
	MaxDiskUsage   int64         // 最大磁盘使用
	CleanFrequency time.Duration // 清理频率
}

// LoadBenchConfig 从配置文件加载对比服务配置
func LoadBenchConfig(cfg *viper.Viper) *BenchConfig {
	return &BenchConfig{
		MaxConcurrent: cfg.GetInt("bench.max_concurrent"),
		QueueTimeout:  time.Duration(cfg.GetInt("bench.queue_timeout")) * time.Second,
	}
}

// LoadRunnerConfig 从配置文件加载执行配置
func LoadRunnerConfig(cfg *viper.Viper) *RunnerConfig {
	return &RunnerConfig{
		DefaultTimeout: time.Duration(cfg.GetInt("runner.default_timeout")) * time.Second,
		MaxTimeout:     time.Duration(cfg.GetInt("runner.max_timeout")) * time.Second,
		MaxOutputSize:  cfg.GetInt64("runner.max_output_size"),
	}
}

// LoadWorkspaceConfig 从配置文件加载工作区配置
func LoadWorkspaceConfig(cfg *viper.Viper) *WorkspaceConfig {
	return &WorkspaceConfig{
		Root:          cfg.GetString("workspace.root"),
		Keep:          cfg.GetBool("workspace.keep"),
		MaxAge:        time.Duration(cfg.GetInt("workspace.max_age")) * time.Second,
		SweepInterval: time.Duration(cfg.GetInt("workspace.sweep_interval")) * time.Second,
	}
}

// LoadSamplerConfig 从配置文件加载采样配置
func LoadSamplerConfig(cfg *viper.Viper) *SamplerConfig {
	return &SamplerConfig{
		Mode:         cfg.GetString("sampler.mode"),
		Interval:     time.Duration(cfg.GetInt("sampler.interval_ms")) * time.Millisecond,
		CgroupParent: cfg.GetString("sampler.cgroup_parent"),
	}
}

// LoadToolchainConfig 从配置文件加载工具链配置
func LoadToolchainConfig(cfg *viper.Viper) *ToolchainConfig {
	return &ToolchainConfig{
		CompileTimeout: time.Duration(cfg.GetInt("toolchain.compile_timeout")) * time.Second,
		Python: PythonToolchainConfig{
			Path:         cfg.GetString("toolchain.python.path"),
			Launcher:     cfg.GetString("toolchain.python.launcher"),
			LauncherFlag: cfg.GetString("toolchain.python.launcher_flag"),
			SyntaxCheck:  cfg.GetBool("toolchain.python.syntax_check"),
		},
		Cpp: CppToolchainConfig{
			Path:   cfg.GetString("toolchain.cpp.path"),
			Flags:  cfg.GetString("toolchain.cpp.flags"),
			OpenMP: cfg.GetBool("toolchain.cpp.openmp"),
		},
	}
}

// LoadGeneratorConfig 从配置文件加载文本生成配置
func LoadGeneratorConfig(cfg *viper.Viper) *GeneratorConfig {
	return &GeneratorConfig{
		Provider:  cfg.GetString("generator.provider"),
		BaseURL:   cfg.GetString("generator.base_url"),
		APIKey:    cfg.GetString("generator.api_key"),
		Model:     cfg.GetString("generator.model"),
		MaxTokens: cfg.GetInt("generator.max_tokens"),
		Timeout:   time.Duration(cfg.GetInt("generator.timeout")) * time.Second,
		CacheTTL:  time.Duration(cfg.GetInt("generator.cache_ttl")) * time.Second,
	}
}

// LoadCacheConfig 从配置文件加载缓存配置
func LoadCacheConfig(cfg *viper.Viper) *CacheConfig {
	return &CacheConfig{
		Dir:            cfg.GetString("cache.dir"),
		TTL:            time.Duration(cfg.GetInt("cache.ttl")) * time.Second,
		MaxDiskUsage:   cfg.GetInt64("cache.max_disk_usage"),
		CleanFrequency: time.Duration(cfg.GetInt("cache.clean_frequency")) * time.Second,
	}
}
