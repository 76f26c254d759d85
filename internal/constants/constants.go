package constants

import "time"

// 执行相关常量
const (
	// 并行度范围
	MinParallelism     = 1
	MaxParallelism     = 256
	DefaultParallelism = 1

	// 执行超时配置
	DefaultRunTimeout   = 30 * time.Second // 单次执行默认超时时间
	MaxRunTimeout       = 10 * time.Minute // 单次执行最大超时时间
	MaxCompileTimeout   = 30 * time.Second // 编译超时时间
	MaxQueueWaitTimeout = 30 * time.Second // 队列等待超时时间
	KillWaitDelay       = 2 * time.Second  // 脱离进程组的后代进程仍占用输出管道时的最长等待

	// 并发控制
	DefaultMaxConcurrent = 2  // 默认最大并发对比数
	MinConcurrent        = 1  // 最小并发数
	MaxConcurrent        = 16 // 最大并发数

	// 输出限制
	MaxOutputSize = 10 * 1024 * 1024 // 最大输出大小（10MB）
	MaxErrorSize  = 64 * 1024        // 诊断信息最大保留大小（64KB）
	MaxCodeSize   = 1024 * 1024      // 提交代码最大长度（1MB）

	// 工作区
	WorkspaceDirPrefix     = "par-ws-"        // 工作区目录前缀
	WorkspaceDirPerm       = 0700             // 工作区目录权限
	CodeFilePerm           = 0600             // 代码文件权限
	DefaultWorkspaceMaxAge = 30 * time.Minute // 残留工作区最长保留时间
	DefaultSweepInterval   = 10 * time.Minute // 残留工作区清理频率
)

// 采样相关常量
const (
	DefaultSampleInterval = 100 * time.Millisecond // 默认采样间隔
	MinSampleInterval     = 50 * time.Millisecond  // /proc 时间以 10ms 时钟滴答计，间隔过小时 CPU 占用率抖动
	MaxSampleInterval     = 5 * time.Second
	MaxSamplesKept        = 10000 // 单次执行最多保留的采样点

	SamplerModeProcess = "process" // 基于进程树采样
	SamplerModeCgroup  = "cgroup"  // 基于 cgroup v2 采样

	CgroupRoot           = "/sys/fs/cgroup"
	CgroupPollInterval   = 10 * time.Millisecond
	CgroupCleanupTimeout = 2 * time.Second // cgroup.kill 异步生效，等待组内进程全部退出
)

// 缓存相关常量
const (
	DefaultCacheTTL       = 30 * time.Minute       // 默认缓存过期时间
	DefaultCleanFrequency = 10 * time.Minute       // 默认清理频率
	DefaultMaxDiskUsage   = 2 * 1024 * 1024 * 1024 // 默认最大磁盘使用（2GB）

	CacheDirName = "parallel-source-cache"
	CacheDirPerm = 0755

	DefaultGenerationCacheTTL = 24 * time.Hour
	GenerationCacheKeyPrefix  = "parallel:gen:"
)

// 文件名常量
const (
	CppCodeFileName = "main.cpp"
	PyCodeFileName  = "main.py"

	// 可执行文件名
	DefaultExeName = "main"
)

// 工具链相关常量
const (
	GPPPath      = "g++"
	PythonPath   = "python3"
	MPILauncher  = "mpiexec"
	MPIProcsFlag = "-n"

	GPPDefaultFlags = "-O2 -Wall -std=c++17"
	OpenMPFlag      = "-fopenmp"

	EnvOMPThreads  = "OMP_NUM_THREADS"
	EnvParallelism = "PARALLELISM_DEGREE"
)

// 文本生成相关常量
const (
	GeneratorOllama    = "ollama"
	GeneratorOpenAI    = "openai"
	GeneratorAnthropic = "anthropic"
	GeneratorGemini    = "gemini"

	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	DefaultOllamaModel   = "codellama:13b"
	DefaultMaxTokens     = 2048
	GenerateTimeout      = 2 * time.Minute
)

// 日志相关常量
const (
	// 日志级别
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	// 日志文件
	DefaultLogFile    = "log/server.log"
	DefaultLogMaxSize = 200 // MB
	DefaultLogMaxAge  = 30  // days
	DefaultLogBackups = 7
)

// HTTP 相关常量
const (
	// 默认端口（与原前端约定一致）
	DefaultServerPort = 3001

	// 超时配置
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Minute
	DefaultIdleTimeout  = 60 * time.Second
	ShutdownTimeout     = 10 * time.Second
)

// 历史记录
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
)
