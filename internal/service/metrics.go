package service

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	perrors "github.com/shroukgbr89/parallel/pkg/errors"
)

// BenchMetrics 执行/对比统计指标
type BenchMetrics struct {
	// 计数器
	TotalSubmissions   int64 // 总请求数（对比和单次执行）
	SuccessSubmissions int64 // 成功数
	FailedSubmissions  int64 // 失败数

	// 失败分类
	CompileErrors    int64 // 编译失败
	RuntimeErrors    int64 // 非零退出或启动失败
	TimeoutErrors    int64 // 超时
	OtherErrors      int64 // 其他错误
	GenerationCalls  int64 // 文本生成调用次数
	GenerationErrors int64 // 文本生成失败次数

	// 结果统计
	OutputMismatches int64 // 两侧输出不一致的对比数

	// 性能指标（毫秒）
	TotalBenchTime int64
	MaxBenchTime   int64
	MinBenchTime   int64

	// 资源使用
	CurrentActive     int32 // 当前活跃数
	MaxConcurrent     int32 // 历史最大并发数
	QueueWaitCount    int64 // 队列等待次数
	QueueTimeoutCount int64 // 队列超时次数

	// 源码缓存统计
	CacheHits   int64
	CacheMisses int64

	StartTime time.Time

	mu sync.RWMutex
}

var globalMetrics = NewBenchMetrics()

// NewBenchMetrics 创建统计实例
func NewBenchMetrics() *BenchMetrics {
	return &BenchMetrics{
		StartTime:    time.Now(),
		MinBenchTime: math.MaxInt64,
	}
}

// GetGlobalMetrics 获取全局统计实例
func GetGlobalMetrics() *BenchMetrics {
	return globalMetrics
}

// RecordSubmission 记录提交
func (m *BenchMetrics) RecordSubmission() {
	atomic.AddInt64(&m.TotalSubmissions, 1)
}

// RecordSuccess 记录成功执行，matched 为两侧输出是否一致（单次执行传 true）
func (m *BenchMetrics) RecordSuccess(elapsed time.Duration, matched bool) {
	atomic.AddInt64(&m.SuccessSubmissions, 1)
	if !matched {
		atomic.AddInt64(&m.OutputMismatches, 1)
	}

	ms := elapsed.Milliseconds()
	atomic.AddInt64(&m.TotalBenchTime, ms)

	for {
		oldMax := atomic.LoadInt64(&m.MaxBenchTime)
		if ms <= oldMax {
			break
		}
		if atomic.CompareAndSwapInt64(&m.MaxBenchTime, oldMax, ms) {
			break
		}
	}

	for {
		oldMin := atomic.LoadInt64(&m.MinBenchTime)
		if ms >= oldMin {
			break
		}
		if atomic.CompareAndSwapInt64(&m.MinBenchTime, oldMin, ms) {
			break
		}
	}
}

// RecordFailure 记录失败并按错误码归类
func (m *BenchMetrics) RecordFailure(err error) {
	atomic.AddInt64(&m.FailedSubmissions, 1)

	switch perrors.GetErrorCode(err) {
	case perrors.ErrCodeCompile, perrors.ErrCodeCompilerNotFound, perrors.ErrCodeCompileTimeout:
		atomic.AddInt64(&m.CompileErrors, 1)
	case perrors.ErrCodeRuntime, perrors.ErrCodeSpawnFailed:
		atomic.AddInt64(&m.RuntimeErrors, 1)
	case perrors.ErrCodeTimeout, perrors.ErrCodeExecutionTimeout:
		atomic.AddInt64(&m.TimeoutErrors, 1)
	default:
		atomic.AddInt64(&m.OtherErrors, 1)
	}
}

// RecordGeneration 记录一次文本生成调用
func (m *BenchMetrics) RecordGeneration(err error) {
	atomic.AddInt64(&m.GenerationCalls, 1)
	if err != nil {
		atomic.AddInt64(&m.GenerationErrors, 1)
	}
}

// RecordActiveIncrease 记录活跃数增加
func (m *BenchMetrics) RecordActiveIncrease() int32 {
	current := atomic.AddInt32(&m.CurrentActive, 1)

	for {
		oldMax := atomic.LoadInt32(&m.MaxConcurrent)
		if current <= oldMax {
			break
		}
		if atomic.CompareAndSwapInt32(&m.MaxConcurrent, oldMax, current) {
			break
		}
	}

	return current
}

// RecordActiveDecrease 记录活跃数减少
func (m *BenchMetrics) RecordActiveDecrease() {
	atomic.AddInt32(&m.CurrentActive, -1)
}

// RecordQueueWait 记录队列等待
func (m *BenchMetrics) RecordQueueWait() {
	atomic.AddInt64(&m.QueueWaitCount, 1)
}

// RecordQueueTimeout 记录队列超时
func (m *BenchMetrics) RecordQueueTimeout() {
	atomic.AddInt64(&m.QueueTimeoutCount, 1)
}

// RecordCacheHit 记录缓存命中
func (m *BenchMetrics) RecordCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// RecordCacheMiss 记录缓存未命中
func (m *BenchMetrics) RecordCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// GetSnapshot 获取统计快照
func (m *BenchMetrics) GetSnapshot() map[string]interface{} {
	m.mu.RLock()
	startTime := m.StartTime
	m.mu.RUnlock()

	successSubmissions := atomic.LoadInt64(&m.SuccessSubmissions)
	totalBenchTime := atomic.LoadInt64(&m.TotalBenchTime)

	var avgBenchTime int64
	if successSubmissions > 0 {
		avgBenchTime = totalBenchTime / successSubmissions
	}

	minBenchTime := atomic.LoadInt64(&m.MinBenchTime)
	if minBenchTime == math.MaxInt64 {
		minBenchTime = 0
	}

	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)
	var cacheHitRate float64
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = float64(cacheHits) / float64(cacheHits+cacheMisses) * 100
	}

	return map[string]interface{}{
		// 基础统计
		"total_submissions":   atomic.LoadInt64(&m.TotalSubmissions),
		"success_submissions": successSubmissions,
		"failed_submissions":  atomic.LoadInt64(&m.FailedSubmissions),

		// 失败分类
		"compile_errors":    atomic.LoadInt64(&m.CompileErrors),
		"runtime_errors":    atomic.LoadInt64(&m.RuntimeErrors),
		"timeout_errors":    atomic.LoadInt64(&m.TimeoutErrors),
		"other_errors":      atomic.LoadInt64(&m.OtherErrors),
		"output_mismatches": atomic.LoadInt64(&m.OutputMismatches),
		"generation_calls":  atomic.LoadInt64(&m.GenerationCalls),
		"generation_errors": atomic.LoadInt64(&m.GenerationErrors),

		// 性能指标
		"avg_bench_time_ms": avgBenchTime,
		"max_bench_time_ms": atomic.LoadInt64(&m.MaxBenchTime),
		"min_bench_time_ms": minBenchTime,

		// 并发统计
		"current_active":      atomic.LoadInt32(&m.CurrentActive),
		"max_concurrent":      atomic.LoadInt32(&m.MaxConcurrent),
		"queue_wait_count":    atomic.LoadInt64(&m.QueueWaitCount),
		"queue_timeout_count": atomic.LoadInt64(&m.QueueTimeoutCount),

		// 缓存统计
		"cache_hits":     cacheHits,
		"cache_misses":   cacheMisses,
		"cache_hit_rate": cacheHitRate,

		// 运行时间
		"uptime_seconds": time.Since(startTime).Seconds(),
		"start_time":     startTime.Format(time.RFC3339),
	}
}

// Reset 重置统计（谨慎使用）
func (m *BenchMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range []*int64{
		&m.TotalSubmissions, &m.SuccessSubmissions, &m.FailedSubmissions,
		&m.CompileErrors, &m.RuntimeErrors, &m.TimeoutErrors, &m.OtherErrors,
		&m.GenerationCalls, &m.GenerationErrors, &m.OutputMismatches,
		&m.TotalBenchTime, &m.MaxBenchTime,
		&m.QueueWaitCount, &m.QueueTimeoutCount, &m.CacheHits, &m.CacheMisses,
	} {
		atomic.StoreInt64(p, 0)
	}
	atomic.StoreInt64(&m.MinBenchTime, math.MaxInt64)
	atomic.StoreInt32(&m.MaxConcurrent, 0)
	m.StartTime = time.Now()
}
