package service

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	v1 "github.com/shroukgbr89/parallel/api/bench/v1"
	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/model"
	"github.com/shroukgbr89/parallel/internal/task/orchestrator"
	"github.com/shroukgbr89/parallel/internal/task/runner"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"
	"github.com/shroukgbr89/parallel/pkg/snowflake"

	"go.uber.org/zap"
)

// SourceStore 对象存储中的源码（本地磁盘缓存），hit 表示命中缓存
type SourceStore interface {
	Load(ctx context.Context, bucket, object string) (content string, hit bool, err error)
}

// HistoryStore 对比历史记录
type HistoryStore interface {
	Save(ctx context.Context, res *model.ComparisonResult) error
	ListRecent(ctx context.Context, limit int) ([]*model.ComparisonResult, error)
}

// BenchService 单机执行/对比服务，限制同时运行的任务数
type BenchService struct {
	executor     orchestrator.Executor
	orchestrator *orchestrator.Orchestrator
	sources      SourceStore
	history      HistoryStore
	metrics      *BenchMetrics
	nextID       func() (int64, error)

	semaphore    chan struct{}
	queueTimeout time.Duration

	activeMu sync.Mutex
	active   int
}

// BenchOption 服务的可选依赖
type BenchOption func(*BenchService)

// WithSourceStore 允许从对象存储读取源码
func WithSourceStore(sources SourceStore) BenchOption {
	return func(s *BenchService) { s.sources = sources }
}

// WithHistoryStore 保存对比历史
func WithHistoryStore(history HistoryStore) BenchOption {
	return func(s *BenchService) { s.history = history }
}

// WithMetrics 使用指定的统计实例（默认全局实例）
func WithMetrics(metrics *BenchMetrics) BenchOption {
	return func(s *BenchService) { s.metrics = metrics }
}

// WithIDGenerator 替换对比ID生成器（默认 sonyflake）
func WithIDGenerator(next func() (int64, error)) BenchOption {
	return func(s *BenchService) { s.nextID = next }
}

// NewBenchService 创建服务
func NewBenchService(executor orchestrator.Executor, cfg *conf.BenchConfig, opts ...BenchOption) *BenchService {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < constants.MinConcurrent {
		maxConcurrent = constants.DefaultMaxConcurrent
	}
	queueTimeout := cfg.QueueTimeout
	if queueTimeout <= 0 {
		queueTimeout = constants.MaxQueueWaitTimeout
	}

	s := &BenchService{
		executor:     executor,
		orchestrator: orchestrator.New(executor),
		metrics:      GetGlobalMetrics(),
		nextID:       snowflake.NextID,
		semaphore:    make(chan struct{}, maxConcurrent),
		queueTimeout: queueTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compare 执行串行/并行两侧并返回对比结果。串行侧并行度固定为1，并行侧使用 req.Cores
func (s *BenchService) Compare(ctx context.Context, req *v1.CompareReq, legOpts func(leg model.Leg) []runner.Option) (*model.ComparisonResult, error) {
	// 1. 参数校验
	if req == nil {
		return nil, perrors.New(perrors.ErrCodeMissingParam, "请求为空")
	}
	lang, err := model.ParseLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	timeout, err := requestTimeout(req.TimeoutMs)
	if err != nil {
		return nil, err
	}
	cores := req.Cores
	if cores == 0 {
		cores = runtime.NumCPU()
	}
	if cores < constants.MinParallelism || cores > constants.MaxParallelism {
		return nil, perrors.New(perrors.ErrCodeInvalidParallelism,
			fmt.Sprintf("并行度无效: %d (应在%d-%d之间)", cores, constants.MinParallelism, constants.MaxParallelism))
	}

	// 2. 并发控制：获取执行槽位
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// 3. 准备源码（内联或对象存储），两侧内容在运行前全部读出
	serialCode, err := s.resolveSource(ctx, "serialCode", req.SerialCode, req.Bucket, req.SerialObject)
	if err != nil {
		return nil, err
	}
	parallelCode, err := s.resolveSource(ctx, "parallelCode", req.ParallelCode, req.Bucket, req.ParallelObject)
	if err != nil {
		return nil, err
	}

	id, err := s.nextID()
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, "生成对比ID失败", err)
	}

	s.metrics.RecordSubmission()
	s.metrics.RecordActiveIncrease()
	defer s.metrics.RecordActiveDecrease()

	zap.L().Info("开始对比任务",
		zap.Int64("id", id),
		zap.String("language", lang.String()),
		zap.Int("cores", cores),
		zap.Int("active", s.activeCount()),
	)

	serialReq := model.ExecutionRequest{
		ID:                legID(id, model.LegSerial),
		SourceCode:        serialCode,
		Language:          lang,
		ParallelismDegree: 1,
		Timeout:           timeout,
	}
	parallelReq := model.ExecutionRequest{
		ID:                legID(id, model.LegParallel),
		SourceCode:        parallelCode,
		Language:          lang,
		ParallelismDegree: cores,
		Timeout:           timeout,
	}

	var compareOpts []orchestrator.CompareOption
	if legOpts != nil {
		compareOpts = append(compareOpts, orchestrator.WithLegOptions(legOpts))
	}
	start := time.Now()
	res, err := s.orchestrator.Compare(ctx, serialReq, parallelReq, compareOpts...)
	if err != nil {
		s.metrics.RecordFailure(err)
		zap.L().Warn("对比任务失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	res.ID = id
	s.metrics.RecordSuccess(time.Since(start), res.OutputsMatch)

	// 历史记录失败不影响本次结果
	if s.history != nil {
		if err := s.history.Save(ctx, res); err != nil {
			zap.L().Warn("保存对比记录失败", zap.Int64("id", id), zap.Error(err))
		}
	}

	zap.L().Info("对比任务完成",
		zap.Int64("id", id),
		zap.Float64("serial_time", res.Serial.ExecutionTimeSeconds),
		zap.Float64("parallel_time", res.Parallel.ExecutionTimeSeconds),
		zap.Float64("speedup", res.Speedup),
		zap.Bool("outputs_match", res.OutputsMatch),
	)
	return res, nil
}

// Run 单次执行，未指定并行度时为1
func (s *BenchService) Run(ctx context.Context, req *v1.RunReq, opts ...runner.Option) (*model.ExecutionResult, error) {
	if req == nil {
		return nil, perrors.New(perrors.ErrCodeMissingParam, "请求为空")
	}
	lang, err := model.ParseLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	if req.Code == "" {
		return nil, perrors.New(perrors.ErrCodeMissingParam, "缺少参数 code")
	}
	if err := checkCodeSize("code", req.Code); err != nil {
		return nil, err
	}
	timeout, err := requestTimeout(req.TimeoutMs)
	if err != nil {
		return nil, err
	}
	cores := req.Cores
	if cores == 0 {
		cores = constants.DefaultParallelism
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	id, err := s.nextID()
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, "生成任务ID失败", err)
	}

	s.metrics.RecordSubmission()
	s.metrics.RecordActiveIncrease()
	defer s.metrics.RecordActiveDecrease()

	start := time.Now()
	res, err := s.executor.Run(ctx, model.ExecutionRequest{
		ID:                strconv.FormatInt(id, 10),
		SourceCode:        req.Code,
		Language:          lang,
		ParallelismDegree: cores,
		Timeout:           timeout,
	}, opts...)
	if err != nil {
		s.metrics.RecordFailure(err)
		return nil, err
	}
	s.metrics.RecordSuccess(time.Since(start), true)
	return res, nil
}

// History 返回最近的对比记录
func (s *BenchService) History(ctx context.Context, limit int) ([]*model.ComparisonResult, error) {
	if s.history == nil {
		return nil, perrors.New(perrors.ErrCodeStorageDisabled, "未启用历史记录存储")
	}
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	if limit > constants.MaxHistoryLimit {
		limit = constants.MaxHistoryLimit
	}
	records, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, perrors.NewStorageError("读取对比记录失败", err)
	}
	return records, nil
}

// acquire 获取执行槽位，超过排队时间返回资源耗尽错误
func (s *BenchService) acquire(ctx context.Context) (func(), error) {
	release := func() {
		s.activeMu.Lock()
		s.active--
		s.activeMu.Unlock()
		<-s.semaphore
	}
	take := func() {
		s.activeMu.Lock()
		s.active++
		s.activeMu.Unlock()
	}

	select {
	case s.semaphore <- struct{}{}:
		take()
		return release, nil
	default:
	}

	s.metrics.RecordQueueWait()
	timer := time.NewTimer(s.queueTimeout)
	defer timer.Stop()

	select {
	case s.semaphore <- struct{}{}:
		take()
		return release, nil
	case <-ctx.Done():
		return nil, perrors.Wrap(perrors.ErrCodeCanceled, "请求已取消", ctx.Err())
	case <-timer.C:
		s.metrics.RecordQueueTimeout()
		return nil, perrors.NewResourceExhaustedError("执行队列已满，请稍后重试")
	}
}

func (s *BenchService) activeCount() int {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return s.active
}

// resolveSource 内联代码优先，否则从对象存储读取内容
func (s *BenchService) resolveSource(ctx context.Context, field, code, bucket, object string) (string, error) {
	if code != "" {
		if err := checkCodeSize(field, code); err != nil {
			return "", err
		}
		return code, nil
	}
	if object == "" {
		return "", perrors.New(perrors.ErrCodeMissingParam, fmt.Sprintf("缺少参数 %s", field))
	}
	if s.sources == nil {
		return "", perrors.New(perrors.ErrCodeStorageDisabled, "未启用对象存储")
	}
	if bucket == "" {
		return "", perrors.New(perrors.ErrCodeMissingParam, "缺少参数 bucket")
	}

	content, hit, err := s.sources.Load(ctx, bucket, object)
	if err != nil {
		if _, ok := perrors.AsJudgeError(err); ok {
			return "", err
		}
		return "", perrors.Wrap(perrors.ErrCodeFileDownloadFailed, fmt.Sprintf("获取源码失败: %s/%s", bucket, object), err)
	}
	if hit {
		s.metrics.RecordCacheHit()
	} else {
		s.metrics.RecordCacheMiss()
	}
	if content == "" {
		return "", perrors.NewInvalidParamError(field, fmt.Sprintf("对象 %s/%s 为空", bucket, object))
	}
	if err := checkCodeSize(field, content); err != nil {
		return "", err
	}
	return content, nil
}

// Stats 获取执行队列信息（用于监控）
func (s *BenchService) Stats() map[string]interface{} {
	return map[string]interface{}{
		"active":          s.activeCount(),
		"max_concurrent":  cap(s.semaphore),
		"available_slots": s.AvailableSlots(),
		"queue_timeout":   s.queueTimeout.String(),
	}
}

// AvailableSlots 当前空闲槽位数
func (s *BenchService) AvailableSlots() int {
	return cap(s.semaphore) - len(s.semaphore)
}

func requestTimeout(ms int64) (time.Duration, error) {
	if ms < 0 {
		return 0, perrors.NewInvalidParamError("timeout_ms", "不能为负数")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func checkCodeSize(field, code string) error {
	if len(code) > constants.MaxCodeSize {
		return perrors.NewInvalidParamError(field, fmt.Sprintf("代码长度超过 %d 字节", constants.MaxCodeSize))
	}
	return nil
}

func legID(id int64, leg model.Leg) string {
	return fmt.Sprintf("%d-%s", id, leg)
}
