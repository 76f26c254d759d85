package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	v1 "github.com/shroukgbr89/parallel/api/bench/v1"
	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/model"
	"github.com/shroukgbr89/parallel/internal/task/runner"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	mu   sync.Mutex
	reqs []model.ExecutionRequest
	run  func(ctx context.Context, req model.ExecutionRequest) (*model.ExecutionResult, error)
}

func (f *fakeExecutor) Run(ctx context.Context, req model.ExecutionRequest, _ ...runner.Option) (*model.ExecutionResult, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.run != nil {
		return f.run(ctx, req)
	}
	return &model.ExecutionResult{
		RequestID:            req.ID,
		Language:             req.Language,
		ParallelismDegree:    req.ParallelismDegree,
		ExecutionTimeSeconds: 1.0 / float64(req.ParallelismDegree),
		Stdout:               "42\n",
	}, nil
}

func (f *fakeExecutor) requests() []model.ExecutionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ExecutionRequest(nil), f.reqs...)
}

type fakeSources struct {
	cached  map[string]string
	fetched []string
	err     error
}

func (f *fakeSources) Load(_ context.Context, bucket, object string) (string, bool, error) {
	if content, ok := f.cached[bucket+"/"+object]; ok {
		return content, true, nil
	}
	if f.err != nil {
		return "", false, f.err
	}
	f.fetched = append(f.fetched, bucket+"/"+object)
	return "# fetched " + object + "\n", false, nil
}

type memoryHistory struct {
	mu      sync.Mutex
	records []*model.ComparisonResult
	limit   int
}

func (h *memoryHistory) Save(_ context.Context, res *model.ComparisonResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, res)
	return nil
}

func (h *memoryHistory) ListRecent(_ context.Context, limit int) ([]*model.ComparisonResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.limit = limit
	return h.records, nil
}

func newTestService(exec *fakeExecutor, opts ...BenchOption) (*BenchService, *BenchMetrics) {
	metrics := NewBenchMetrics()
	var id int64
	opts = append([]BenchOption{
		WithMetrics(metrics),
		WithIDGenerator(func() (int64, error) {
			id++
			return id, nil
		}),
	}, opts...)
	cfg := &conf.BenchConfig{MaxConcurrent: 2, QueueTimeout: 50 * time.Millisecond}
	return NewBenchService(exec, cfg, opts...), metrics
}

func TestBenchService_Compare(t *testing.T) {
	executor := &fakeExecutor{}
	history := &memoryHistory{}
	svc, metrics := newTestService(executor, WithHistoryStore(history))

	res, err := svc.Compare(context.Background(), &v1.CompareReq{
		SerialCode:   "print(42)",
		ParallelCode: "print(42)",
		Language:     "Python",
		Cores:        4,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.ID)
	assert.Equal(t, model.LanguagePython, res.Language)
	assert.Equal(t, 4, res.Cores)
	assert.Equal(t, 1, res.Serial.ParallelismDegree)
	assert.Equal(t, 4, res.Parallel.ParallelismDegree)
	assert.InDelta(t, 4.0, res.Speedup, 1e-9)
	assert.True(t, res.OutputsMatch)

	reqs := executor.requests()
	require.Len(t, reqs, 2)
	ids := []string{reqs[0].ID, reqs[1].ID}
	assert.ElementsMatch(t, []string{"1-serial", "1-parallel"}, ids)

	require.Len(t, history.records, 1)
	assert.Equal(t, int64(1), history.records[0].ID)
	assert.Equal(t, int64(1), metrics.SuccessSubmissions)
	assert.Equal(t, int32(0), metrics.CurrentActive)
}

func TestBenchService_CompareDefaults(t *testing.T) {
	executor := &fakeExecutor{}
	svc, _ := newTestService(executor)

	res, err := svc.Compare(context.Background(), &v1.CompareReq{
		SerialCode:   "int main(){}",
		ParallelCode: "int main(){}",
		Language:     "C++",
		TimeoutMs:    1500,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), res.Cores)
	for _, req := range executor.requests() {
		assert.Equal(t, 1500*time.Millisecond, req.Timeout)
		assert.Equal(t, model.LanguageCpp, req.Language)
	}
}

func TestBenchService_CompareInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  *v1.CompareReq
		code perrors.ErrorCode
	}{
		{
			name: "空请求",
			req:  nil,
			code: perrors.ErrCodeMissingParam,
		},
		{
			name: "不支持的语言",
			req:  &v1.CompareReq{SerialCode: "a", ParallelCode: "b", Language: "Java"},
			code: perrors.ErrCodeInvalidLanguage,
		},
		{
			name: "缺少并行代码",
			req:  &v1.CompareReq{SerialCode: "a", Language: "python"},
			code: perrors.ErrCodeMissingParam,
		},
		{
			name: "负的并行度",
			req:  &v1.CompareReq{SerialCode: "a", ParallelCode: "b", Language: "python", Cores: -2},
			code: perrors.ErrCodeInvalidParallelism,
		},
		{
			name: "负的超时",
			req:  &v1.CompareReq{SerialCode: "a", ParallelCode: "b", Language: "python", TimeoutMs: -1},
			code: perrors.ErrCodeInvalidParam,
		},
		{
			name: "未启用对象存储",
			req:  &v1.CompareReq{SerialCode: "a", Bucket: "src", ParallelObject: "p.py", Language: "python"},
			code: perrors.ErrCodeStorageDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &fakeExecutor{}
			svc, _ := newTestService(executor)
			_, err := svc.Compare(context.Background(), tt.req, nil)
			require.Error(t, err)
			assert.True(t, perrors.IsErrorCode(err, tt.code), "got %v", err)
			assert.Empty(t, executor.requests())
		})
	}
}

func TestBenchService_CompareFromObjectStore(t *testing.T) {
	executor := &fakeExecutor{}
	sources := &fakeSources{cached: map[string]string{"src/serial.py": "print('serial')\n"}}
	svc, metrics := newTestService(executor, WithSourceStore(sources))

	_, err := svc.Compare(context.Background(), &v1.CompareReq{
		Language:       "python",
		Cores:          2,
		Bucket:         "src",
		SerialObject:   "serial.py",
		ParallelObject: "parallel.py",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/parallel.py"}, sources.fetched)
	assert.Equal(t, int64(1), metrics.CacheHits)
	assert.Equal(t, int64(1), metrics.CacheMisses)
	// 源码内容在运行前读出，不依赖缓存文件
	codes := map[int]string{}
	for _, req := range executor.requests() {
		codes[req.ParallelismDegree] = req.SourceCode
	}
	assert.Equal(t, map[int]string{1: "print('serial')\n", 2: "# fetched parallel.py\n"}, codes)
}

func TestBenchService_CompareObjectStoreFailure(t *testing.T) {
	executor := &fakeExecutor{}
	sources := &fakeSources{err: errors.New("connection refused")}
	svc, _ := newTestService(executor, WithSourceStore(sources))

	_, err := svc.Compare(context.Background(), &v1.CompareReq{
		Language:       "python",
		SerialCode:     "print(1)",
		Bucket:         "src",
		ParallelObject: "parallel.py",
	}, nil)
	require.Error(t, err)
	assert.True(t, perrors.IsErrorCode(err, perrors.ErrCodeFileDownloadFailed))
	assert.Empty(t, executor.requests())
}

func TestBenchService_CompareLegFailure(t *testing.T) {
	executor := &fakeExecutor{
		run: func(ctx context.Context, req model.ExecutionRequest) (*model.ExecutionResult, error) {
			if req.ParallelismDegree > 1 {
				return nil, perrors.NewCompileError("main.cpp:3: error: expected ';'", errors.New("exit status 1"))
			}
			return &model.ExecutionResult{RequestID: req.ID}, nil
		},
	}
	history := &memoryHistory{}
	svc, metrics := newTestService(executor, WithHistoryStore(history))

	_, err := svc.Compare(context.Background(), &v1.CompareReq{
		SerialCode: "a", ParallelCode: "b", Language: "cpp", Cores: 2,
	}, nil)
	require.Error(t, err)

	var legErr *perrors.LegError
	require.ErrorAs(t, err, &legErr)
	assert.Equal(t, string(model.LegParallel), legErr.Leg)
	assert.Equal(t, int64(1), metrics.CompileErrors)
	assert.Empty(t, history.records)
}

func TestBenchService_QueueTimeout(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	executor := &fakeExecutor{
		run: func(ctx context.Context, req model.ExecutionRequest) (*model.ExecutionResult, error) {
			started <- struct{}{}
			<-block
			return &model.ExecutionResult{RequestID: req.ID}, nil
		},
	}
	metrics := NewBenchMetrics()
	svc := NewBenchService(executor, &conf.BenchConfig{MaxConcurrent: 1, QueueTimeout: 50 * time.Millisecond},
		WithMetrics(metrics), WithIDGenerator(func() (int64, error) { return 7, nil }))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background(), &v1.RunReq{Code: "print(1)", Language: "python"})
		done <- err
	}()
	<-started
	assert.Equal(t, 0, svc.AvailableSlots())

	_, err := svc.Run(context.Background(), &v1.RunReq{Code: "print(2)", Language: "python"})
	require.Error(t, err)
	assert.True(t, perrors.IsErrorCode(err, perrors.ErrCodeResourceExhausted))
	assert.Equal(t, int64(1), metrics.QueueWaitCount)
	assert.Equal(t, int64(1), metrics.QueueTimeoutCount)

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, svc.AvailableSlots())
}

func TestBenchService_QueueCanceled(t *testing.T) {
	svc := NewBenchService(&fakeExecutor{}, &conf.BenchConfig{MaxConcurrent: 1, QueueTimeout: time.Minute},
		WithMetrics(NewBenchMetrics()))
	release, err := svc.acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.acquire(ctx)
	require.Error(t, err)
	assert.True(t, perrors.IsErrorCode(err, perrors.ErrCodeCanceled))
}

func TestBenchService_Run(t *testing.T) {
	executor := &fakeExecutor{}
	svc, metrics := newTestService(executor)

	res, err := svc.Run(context.Background(), &v1.RunReq{Code: "print(42)", Language: "py"})
	require.NoError(t, err)
	assert.Equal(t, "1", res.RequestID)
	assert.Equal(t, constants.DefaultParallelism, res.ParallelismDegree)
	assert.Equal(t, int64(1), metrics.SuccessSubmissions)

	_, err = svc.Run(context.Background(), &v1.RunReq{Language: "py"})
	assert.True(t, perrors.IsErrorCode(err, perrors.ErrCodeMissingParam))
}

func TestBenchService_History(t *testing.T) {
	svc, _ := newTestService(&fakeExecutor{})
	_, err := svc.History(context.Background(), 10)
	assert.True(t, perrors.IsErrorCode(err, perrors.ErrCodeStorageDisabled))

	history := &memoryHistory{}
	svc, _ = newTestService(&fakeExecutor{}, WithHistoryStore(history))

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"默认条数", 0, constants.DefaultHistoryLimit},
		{"指定条数", 5, 5},
		{"超过上限", 100000, constants.MaxHistoryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.History(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, history.limit)
		})
	}
}

func TestBenchService_Stats(t *testing.T) {
	svc, _ := newTestService(&fakeExecutor{})
	stats := svc.Stats()
	assert.Equal(t, 2, stats["max_concurrent"])
	assert.Equal(t, 2, stats["available_slots"])
	assert.Equal(t, 0, stats["active"])
}
