package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/model"
	"github.com/shroukgbr89/parallel/internal/task/cgroup"
	"github.com/shroukgbr89/parallel/internal/task/sampler"
	"github.com/shroukgbr89/parallel/internal/task/toolchain"
	"github.com/shroukgbr89/parallel/internal/task/workspace"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"go.uber.org/zap"
)

// Runner 执行单个请求：准备工作区、编译、启动、采样、回收
type Runner struct {
	registry   *toolchain.Registry
	workspaces *workspace.Manager
	sampler    *sampler.Sampler
	cfg        *conf.RunnerConfig
	samplerCfg *conf.SamplerConfig
}

// New 创建执行器
func New(registry *toolchain.Registry, workspaces *workspace.Manager, cfg *conf.RunnerConfig, samplerCfg *conf.SamplerConfig) *Runner {
	return &Runner{
		registry:   registry,
		workspaces: workspaces,
		sampler:    sampler.New(samplerCfg.Interval),
		cfg:        cfg,
		samplerCfg: samplerCfg,
	}
}

// StateHook 状态变化回调
type StateHook func(state model.RunState, err error)

type runOptions struct {
	onState  StateHook
	onSample sampler.Observer
}

// Option 单次执行的可选参数
type Option func(*runOptions)

// WithStateHook 订阅状态变化
func WithStateHook(hook StateHook) Option {
	return func(o *runOptions) { o.onState = hook }
}

// WithSampleObserver 订阅实时采样点
func WithSampleObserver(observer sampler.Observer) Option {
	return func(o *runOptions) { o.onSample = observer }
}

// Timeout 计算请求的实际超时：未指定时使用默认值，且不超过上限
func (r *Runner) Timeout(requested time.Duration) time.Duration {
	return resolveTimeout(requested, r.cfg.DefaultTimeout, r.cfg.MaxTimeout)
}

// Run 执行请求，成功时返回不可变的执行结果
func (r *Runner) Run(ctx context.Context, req model.ExecutionRequest, opts ...Option) (*model.ExecutionResult, error) {
	o := &runOptions{}
	for _, opt := range opts {
		opt(o)
	}

	// 语言和并行度校验先于任何文件操作
	adapter, err := r.registry.Lookup(req.Language)
	if err != nil {
		return nil, err
	}
	if req.ParallelismDegree < constants.MinParallelism || req.ParallelismDegree > constants.MaxParallelism {
		return nil, perrors.New(perrors.ErrCodeInvalidParallelism,
			fmt.Sprintf("并行度无效: %d (应在%d-%d之间)", req.ParallelismDegree, constants.MinParallelism, constants.MaxParallelism))
	}

	log := zap.L().With(
		zap.String("request_id", req.ID),
		zap.String("language", req.Language.String()),
		zap.Int("degree", req.ParallelismDegree),
	)
	transition := func(state model.RunState, err error) {
		if err != nil {
			log.Warn("执行状态变化", zap.String("state", string(state)), zap.Error(err))
		} else {
			log.Debug("执行状态变化", zap.String("state", string(state)))
		}
		if o.onState != nil {
			o.onState(state, err)
		}
	}
	fail := func(err error) (*model.ExecutionResult, error) {
		transition(model.StateFailed, err)
		return nil, err
	}

	ws, err := r.workspaces.Allocate(req.Language)
	if err != nil {
		return fail(err)
	}
	defer ws.Release()

	if err := ws.Write(req.SourceCode); err != nil {
		return fail(err)
	}
	transition(model.StatePrepared, nil)

	if adapter.Compiles() {
		transition(model.StateCompiling, nil)
	}
	artifact, err := adapter.Prepare(ctx, ws)
	if err != nil {
		return fail(err)
	}

	spec, err := adapter.LaunchCommand(artifact, req.ParallelismDegree)
	if err != nil {
		return fail(err)
	}

	timeout := r.Timeout(req.Timeout)
	result, err := r.execute(ctx, req, spec, timeout, o, transition)
	if err != nil {
		return fail(err)
	}

	transition(model.StateCompleted, nil)
	log.Info("执行完成",
		zap.Float64("time", result.ExecutionTimeSeconds),
		zap.Float64("peak_cpu", result.PeakCPU),
		zap.Float64("peak_memory_mb", result.PeakMemoryMB),
	)
	return result, nil
}

// execute 启动进程并等待结束，超时或取消时杀死整个进程组
func (r *Runner) execute(ctx context.Context, req model.ExecutionRequest, spec toolchain.LaunchSpec, timeout time.Duration,
	o *runOptions, transition StateHook) (*model.ExecutionResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newLimitedBuffer(r.cfg.MaxOutputSize)
	stderr := newLimitedBuffer(constants.MaxErrorSize)

	cmd := exec.CommandContext(runCtx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = constants.KillWaitDelay

	cg := r.newCgroup(req.ID)
	if cg != nil {
		defer func() {
			if err := cg.Cleanup(); err != nil {
				zap.L().Warn("清理 cgroup 失败", zap.String("path", cg.Path()), zap.Error(err))
			}
		}()
	}
	cleanup, err := configureCommand(cmd, cg)
	if err != nil {
		return nil, perrors.NewIOError("配置子进程失败", err)
	}
	defer cleanup()

	if err := cmd.Start(); err != nil {
		return nil, perrors.NewExecutionError(-1, err.Error(), err)
	}
	start := time.Now()
	transition(model.StateRunning, nil)

	var probe sampler.Probe = sampler.NewProcessTreeProbe(cmd.Process.Pid)
	if cg != nil {
		probe = cg
	}
	session := r.sampler.Start(runCtx, probe, o.onSample)

	// 主进程退出即计时结束，不等待后代进程关闭输出管道
	pid := cmd.Process.Pid
	exited := waitExit(pid) == nil
	var (
		elapsed time.Duration
		samples []model.ResourceSample
	)
	if exited {
		elapsed = time.Since(start)
		samples = session.Stop()
		killProcessGroup(pid)
	}
	waitErr := cmd.Wait()
	if !exited {
		elapsed = time.Since(start)
		samples = session.Stop()
		killProcessGroup(pid)
	}
	if cg != nil {
		// 进程组之外逃逸的后代进程
		if err := cg.Kill(); err != nil {
			zap.L().Warn("结束 cgroup 内进程失败", zap.String("id", req.ID), zap.Error(err))
		}
	}

	if errors.Is(waitErr, exec.ErrWaitDelay) {
		// 进程已正常退出，只是脱离进程组的后代进程仍占用输出管道
		waitErr = nil
	}
	if waitErr != nil && runCtx.Err() != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, perrors.NewTimeoutError(fmt.Sprintf("执行超过 %s", timeout))
		}
		return nil, perrors.Wrap(perrors.ErrCodeCanceled, "执行被取消", runCtx.Err())
	}
	if waitErr != nil {
		exitStatus := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitStatus = exitErr.ExitCode()
		}
		return nil, perrors.NewExecutionError(exitStatus, sanitizeError(stderr.String()), waitErr)
	}

	if stdout.Truncated() {
		zap.L().Warn("标准输出超过上限，已截断", zap.String("id", req.ID), zap.Int64("limit", r.cfg.MaxOutputSize))
	}
	peak := session.Peak()
	cpuSeconds, maxRSS := rusage(cmd.ProcessState)
	return &model.ExecutionResult{
		RequestID:            req.ID,
		Language:             req.Language,
		ParallelismDegree:    req.ParallelismDegree,
		ExecutionTimeSeconds: elapsed.Seconds(),
		PeakCPU:              peak.CPU,
		PeakMemoryMB:         peak.MemoryMB,
		CPUTimeSeconds:       cpuSeconds,
		MaxRSSMB:             float64(maxRSS) / 1024 / 1024,
		Stdout:               stdout.String(),
		Stderr:               stderr.String(),
		Samples:              samples,
	}, nil
}

// newCgroup cgroup 模式下为本次执行创建独立 cgroup，失败时回退到进程树采样
func (r *Runner) newCgroup(id string) *cgroup.Manager {
	if r.samplerCfg.Mode != constants.SamplerModeCgroup {
		return nil
	}
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	cg, err := cgroup.New(r.samplerCfg.CgroupParent, id)
	if err != nil {
		zap.L().Warn("创建 cgroup 失败，回退到进程树采样", zap.Error(err))
		return nil
	}
	return cg
}
