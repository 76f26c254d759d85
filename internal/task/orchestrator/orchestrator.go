package orchestrator

import (
	"context"
	"time"

	"github.com/shroukgbr89/parallel/internal/model"
	"github.com/shroukgbr89/parallel/internal/task/result"
	"github.com/shroukgbr89/parallel/internal/task/runner"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor 执行单个请求，由 runner.Runner 实现
type Executor interface {
	Run(ctx context.Context, req model.ExecutionRequest, opts ...runner.Option) (*model.ExecutionResult, error)
}

// Orchestrator 并发执行串行/并行两侧并汇总对比结果
type Orchestrator struct {
	executor   Executor
	comparator *result.Comparator
}

// New 创建对比编排器，输出比较忽略空白差异
func New(executor Executor) *Orchestrator {
	return &Orchestrator{
		executor:   executor,
		comparator: result.NewComparator(false),
	}
}

type compareOptions struct {
	legOptions func(leg model.Leg) []runner.Option
}

// CompareOption 对比的可选参数
type CompareOption func(*compareOptions)

// WithLegOptions 为每一侧附加执行参数（如实时采样回调）
func WithLegOptions(fn func(leg model.Leg) []runner.Option) CompareOption {
	return func(o *compareOptions) { o.legOptions = fn }
}

// Compare 同时执行两侧，两侧使用各自的工作区；任一侧失败时返回 *errors.LegError
func (o *Orchestrator) Compare(ctx context.Context, serialReq, parallelReq model.ExecutionRequest, opts ...CompareOption) (*model.ComparisonResult, error) {
	if serialReq.Language != parallelReq.Language {
		return nil, perrors.NewInvalidParamError("language", "串行与并行代码必须使用同一语言")
	}

	co := &compareOptions{}
	for _, opt := range opts {
		opt(co)
	}
	legOpts := func(leg model.Leg) []runner.Option {
		if co.legOptions == nil {
			return nil
		}
		return co.legOptions(leg)
	}

	var (
		serialRes, parallelRes *model.ExecutionResult
		serialErr, parallelErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		serialRes, serialErr = o.executor.Run(gctx, serialReq, legOpts(model.LegSerial)...)
		return serialErr
	})
	g.Go(func() error {
		parallelRes, parallelErr = o.executor.Run(gctx, parallelReq, legOpts(model.LegParallel)...)
		return parallelErr
	})
	// 各侧的错误单独记录，这里只用于等待两侧结束
	_ = g.Wait()

	if err := o.failure(ctx, serialErr, parallelErr); err != nil {
		zap.L().Warn("对比失败", zap.Error(err))
		return nil, err
	}

	res := &model.ComparisonResult{
		Language:     serialReq.Language,
		Cores:        parallelReq.ParallelismDegree,
		Serial:       *serialRes,
		Parallel:     *parallelRes,
		Speedup:      model.Speedup(*serialRes, *parallelRes),
		OutputsMatch: o.comparator.Compare(serialRes.Stdout, parallelRes.Stdout),
		CreatedAt:    time.Now(),
	}
	if !res.OutputsMatch {
		res.OutputDiff = o.comparator.Diff(serialRes.Stdout, parallelRes.Stdout)
	}
	return res, nil
}

// failure 选出需要报告的错误：优先报告自身失败的一侧（两侧都失败时报告串行侧），
// 因另一侧失败而被取消的一侧不会被当作原因
func (o *Orchestrator) failure(ctx context.Context, serialErr, parallelErr error) error {
	ownFailure := func(err error) bool {
		if err == nil {
			return false
		}
		return !(perrors.IsErrorCode(err, perrors.ErrCodeCanceled) && ctx.Err() == nil)
	}

	switch {
	case ownFailure(serialErr):
		return &perrors.LegError{Leg: string(model.LegSerial), Err: serialErr}
	case ownFailure(parallelErr):
		return &perrors.LegError{Leg: string(model.LegParallel), Err: parallelErr}
	case serialErr != nil:
		return &perrors.LegError{Leg: string(model.LegSerial), Err: serialErr}
	case parallelErr != nil:
		return &perrors.LegError{Leg: string(model.LegParallel), Err: parallelErr}
	}
	return nil
}
