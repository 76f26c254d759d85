package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"go.uber.org/zap"
)

// Compiler 编译器接口，diagnostic 为编译器原始输出
type Compiler interface {
	Compile(ctx context.Context, codePath, exePath string) (diagnostic string, err error)
}

// run 在超时限制内执行编译命令，合并返回 stdout/stderr
func run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	if timeout <= 0 || timeout > constants.MaxCompileTimeout {
		timeout = constants.MaxCompileTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := exec.LookPath(name); err != nil {
		return "", perrors.Wrap(perrors.ErrCodeCompilerNotFound, fmt.Sprintf("命令不存在: %s", name), err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if len(args) > 0 {
		cmd.Dir = filepath.Dir(args[len(args)-1])
	}
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if err == nil {
		return output.String(), nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return output.String(), perrors.NewTimeoutError("编译")
	}
	if ctx.Err() != nil {
		return output.String(), perrors.Wrap(perrors.ErrCodeCanceled, "编译被取消", ctx.Err())
	}

	diagnostic := output.String()
	if diagnostic == "" {
		diagnostic = err.Error()
	}
	if len(diagnostic) > constants.MaxErrorSize {
		diagnostic = diagnostic[:constants.MaxErrorSize]
	}
	return diagnostic, perrors.NewCompileError(diagnostic, err)
}

// logResult 记录编译结果
func logResult(kind, codePath string, diagnostic string, err error) {
	if err != nil {
		zap.L().Warn(kind+"失败",
			zap.String("code_path", codePath),
			zap.String("error", diagnostic),
			zap.Error(err),
		)
		return
	}
	zap.L().Info(kind+"成功", zap.String("code_path", codePath))
}
