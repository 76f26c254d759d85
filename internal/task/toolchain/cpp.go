package toolchain

import (
	"context"
	"strconv"

	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/model"
	"github.com/shroukgbr89/parallel/internal/task/compiler"
	"github.com/shroukgbr89/parallel/internal/task/workspace"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"
)

// CppAdapter C++ 源码用 g++ -fopenmp 编译，并行度为 OpenMP 线程数
type CppAdapter struct {
	compiler *compiler.CppCompiler
}

// NewCppAdapter 创建 C++ 适配器
func NewCppAdapter(cfg *conf.ToolchainConfig) *CppAdapter {
	return &CppAdapter{
		compiler: &compiler.CppCompiler{
			GPPPath: cfg.Cpp.Path,
			Flags:   cfg.Cpp.Flags,
			OpenMP:  cfg.Cpp.OpenMP,
			Timeout: cfg.CompileTimeout,
		},
	}
}

func (a *CppAdapter) Language() model.Language {
	return model.LanguageCpp
}

func (a *CppAdapter) Compiles() bool {
	return true
}

// Prepare 在工作区内编译出可执行文件
func (a *CppAdapter) Prepare(ctx context.Context, ws *workspace.Handle) (model.Artifact, error) {
	binary := ws.Path(constants.DefaultExeName)
	if _, err := a.compiler.Compile(ctx, ws.SourcePath, binary); err != nil {
		return model.Artifact{}, err
	}
	return model.Artifact{
		Language:   model.LanguageCpp,
		Dir:        ws.Dir,
		SourcePath: ws.SourcePath,
		BinaryPath: binary,
	}, nil
}

// LaunchCommand 直接运行可执行文件，OMP_NUM_THREADS 设为并行度
func (a *CppAdapter) LaunchCommand(artifact model.Artifact, degree int) (LaunchSpec, error) {
	if err := validateDegree(degree); err != nil {
		return LaunchSpec{}, err
	}
	if !artifact.Compiled() {
		return LaunchSpec{}, perrors.New(perrors.ErrCodeInvalidParam, "C++ 产物未编译")
	}
	return LaunchSpec{
		Path: artifact.BinaryPath,
		Env: []string{
			constants.EnvOMPThreads + "=" + strconv.Itoa(degree),
			degreeEnv(degree),
		},
		Dir: artifact.Dir,
	}, nil
}
