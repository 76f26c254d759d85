package toolchain

import (
	"context"
	"strconv"

	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/model"
	"github.com/shroukgbr89/parallel/internal/task/compiler"
	"github.com/shroukgbr89/parallel/internal/task/workspace"
)

// PythonAdapter Python 源码直接解释执行，并行度为 MPI 进程数
type PythonAdapter struct {
	python       string
	launcher     string
	launcherFlag string
	checker      compiler.Compiler // 为 nil 时跳过语法检查
}

// NewPythonAdapter 创建 Python 适配器
func NewPythonAdapter(cfg *conf.ToolchainConfig) *PythonAdapter {
	a := &PythonAdapter{
		python:       cfg.Python.Path,
		launcher:     cfg.Python.Launcher,
		launcherFlag: cfg.Python.LauncherFlag,
	}
	if a.python == "" {
		a.python = constants.PythonPath
	}
	if a.launcherFlag == "" {
		a.launcherFlag = constants.MPIProcsFlag
	}
	if cfg.Python.SyntaxCheck {
		a.checker = &compiler.PythonCompiler{PythonPath: a.python, Timeout: cfg.CompileTimeout}
	}
	return a
}

func (a *PythonAdapter) Language() model.Language {
	return model.LanguagePython
}

// Compiles 只有开启语法检查时才有编译阶段
func (a *PythonAdapter) Compiles() bool {
	return a.checker != nil
}

// Prepare 无需编译，产物就是源文件
func (a *PythonAdapter) Prepare(ctx context.Context, ws *workspace.Handle) (model.Artifact, error) {
	artifact := model.Artifact{
		Language:   model.LanguagePython,
		Dir:        ws.Dir,
		SourcePath: ws.SourcePath,
	}
	if a.checker != nil {
		if _, err := a.checker.Compile(ctx, ws.SourcePath, ""); err != nil {
			return model.Artifact{}, err
		}
	}
	return artifact, nil
}

// LaunchCommand mpiexec -n <degree> python3 main.py；未配置启动器时直接运行解释器
func (a *PythonAdapter) LaunchCommand(artifact model.Artifact, degree int) (LaunchSpec, error) {
	if err := validateDegree(degree); err != nil {
		return LaunchSpec{}, err
	}
	env := []string{degreeEnv(degree)}
	if a.launcher == "" {
		return LaunchSpec{
			Path: a.python,
			Args: []string{artifact.SourcePath},
			Env:  env,
			Dir:  artifact.Dir,
		}, nil
	}
	return LaunchSpec{
		Path: a.launcher,
		Args: []string{a.launcherFlag, strconv.Itoa(degree), a.python, artifact.SourcePath},
		Env:  env,
		Dir:  artifact.Dir,
	}, nil
}
