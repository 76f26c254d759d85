package toolchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/model"
	"github.com/shroukgbr89/parallel/internal/task/workspace"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"
)

// LaunchSpec 启动产物所需的命令
type LaunchSpec struct {
	Path string
	Args []string
	Env  []string // 追加到当前进程环境变量之后
	Dir  string
}

// String 返回可读的命令行，用于日志
func (s LaunchSpec) String() string {
	return fmt.Sprintf("%s %v", s.Path, s.Args)
}

// Adapter 将某种语言的源码变为可运行产物，并描述如何按指定并行度启动
type Adapter interface {
	Language() model.Language
	// Compiles Prepare 是否会编译或检查源码，为 false 时执行不经过编译状态
	Compiles() bool
	// Prepare 编译或检查源码；编译失败返回携带编译器诊断的 CompileError
	Prepare(ctx context.Context, ws *workspace.Handle) (model.Artifact, error)
	// LaunchCommand 返回以 degree 并行度运行产物的命令
	LaunchCommand(artifact model.Artifact, degree int) (LaunchSpec, error)
}

// Registry 语言到适配器的映射
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.Language]Adapter
}

// NewRegistry 按配置创建包含 Python 和 C++ 适配器的注册表
func NewRegistry(cfg *conf.ToolchainConfig) *Registry {
	r := &Registry{adapters: make(map[model.Language]Adapter)}
	r.Register(NewPythonAdapter(cfg))
	r.Register(NewCppAdapter(cfg))
	return r
}

// Register 注册适配器，同语言的旧适配器会被替换
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Language()] = a
}

// Lookup 查找语言对应的适配器
func (r *Registry) Lookup(lang model.Language) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[lang]
	if !ok {
		return nil, perrors.NewUnsupportedLanguageError(string(lang))
	}
	return a, nil
}

func validateDegree(degree int) error {
	if degree < constants.MinParallelism || degree > constants.MaxParallelism {
		return perrors.New(perrors.ErrCodeInvalidParallelism,
			fmt.Sprintf("并行度无效: %d (应在%d-%d之间)", degree, constants.MinParallelism, constants.MaxParallelism))
	}
	return nil
}

func degreeEnv(degree int) string {
	return fmt.Sprintf("%s=%d", constants.EnvParallelism, degree)
}
