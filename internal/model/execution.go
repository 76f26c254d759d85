package model

import "time"

// RunState 单次执行的状态
type RunState string

const (
	StatePrepared  RunState = "PREPARED"
	StateCompiling RunState = "COMPILING"
	StateRunning   RunState = "RUNNING"
	StateCompleted RunState = "COMPLETED"
	StateFailed    RunState = "FAILED"
)

// ExecutionRequest 一次代码执行请求，提交后不可修改
type ExecutionRequest struct {
	ID                string        `json:"id"`
	SourceCode        string        `json:"source_code"`
	Language          Language      `json:"language"`
	ParallelismDegree int           `json:"parallelism_degree"` // 并行度（进程数/线程数），>=1
	Timeout           time.Duration `json:"timeout"`            // 为0时使用默认超时
}

// Artifact 可直接运行的产物：解释型语言为源文件本身，编译型语言为可执行文件
type Artifact struct {
	Language   Language `json:"language"`
	Dir        string   `json:"dir"`
	SourcePath string   `json:"source_path"`
	BinaryPath string   `json:"binary_path,omitempty"`
}

// Compiled 是否为编译产物
func (a Artifact) Compiled() bool {
	return a.BinaryPath != ""
}
