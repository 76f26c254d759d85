package model

import "time"

// Leg 对比中的一侧
type Leg string

const (
	LegSerial   Leg = "serial"
	LegParallel Leg = "parallel"
)

// ResourceSample 某一时刻子进程树的资源读数
type ResourceSample struct {
	Offset      time.Duration `json:"offset"`       // 距离进程启动的时间
	CPUSeconds  float64       `json:"cpu_seconds"`  // 进程树累计 CPU 时间
	CPUPercent  float64       `json:"cpu_percent"`  // 上一采样间隔内的 CPU 使用率（多核可超过100）
	MemoryBytes uint64        `json:"memory_bytes"` // 进程树常驻内存总和
}

// ExecutionResult 单次执行结果，创建后不再修改
type ExecutionResult struct {
	RequestID            string           `json:"request_id"`
	Language             Language         `json:"language"`
	ParallelismDegree    int              `json:"parallelism_degree"`
	ExecutionTimeSeconds float64          `json:"execution_time_seconds"`
	PeakCPU              float64          `json:"peak_cpu"`
	PeakMemoryMB         float64          `json:"peak_memory_mb"`
	CPUTimeSeconds       float64          `json:"cpu_time_seconds"` // 内核统计的用户态+内核态时间
	MaxRSSMB             float64          `json:"max_rss_mb"`       // 内核统计的最大常驻内存
	Stdout               string           `json:"stdout"`
	Stderr               string           `json:"stderr,omitempty"`
	Samples              []ResourceSample `json:"samples,omitempty"`
}

// ComparisonResult 串行/并行两侧的对比结果
type ComparisonResult struct {
	ID           int64           `json:"id"`
	Language     Language        `json:"language"`
	Cores        int             `json:"cores"`
	Serial       ExecutionResult `json:"serial"`
	Parallel     ExecutionResult `json:"parallel"`
	Speedup      float64         `json:"speedup"`
	OutputsMatch bool            `json:"outputs_match"`
	OutputDiff   string          `json:"output_diff,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Speedup 计算加速比，并行耗时为0时返回0
func Speedup(serial, parallel ExecutionResult) float64 {
	if parallel.ExecutionTimeSeconds <= 0 {
		return 0
	}
	return serial.ExecutionTimeSeconds / parallel.ExecutionTimeSeconds
}
