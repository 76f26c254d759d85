package v1

import "github.com/shroukgbr89/parallel/internal/model"

// CompareReq 串行/并行代码对比请求，字段名与原前端保持一致
type CompareReq struct {
	SerialCode   string `json:"serialCode"`
	ParallelCode string `json:"parallelCode"`
	Language     string `json:"language" binding:"required"`
	Cores        int    `json:"cores"`
	TimeoutMs    int64  `json:"timeout_ms"`

	// 源码也可以从对象存储读取
	Bucket         string `json:"bucket"`
	SerialObject   string `json:"serialObject"`
	ParallelObject string `json:"parallelObject"`
}

// CompareResp 对比结果
type CompareResp struct {
	ID           int64   `json:"id,string"`
	Language     string  `json:"language"`
	Cores        int     `json:"cores"`
	SerialTime   float64 `json:"serialTime"`
	ParallelTime float64 `json:"parallelTime"`
	SerialCpu    float64 `json:"serialCpu"`
	ParallelCpu  float64 `json:"parallelCpu"`
	SerialMem    float64 `json:"serialMem"`
	ParallelMem  float64 `json:"parallelMem"`
	Speedup      float64 `json:"speedup"`
	OutputsMatch bool    `json:"outputsMatch"`
	OutputDiff   string  `json:"outputDiff,omitempty"`

	SerialOutput   string `json:"serialOutput"`
	ParallelOutput string `json:"parallelOutput"`
}

// NewCompareResp 由对比结果构造响应
func NewCompareResp(res *model.ComparisonResult) *CompareResp {
	return &CompareResp{
		ID:             res.ID,
		Language:       res.Language.String(),
		Cores:          res.Cores,
		SerialTime:     res.Serial.ExecutionTimeSeconds,
		ParallelTime:   res.Parallel.ExecutionTimeSeconds,
		SerialCpu:      res.Serial.PeakCPU,
		ParallelCpu:    res.Parallel.PeakCPU,
		SerialMem:      res.Serial.PeakMemoryMB,
		ParallelMem:    res.Parallel.PeakMemoryMB,
		Speedup:        res.Speedup,
		OutputsMatch:   res.OutputsMatch,
		OutputDiff:     res.OutputDiff,
		SerialOutput:   res.Serial.Stdout,
		ParallelOutput: res.Parallel.Stdout,
	}
}

// HistoryReq 历史记录查询
type HistoryReq struct {
	Limit int `form:"limit"`
}
