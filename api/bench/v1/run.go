package v1

// RunReq 单次执行请求
type RunReq struct {
	Code      string `json:"code" binding:"required"`
	Language  string `json:"language" binding:"required"`
	Cores     int    `json:"cores"`
	TimeoutMs int64  `json:"timeout_ms"`
}
