package v1

// AssistReq 转换/解释/优化请求
type AssistReq struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"required"`
}

// AssistResp 文本生成结果
type AssistResp struct {
	Output string `json:"output"`
}

// DetectReq 语言识别请求
type DetectReq struct {
	Code     string `json:"code"`
	Filename string `json:"filename"`
}

// DetectResp 语言识别结果，识别失败时 language 为空
type DetectResp struct {
	Language    string `json:"language"`
	DisplayName string `json:"displayName"`
	Detected    bool   `json:"detected"`
}
