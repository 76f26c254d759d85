package handler

import (
	"github.com/shroukgbr89/parallel/api"
	v1 "github.com/shroukgbr89/parallel/api/bench/v1"
	"github.com/shroukgbr89/parallel/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConvertHandler 串行代码转并行代码
func (h *Handler) ConvertHandler(c *gin.Context) {
	h.assistHandler(c, service.AssistConvert)
}

// ExplainHandler 解释如何并行化
func (h *Handler) ExplainHandler(c *gin.Context) {
	h.assistHandler(c, service.AssistExplain)
}

// OptimizeHandler 优化并行代码
func (h *Handler) OptimizeHandler(c *gin.Context) {
	h.assistHandler(c, service.AssistOptimize)
}

func (h *Handler) assistHandler(c *gin.Context, kind service.AssistKind) {
	var req v1.AssistReq
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Error("assist bind json failed", zap.String("kind", string(kind)), zap.Error(err))
		api.ResponseErrorWithMsg(c, api.CodeInvalidParam, err.Error())
		return
	}

	resp, err := h.assist.Assist(c.Request.Context(), kind, &req)
	if err != nil {
		api.ResponseFromError(c, err)
		return
	}
	api.ResponseSuccess(c, resp)
}

// DetectHandler 识别代码语言
func (h *Handler) DetectHandler(c *gin.Context) {
	var req v1.DetectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.ResponseErrorWithMsg(c, api.CodeInvalidParam, err.Error())
		return
	}
	if req.Code == "" && req.Filename == "" {
		api.ResponseErrorWithMsg(c, api.CodeInvalidParam, "code 和 filename 不能同时为空")
		return
	}
	api.ResponseSuccess(c, service.Detect(&req))
}
