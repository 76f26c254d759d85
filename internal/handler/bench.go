package handler

import (
	"github.com/shroukgbr89/parallel/api"
	v1 "github.com/shroukgbr89/parallel/api/bench/v1"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CompareHandler 串行/并行代码对比
func (h *Handler) CompareHandler(c *gin.Context) {
	var req v1.CompareReq
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Error("compare bind json failed", zap.Error(err))
		api.ResponseErrorWithMsg(c, api.CodeInvalidParam, err.Error())
		return
	}
	zap.L().Info("compare",
		zap.String("language", req.Language),
		zap.Int("cores", req.Cores),
		zap.Int("serial_len", len(req.SerialCode)),
		zap.Int("parallel_len", len(req.ParallelCode)),
	)

	res, err := h.bench.Compare(c.Request.Context(), &req, nil)
	if err != nil {
		zap.L().Error("compare failed", zap.Error(err))
		api.ResponseFromError(c, err)
		return
	}
	api.ResponseSuccess(c, v1.NewCompareResp(res))
}

// RunHandler 单次执行
func (h *Handler) RunHandler(c *gin.Context) {
	var req v1.RunReq
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Error("run bind json failed", zap.Error(err))
		api.ResponseErrorWithMsg(c, api.CodeInvalidParam, err.Error())
		return
	}

	res, err := h.bench.Run(c.Request.Context(), &req)
	if err != nil {
		zap.L().Error("run failed", zap.Error(err))
		api.ResponseFromError(c, err)
		return
	}
	api.ResponseSuccess(c, res)
}

// HistoryHandler 最近的对比记录
func (h *Handler) HistoryHandler(c *gin.Context) {
	var req v1.HistoryReq
	if err := c.ShouldBindQuery(&req); err != nil {
		api.ResponseErrorWithMsg(c, api.CodeInvalidParam, err.Error())
		return
	}

	records, err := h.bench.History(c.Request.Context(), req.Limit)
	if err != nil {
		api.ResponseFromError(c, err)
		return
	}
	resp := make([]*v1.CompareResp, 0, len(records))
	for _, rec := range records {
		resp = append(resp, v1.NewCompareResp(rec))
	}
	api.ResponseSuccess(c, resp)
}
