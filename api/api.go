package api

import (
	"errors"
	"fmt"
	"net/http"

	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"github.com/gin-gonic/gin"
)

/*
{
	"code": 0,       // 业务错误码
	"message": xx,   // 提示信息，失败时包含编译器/运行时的原始诊断
	"data": {},      // 数据
}
*/

type ResponseData[T any] struct {
	Code    ResCode `json:"code"`
	Message string  `json:"message"`
	Data    T       `json:"data"`
}

// ErrorData 失败时附带的上下文
type ErrorData struct {
	Leg        string `json:"leg,omitempty"`
	ExitStatus *int   `json:"exit_status,omitempty"`
}

// ResponseError 返回错误信息
func ResponseError(c *gin.Context, code ResCode) {
	c.JSON(http.StatusOK, &ResponseData[any]{
		Code:    code,
		Message: code.Msg(),
		Data:    nil,
	})
}

// ResponseErrorWithMsg 返回自定义错误信息
func ResponseErrorWithMsg(c *gin.Context, code ResCode, msg string) {
	c.JSON(http.StatusOK, &ResponseData[any]{
		Code:    code,
		Message: msg,
		Data:    nil,
	})
}

// ResponseFromError 根据业务错误返回，诊断信息原样放入 message
func ResponseFromError(c *gin.Context, err error) {
	code, msg, data := ErrorPayload(err)
	c.JSON(http.StatusOK, &ResponseData[*ErrorData]{
		Code:    code,
		Message: msg,
		Data:    data,
	})
}

// ErrorPayload 拆出错误对应的返回码、提示信息和上下文（websocket 推送复用）
func ErrorPayload(err error) (ResCode, string, *ErrorData) {
	code := CodeFromError(err)
	msg := code.Msg()
	var data *ErrorData

	var legErr *perrors.LegError
	if errors.As(err, &legErr) {
		data = &ErrorData{Leg: legErr.Leg}
	}

	if judgeErr, ok := perrors.AsJudgeError(err); ok {
		msg = judgeErr.Message
		if judgeErr.Err != nil && judgeErr.Detail == "" {
			msg = fmt.Sprintf("%s: %v", msg, judgeErr.Err)
		}
		if judgeErr.Detail != "" {
			msg = fmt.Sprintf("%s\n%s", msg, judgeErr.Detail)
		}
		if judgeErr.Code == perrors.ErrCodeRuntime {
			if data == nil {
				data = &ErrorData{}
			}
			status := judgeErr.ExitStatus
			data.ExitStatus = &status
		}
	}
	if data != nil && data.Leg != "" {
		msg = fmt.Sprintf("[%s] %s", data.Leg, msg)
	}
	return code, msg, data
}

// ResponseSuccess 返回成功信息
func ResponseSuccess[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, &ResponseData[T]{
		Code:    CodeSuccess,
		Message: CodeSuccess.Msg(),
		Data:    data,
	})
}
