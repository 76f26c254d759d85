package api

import (
	perrors "github.com/shroukgbr89/parallel/pkg/errors"
)

// ResCode 定义返回码类型
type ResCode int64

const (
	CodeSuccess          ResCode = 0
	CodeInvalidParam     ResCode = 4000
	CodeUnsupportedLang  ResCode = 4001
	CodeInvalidCores     ResCode = 4002
	CodeCompileError     ResCode = 4030
	CodeExecutionError   ResCode = 4031
	CodeExecutionTimeout ResCode = 4032
	CodeNotFound         ResCode = 4040

	CodeNeedLogin    ResCode = 4100
	CodeInvalidToken ResCode = 4200

	CodeServerBusy      ResCode = 5000
	CodeInternalError   ResCode = 5001
	CodeQueueFull       ResCode = 5030
	CodeStorageError    ResCode = 5040
	CodeGenerationError ResCode = 5050
	CodeNotConfigured   ResCode = 5051
)

var codeMsgMap = map[ResCode]string{
	CodeSuccess:          "success",
	CodeInvalidParam:     "请求参数错误",
	CodeUnsupportedLang:  "不支持的语言",
	CodeInvalidCores:     "并行度无效",
	CodeCompileError:     "编译失败",
	CodeExecutionError:   "运行失败",
	CodeExecutionTimeout: "运行超时",
	CodeNotFound:         "资源不存在",
	CodeServerBusy:       "服务繁忙",
	CodeInternalError:    "服务内部错误",
	CodeQueueFull:        "执行队列已满，请稍后重试",
	CodeStorageError:     "存储服务错误",
	CodeGenerationError:  "文本生成服务错误",
	CodeNotConfigured:    "服务未配置",

	CodeNeedLogin:    "需要登录",
	CodeInvalidToken: "无效的token",
}

func (c ResCode) Msg() string {
	msg, ok := codeMsgMap[c]
	if !ok {
		msg = codeMsgMap[CodeServerBusy]
	}
	return msg
}

// CodeFromError 将业务错误映射为返回码
func CodeFromError(err error) ResCode {
	switch perrors.GetErrorCode(err) {
	case perrors.ErrCodeInvalidParam, perrors.ErrCodeMissingParam:
		return CodeInvalidParam
	case perrors.ErrCodeInvalidLanguage:
		return CodeUnsupportedLang
	case perrors.ErrCodeInvalidParallelism:
		return CodeInvalidCores
	case perrors.ErrCodeCompile, perrors.ErrCodeCompilerNotFound, perrors.ErrCodeCompileTimeout:
		return CodeCompileError
	case perrors.ErrCodeRuntime, perrors.ErrCodeSpawnFailed:
		return CodeExecutionError
	case perrors.ErrCodeTimeout, perrors.ErrCodeExecutionTimeout:
		return CodeExecutionTimeout
	case perrors.ErrCodeResourceExhausted:
		return CodeQueueFull
	case perrors.ErrCodeNotFound, perrors.ErrCodeFileNotFound:
		return CodeNotFound
	case perrors.ErrCodeStorage, perrors.ErrCodeIO, perrors.ErrCodeFileDownloadFailed, perrors.ErrCodeCacheFailed:
		return CodeStorageError
	case perrors.ErrCodeGeneration:
		return CodeGenerationError
	case perrors.ErrCodeGeneratorNotConfigured, perrors.ErrCodeStorageDisabled:
		return CodeNotConfigured
	default:
		return CodeInternalError
	}
}
