package errors

import (
	"errors"
	"fmt"
)

// ErrorCode 错误码类型
type ErrorCode int

const (
	// 系统错误 (1000-1999)
	ErrCodeSystem ErrorCode = 1000 + iota
	ErrCodeInternal
	ErrCodeTimeout
	ErrCodeResourceExhausted
	ErrCodeNotFound
	ErrCodeCanceled
)

const (
	// 参数错误 (2000-2999)
	ErrCodeInvalidParam ErrorCode = 2000 + iota
	ErrCodeMissingParam
	ErrCodeInvalidLanguage
	ErrCodeInvalidParallelism
)

const (
	// 编译错误 (3000-3999)
	ErrCodeCompile ErrorCode = 3000 + iota
	ErrCodeCompilerNotFound
	ErrCodeCompileTimeout
)

const (
	// 运行错误 (4000-4999)
	ErrCodeRuntime ErrorCode = 4000 + iota
	ErrCodeSpawnFailed
	ErrCodeExecutionTimeout
)

const (
	// 存储错误 (5000-5999)
	ErrCodeStorage ErrorCode = 5000 + iota
	ErrCodeIO
	ErrCodeFileNotFound
	ErrCodeFileDownloadFailed
	ErrCodeCacheFailed
	ErrCodeStorageDisabled
)

const (
	// 上游协作方错误 (6000-6999)
	ErrCodeGeneration ErrorCode = 6000 + iota
	ErrCodeGeneratorNotConfigured
)

// JudgeError 执行系统错误
type JudgeError struct {
	Code    ErrorCode
	Message string
	// Detail 编译器/运行时的原始诊断输出，原样返回给调用方
	Detail string
	// ExitStatus 子进程退出码，仅运行错误有效；-1 表示未能启动或被信号终止
	ExitStatus int
	Err        error
}

// Error 实现 error 接口
func (e *JudgeError) Error() string {
	msg := fmt.Sprintf("[%d] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s\n%s", msg, e.Detail)
	}
	return msg
}

// Unwrap 支持错误链
func (e *JudgeError) Unwrap() error {
	return e.Err
}

// New 创建新的错误
func New(code ErrorCode, message string) *JudgeError {
	return &JudgeError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装已有错误
func Wrap(code ErrorCode, message string, err error) *JudgeError {
	return &JudgeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 预定义的错误创建函数

// NewInvalidParamError 创建参数错误
func NewInvalidParamError(param string, reason string) *JudgeError {
	return New(ErrCodeInvalidParam, fmt.Sprintf("参数 %s 无效: %s", param, reason))
}

// NewUnsupportedLanguageError 创建不支持的语言错误
func NewUnsupportedLanguageError(lang string) *JudgeError {
	return New(ErrCodeInvalidLanguage, fmt.Sprintf("不支持的语言: %q", lang))
}

// NewIOError 创建工作区读写错误
func NewIOError(message string, err error) *JudgeError {
	return Wrap(ErrCodeIO, message, err)
}

// NewCompileError 创建编译错误，diagnostic 为编译器输出
func NewCompileError(diagnostic string, err error) *JudgeError {
	e := Wrap(ErrCodeCompile, "编译失败", err)
	e.Detail = diagnostic
	return e
}

// NewExecutionError 创建运行错误
func NewExecutionError(exitStatus int, stderr string, err error) *JudgeError {
	e := Wrap(ErrCodeRuntime, fmt.Sprintf("运行失败 (exit status %d)", exitStatus), err)
	e.Detail = stderr
	e.ExitStatus = exitStatus
	return e
}

// NewTimeoutError 创建超时错误
func NewTimeoutError(operation string) *JudgeError {
	return New(ErrCodeTimeout, fmt.Sprintf("操作超时: %s", operation))
}

// NewResourceExhaustedError 创建资源耗尽错误
func NewResourceExhaustedError(resource string) *JudgeError {
	return New(ErrCodeResourceExhausted, fmt.Sprintf("资源耗尽: %s", resource))
}

// NewGenerationError 创建文本生成协作方错误，保留上游原始信息
func NewGenerationError(err error) *JudgeError {
	return Wrap(ErrCodeGeneration, "文本生成失败", err)
}

// NewStorageError 创建存储错误
func NewStorageError(message string, err error) *JudgeError {
	return Wrap(ErrCodeStorage, message, err)
}

// LegError 标识对比中失败的一侧
type LegError struct {
	Leg string
	Err error
}

func (e *LegError) Error() string {
	return fmt.Sprintf("%s leg failed: %v", e.Leg, e.Err)
}

func (e *LegError) Unwrap() error {
	return e.Err
}

// IsErrorCode 判断错误链中是否包含指定错误码
func IsErrorCode(err error, code ErrorCode) bool {
	var judgeErr *JudgeError
	if errors.As(err, &judgeErr) {
		return judgeErr.Code == code
	}
	return false
}

// GetErrorCode 获取错误码
func GetErrorCode(err error) ErrorCode {
	var judgeErr *JudgeError
	if errors.As(err, &judgeErr) {
		return judgeErr.Code
	}
	return ErrCodeInternal
}

// AsJudgeError 提取错误链中的 JudgeError
func AsJudgeError(err error) (*JudgeError, bool) {
	var judgeErr *JudgeError
	ok := errors.As(err, &judgeErr)
	return judgeErr, ok
}
