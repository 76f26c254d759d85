package service

import (
	"context"
	"fmt"
	"strings"

	v1 "github.com/shroukgbr89/parallel/api/bench/v1"
	"github.com/shroukgbr89/parallel/internal/generator"
	"github.com/shroukgbr89/parallel/internal/model"
	"github.com/shroukgbr89/parallel/internal/task/language"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"go.uber.org/zap"
)

// AssistKind 文本生成的用途
type AssistKind string

const (
	AssistConvert  AssistKind = "convert"
	AssistExplain  AssistKind = "explain"
	AssistOptimize AssistKind = "optimize"
)

// AssistService 代码转换/解释/优化，实际工作交给文本生成服务
type AssistService struct {
	gen     generator.Generator
	metrics *BenchMetrics
}

// NewAssistService gen 为 nil 时所有请求返回未配置错误
func NewAssistService(gen generator.Generator) *AssistService {
	return &AssistService{gen: gen, metrics: GetGlobalMetrics()}
}

// Assist 按用途构造提示词并调用文本生成服务
func (s *AssistService) Assist(ctx context.Context, kind AssistKind, req *v1.AssistReq) (*v1.AssistResp, error) {
	if req == nil || strings.TrimSpace(req.Code) == "" {
		return nil, perrors.New(perrors.ErrCodeMissingParam, "缺少参数 code")
	}
	lang, err := model.ParseLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	prompt, err := BuildPrompt(kind, lang, req.Code)
	if err != nil {
		return nil, err
	}
	if s.gen == nil {
		return nil, perrors.New(perrors.ErrCodeGeneratorNotConfigured, "未配置文本生成服务")
	}

	output, err := s.gen.Generate(ctx, prompt)
	s.metrics.RecordGeneration(err)
	if err != nil {
		zap.L().Warn("文本生成失败", zap.String("kind", string(kind)), zap.Error(err))
		if _, ok := perrors.AsJudgeError(err); ok {
			return nil, err
		}
		return nil, perrors.NewGenerationError(err)
	}
	return &v1.AssistResp{Output: strings.TrimSpace(output)}, nil
}

// BuildPrompt 构造提示词；转换时 Python 使用 MPI、C++ 使用 OpenMP
func BuildPrompt(kind AssistKind, lang model.Language, code string) (string, error) {
	name := lang.DisplayName()
	switch kind {
	case AssistConvert:
		switch lang {
		case model.LanguagePython:
			return fmt.Sprintf("Convert the following Python code to parallel code using MPI. Only return the parallel code without any comments.\n%s", code), nil
		case model.LanguageCpp:
			return fmt.Sprintf("Convert the following C++ code to parallel code using OpenMP. Only return the parallel code.\n%s", code), nil
		}
		return "", perrors.NewUnsupportedLanguageError(lang.String())
	case AssistExplain:
		return fmt.Sprintf("Explain how to parallelize the following %s code and identify the parallelizable sections. Provide a detailed explanation.\n\nCode:\n%s\n\nExplanation:", name, code), nil
	case AssistOptimize:
		return fmt.Sprintf("Optimize the following %s parallel code for better performance. Provide only the optimized code with no additional explanation.\n\nParallel code:\n%s\n\nOptimized parallel %s code:", name, code, name), nil
	default:
		return "", perrors.NewInvalidParamError("kind", string(kind))
	}
}

// Detect 尽力识别语言，失败时 Detected 为 false
func Detect(req *v1.DetectReq) *v1.DetectResp {
	lang, ok := language.Detect(req.Filename, req.Code)
	if !ok {
		return &v1.DetectResp{}
	}
	return &v1.DetectResp{
		Language:    lang.String(),
		DisplayName: lang.DisplayName(),
		Detected:    true,
	}
}
