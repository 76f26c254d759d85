package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/constants"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"
)

// Generator 文本生成协作方，对服务来说是一个不透明的函数
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func 将普通函数适配为 Generator
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New 按配置创建文本生成客户端
func New(ctx context.Context, cfg *conf.GeneratorConfig) (Generator, error) {
	switch cfg.Provider {
	case constants.GeneratorOllama, constants.GeneratorOpenAI:
		return NewOpenAI(cfg), nil
	case constants.GeneratorAnthropic:
		return NewAnthropic(cfg)
	case constants.GeneratorGemini:
		return NewGemini(ctx, cfg)
	case "":
		return nil, perrors.New(perrors.ErrCodeGeneratorNotConfigured, "未配置文本生成服务")
	default:
		return nil, perrors.New(perrors.ErrCodeGeneratorNotConfigured, fmt.Sprintf("不支持的文本生成服务: %s", cfg.Provider))
	}
}

// withTimeout 为单次生成设置超时
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = constants.GenerateTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func maxTokens(cfg *conf.GeneratorConfig) int64 {
	if cfg.MaxTokens <= 0 {
		return constants.DefaultMaxTokens
	}
	return int64(cfg.MaxTokens)
}
