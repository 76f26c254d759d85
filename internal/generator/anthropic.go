package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/shroukgbr89/parallel/internal/conf"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// AnthropicGenerator Anthropic Messages 接口
type AnthropicGenerator struct {
	client anthropic.Client
	cfg    *conf.GeneratorConfig
}

// NewAnthropic 创建 Anthropic 客户端，必须配置 api_key
func NewAnthropic(cfg *conf.GeneratorConfig, opts ...option.RequestOption) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, perrors.New(perrors.ErrCodeGeneratorNotConfigured, "anthropic 需要配置 generator.api_key")
	}
	if cfg.Model == "" {
		return nil, perrors.New(perrors.ErrCodeGeneratorNotConfigured, "anthropic 需要配置 generator.model")
	}
	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}
	options = append(options, opts...)

	return &AnthropicGenerator{
		client: anthropic.NewClient(options...),
		cfg:    cfg,
	}, nil
}

// Generate 发送单轮消息请求，拼接所有文本块
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: maxTokens(g.cfg),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	}

	message, err := g.client.Messages.New(ctx, params)
	if err != nil {
		zap.L().Error("文本生成请求失败", zap.String("provider", "anthropic"), zap.Error(err))
		return "", perrors.NewGenerationError(err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		sb.WriteString(block.Text)
	}
	if sb.Len() == 0 {
		return "", perrors.NewGenerationError(errors.New("no response content returned"))
	}
	return sb.String(), nil
}
