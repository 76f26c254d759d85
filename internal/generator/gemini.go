package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/shroukgbr89/parallel/internal/conf"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiGenerator Google Gemini 接口
type GeminiGenerator struct {
	client *genai.Client
	cfg    *conf.GeneratorConfig
}

// NewGemini 创建 Gemini 客户端
func NewGemini(ctx context.Context, cfg *conf.GeneratorConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, perrors.New(perrors.ErrCodeGeneratorNotConfigured, "gemini 需要配置 generator.api_key")
	}
	if cfg.Model == "" {
		return nil, perrors.New(perrors.ErrCodeGeneratorNotConfigured, "gemini 需要配置 generator.model")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, perrors.NewGenerationError(err)
	}
	return &GeminiGenerator{client: client, cfg: cfg}, nil
}

// Generate 发送单轮请求，跳过思考块
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens(g.cfg))}

	result, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	if err != nil {
		zap.L().Error("文本生成请求失败", zap.String("provider", "gemini"), zap.Error(err))
		return "", perrors.NewGenerationError(err)
	}

	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", perrors.NewGenerationError(errors.New("no response content returned"))
	}
	return sb.String(), nil
}
