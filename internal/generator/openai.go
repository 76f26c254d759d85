package generator

import (
	"context"
	"errors"

	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/constants"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAIGenerator 兼容 OpenAI 接口的服务，默认指向本地 Ollama
type OpenAIGenerator struct {
	client openai.Client
	cfg    *conf.GeneratorConfig
}

// NewOpenAI 创建 OpenAI 兼容客户端
func NewOpenAI(cfg *conf.GeneratorConfig, opts ...option.RequestOption) *OpenAIGenerator {
	baseURL := cfg.BaseURL
	if baseURL == "" && cfg.Provider != constants.GeneratorOpenAI {
		baseURL = constants.DefaultOllamaBaseURL
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Ollama 不校验密钥，但请求头不能为空
		apiKey = constants.GeneratorOllama
	}

	options := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	options = append(options, opts...)

	return &OpenAIGenerator{
		client: openai.NewClient(options...),
		cfg:    cfg,
	}
}

// Generate 发送单轮对话请求
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	model := g.cfg.Model
	if model == "" {
		model = constants.DefaultOllamaModel
	}
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(model),
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		MaxTokens: openai.Int(maxTokens(g.cfg)),
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		zap.L().Error("文本生成请求失败", zap.String("provider", g.cfg.Provider), zap.Error(err))
		return "", perrors.NewGenerationError(err)
	}
	if len(completion.Choices) == 0 {
		return "", perrors.NewGenerationError(errors.New("no choices returned"))
	}
	return completion.Choices[0].Message.Content, nil
}
