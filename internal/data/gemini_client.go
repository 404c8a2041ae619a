package data

import (
	"context"
	"fmt"

	"vidociki/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"google.golang.org/genai"
)

// defaultGeminiModel 默认分析模型
const defaultGeminiModel = "gemini-1.5-flash"

// GeminiAnalyzer Gemini 视频分析客户端（实现 biz.VideoAnalyzer）
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
	log    *log.Helper
}

// NewGeminiAnalyzer 创建 Gemini 分析客户端
func NewGeminiAnalyzer(c *conf.Bootstrap, logger log.Logger) (*GeminiAnalyzer, error) {
	if c.Bot == nil || c.Bot.GeminiApiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  c.Bot.GeminiApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := c.Bot.GeminiModel
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiAnalyzer{
		client: client,
		model:  model,
		log:    log.NewHelper(logger),
	}, nil
}

// Analyze 将视频字节与提示词一起发给模型，返回文本报告
func (g *GeminiAnalyzer) Analyze(ctx context.Context, video []byte, mimeType, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(video, mimeType),
		}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return result.Text(), nil
}
