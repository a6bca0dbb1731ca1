package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Message 對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options 單次請求的模型參數
type Options struct {
	Temperature float64
	MaxTokens   int
	Stream      bool
}

// OpenRouterService OpenRouter 服務
type OpenRouterService struct {
	config *config.Config
	client *resty.Client
}

// NewOpenRouterService 創建 OpenRouter 服務
func NewOpenRouterService(cfg *config.Config) *OpenRouterService {
	client := resty.New().
		SetBaseURL("https://openrouter.ai/api/v1").
		SetTimeout(cfg.OpenRouter.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.OpenRouter.APIKey)).
		SetHeader("HTTP-Referer", "https://recipe-chat-agent.local").
		SetHeader("X-Title", "Recipe Chat Agent")

	return &OpenRouterService{
		config: cfg,
		client: client,
	}
}

// Complete 送出一組對話消息並取得回應文字
// responseFormat 非 nil 時要求結構化輸出（回應需為符合 schema 的 JSON）
func (s *OpenRouterService) Complete(ctx context.Context, messages []Message, responseFormat map[string]interface{}, opts *Options) (string, error) {
	if s.config.OpenRouter.APIKey == "" {
		return "", common.NewConfigError("OPENROUTER_API_KEY is not set")
	}

	// 構建請求
	req := map[string]interface{}{
		"model":      s.config.OpenRouter.Model,
		"messages":   messages,
		"max_tokens": s.config.OpenRouter.MaxTokens,
	}
	if opts != nil {
		req["temperature"] = opts.Temperature
		if opts.MaxTokens > 0 {
			req["max_tokens"] = opts.MaxTokens
		}
	}
	if responseFormat != nil {
		req["response_format"] = responseFormat
	}

	common.LogDebug("OpenRouter 請求",
		zap.String("model", s.config.OpenRouter.Model),
		zap.Int("messages", len(messages)),
		zap.Bool("structured_output", responseFormat != nil),
	)

	// 發送請求
	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	common.LogAICall(s.config.OpenRouter.Model, time.Since(start), err)

	if err != nil {
		return "", common.NewTransportError("openrouter", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", common.NewTransportError("openrouter",
			fmt.Errorf("API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	// 解析回應
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", common.NewTransportError("openrouter",
			fmt.Errorf("failed to parse response: %w", err))
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", common.NewTransportError("openrouter", fmt.Errorf("empty response"))
	}

	return result.Choices[0].Message.Content, nil
}
