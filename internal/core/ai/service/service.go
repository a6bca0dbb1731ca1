package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"recipe-chat-agent/internal/core/ai/cache"
	openrouter "recipe-chat-agent/internal/core/service"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"
)

// Cache 緩存後端介面，記憶體與 Redis 實作皆可
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Service AI 服務，統一處理緩存與模型呼叫
type Service struct {
	config     *config.Config
	openRouter *openrouter.OpenRouterService
	cache      Cache
}

// NewService 創建 AI 服務
func NewService(cfg *config.Config, c Cache) *Service {
	return &Service{
		config:     cfg,
		openRouter: openrouter.NewOpenRouterService(cfg),
		cache:      c,
	}
}

// NewCache 依設定選擇緩存後端
func NewCache(cfg *config.Config) (Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewService(&cfg.Cache)
	default:
		return cache.NewManager(cfg), nil
	}
}

// Complete 送出對話並取得回應，結果依請求內容做緩存
func (s *Service) Complete(ctx context.Context, messages []openrouter.Message, responseFormat map[string]interface{}, opts *openrouter.Options) (string, error) {
	key := s.cacheKey(messages, responseFormat)

	// 檢查緩存
	if s.config.Cache.Enabled && s.cache != nil {
		if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
			return val, nil
		}
	}

	content, err := s.openRouter.Complete(ctx, messages, responseFormat, opts)
	if err != nil {
		return "", err
	}

	if s.config.Cache.Enabled && s.cache != nil {
		if err := s.cache.Set(ctx, key, content); err != nil {
			common.LogWarn("快取寫入失敗")
		}
	}

	return content, nil
}

// cacheKey 以模型與完整對話內容產生緩存鍵
func (s *Service) cacheKey(messages []openrouter.Message, responseFormat map[string]interface{}) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00", s.config.OpenRouter.Model)
	for _, m := range messages {
		fmt.Fprintf(h, "%s\x00%s\x00", m.Role, m.Content)
	}
	if responseFormat != nil {
		if encoded, err := common.ToJSON(responseFormat); err == nil {
			fmt.Fprint(h, encoded)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
