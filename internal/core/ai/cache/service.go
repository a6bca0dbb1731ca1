package cache

import (
	"context"
	"fmt"

	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// Service Redis 緩存服務
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewService 創建 Redis 緩存服務
func NewService(cfg *config.CacheConfig) (*Service, error) {
	if !cfg.Enabled {
		return &Service{config: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	if !s.config.Enabled || s.client == nil {
		return "", common.ErrCacheDisabled
	}

	value, err := s.client.Get(ctx, s.namespacedKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	return value, nil
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, key, value string) error {
	if !s.config.Enabled || s.client == nil {
		return nil
	}

	if err := s.client.Set(ctx, s.namespacedKey(key), value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// Close 關閉 Redis 連接
func (s *Service) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// namespacedKey 生成緩存鍵
func (s *Service) namespacedKey(key string) string {
	return fmt.Sprintf("ai:response:%s", key)
}
