package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"
)

// dedupCache 記錄最近處理過的訊息指紋
type dedupCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newDedupCache() *dedupCache {
	return &dedupCache{seen: make(map[string]time.Time)}
}

// isDuplicate 檢查指紋是否在視窗內出現過，未出現則記錄
func (d *dedupCache) isDuplicate(fingerprint string, window time.Duration) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.seen[fingerprint]; ok && now.Sub(last) <= window {
		return true
	}
	d.seen[fingerprint] = now
	return false
}

// prune 清除視窗外的舊指紋
func (d *dedupCache) prune(window time.Duration) {
	cutoff := time.Now().Add(-10 * window)

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, t := range d.seen {
		if t.Before(cutoff) {
			delete(d.seen, k)
		}
	}
}

// Deduplication 訊息去重中間件
// 同一位使用者在視窗內重送相同訊息時直接拒絕，避免重複觸發模型呼叫
func Deduplication(cfg *config.Config) gin.HandlerFunc {
	window := time.Second
	if cfg != nil && cfg.DedupWindow > 0 {
		window = cfg.DedupWindow
	}

	cache := newDedupCache()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cache.prune(window)
		}
	}()

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 表單解析結果會快取在 request 上，後續 handler 取用同一份
		message := c.PostForm("message")
		if message == "" {
			c.Next()
			return
		}
		username := c.PostForm("username")

		hash := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s", username, message))
		fingerprint := hex.EncodeToString(hash[:])

		if cache.isDuplicate(fingerprint, window) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Duplicate message",
				"code":  common.ErrCodeTooManyRequests,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
