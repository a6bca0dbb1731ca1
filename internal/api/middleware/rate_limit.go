package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"recipe-chat-agent/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bucket 單一客戶端的令牌桶
type bucket struct {
	tokens   float64
	lastTime time.Time
}

// RateLimiter 以客戶端 IP 分桶的限流器
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	rate     float64 // 每秒補充的令牌數
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
	}
}

// Allow 檢查指定客戶端是否允許請求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastTime: now}
		rl.buckets[key] = b
	}

	// 按經過時間補充令牌
	b.tokens += now.Sub(b.lastTime).Seconds() * rl.rate
	if b.tokens > rl.capacity {
		b.tokens = rl.capacity
	}
	b.lastTime = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// RateLimit 限流中間件，逐客戶端 IP 計數
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(requests, window)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"code":        common.ErrCodeTooManyRequests,
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
