package api

import (
	"context"
	"net/http"
	"time"

	chatHandler "recipe-chat-agent/internal/api/handlers/chat"
	"recipe-chat-agent/internal/api/handlers/health"
	"recipe-chat-agent/internal/api/middleware"
	chatcore "recipe-chat-agent/internal/core/chat"
	"recipe-chat-agent/internal/core/pipeline"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 請求體大小限制 (1MB，聊天表單不需要更多)
	maxBodySize = 1 << 20
)

// indexPage 簡易聊天頁面
const indexPage = `<!DOCTYPE html>
<html lang="de">
<head><meta charset="utf-8"><title>RezeptBot</title></head>
<body>
<h1>RezeptBot</h1>
<form id="chat">
  <input type="text" name="username" placeholder="Name">
  <input type="text" name="message" placeholder="Nachricht oder Rezept-Link" size="60">
  <button type="submit">Senden</button>
</form>
<pre id="log"></pre>
<script>
document.getElementById('chat').addEventListener('submit', async (e) => {
  e.preventDefault();
  const form = new FormData(e.target);
  const log = document.getElementById('log');
  log.textContent += '> ' + form.get('message') + '\n';
  const res = await fetch('/chat', {method: 'POST', body: new URLSearchParams(form)});
  const data = await res.json();
  log.textContent += (data.response || data.error || '') + '\n\n';
});
</script>
</body>
</html>`

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, router *chatcore.Router, p *pipeline.Pipeline) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	engine := gin.New()

	// 註冊基礎中間件
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())
	engine.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	engine.Use(middleware.BodySizeLimit(maxBodySize))

	// 請求去重
	engine.Use(middleware.Deduplication(cfg))

	// 限流
	if cfg.RateLimit.Enabled {
		engine.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 全局中間件：設置超時和服務
	timeout := cfg.OpenRouter.Timeout + cfg.Scraper.Timeout
	engine.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("pipeline", p)
		c.Set("chat_history", router.History())

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeout),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
			c.Abort()
		}
	})

	// 健康檢查路由
	engine.GET("/health", health.HealthCheck)
	engine.GET("/ready", health.ReadinessCheck)
	engine.GET("/live", health.LivenessCheck)

	// 聊天頁面與訊息路由
	engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
	})
	engine.POST("/chat", chatHandler.HandleChat(router))

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", maxBodySize),
	)

	return engine
}
