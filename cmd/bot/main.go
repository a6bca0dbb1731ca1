package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-chat-agent/internal/api"
	"recipe-chat-agent/internal/bot"
	aiservice "recipe-chat-agent/internal/core/ai/service"
	"recipe-chat-agent/internal/core/chat"
	"recipe-chat-agent/internal/core/cookbook"
	imagesvc "recipe-chat-agent/internal/core/image"
	"recipe-chat-agent/internal/core/pipeline"
	"recipe-chat-agent/internal/core/scraper"
	"recipe-chat-agent/internal/core/search"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.Bool("telegram_enabled", cfg.Telegram.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	// 初始化快取
	cacheBackend, err := aiservice.NewCache(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if closer, ok := cacheBackend.(io.Closer); ok {
		defer closer.Close()
	}

	// 初始化服務
	aiSvc := aiservice.NewService(cfg, cacheBackend)
	scraperSvc := scraper.NewScraper(cfg)
	imageSvc := imagesvc.NewService(cfg.Image.MaxSizeBytes)
	fileStore := cookbook.NewFileStore(cfg.Nextcloud.RecipeFolder, imageSvc)
	cookbookClient := cookbook.NewClient(cfg, fileStore)

	// 初始化擷取管線與背景儲存
	p := pipeline.NewPipeline(cfg, scraperSvc, aiSvc, cookbookClient)
	p.Start()
	defer p.Close()

	// 初始化對話服務
	chatAgent := chat.NewAgent(cfg, aiSvc)
	searchAgent := search.NewAgent(cfg, search.NewDuckDuckGo(cfg), scraperSvc, aiSvc)

	// Telegram 與網頁各自維護對話歷史
	botRouter := chat.NewRouter(cfg, chatAgent, p, chat.NewHistory(cfg.Chat.MaxHistoryLength, cfg.Chat.MaxUsers))
	botRouter.SetSearchAgent(searchAgent)
	webRouter := chat.NewRouter(cfg, chatAgent, p, chat.NewHistory(cfg.Chat.MaxHistoryLength, cfg.Chat.MaxUsers))
	webRouter.SetSearchAgent(searchAgent)

	// 設置路由
	engine := api.SetupRouter(cfg, webRouter, p)

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 啟動 Telegram 機器人
	botCtx, botCancel := context.WithCancel(context.Background())
	defer botCancel()
	if cfg.Telegram.Enabled {
		tgBot, err := bot.New(cfg, botRouter)
		if err != nil {
			common.LogFatal("Failed to initialize telegram bot", zap.Error(err))
		}
		go tgBot.Run(botCtx)
	}

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 先停止接收 Telegram 訊息
	botCancel()

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
