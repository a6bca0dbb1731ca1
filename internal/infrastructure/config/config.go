package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Chat        ChatConfig       `mapstructure:"chat"`
	Scraper     ScraperConfig    `mapstructure:"scraper"`
	Nextcloud   NextcloudConfig  `mapstructure:"nextcloud"`
	Telegram    TelegramConfig   `mapstructure:"telegram"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Queue       QueueConfig      `mapstructure:"queue"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Image       ImageConfig      `mapstructure:"image"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ChatConfig 對話設定
type ChatConfig struct {
	MaxHistoryLength    int    `mapstructure:"max_history_length"` // 每位使用者保留的對話筆數
	MaxUsers            int    `mapstructure:"max_users"`          // 追蹤的使用者數上限，超過後淘汰最久未活動者
	MaxMessageLength    int    `mapstructure:"max_message_length"` // 單則訊息長度上限，超過由呼叫端截斷
	SaveTerm            string `mapstructure:"save_term"`          // 觸發儲存上一份食譜的關鍵字
	SpecialInstructions string `mapstructure:"special_instructions"`
}

// ScraperConfig 網頁抓取設定
type ScraperConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// NextcloudConfig Nextcloud Cookbook 配置
type NextcloudConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Username     string        `mapstructure:"username"`
	AppPassword  string        `mapstructure:"app_password"`
	RecipeFolder string        `mapstructure:"recipe_folder"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// TelegramConfig Telegram Bot 配置
type TelegramConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Token        string        `mapstructure:"token"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory 或 redis
	RedisAddr       string        `mapstructure:"redis_addr"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig 背景儲存佇列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時沿用環境變數）
	_ = godotenv.Load()

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	viper.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("telegram.token", "TELEBOT_TOKEN")
	viper.BindEnv("telegram.enabled", "TELEBOT_ENABLED")
	viper.BindEnv("nextcloud.base_url", "NEXTCLOUD_URL")
	viper.BindEnv("nextcloud.username", "NEXTCLOUD_USERNAME")
	viper.BindEnv("nextcloud.app_password", "NEXTCLOUD_APP_PASSWORD")
	viper.BindEnv("nextcloud.recipe_folder", "NEXTCLOUD_RECIPE_FOLDER")
	viper.BindEnv("chat.save_term", "SAVE_RECIPE_TERM")
	viper.BindEnv("chat.special_instructions", "LLM_SPECIAL_INSTRUCTIONS")
	viper.BindEnv("server.port", "WEB_APP_PORT")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.backend", "CACHE_BACKEND")
	viper.BindEnv("cache.redis_addr", "CACHE_REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration", "openrouter_api_key:", maskAPIKey(viper.GetString("openrouter.api_key")), "openrouter_model:", viper.GetString("openrouter.model"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "recipe-chat-agent")

	// 伺服器設定
	viper.SetDefault("server.port", 8888)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// OpenRouter 設定
	viper.SetDefault("openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	viper.SetDefault("openrouter.max_tokens", 16384)
	viper.SetDefault("openrouter.temperature", 0.1)
	viper.SetDefault("openrouter.timeout", "120s")

	// 對話設定
	viper.SetDefault("chat.max_history_length", 10)
	viper.SetDefault("chat.max_users", 24)
	viper.SetDefault("chat.max_message_length", 2000)
	viper.SetDefault("chat.save_term", "#speichern")

	// 抓取設定
	viper.SetDefault("scraper.timeout", "60s")
	viper.SetDefault("scraper.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	// Nextcloud 設定
	viper.SetDefault("nextcloud.timeout", "30s")

	// Telegram 設定
	viper.SetDefault("telegram.enabled", true)
	viper.SetDefault("telegram.poll_interval", "5s")

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.redis_addr", "localhost:6379")
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")

	// 佇列設定
	viper.SetDefault("queue.workers", 2)
	viper.SetDefault("queue.max_size", 32)

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	viper.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	// 去重設定
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證對話設定
	if config.Chat.MaxHistoryLength <= 0 {
		return fmt.Errorf("invalid chat max history length")
	}
	if config.Chat.MaxUsers <= 0 {
		return fmt.Errorf("invalid chat max users")
	}
	if config.Chat.SaveTerm == "" {
		return fmt.Errorf("chat save term is required")
	}

	// 驗證 Telegram 設定
	if config.Telegram.Enabled && config.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required when telegram is enabled")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
			return fmt.Errorf("invalid cache backend: %s", config.Cache.Backend)
		}
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證佇列設定
	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	return nil
}
