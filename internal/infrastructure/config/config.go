package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 快取後端
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
	CacheDriverSQLite = "sqlite"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Groq        GroqConfig      `mapstructure:"groq"`
	AI          AIConfig        `mapstructure:"ai"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Redis       RedisConfig     `mapstructure:"redis"`
	SQLite      SQLiteConfig    `mapstructure:"sqlite"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogDir      string          `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// GroqConfig 文字生成 provider 設定（OpenAI 相容 API）
type GroqConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	JSONMode    bool          `mapstructure:"json_mode"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AIConfig 生成流程設定
type AIConfig struct {
	CoalesceInflight bool `mapstructure:"coalesce_inflight"`
	MaxIngredients   int  `mapstructure:"max_ingredients"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Driver string `mapstructure:"driver"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SQLiteConfig SQLite 設定
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// QueueConfig 上游請求隊列設定，Workers 為 0 表示不限制
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

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只使用環境變數與預設值
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"groq.api_key":        "GROQ_API_KEY",
		"groq.base_url":       "GROQ_BASE_URL",
		"groq.model":          "GROQ_MODEL",
		"groq.max_tokens":     "MODEL_MAX_TOKENS",
		"groq.timeout":        "GROQ_TIMEOUT",
		"cache.driver":        "CACHE_DRIVER",
		"redis.addr":          "REDIS_ADDR",
		"redis.password":      "REDIS_PASSWORD",
		"sqlite.path":         "SQLITE_PATH",
		"rate_limit.enabled":  "RATE_LIMIT_ENABLED",
		"rate_limit.requests": "RATE_LIMIT_REQUESTS",
		"rate_limit.window":   "RATE_LIMIT_WINDOW",
		"dedup_window":        "DEDUP_WINDOW",
		"log_level":           "LOG_LEVEL",
		"log_dir":             "LOG_DIR",
		"server.port":         "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Cache.Driver = strings.ToLower(strings.TrimSpace(config.Cache.Driver))

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "ai-recipe-engine")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "90s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// Groq 設定
	v.SetDefault("groq.api_key", "")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.1-8b-instant")
	v.SetDefault("groq.temperature", 0.7)
	v.SetDefault("groq.max_tokens", 2048)
	v.SetDefault("groq.json_mode", true)
	v.SetDefault("groq.timeout", "60s")

	// AI 設定
	v.SetDefault("ai.coalesce_inflight", false)
	v.SetDefault("ai.max_ingredients", 30)

	// 快取設定
	v.SetDefault("cache.driver", CacheDriverMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "ai:recipe:")
	v.SetDefault("sqlite.path", "data/recipe_cache.db")

	// 隊列設定
	v.SetDefault("queue.workers", 0)
	v.SetDefault("queue.max_size", 100)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid server max body bytes")
	}

	// 驗證 provider 設定（金鑰缺少時於請求階段回報）
	if config.Groq.BaseURL == "" {
		return fmt.Errorf("groq base url is required")
	}
	if config.Groq.Model == "" {
		return fmt.Errorf("groq model is required")
	}
	if config.Groq.Temperature < 0 || config.Groq.Temperature > 2 {
		return fmt.Errorf("invalid groq temperature %.2f", config.Groq.Temperature)
	}
	if config.Groq.MaxTokens <= 0 {
		return fmt.Errorf("invalid groq max tokens")
	}
	if config.Groq.Timeout <= 0 {
		return fmt.Errorf("invalid groq timeout")
	}

	if config.AI.MaxIngredients <= 0 {
		return fmt.Errorf("invalid ai max ingredients")
	}

	// 驗證快取設定
	switch config.Cache.Driver {
	case CacheDriverMemory:
	case CacheDriverRedis:
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for redis cache driver")
		}
	case CacheDriverSQLite:
		if config.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required for sqlite cache driver")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", config.Cache.Driver)
	}

	// 驗證隊列設定
	if config.Queue.Workers < 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.Workers > 0 && config.Queue.MaxSize < 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("invalid rate limit requests")
		}
		if config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit window")
		}
	}

	return nil
}
