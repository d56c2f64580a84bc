// Package app 組裝食譜生成服務的各元件，供 HTTP 服務與 CLI 共用
package app

import (
	"fmt"

	"ai-recipe-engine/internal/core/ai/cache"
	"ai-recipe-engine/internal/core/ai/groq"
	"ai-recipe-engine/internal/core/ai/queue"
	"ai-recipe-engine/internal/core/recipe"
	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
)

// App 已組裝的元件
type App struct {
	Config  *config.Config
	Store   cache.Store
	Queue   *queue.Manager
	Client  *groq.Client
	Service *recipe.Service
}

// New 依設定建立快取、生成 client 與食譜服務
func New(cfg *config.Config) (*App, error) {
	store, err := cache.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache store: %w", err)
	}

	client := groq.NewClient(groq.ConfigFrom(cfg))
	if cfg.Groq.APIKey == "" {
		common.LogWarn("GROQ_API_KEY 未設定，快取未命中的請求將會失敗")
	}

	q := queue.NewManager(cfg.Queue)
	svc := recipe.NewService(store, client,
		recipe.WithQueue(q),
		recipe.WithCoalescing(cfg.AI.CoalesceInflight),
		recipe.WithSharedTimeout(cfg.Groq.Timeout),
	)

	common.LogInfo("載入設定",
		zap.String("groq_key", common.MaskAPIKey(cfg.Groq.APIKey)),
		zap.String("groq_model", cfg.Groq.Model),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Int("queue_workers", cfg.Queue.Workers),
		zap.Bool("coalesce_inflight", cfg.AI.CoalesceInflight),
	)

	return &App{
		Config:  cfg,
		Store:   store,
		Queue:   q,
		Client:  client,
		Service: svc,
	}, nil
}

// Close 依序關閉隊列、client 與快取
func (a *App) Close() error {
	a.Queue.Close()
	if err := a.Client.Close(); err != nil {
		common.LogWarn("Failed to close generation client", zap.Error(err))
	}
	return a.Store.Close()
}
