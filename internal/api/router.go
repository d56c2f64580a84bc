package api

import (
	"fmt"
	"net/http"
	"time"

	cacheHandler "ai-recipe-engine/internal/api/handlers/cache"
	"ai-recipe-engine/internal/api/handlers/health"
	recipeHandler "ai-recipe-engine/internal/api/handlers/recipe"
	"ai-recipe-engine/internal/api/middleware"
	"ai-recipe-engine/internal/core/ai/cache"
	"ai-recipe-engine/internal/core/ai/queue"
	recipeService "ai-recipe-engine/internal/core/recipe"
	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *recipeService.Service, store cache.Store, q *queue.Manager) (*gin.Engine, error) {
	if cfg == nil || svc == nil {
		return nil, fmt.Errorf("router requires config and recipe service")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, store, q)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	{
		recipes := recipeHandler.NewHandler(svc, cfg.AI.MaxIngredients, cfg.App.Debug)
		dedup := middleware.NewDeduplicator(cfg.DedupWindow)

		recipeGroup := api.Group("/recipes")
		{
			// 使用食材生成食譜
			recipeGroup.POST("/generate", dedup.Middleware(), recipes.HandleGenerate)
		}

		entries := cacheHandler.NewHandler(svc, cfg.App.Debug)
		cacheGroup := api.Group("/cache")
		{
			cacheGroup.GET("/entry", entries.HandleEntry)
			cacheGroup.GET("/stats", entries.HandleStats)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
