package recipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-recipe-engine/internal/core/ai/cache"
	"ai-recipe-engine/internal/core/ai/fingerprint"
	"ai-recipe-engine/internal/core/ai/parser"
	"ai-recipe-engine/internal/core/ai/prompt"
	"ai-recipe-engine/internal/core/ai/provider"
	"ai-recipe-engine/internal/core/ai/queue"
	"ai-recipe-engine/internal/pkg/common"
	"ai-recipe-engine/internal/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service 食譜生成服務：先查快取，未命中時呼叫 provider 並寫回快取
type Service struct {
	store         cache.Store
	generator     provider.Generator
	queue         *queue.Manager
	coalesce      bool
	sharedTimeout time.Duration
	group         singleflight.Group
}

// Option 服務選項
type Option func(*Service)

// WithQueue 以隊列限制同時進行的上游請求
func WithQueue(q *queue.Manager) Option {
	return func(s *Service) {
		s.queue = q
	}
}

// WithCoalescing 同一進程內相同指紋的未命中請求只呼叫一次 provider
func WithCoalescing(enabled bool) Option {
	return func(s *Service) {
		s.coalesce = enabled
	}
}

// WithSharedTimeout 合併生成不跟隨任一呼叫者取消，改以此時間為上限
func WithSharedTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.sharedTimeout = d
	}
}

// NewService 創建新的食譜生成服務
func NewService(store cache.Store, generator provider.Generator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		generator: generator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateRecipe 根據食材和偏好生成食譜
func (s *Service) GenerateRecipe(ctx context.Context, ingredients []string, params common.GenerationParameters) (*common.GeneratedRecipe, error) {
	result, err := s.Generate(ctx, ingredients, params)
	if err != nil {
		return nil, err
	}
	return result.Recipe, nil
}

// Generate 與 GenerateRecipe 相同，另回傳指紋與是否命中快取。
// 偏好不參與指紋，命中時不論偏好為何都回傳既有的食譜，快取不會過期。
// 失敗時回傳 *common.GenerationFailedError，原始錯誤可用 errors.Is/As 取得。
func (s *Service) Generate(ctx context.Context, ingredients []string, params common.GenerationParameters) (result *Result, err error) {
	fp := fingerprint.Derive(ingredients)
	cacheResult := metrics.CacheMiss
	defer func() {
		metrics.ObserveGeneration(err, cacheResult)
	}()

	entry, err := s.store.Get(ctx, fp)
	switch {
	case err == nil:
		cacheResult = metrics.CacheHit
		metrics.ObserveCacheLookup(metrics.CacheHit)
		common.LogCacheHit(fp, entry.UsageCount)

		// 使用次數僅供統計，失敗不影響請求
		if incErr := s.store.IncrementUsage(ctx, entry.ID); incErr != nil {
			common.LogWarn("快取使用次數更新失敗",
				zap.String("fingerprint", fp),
				zap.String("id", entry.ID),
				zap.Error(incErr),
			)
		}
		return &Result{Recipe: entry.Recipe, Fingerprint: fp, CacheHit: true}, nil

	case errors.Is(err, cache.ErrNotFound):
		metrics.ObserveCacheLookup(metrics.CacheMiss)
		common.LogCacheMiss(fp)

	default:
		cacheResult = metrics.CacheError
		metrics.ObserveCacheLookup(metrics.CacheError)
		common.LogError("快取查詢失敗", zap.String("fingerprint", fp), zap.Error(err))
		return nil, &common.GenerationFailedError{Err: fmt.Errorf("cache lookup: %w", err)}
	}

	recipe, err := s.generateMiss(ctx, fp, ingredients, params)
	if err != nil {
		common.LogError("食譜生成失敗",
			zap.String("fingerprint", fp),
			zap.Error(err),
		)
		return nil, &common.GenerationFailedError{Err: err}
	}

	common.LogInfo("食譜生成成功",
		zap.String("fingerprint", fp),
		zap.String("title", recipe.Title),
	)
	return &Result{Recipe: recipe, Fingerprint: fp}, nil
}

// generateMiss 未命中路徑，開啟合併時相同指紋共用一次生成。
// 共用的生成與呼叫者的 context 脫鉤，每個呼叫者只等待自己的 ctx。
func (s *Service) generateMiss(ctx context.Context, fp string, ingredients []string, params common.GenerationParameters) (*common.GeneratedRecipe, error) {
	if !s.coalesce {
		return s.generateAndStore(ctx, fp, ingredients, params)
	}

	ch := s.group.DoChan(fp, func() (interface{}, error) {
		sharedCtx := context.WithoutCancel(ctx)
		if s.sharedTimeout > 0 {
			var cancel context.CancelFunc
			sharedCtx, cancel = context.WithTimeout(sharedCtx, s.sharedTimeout)
			defer cancel()
		}
		return s.generateAndStore(sharedCtx, fp, ingredients, params)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		recipe := res.Val.(*common.GeneratedRecipe)
		if res.Shared {
			recipe = recipe.Clone()
		}
		return recipe, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// generateAndStore prompt → provider → 解析驗證 → 寫入快取
// 只有解析驗證成功後才寫入
func (s *Service) generateAndStore(ctx context.Context, fp string, ingredients []string, params common.GenerationParameters) (*common.GeneratedRecipe, error) {
	release, err := s.queue.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	text := prompt.Build(ingredients, params)

	start := time.Now()
	raw, err := s.generator.Generate(ctx, text)
	metrics.ObserveProviderCall(err, time.Since(start))
	if err != nil {
		return nil, err
	}

	recipe, err := parser.Parse(raw)
	if err != nil {
		common.LogWarn("AI 回應解析失敗",
			zap.String("fingerprint", fp),
			zap.String("model", s.generator.GetModel()),
			zap.String("response_preview", common.Truncate(raw, 200)),
			zap.Error(err),
		)
		return nil, err
	}

	if _, err := s.store.Insert(ctx, fp, ingredients, recipe); err != nil {
		if !errors.Is(err, cache.ErrDuplicate) {
			return nil, fmt.Errorf("cache insert: %w", err)
		}
		// 並發請求已先寫入同一指紋
		metrics.IncDuplicateInsert()
		common.LogInfo("快取條目已存在，略過寫入", zap.String("fingerprint", fp))
	}

	return recipe, nil
}

// Lookup 查詢食材清單對應的快取條目，不增加使用次數也不計入命中統計
func (s *Service) Lookup(ctx context.Context, ingredients []string) (*cache.Entry, error) {
	return s.store.Peek(ctx, fingerprint.Derive(ingredients))
}

// CacheStats 快取統計
func (s *Service) CacheStats(ctx context.Context) (cache.Stats, error) {
	return s.store.Stats(ctx)
}
