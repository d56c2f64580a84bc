// Package cache 提供以食材指紋為鍵的食譜快取
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"
)

var (
	// ErrNotFound 指紋不存在
	ErrNotFound = errors.New("cache entry not found")
	// ErrDuplicate 指紋已存在，唯一性由儲存層保證
	ErrDuplicate = errors.New("cache entry already exists")
)

// Entry 快取條目，食譜內容建立後不可修改，只有 UsageCount 會遞增
type Entry struct {
	ID          string                  `json:"id"`
	Fingerprint string                  `json:"fingerprint"`
	Ingredients []string                `json:"ingredients"` // 原始食材清單，供稽核除錯
	Recipe      *common.GeneratedRecipe `json:"recipe"`
	UsageCount  int64                   `json:"usage_count"`
	CreatedAt   time.Time               `json:"created_at"`
}

// Stats 快取統計
type Stats struct {
	Driver  string  `json:"driver"`
	Entries int64   `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Store 快取儲存介面
type Store interface {
	// Get 以指紋精確查詢，不存在時回傳 ErrNotFound
	Get(ctx context.Context, fingerprint string) (*Entry, error)

	// Peek 與 Get 相同但不計入命中統計，供檢視用
	Peek(ctx context.Context, fingerprint string) (*Entry, error)

	// Insert 建立 UsageCount 為 1 的條目；呼叫端需先確認不存在，
	// 儲存層的唯一性限制拒絕時回傳 ErrDuplicate
	Insert(ctx context.Context, fingerprint string, ingredients []string, recipe *common.GeneratedRecipe) (*Entry, error)

	// IncrementUsage 使用次數加一，條目已不存在時不做任何事
	IncrementUsage(ctx context.Context, id string) error

	// Stats 獲取統計信息
	Stats(ctx context.Context) (Stats, error)

	// Ping 檢查後端連線
	Ping(ctx context.Context) error

	// Close 關閉連線
	Close() error
}

// NewStore 依設定建立快取後端
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Cache.Driver {
	case config.CacheDriverMemory, "":
		return NewMemoryStore(), nil
	case config.CacheDriverRedis:
		return NewRedisStore(cfg.Redis)
	case config.CacheDriverSQLite:
		return NewSQLiteStore(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

// newEntry 建立新條目，複製呼叫端的資料
func newEntry(fingerprint string, ingredients []string, recipe *common.GeneratedRecipe) *Entry {
	return &Entry{
		ID:          common.GenerateUUID(),
		Fingerprint: fingerprint,
		Ingredients: append([]string(nil), ingredients...),
		Recipe:      recipe.Clone(),
		UsageCount:  1,
		CreatedAt:   time.Now().UTC(),
	}
}

// clone 複製條目，避免呼叫端修改快取內容
func (e *Entry) clone() *Entry {
	out := *e
	out.Ingredients = append([]string(nil), e.Ingredients...)
	out.Recipe = e.Recipe.Clone()
	return &out
}

// countLookup 依查詢結果累計命中或未命中
func countLookup(err error, hits, misses *atomic.Int64) {
	switch {
	case err == nil:
		hits.Add(1)
	case errors.Is(err, ErrNotFound):
		misses.Add(1)
	}
}

func hitRate(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
