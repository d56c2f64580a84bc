package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 進程內快取，條目不會過期也不會被淘汰
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry // fingerprint -> entry
	byID    map[string]string // id -> fingerprint
	stats   cacheStats
}

// cacheStats 緩存統計
type cacheStats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 創建進程內快取
func NewMemoryStore() *MemoryStore {
	common.LogInfo("快取管理員已初始化", zap.String("driver", config.CacheDriverMemory))
	return &MemoryStore{
		entries: make(map[string]*Entry),
		byID:    make(map[string]string),
	}
}

// Get 獲取緩存條目
func (m *MemoryStore) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	entry, err := m.Peek(ctx, fingerprint)
	countLookup(err, &m.stats.hits, &m.stats.misses)
	return entry, err
}

// Peek 獲取緩存條目，不更新統計
func (m *MemoryStore) Peek(ctx context.Context, fingerprint string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.entries[fingerprint]
	if !exists {
		return nil, ErrNotFound
	}
	return entry.clone(), nil
}

// Insert 設置緩存條目
func (m *MemoryStore) Insert(ctx context.Context, fingerprint string, ingredients []string, recipe *common.GeneratedRecipe) (*Entry, error) {
	entry := newEntry(fingerprint, ingredients, recipe)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[fingerprint]; exists {
		return nil, ErrDuplicate
	}
	m.entries[fingerprint] = entry
	m.byID[entry.ID] = fingerprint

	common.LogDebug("快取已儲存",
		zap.String("fingerprint", fingerprint),
		zap.String("id", entry.ID),
	)
	return entry.clone(), nil
}

// IncrementUsage 更新使用次數
func (m *MemoryStore) IncrementUsage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fingerprint, ok := m.byID[id]
	if !ok {
		return nil
	}
	if entry, ok := m.entries[fingerprint]; ok {
		entry.UsageCount++
	}
	return nil
}

// Stats 獲取緩存統計信息
func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	size := len(m.entries)
	m.mu.RUnlock()

	hits, misses := m.stats.hits.Load(), m.stats.misses.Load()
	return Stats{
		Driver:  config.CacheDriverMemory,
		Entries: int64(size),
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}, nil
}

// Ping 進程內快取永遠可用
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close 關閉緩存管理器
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	common.LogInfo("快取管理員已關閉",
		zap.Int("條目數", len(m.entries)),
		zap.Int64("命中次數", m.stats.hits.Load()),
		zap.Int64("未命中次數", m.stats.misses.Load()),
	)
	m.entries = make(map[string]*Entry)
	m.byID = make(map[string]string)
	return nil
}
