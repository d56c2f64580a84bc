package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore Redis 快取後端
//
// 鍵配置：
//
//	<prefix>fp:<fingerprint>  條目 JSON，以 SETNX 寫入保證唯一
//	<prefix>usage:<id>        使用次數
//	<prefix>id:<id>           id 對應的指紋
//	<prefix>entries           條目總數
//
// 所有鍵都不設過期時間。
type RedisStore struct {
	client *redis.Client
	prefix string
	hits   atomic.Int64
	misses atomic.Int64
}

// redisEntry 存入 Redis 的條目內容（使用次數另存）
type redisEntry struct {
	ID          string                  `json:"id"`
	Fingerprint string                  `json:"fingerprint"`
	Ingredients []string                `json:"ingredients"`
	Recipe      *common.GeneratedRecipe `json:"recipe"`
	CreatedAt   time.Time               `json:"created_at"`
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore 創建 Redis 快取並測試連接
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("快取管理員已初始化",
		zap.String("driver", config.CacheDriverRedis),
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
	)
	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient 使用既有的 client 建立快取
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) fingerprintKey(fingerprint string) string {
	return s.prefix + "fp:" + fingerprint
}

func (s *RedisStore) usageKey(id string) string {
	return s.prefix + "usage:" + id
}

func (s *RedisStore) idKey(id string) string {
	return s.prefix + "id:" + id
}

func (s *RedisStore) countKey() string {
	return s.prefix + "entries"
}

// Get 獲取緩存
func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	entry, err := s.Peek(ctx, fingerprint)
	countLookup(err, &s.hits, &s.misses)
	return entry, err
}

// Peek 獲取緩存，不更新統計
func (s *RedisStore) Peek(ctx context.Context, fingerprint string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.fingerprintKey(fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	// 解析緩存
	var stored redisEntry
	if err := common.ParseJSONBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}

	usage, err := s.client.Get(ctx, s.usageKey(stored.ID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		usage = 1
	case err != nil:
		return nil, fmt.Errorf("failed to get usage count: %w", err)
	}

	return &Entry{
		ID:          stored.ID,
		Fingerprint: stored.Fingerprint,
		Ingredients: stored.Ingredients,
		Recipe:      stored.Recipe,
		UsageCount:  usage,
		CreatedAt:   stored.CreatedAt,
	}, nil
}

// Insert 設置緩存
func (s *RedisStore) Insert(ctx context.Context, fingerprint string, ingredients []string, recipe *common.GeneratedRecipe) (*Entry, error) {
	entry := newEntry(fingerprint, ingredients, recipe)

	// 序列化條目
	data, err := common.MarshalJSON(redisEntry{
		ID:          entry.ID,
		Fingerprint: entry.Fingerprint,
		Ingredients: entry.Ingredients,
		Recipe:      entry.Recipe,
		CreatedAt:   entry.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	// 先寫入以新 id 為鍵的附屬資料，再以 SETNX 佔用指紋
	if _, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.usageKey(entry.ID), 1, 0)
		pipe.Set(ctx, s.idKey(entry.ID), fingerprint, 0)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to set cache: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.fingerprintKey(fingerprint), data, 0).Result()
	if err != nil || !ok {
		s.client.Del(ctx, s.usageKey(entry.ID), s.idKey(entry.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to set cache: %w", err)
		}
		return nil, ErrDuplicate
	}

	if err := s.client.Incr(ctx, s.countKey()).Err(); err != nil {
		common.LogWarn("快取計數更新失敗", zap.Error(err))
	}

	return entry.clone(), nil
}

// IncrementUsage 更新使用次數
func (s *RedisStore) IncrementUsage(ctx context.Context, id string) error {
	exists, err := s.client.Exists(ctx, s.idKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to check cache entry: %w", err)
	}
	if exists == 0 {
		return nil
	}
	if err := s.client.Incr(ctx, s.usageKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// Stats 獲取緩存統計信息
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	count, err := s.client.Get(ctx, s.countKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Stats{}, fmt.Errorf("failed to get cache stats: %w", err)
	}

	hits, misses := s.hits.Load(), s.misses.Load()
	return Stats{
		Driver:  config.CacheDriverRedis,
		Entries: count,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}, nil
}

// Ping 檢查 Redis 連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
