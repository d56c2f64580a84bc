package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore 以 SQLite 持久化的快取，指紋有唯一索引
type SQLiteStore struct {
	db     *sql.DB
	hits   atomic.Int64
	misses atomic.Int64
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS ai_recipe_cache (
	id TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	ingredients TEXT NOT NULL,
	recipe TEXT NOT NULL,
	usage_count INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_ai_recipe_cache_fingerprint ON ai_recipe_cache (fingerprint)`,
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore 開啟資料庫並建立資料表
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate cache db: %w", err)
		}
	}

	common.LogInfo("快取管理員已初始化",
		zap.String("driver", config.CacheDriverSQLite),
		zap.String("path", dbPath),
	)
	return &SQLiteStore{db: db}, nil
}

// Get 以指紋查詢
func (s *SQLiteStore) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	entry, err := s.Peek(ctx, fingerprint)
	countLookup(err, &s.hits, &s.misses)
	return entry, err
}

// Peek 以指紋查詢，不更新統計
func (s *SQLiteStore) Peek(ctx context.Context, fingerprint string) (*Entry, error) {
	var (
		entry       Entry
		ingredients string
		recipe      string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, fingerprint, ingredients, recipe, usage_count, created_at FROM ai_recipe_cache WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&entry.ID, &entry.Fingerprint, &ingredients, &recipe, &entry.UsageCount, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	if err := common.ParseJSON(ingredients, &entry.Ingredients); err != nil {
		return nil, fmt.Errorf("cache get: decode ingredients: %w", err)
	}
	entry.Recipe = &common.GeneratedRecipe{}
	if err := common.ParseJSON(recipe, entry.Recipe); err != nil {
		return nil, fmt.Errorf("cache get: decode recipe: %w", err)
	}

	return &entry, nil
}

// Insert 新增條目，指紋重複時回傳 ErrDuplicate
func (s *SQLiteStore) Insert(ctx context.Context, fingerprint string, ingredients []string, recipe *common.GeneratedRecipe) (*Entry, error) {
	entry := newEntry(fingerprint, ingredients, recipe)

	ingredientsJSON, err := common.ToJSON(entry.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("cache insert: encode ingredients: %w", err)
	}
	recipeJSON, err := common.ToJSON(entry.Recipe)
	if err != nil {
		return nil, fmt.Errorf("cache insert: encode recipe: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ai_recipe_cache (id, fingerprint, ingredients, recipe, usage_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Fingerprint, ingredientsJSON, recipeJSON, entry.UsageCount, entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("cache insert: %w", err)
	}
	return entry.clone(), nil
}

// IncrementUsage 使用次數加一，條目不存在時不影響任何資料列
func (s *SQLiteStore) IncrementUsage(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE ai_recipe_cache SET usage_count = usage_count + 1 WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("cache increment usage: %w", err)
	}
	return nil
}

// Stats 回傳快取統計
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_recipe_cache`).Scan(&count); err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}

	hits, misses := s.hits.Load(), s.misses.Load()
	return Stats{
		Driver:  config.CacheDriverSQLite,
		Entries: count,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}, nil
}

// Ping 檢查資料庫連線
func (s *SQLiteStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close 關閉資料庫
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation 判斷是否違反唯一索引
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
