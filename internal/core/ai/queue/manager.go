package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrClosed 隊列管理器已關閉
var ErrClosed = errors.New("queue manager is closed")

// Status 隊列狀態
type Status struct {
	Active         int   `json:"active"`
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 限制同時進行的上游請求數
// Workers 為 0 時不做任何限制
type Manager struct {
	workers   int
	maxSize   int
	slots     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	waiting   atomic.Int64
	processed atomic.Int64
}

// NewManager 創建新的隊列管理器
func NewManager(cfg config.QueueConfig) *Manager {
	m := &Manager{
		workers: cfg.Workers,
		maxSize: cfg.MaxSize,
		done:    make(chan struct{}),
	}
	if cfg.Workers > 0 {
		m.slots = make(chan struct{}, cfg.Workers)
	}
	return m
}

// Acquire 取得執行名額，回傳的 release 必須呼叫一次
func (m *Manager) Acquire(ctx context.Context) (func(), error) {
	if m == nil || m.slots == nil {
		return func() {}, nil
	}

	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	// 有空位時直接取得
	select {
	case m.slots <- struct{}{}:
		return m.releaseFunc(), nil
	default:
	}

	// 檢查隊列容量
	if int(m.waiting.Load()) >= m.maxSize {
		common.LogWarn("Generation queue is full",
			zap.Int("max_queue_size", m.maxSize),
			zap.Int("workers", m.workers),
		)
		return nil, common.ErrQueueFull
	}

	m.waiting.Add(1)
	defer m.waiting.Add(-1)

	common.LogDebug("Request enqueued",
		zap.Int64("queue_length", m.waiting.Load()),
		zap.Int("max_queue_size", m.maxSize),
	)

	select {
	case m.slots <- struct{}{}:
		return m.releaseFunc(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, ErrClosed
	}
}

func (m *Manager) releaseFunc() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-m.slots
			m.processed.Add(1)
		})
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	if m == nil {
		return &Status{}
	}
	return &Status{
		Active:         len(m.slots),
		QueueLength:    int(m.waiting.Load()),
		ProcessedCount: m.processed.Load(),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 關閉隊列管理器，等待中的請求會收到 ErrClosed
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.closeOnce.Do(func() {
		close(m.done)
	})
}
