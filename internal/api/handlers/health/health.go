package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"ai-recipe-engine/internal/core/ai/queue"

	"github.com/gin-gonic/gin"
)

// Pinger 可檢查連線的依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Cache     string                 `json:"cache"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	version string
	store   Pinger
	queue   *queue.Manager
}

// NewHandler 創建健康檢查處理程序
func NewHandler(version string, store Pinger, q *queue.Manager) *Handler {
	return &Handler{version: version, store: store, queue: q}
}

// HealthCheck 健康檢查處理器，快取不可用時狀態為 degraded
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Cache:     "ok",
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Queue: h.queue.GetQueueStatus(),
	}

	if err := h.ping(c.Request.Context()); err != nil {
		response.Status = "degraded"
		response.Cache = err.Error()
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，快取後端不可用時回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if err := h.ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (h *Handler) ping(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.store.Ping(ctx)
}
