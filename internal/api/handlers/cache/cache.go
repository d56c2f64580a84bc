package cache

import (
	"context"
	"errors"
	"net/http"

	"ai-recipe-engine/internal/api/middleware"
	aiCache "ai-recipe-engine/internal/core/ai/cache"
	"ai-recipe-engine/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Inspector 快取查詢服務
type Inspector interface {
	Lookup(ctx context.Context, ingredients []string) (*aiCache.Entry, error)
	CacheStats(ctx context.Context) (aiCache.Stats, error)
}

// Handler 快取查詢處理程序
type Handler struct {
	service Inspector
	debug   bool
}

// NewHandler 創建快取查詢處理程序
func NewHandler(service Inspector, debug bool) *Handler {
	return &Handler{service: service, debug: debug}
}

// HandleEntry 依 ingredient 查詢參數查詢快取條目，不增加使用次數
func (h *Handler) HandleEntry(c *gin.Context) {
	ingredients := c.QueryArray("ingredient")
	if len(ingredients) == 0 {
		c.JSON(http.StatusBadRequest, common.NewError(
			common.ErrCodeInvalidRequest, "缺少 ingredient 參數", http.StatusBadRequest, nil,
		).Response(false))
		return
	}

	entry, err := h.service.Lookup(c.Request.Context(), ingredients)
	if err != nil {
		if errors.Is(err, aiCache.ErrNotFound) {
			c.JSON(http.StatusNotFound, common.ErrNotFound.Response(false))
			return
		}
		common.LogError("快取查詢失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, common.ErrInternalError.WithErr(err).Response(h.debug))
		return
	}

	c.Set(middleware.ContextKeyFingerprint, entry.Fingerprint)
	c.JSON(http.StatusOK, entry)
}

// HandleStats 快取統計
func (h *Handler) HandleStats(c *gin.Context) {
	stats, err := h.service.CacheStats(c.Request.Context())
	if err != nil {
		common.LogError("快取統計失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, common.ErrInternalError.WithErr(err).Response(h.debug))
		return
	}
	c.JSON(http.StatusOK, stats)
}
