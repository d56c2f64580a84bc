package recipe

import (
	"context"
	"net/http"
	"strings"

	"ai-recipe-engine/internal/api/middleware"
	recipeService "ai-recipe-engine/internal/core/recipe"
	"ai-recipe-engine/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Generator 食譜生成服務
type Generator interface {
	Generate(ctx context.Context, ingredients []string, params common.GenerationParameters) (*recipeService.Result, error)
}

// GenerateRequest 使用食材清單與偏好生成食譜
type GenerateRequest struct {
	Ingredients         []string `json:"ingredients" binding:"required"` // 食材清單
	DietaryRestrictions string   `json:"dietary_restrictions,omitempty"` // 飲食限制
	CuisinePreference   string   `json:"cuisine_preference,omitempty"`   // 偏好料理風格
	Difficulty          string   `json:"difficulty,omitempty"`           // 難度
}

// GenerateResponse 生成結果
type GenerateResponse struct {
	Recipe      *common.GeneratedRecipe `json:"recipe"`
	Fingerprint string                  `json:"fingerprint"`
	CacheHit    bool                    `json:"cache_hit"`
}

// Handler 食譜處理程序
type Handler struct {
	service        Generator
	maxIngredients int
	debug          bool
}

// NewHandler 創建新的食譜處理程序
func NewHandler(service Generator, maxIngredients int, debug bool) *Handler {
	return &Handler{
		service:        service,
		maxIngredients: maxIngredients,
		debug:          debug,
	}
}

// HandleGenerate 根據食材生成食譜，相同食材組合會直接回傳快取
func (h *Handler) HandleGenerate(c *gin.Context) {
	requestID := requestid.Get(c)

	common.LogInfo("開始處理食譜生成請求",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, common.ErrInvalidRequest.WithErr(err).Response(h.debug))
		return
	}

	if err := h.validate(req.Ingredients); err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req.Ingredients, common.GenerationParameters{
		DietaryRestrictions: req.DietaryRestrictions,
		CuisinePreference:   req.CuisinePreference,
		Difficulty:          req.Difficulty,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	middleware.SetGenerationOutcome(c, result.Fingerprint, result.CacheHit)
	common.LogInfo("食譜生成成功",
		zap.String("request_id", requestID),
		zap.String("fingerprint", result.Fingerprint),
		zap.Bool("cache_hit", result.CacheHit),
	)

	c.JSON(http.StatusOK, GenerateResponse{
		Recipe:      result.Recipe,
		Fingerprint: result.Fingerprint,
		CacheHit:    result.CacheHit,
	})
}

// validate 至少一個非空白食材，且不超過上限
func (h *Handler) validate(ingredients []string) error {
	if len(ingredients) == 0 {
		return common.NewValidationError("ingredients must not be empty")
	}
	if h.maxIngredients > 0 && len(ingredients) > h.maxIngredients {
		return common.NewValidationError("too many ingredients")
	}
	for _, ing := range ingredients {
		if strings.TrimSpace(ing) != "" {
			return nil
		}
	}
	return common.NewValidationError("ingredients must contain at least one non-blank value")
}

func (h *Handler) fail(c *gin.Context, err error) {
	apiErr := common.HTTPError(err)
	_ = c.Error(err)
	c.JSON(apiErr.Status, apiErr.Response(h.debug))
}
