package middleware

import (
	"time"

	"ai-recipe-engine/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 處理程序寫入 gin.Context 的生成結果，供訪問日誌使用
const (
	ContextKeyFingerprint = "recipe.fingerprint"
	ContextKeyCacheHit    = "recipe.cache_hit"
)

// 探測類路徑，成功時只記 debug
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/live":    true,
	"/metrics": true,
}

// SetGenerationOutcome 記錄本次請求對應的指紋與是否命中快取
func SetGenerationOutcome(c *gin.Context, fingerprint string, cacheHit bool) {
	c.Set(ContextKeyFingerprint, fingerprint)
	c.Set(ContextKeyCacheHit, cacheHit)
}

// Logger 訪問日誌，需放在 requestid 中間件之後
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("request_id", requestid.Get(c)),
		}
		if fp := c.GetString(ContextKeyFingerprint); fp != "" {
			fields = append(fields, zap.String("fingerprint", fp))
		}
		if hit, ok := c.Get(ContextKeyCacheHit); ok {
			fields = append(fields, zap.Bool("cache_hit", hit.(bool)))
		}

		// 領域錯誤轉為 API 錯誤碼，方便依碼統計
		if last := c.Errors.Last(); last != nil {
			fields = append(fields,
				zap.String("error_code", common.HTTPError(last.Err).Code),
				zap.Strings("errors", c.Errors.Errors()),
			)
		}

		switch {
		case status >= 500:
			common.LogError("伺服器錯誤", fields...)
		case status >= 400:
			common.LogWarn("用戶端錯誤", fields...)
		case quietPaths[path]:
			common.LogDebug("請求完成", fields...)
		default:
			common.LogInfo("請求完成", fields...)
		}
	}
}

// Recovery 恢復中間件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				common.LogError("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("request_id", requestid.Get(c)),
					zap.Stack("stack"),
				)

				c.AbortWithStatusJSON(common.ErrInternalError.Status, common.ErrInternalError.Response(false))
			}
		}()

		c.Next()
	}
}
