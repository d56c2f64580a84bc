package recipe

import (
	"ai-recipe-engine/internal/pkg/common"
)

// Result 生成結果
type Result struct {
	Recipe      *common.GeneratedRecipe `json:"recipe"`
	Fingerprint string                  `json:"fingerprint"`
	CacheHit    bool                    `json:"cache_hit"`
}
