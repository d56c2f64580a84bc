// Package fingerprint 由食材清單推導快取鍵
package fingerprint

import (
	"sort"
	"strings"
)

// Separator 食材之間的分隔字元
const Separator = ","

// Derive 由食材清單推導快取指紋：逐項轉小寫、依位元組排序、以逗號串接。
// 順序與大小寫不同的相同食材會得到相同指紋；空清單回傳空字串。
// 呼叫端的切片不會被修改。
func Derive(ingredients []string) string {
	if len(ingredients) == 0 {
		return ""
	}

	normalized := make([]string, len(ingredients))
	for i, ing := range ingredients {
		normalized[i] = strings.ToLower(ing)
	}
	sort.Strings(normalized)

	return strings.Join(normalized, Separator)
}
