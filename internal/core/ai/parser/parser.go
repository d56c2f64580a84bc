// Package parser 將模型輸出解析並驗證為食譜
package parser

import (
	"fmt"
	"strings"

	"ai-recipe-engine/internal/pkg/common"
)

// Parse 解析模型原始輸出：
//  1. 整段直接解析
//  2. 失敗時取第一個 { 到最後一個 } 再解析
//  3. 兩次都失敗回傳 common.ErrMalformedResponse
//  4. 解析成功後檢查必要欄位，不符回傳 common.ErrInvalidRecipeStructure
func Parse(raw string) (*common.GeneratedRecipe, error) {
	recipe, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// decode 兩階段解析
func decode(raw string) (*common.GeneratedRecipe, error) {
	var recipe common.GeneratedRecipe
	directErr := common.ParseJSON(raw, &recipe)
	if directErr == nil {
		return &recipe, nil
	}

	candidate, ok := common.ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found in response (%v)", common.ErrMalformedResponse, directErr)
	}

	recipe = common.GeneratedRecipe{}
	if err := common.ParseJSON(candidate, &recipe); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return &recipe, nil
}

// Validate 檢查 title 非空字串，ingredients 與 steps 至少各一項
func Validate(recipe *common.GeneratedRecipe) error {
	if recipe == nil {
		return fmt.Errorf("%w: empty recipe", common.ErrInvalidRecipeStructure)
	}

	var missing []string
	if recipe.Title == "" {
		missing = append(missing, "title")
	}
	if len(recipe.Ingredients) == 0 {
		missing = append(missing, "ingredients")
	}
	if len(recipe.Steps) == 0 {
		missing = append(missing, "steps")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrInvalidRecipeStructure, strings.Join(missing, ", "))
	}
	return nil
}
