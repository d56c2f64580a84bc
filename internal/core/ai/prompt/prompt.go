// Package prompt 組合食譜生成的 prompt
package prompt

import (
	"fmt"
	"strings"

	"ai-recipe-engine/internal/pkg/common"
)

// recipeSchema 要求模型回傳的 JSON 結構
const recipeSchema = `{
  "title": "Recipe Name",
  "ingredients": ["ingredient 1", "ingredient 2"],
  "steps": ["step 1", "step 2"],
  "prepTime": 15,
  "cookTime": 30,
  "servings": 4,
  "nutrition": {
    "calories": 350,
    "protein": "25g",
    "carbs": "40g",
    "fat": "12g"
  }
}`

// Build 依食材與偏好組合生成食譜的 prompt，食材原樣列出
func Build(ingredients []string, params common.GenerationParameters) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate a detailed recipe using these ingredients: %s.\n\n", strings.Join(ingredients, ", "))

	sb.WriteString("Requirements:\n")
	sb.WriteString("- Use ONLY the provided ingredients (common pantry staples like salt, pepper and oil are allowed)\n")
	sb.WriteString("- Include prep time and cook time in minutes\n")
	sb.WriteString("- Provide 4-6 servings\n")
	sb.WriteString("- Include basic nutritional estimates\n")

	// 選填偏好，每項一行
	if v := strings.TrimSpace(params.DietaryRestrictions); v != "" {
		fmt.Fprintf(&sb, "- Follow these dietary restrictions: %s\n", v)
	}
	if v := strings.TrimSpace(params.CuisinePreference); v != "" {
		fmt.Fprintf(&sb, "- Style: %s cuisine\n", v)
	}
	if v := strings.TrimSpace(params.Difficulty); v != "" {
		fmt.Fprintf(&sb, "- Difficulty level: %s\n", v)
	}

	sb.WriteString("\nFormat the response as JSON with exactly this structure:\n")
	sb.WriteString(recipeSchema)
	sb.WriteString("\n\nRespond with the JSON object only. Do not wrap it in markdown, code fences or any other text.")

	return sb.String()
}
