package common

// GenerationParameters 生成食譜的選填偏好，不參與快取指紋
type GenerationParameters struct {
	DietaryRestrictions string `json:"dietary_restrictions,omitempty"` // 飲食限制，如 vegan
	CuisinePreference   string `json:"cuisine_preference,omitempty"`   // 料理風格，如 Italian
	Difficulty          string `json:"difficulty,omitempty"`           // easy / medium / hard
}

// Nutrition 營養估算，欄位皆可缺
type Nutrition struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *string  `json:"protein,omitempty"` // 例如 "25g"
	Carbs    *string  `json:"carbs,omitempty"`
	Fat      *string  `json:"fat,omitempty"`
}

// GeneratedRecipe AI 生成的食譜
// 選填欄位以指標表示，nil 即為缺
type GeneratedRecipe struct {
	Title       string     `json:"title"`
	Ingredients []string   `json:"ingredients"`
	Steps       []string   `json:"steps"`
	PrepTime    *int       `json:"prepTime,omitempty"` // 分鐘
	CookTime    *int       `json:"cookTime,omitempty"` // 分鐘
	Servings    *int       `json:"servings,omitempty"`
	Nutrition   *Nutrition `json:"nutrition,omitempty"`
}

// Clone 深拷貝食譜，快取內容建立後不可被呼叫端修改
func (r *GeneratedRecipe) Clone() *GeneratedRecipe {
	if r == nil {
		return nil
	}
	out := &GeneratedRecipe{
		Title:       r.Title,
		Ingredients: append([]string(nil), r.Ingredients...),
		Steps:       append([]string(nil), r.Steps...),
		PrepTime:    clonePtr(r.PrepTime),
		CookTime:    clonePtr(r.CookTime),
		Servings:    clonePtr(r.Servings),
	}
	if r.Nutrition != nil {
		out.Nutrition = &Nutrition{
			Calories: clonePtr(r.Nutrition.Calories),
			Protein:  clonePtr(r.Nutrition.Protein),
			Carbs:    clonePtr(r.Nutrition.Carbs),
			Fat:      clonePtr(r.Nutrition.Fat),
		}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
