package parser

import (
	"errors"
	"testing"

	"ai-recipe-engine/internal/pkg/common"
)

const cleanJSON = `{"title":"T","ingredients":["a"],"steps":["s"]}`

func TestParseCleanJSON(t *testing.T) {
	r, err := Parse(cleanJSON)
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "T" || len(r.Ingredients) != 1 || r.Ingredients[0] != "a" || len(r.Steps) != 1 || r.Steps[0] != "s" {
		t.Errorf("unexpected recipe: %+v", r)
	}
	if r.PrepTime != nil || r.CookTime != nil || r.Servings != nil || r.Nutrition != nil {
		t.Error("absent optional fields should stay nil")
	}
}

func TestParseWrappedInProse(t *testing.T) {
	r, err := Parse("Here you go:\n" + cleanJSON + "\nEnjoy!")
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "T" || r.Ingredients[0] != "a" || r.Steps[0] != "s" {
		t.Errorf("unexpected recipe: %+v", r)
	}
}

func TestParseCodeFence(t *testing.T) {
	r, err := Parse("```json\n" + cleanJSON + "\n```")
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "T" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParseOptionalFields(t *testing.T) {
	raw := `{"title":"Soup","ingredients":["water"],"steps":["boil"],"prepTime":5,"cookTime":0,"servings":4,
		"nutrition":{"calories":120.5,"protein":"3g"},"extra":"ignored"}`
	r, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if r.PrepTime == nil || *r.PrepTime != 5 {
		t.Errorf("prepTime = %v", r.PrepTime)
	}
	if r.CookTime == nil || *r.CookTime != 0 {
		t.Errorf("cookTime should be present and zero, got %v", r.CookTime)
	}
	if r.Servings == nil || *r.Servings != 4 {
		t.Errorf("servings = %v", r.Servings)
	}
	if r.Nutrition == nil || r.Nutrition.Calories == nil || *r.Nutrition.Calories != 120.5 {
		t.Fatalf("nutrition = %+v", r.Nutrition)
	}
	if r.Nutrition.Protein == nil || *r.Nutrition.Protein != "3g" {
		t.Errorf("protein = %v", r.Nutrition.Protein)
	}
	if r.Nutrition.Carbs != nil || r.Nutrition.Fat != nil {
		t.Error("absent nutrition fields should stay nil")
	}
}

func TestParseMissingFields(t *testing.T) {
	for _, raw := range []string{
		`{"title":"T"}`,
		`{"title":"","ingredients":["a"],"steps":["s"]}`,
		`{"title":"T","ingredients":[],"steps":["s"]}`,
		`{"title":"T","ingredients":["a"],"steps":[]}`,
		`{}`,
	} {
		_, err := Parse(raw)
		if !errors.Is(err, common.ErrInvalidRecipeStructure) {
			t.Errorf("Parse(%s) err = %v, want ErrInvalidRecipeStructure", raw, err)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{
		"I cannot help with that.",
		"",
		"{not json at all}",
		`Sure! {"title":"T", "ingredients": [`,
		`{"title":"T","ingredients":"a","steps":["s"]}`,
	} {
		_, err := Parse(raw)
		if !errors.Is(err, common.ErrMalformedResponse) {
			t.Errorf("Parse(%q) err = %v, want ErrMalformedResponse", raw, err)
		}
	}
}

func TestValidateNil(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, common.ErrInvalidRecipeStructure) {
		t.Errorf("err = %v", err)
	}
}

func TestParseWhitespaceTitleIsPresent(t *testing.T) {
	recipe, err := Parse(`{"title":" ","ingredients":["a"],"steps":["s"]}`)
	if err != nil {
		t.Fatalf("only an empty title is missing: %v", err)
	}
	if recipe.Title != " " {
		t.Errorf("title = %q", recipe.Title)
	}
}
