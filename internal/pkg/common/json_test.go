package common

import (
	"bytes"
	"strings"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"Here:\n{\"a\":{\"b\":2}}\nthanks", `{"a":{"b":2}}`, true},
		{"{a} and {b}", "{a} and {b}", true},
		{"no braces", "", false},
		{"} backwards {", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractJSONObject(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ExtractJSONObject(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRecipeJSONFieldNames(t *testing.T) {
	prep := 5
	out, err := ToJSON(&GeneratedRecipe{Title: "T", Ingredients: []string{"a"}, Steps: []string{"s"}, PrepTime: &prep})
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"title":"T","ingredients":["a"],"steps":["s"],"prepTime":5}` {
		t.Errorf("got %s", out)
	}
}

func TestCloneIsDeep(t *testing.T) {
	cal := 100.0
	orig := &GeneratedRecipe{
		Title:       "T",
		Ingredients: []string{"a"},
		Steps:       []string{"s"},
		Nutrition:   &Nutrition{Calories: &cal},
	}
	c := orig.Clone()
	c.Ingredients[0] = "x"
	*c.Nutrition.Calories = 1

	if orig.Ingredients[0] != "a" || *orig.Nutrition.Calories != 100 {
		t.Error("clone shares memory with the original")
	}
	var nilRecipe *GeneratedRecipe
	if nilRecipe.Clone() != nil {
		t.Error("nil clone should be nil")
	}
}

func TestWriteJSONIndent(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONIndent(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"a\": 1\n}\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	if Truncate("short", 10) != "short" {
		t.Error("short strings are unchanged")
	}
	if got := Truncate(strings.Repeat("x", 20), 5); got != "xxxxx...(truncated)" {
		t.Errorf("got %q", got)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if MaskAPIKey("") != "" || MaskAPIKey("short") != "****" {
		t.Error("unexpected mask for short keys")
	}
	if got := MaskAPIKey("gsk_1234567890abcd"); got != "gsk_...abcd" {
		t.Errorf("got %q", got)
	}
}
