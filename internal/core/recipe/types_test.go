package recipe

import (
	"testing"

	"recipe-chat-agent/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraftJSON() []byte {
	return []byte(`{
		"name": "Linseneintopf",
		"url": "https://beispiel.de/linsen",
		"image_url": "",
		"description": "Herzhaft",
		"recipeIngredient": ["250g Linsen", "1l Gemüsebrühe"],
		"recipeInstructions": ["Linsen waschen", "Koche 10 Minuten: PT0H10M0S"],
		"prepTime": "PT0H10M0S",
		"cookTime": "PT0H30M0S",
		"totalTime": "PT0H40M0S",
		"keywords": ["eintopf", "linsen"]
	}`)
}

func TestNewDraft(t *testing.T) {
	d, err := NewDraft(validDraftJSON())
	require.NoError(t, err)

	assert.Equal(t, "Linseneintopf", d.Name)
	assert.Len(t, d.RecipeIngredient, 2)

	// 步驟中的時間字串應改寫為易讀形式
	assert.Equal(t, "Koche 10 Minuten: 10m", d.RecipeInstructions[1])
	// 時間欄位本身保持 ISO-8601 格式
	assert.Equal(t, "PT0H30M0S", d.CookTime)
}

func TestNewDraftNormalizationIsIdempotent(t *testing.T) {
	d, err := NewDraft(validDraftJSON())
	require.NoError(t, err)

	before := append([]string(nil), d.RecipeInstructions...)
	d.normalizeInstructions()
	assert.Equal(t, before, d.RecipeInstructions)
}

func TestNewDraftValidation(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{name: "missing name", json: `{"url":"https://x.de","recipeIngredient":["a"],"recipeInstructions":["b"]}`},
		{name: "missing url", json: `{"name":"X","recipeIngredient":["a"],"recipeInstructions":["b"]}`},
		{name: "no ingredients", json: `{"name":"X","url":"https://x.de","recipeIngredient":[],"recipeInstructions":["b"]}`},
		{name: "no instructions", json: `{"name":"X","url":"https://x.de","recipeIngredient":["a"],"recipeInstructions":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDraft([]byte(tt.json))
			require.Error(t, err)
			assert.True(t, common.IsValidationError(err))
		})
	}
}

func TestNewDraftInvalidJSON(t *testing.T) {
	_, err := NewDraft([]byte("Hier ist dein Rezept!"))
	require.Error(t, err)
	assert.True(t, common.IsExtractionError(err))
}
