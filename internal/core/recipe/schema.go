package recipe

// DraftResponseFormat 回傳 Draft 對應的 OpenAI response_format 結構
// 供 LLM 的結構化輸出模式使用，欄位需與 Draft 的 JSON 標籤一致
func DraftResponseFormat() map[string]interface{} {
	stringField := map[string]interface{}{"type": "string"}
	stringList := map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "string"},
	}

	return map[string]interface{}{
		"type": "json_schema",
		"json_schema": map[string]interface{}{
			"name":   "Formatted Response",
			"strict": true,
			"schema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name":               stringField,
					"url":                stringField,
					"image_url":          stringField,
					"description":        stringField,
					"recipeIngredient":   stringList,
					"recipeInstructions": stringList,
					"prepTime":           stringField,
					"cookTime":           stringField,
					"totalTime":          stringField,
					"keywords":           stringList,
				},
				"required": []string{
					"name", "url", "image_url", "description",
					"recipeIngredient", "recipeInstructions",
					"prepTime", "cookTime", "totalTime", "keywords",
				},
				"additionalProperties": false,
			},
		},
	}
}
