package recipe

import (
	"regexp"

	"recipe-chat-agent/internal/pkg/common"
)

// instructionTimePattern 比對做法步驟內嵌的 ISO-8601 時間（例如 PT0H30M0S）
// 正規化後字串不再符合此格式，重複執行不會再改寫
var instructionTimePattern = regexp.MustCompile(`PT\d{1,2}H\d{1,2}M\d{1,2}S`)

// Nutrition 營養資訊（schema.org NutritionInformation）
type Nutrition struct {
	Type                  string `json:"@type"`
	Calories              string `json:"calories,omitempty"`
	CarbohydrateContent   string `json:"carbohydrateContent,omitempty"`
	CholesterolContent    string `json:"cholesterolContent,omitempty"`
	FatContent            string `json:"fatContent,omitempty"`
	FiberContent          string `json:"fiberContent,omitempty"`
	ProteinContent        string `json:"proteinContent,omitempty"`
	SaturatedFatContent   string `json:"saturatedFatContent,omitempty"`
	ServingSize           string `json:"servingSize,omitempty"`
	SodiumContent         string `json:"sodiumContent,omitempty"`
	SugarContent          string `json:"sugarContent,omitempty"`
	TransFatContent       string `json:"transFatContent,omitempty"`
	UnsaturatedFatContent string `json:"unsaturatedFatContent,omitempty"`
}

// Recipe 正規化後可儲存的食譜（schema.org Recipe，欄位名稱與 Nextcloud Cookbook 一致）
type Recipe struct {
	Context             string     `json:"@context"`
	Type                string     `json:"@type"`
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	URL                 string     `json:"url"`
	ImageURL            string     `json:"imageUrl"`
	ImagePlaceholderURL string     `json:"imagePlaceholderUrl"`
	Image               string     `json:"image"`
	PrepTime            string     `json:"prepTime,omitempty"`
	CookTime            string     `json:"cookTime,omitempty"`
	TotalTime           string     `json:"totalTime,omitempty"`
	RecipeCategory      string     `json:"recipeCategory"`
	Keywords            string     `json:"keywords"`
	RecipeYield         int        `json:"recipeYield"`
	Tool                []string   `json:"tool"`
	RecipeIngredient    []string   `json:"recipeIngredient"`
	RecipeInstructions  []string   `json:"recipeInstructions"`
	Nutrition           *Nutrition `json:"nutrition,omitempty"`
	DateCreated         string     `json:"dateCreated"`
	DateModified        string     `json:"dateModified,omitempty"`
	PrintImage          bool       `json:"printImage"`
}

// Draft LLM 抽取出的原始食譜形態，尚未正規化
type Draft struct {
	Name               string   `json:"name"`
	URL                string   `json:"url"`
	ImageURL           string   `json:"image_url"`
	Description        string   `json:"description"`
	RecipeIngredient   []string `json:"recipeIngredient"`
	RecipeInstructions []string `json:"recipeInstructions"`
	PrepTime           string   `json:"prepTime"`
	CookTime           string   `json:"cookTime"`
	TotalTime          string   `json:"totalTime"`
	Keywords           []string `json:"keywords"`
}

// NewDraft 從 LLM 回應的 JSON 建立 Draft
// 建構時即驗證必要欄位並對做法步驟做一次時間字串正規化
func NewDraft(data []byte) (*Draft, error) {
	var d Draft
	if err := common.ParseJSONBytes(data, &d); err != nil {
		return nil, common.NewExtractionError(err)
	}

	if err := d.validate(); err != nil {
		return nil, err
	}

	d.normalizeInstructions()
	return &d, nil
}

// validate 驗證必要欄位
func (d *Draft) validate() error {
	if d.Name == "" {
		return common.NewValidationError("draft is missing recipe name")
	}
	if d.URL == "" {
		return common.NewValidationError("draft is missing source url")
	}
	if len(d.RecipeIngredient) == 0 {
		return common.NewValidationError("draft has no ingredients")
	}
	if len(d.RecipeInstructions) == 0 {
		return common.NewValidationError("draft has no instructions")
	}
	return nil
}

// normalizeInstructions 將步驟中的 ISO-8601 時間改寫為易讀形式（PT0H10M0S → 10m）
func (d *Draft) normalizeInstructions() {
	for i, instruction := range d.RecipeInstructions {
		d.RecipeInstructions[i] = instructionTimePattern.ReplaceAllStringFunc(instruction, func(m string) string {
			readable, err := ConvertDuration(m)
			if err != nil {
				return m
			}
			return readable
		})
	}
}
