package recipe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoDurationPattern 解析 ISO-8601 時間長度（時、分、秒皆可省略）
var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// FromDraft 將 Draft 正規化為可儲存的 Recipe
// 給定 Draft、一個新配發的 ID 與當下時間戳即為決定性的純轉換
func FromDraft(d *Draft) *Recipe {
	now := time.Now().Format(time.RFC3339)

	return &Recipe{
		Context:             "http://schema.org",
		Type:                "Recipe",
		ID:                  strconv.Itoa(AllocateID(nil)),
		Name:                d.Name,
		Description:         d.Description,
		URL:                 d.URL,
		Image:               d.ImageURL,
		ImageURL:            d.ImageURL,
		ImagePlaceholderURL: "",
		PrepTime:            d.PrepTime,
		CookTime:            d.CookTime,
		TotalTime:           d.TotalTime,
		RecipeCategory:      "", // 草稿不帶分類，留空
		Keywords:            strings.Join(d.Keywords, ","),
		RecipeYield:         1, // 草稿不帶份量，固定預設 1
		Tool:                []string{},
		RecipeIngredient:    d.RecipeIngredient,
		RecipeInstructions:  d.RecipeInstructions,
		DateCreated:         now,
		DateModified:        now,
	}
}

// ConvertDuration 將 PT0H30M0S 形式的時間轉為易讀形式，例如 1h 30m
func ConvertDuration(timeStr string) (string, error) {
	match := isoDurationPattern.FindStringSubmatch(timeStr)
	if match == nil || (match[1] == "" && match[2] == "" && match[3] == "") {
		return "", fmt.Errorf("invalid ISO 8601 duration string: %s", timeStr)
	}

	hours := atoiDefault(match[1])
	minutes := atoiDefault(match[2])
	seconds := atoiDefault(match[3])

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " "), nil
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
