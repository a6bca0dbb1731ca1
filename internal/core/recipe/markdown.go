package recipe

import (
	"fmt"
	"strings"
)

// markdownV2Chars Telegram MarkdownV2 要求跳脫的字元
var markdownV2Chars = []string{"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}

// EscapeMarkdownV2 將文字中的保留字元加上反斜線
func EscapeMarkdownV2(text string) string {
	for _, c := range markdownV2Chars {
		text = strings.ReplaceAll(text, c, "\\"+c)
	}
	return text
}

// ToMarkdown 將食譜渲染為 MarkdownV2 訊息（標題、Zutaten、Zubereitung）
func ToMarkdown(r *Recipe) string {
	var sb strings.Builder

	sb.WriteString("*")
	sb.WriteString(EscapeMarkdownV2(r.Name))
	sb.WriteString("*\n\n*Zutaten*\n   \\- ")

	ingredients := make([]string, 0, len(r.RecipeIngredient))
	for _, ing := range r.RecipeIngredient {
		ingredients = append(ingredients, EscapeMarkdownV2(ing))
	}
	sb.WriteString(strings.Join(ingredients, "\n   \\- "))

	sb.WriteString("\n\n*Zubereitung*\n")
	instructions := make([]string, 0, len(r.RecipeInstructions))
	for idx, step := range r.RecipeInstructions {
		instructions = append(instructions, EscapeMarkdownV2(fmt.Sprintf("%2d. %s", idx+1, step)))
	}
	sb.WriteString(strings.Join(instructions, "\n"))

	return sb.String()
}
