package scraper

import (
	"regexp"
	"strings"
)

// noisePattern 匹配轉換後殘留的雜訊：表格分隔線、行內連結目標與連結括號
var noisePattern = regexp.MustCompile(`\s\||(?:\(http.*\)|(?:\[|]))`)

// blankLinesPattern 匹配連續空行
var blankLinesPattern = regexp.MustCompile(`\n{3,}`)

// FilterMarkdown 移除 Markdown 中對模型無用的雜訊
// 保留文字內容，去掉連結目標與表格框線，縮短送往模型的上下文
func FilterMarkdown(markdown string) string {
	filtered := noisePattern.ReplaceAllString(markdown, "")
	filtered = blankLinesPattern.ReplaceAllString(filtered, "\n\n")
	return strings.TrimSpace(filtered)
}
