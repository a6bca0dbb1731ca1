package common

import (
	"regexp"

	"github.com/google/uuid"
)

// urlPattern 比對訊息中的網址（與 Telegram 及 Web 入口共用同一規則）
var urlPattern = regexp.MustCompile(`https?://\S+`)

// unsafeFileChars 檔案系統不允許的字元
var unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// ExtractURLs 從訊息文字中取出所有 http(s) 網址，無則回傳 nil
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// SafeFileName 將名稱轉為檔案系統安全的形式
func SafeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}
