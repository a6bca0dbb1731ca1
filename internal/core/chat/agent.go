package chat

import (
	"context"
	"fmt"

	openrouter "recipe-chat-agent/internal/core/service"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"go.uber.org/zap"
)

// 系統提示詞（使用者介面語言為德文）
const (
	sysPromptInstructions = "* erstelle keine Rezepte\n" +
		"* sei locker, das ist ein junger Messenger Dienst\n" +
		"* falls der Benutzer bereits Nachrichten gesendet hat, halte deine Antworten kurz\n"

	sysPromptNoLink = "Du bist ein RezeptBot und kannst aus Links zu Webseiten Rezepte extrahieren. Antworte dem Benutzer " +
		"und erkläre ihm das die letzte Nachricht keinen Link in der Form https://beispiel.com/leckeres-rezept " +
		"enthielt.\n"

	sysPromptLink = "Du bist ein RezeptBot und kannst aus Links zu Webseiten Rezepte extrahieren.\n"
)

// Completer 模型呼叫介面，由 AI 服務實作
type Completer interface {
	Complete(ctx context.Context, messages []openrouter.Message, responseFormat map[string]interface{}, opts *openrouter.Options) (string, error)
}

// Agent 閒聊代理，處理不含食譜連結的對話
type Agent struct {
	config *config.Config
	ai     Completer
}

// NewAgent 創建閒聊代理
func NewAgent(cfg *config.Config, ai Completer) *Agent {
	return &Agent{
		config: cfg,
		ai:     ai,
	}
}

// AnswerMessage 回覆一則不含連結的訊息
func (a *Agent) AnswerMessage(ctx context.Context, history *History, username, message string) (string, error) {
	message = a.truncate(message)
	prompt := fmt.Sprintf("Der Benutzer %s hat diese Nachricht ohne Links geschickt: %s\n", username, message)
	return a.answer(ctx, history, username, message, prompt, sysPromptNoLink)
}

// AnswerMessageWithPrompt 以呼叫端提供的提示詞回覆（例如儲存確認）
func (a *Agent) AnswerMessageWithPrompt(ctx context.Context, history *History, username, message, prompt string) (string, error) {
	return a.answer(ctx, history, username, a.truncate(message), prompt, sysPromptNoLink)
}

// AnswerMessageWithLink 在開始抓取前回覆一則簡短確認
func (a *Agent) AnswerMessageWithLink(ctx context.Context, history *History, username, message string) (string, error) {
	message = a.truncate(message)
	prompt := fmt.Sprintf("Der Benutzer %s hat einen Link geschickt. Antworte sehr kurz das du dir den Link nun anschaust.", username)
	return a.answer(ctx, history, username, message, prompt, sysPromptLink)
}

// answer 組合系統提示詞與歷史後送往模型，並更新歷史
func (a *Agent) answer(ctx context.Context, history *History, username, message, prompt, sysPrompt string) (string, error) {
	messages := history.Messages(username, a.systemPrompt(sysPrompt))
	messages = append(messages, openrouter.Message{Role: "user", Content: prompt})

	common.LogDebug("閒聊請求",
		zap.String("username", username),
		zap.Int("messages", len(messages)),
	)

	response, err := a.ai.Complete(ctx, messages, nil, nil)
	if err != nil {
		return "", err
	}

	history.AddUserMessage(username, message)
	history.AddAssistantResponse(username, response)
	return response, nil
}

// systemPrompt 組合基本提示詞、共用指示與額外指示
func (a *Agent) systemPrompt(base string) string {
	prompt := base + sysPromptInstructions
	if a.config.Chat.SpecialInstructions != "" {
		prompt += a.config.Chat.SpecialInstructions
	}
	return prompt
}

// truncate 將訊息裁剪至長度上限
func (a *Agent) truncate(message string) string {
	limit := a.config.Chat.MaxMessageLength
	if limit > 0 && len(message) > limit {
		runes := []rune(message)
		if len(runes) > limit {
			return string(runes[:limit])
		}
	}
	return message
}
