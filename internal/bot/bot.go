package bot

import (
	"context"
	"fmt"
	"time"

	"recipe-chat-agent/internal/core/chat"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// startMessageFmt /start 指令的歡迎訊息
const startMessageFmt = "Hey! Ich bin dein RezeptBot! Schicke mir Links zu Rezepten und ich schicke dir die Zutaten und " +
	"Zubereitung ohne das Drumherum. Schreibe %s dazu wenn du das Rezept speichern möchtest."

// Bot Telegram 機器人，長輪詢接收訊息並交給分流器
type Bot struct {
	config   *config.Config
	api      *tgbotapi.BotAPI
	router   *chat.Router
	dispatch *dispatcher
}

// New 創建 Telegram 機器人
func New(cfg *config.Config, router *chat.Router) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	common.LogInfo("Telegram 機器人已連線",
		zap.String("bot_username", api.Self.UserName),
	)

	return &Bot{
		config:   cfg,
		api:      api,
		router:   router,
		dispatch: newDispatcher(),
	}, nil
}

// Run 開始長輪詢，直到 ctx 結束
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = int(b.config.Telegram.PollInterval / time.Second)
	if updateConfig.Timeout < 1 {
		updateConfig.Timeout = 5
	}

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.dispatch.close()
			common.LogInfo("Telegram 機器人已停止")
			return
		case update, ok := <-updates:
			if !ok {
				b.dispatch.close()
				return
			}
			if update.Message == nil {
				continue
			}
			// 同一聊天室的訊息按抵達順序處理，先來的連結先進歷史
			b.dispatch.dispatch(update.Message.Chat.ID, func() {
				b.handleUpdate(ctx, update)
			})
		}
	}
}

// handleUpdate 處理單一訊息
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	username := b.displayName(msg)

	if msg.IsCommand() && msg.Command() == "start" {
		b.sendStartMessage(msg.Chat.ID)
		return
	}

	text := msg.Text
	if msg.IsCommand() && msg.Command() == "rezept" {
		text = msg.CommandArguments()
	}

	common.LogInfo("收到 Telegram 訊息",
		zap.String("username", username),
		zap.Int("message_length", len(text)),
	)

	responder := &telegramResponder{api: b.api, chatID: msg.Chat.ID}
	b.router.HandleMessage(ctx, username, text, responder)
}

// sendStartMessage 回覆 /start 歡迎訊息
func (b *Bot) sendStartMessage(chatID int64) {
	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(startMessageFmt, b.config.Chat.SaveTerm))
	reply.DisableWebPagePreview = true
	if _, err := b.api.Send(reply); err != nil {
		common.LogError("歡迎訊息送出失敗", zap.Error(err))
	}
}

// displayName 取得使用者的顯示名稱
func (b *Bot) displayName(msg *tgbotapi.Message) string {
	if msg.From != nil && msg.From.FirstName != "" {
		return msg.From.FirstName
	}
	return "Du"
}

// telegramResponder 以 Telegram 訊息實作 Responder
// Edit 作用於最近一次 Send 的訊息
type telegramResponder struct {
	api           *tgbotapi.BotAPI
	chatID        int64
	lastMessageID int
}

// Send 送出新訊息並記住其 ID 供 Edit 使用
func (t *telegramResponder) Send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	sent, err := t.api.Send(msg)
	if err != nil {
		return err
	}
	t.lastMessageID = sent.MessageID
	return nil
}

// Edit 更新最近一次送出的訊息
func (t *telegramResponder) Edit(text string) error {
	if t.lastMessageID == 0 {
		return t.Send(text)
	}
	edit := tgbotapi.NewEditMessageText(t.chatID, t.lastMessageID, text)
	_, err := t.api.Send(edit)
	return err
}

// SendMarkdown 以 MarkdownV2 格式送出新訊息
func (t *telegramResponder) SendMarkdown(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	sent, err := t.api.Send(msg)
	if err != nil {
		return err
	}
	t.lastMessageID = sent.MessageID
	return nil
}
