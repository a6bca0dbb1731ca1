package chat

import (
	"net/http"

	chatcore "recipe-chat-agent/internal/core/chat"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// defaultUsername 未提供名稱時的網頁使用者
const defaultUsername = "Web-Nutzer"

// webResponder 以緩衝方式實作 Responder
// 網頁一問一答，等待訊息與動畫只在內部更新，最後一次 Send/Edit 的文字成為回應
type webResponder struct {
	text     string
	markdown bool
}

func (w *webResponder) Send(text string) error {
	w.text = text
	w.markdown = false
	return nil
}

func (w *webResponder) Edit(text string) error {
	w.text = text
	return nil
}

func (w *webResponder) SendMarkdown(text string) error {
	w.text = text
	w.markdown = true
	return nil
}

// HandleChat 處理網頁聊天請求
// 表單欄位：message（訊息內容）、username（使用者名稱，可省略）
func HandleChat(router *chatcore.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		message := c.PostForm("message")
		username := c.PostForm("username")
		if username == "" {
			username = defaultUsername
		}

		if message == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "message is required",
				"code":  common.ErrCodeInvalidRequest,
			})
			return
		}

		common.LogInfo("收到網頁訊息",
			zap.String("username", username),
			zap.Int("message_length", len(message)),
			zap.String("request_id", c.GetHeader("X-Request-ID")),
		)

		responder := &webResponder{}
		router.HandleMessage(c.Request.Context(), username, message, responder)

		// markdown 標記讓前端知道回覆是 MarkdownV2 格式的食譜
		c.JSON(http.StatusOK, gin.H{
			"response": responder.text,
			"markdown": responder.markdown,
		})
	}
}
