package chat

import (
	"sync"
	"time"

	openrouter "recipe-chat-agent/internal/core/service"
	"recipe-chat-agent/internal/pkg/common"

	"go.uber.org/zap"
)

// userLog 單一使用者的對話紀錄
type userLog struct {
	entries    []openrouter.Message
	lastActive time.Time
}

// History 對話歷史，依使用者名稱分開保存
// 每位使用者只保留最近 N 筆，使用者數超過上限時淘汰最久未活動者
type History struct {
	mu        sync.Mutex
	users     map[string]*userLog
	maxLength int
	maxUsers  int
}

// NewHistory 創建對話歷史
func NewHistory(maxLength, maxUsers int) *History {
	return &History{
		users:     make(map[string]*userLog),
		maxLength: maxLength,
		maxUsers:  maxUsers,
	}
}

// AddUserMessage 加入一則使用者訊息
func (h *History) AddUserMessage(username, content string) {
	h.add(username, openrouter.Message{Role: "user", Content: content})
}

// AddAssistantResponse 加入一則助手回覆
func (h *History) AddAssistantResponse(username, content string) {
	h.add(username, openrouter.Message{Role: "assistant", Content: content})
}

// Messages 取得以系統提示詞開頭的完整對話串
func (h *History) Messages(username, systemPrompt string) []openrouter.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	messages := []openrouter.Message{{Role: "system", Content: systemPrompt}}
	if log, ok := h.users[username]; ok {
		messages = append(messages, log.entries...)
	}
	return messages
}

// LastMessageWithURL 從最近的使用者訊息往回找出含有網址的一則並回傳其中的網址
func (h *History) LastMessageWithURL(username string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	log, ok := h.users[username]
	if !ok {
		return nil
	}

	for i := len(log.entries) - 1; i >= 0; i-- {
		if log.entries[i].Role != "user" {
			continue
		}
		if urls := common.ExtractURLs(log.entries[i].Content); len(urls) > 0 {
			return urls
		}
	}
	return nil
}

// UserCount 回傳目前追蹤的使用者數
func (h *History) UserCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users)
}

// add 附加一則訊息並裁剪至長度上限
func (h *History) add(username string, msg openrouter.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log, ok := h.users[username]
	if !ok {
		h.evictIfFull()
		log = &userLog{}
		h.users[username] = log
	}

	log.entries = append(log.entries, msg)
	if len(log.entries) > h.maxLength {
		log.entries = log.entries[len(log.entries)-h.maxLength:]
	}
	log.lastActive = time.Now()
}

// evictIfFull 使用者數達上限時移除最久未活動者（呼叫端需持有鎖）
func (h *History) evictIfFull() {
	if len(h.users) < h.maxUsers {
		return
	}

	var oldestUser string
	var oldestTime time.Time
	for name, log := range h.users {
		if oldestUser == "" || log.lastActive.Before(oldestTime) {
			oldestUser = name
			oldestTime = log.lastActive
		}
	}

	if oldestUser != "" {
		delete(h.users, oldestUser)
		common.LogInfo("對話歷史已淘汰使用者",
			zap.String("username", oldestUser),
			zap.Int("max_users", h.maxUsers),
		)
	}
}
