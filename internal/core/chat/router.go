package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recipe-chat-agent/internal/core/recipe"
	"recipe-chat-agent/internal/core/search"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"go.uber.org/zap"
)

// 等待動畫的節奏與上限
const (
	tickerInterval = 1500 * time.Millisecond
	tickerMaxAge   = 20 * time.Second
)

// 固定的使用者回覆（德文）
const (
	thinkingMessage  = "Kurz nachdenken"
	savingMessage    = "Rezept wird abgerufen und gespeichert"
	recipeFailedMsg  = "Etwas ist schiefgelaufen. Versuch es später nochmal!"
	noURLFallbackFmt = "Keine Webadressen in der Nachricht gefunden. Sende mir Internetadressen im Format " +
		"https://beispiel.de/dein-rezept. Versuchs einfach nochmal %s"
	searchFailedMsg = "Die Suche hat leider nichts Brauchbares ergeben. Versuch es mit anderen Worten!"
)

// searchPrefix 觸發網頁搜尋的指令
const searchPrefix = "/suche"

// Mode 一則訊息的處理方式
type Mode int

const (
	// ModeChat 不含連結的閒聊
	ModeChat Mode = iota
	// ModeRecipe 訊息含連結，擷取食譜
	ModeRecipe
	// ModeSaveLast 要求儲存上一份食譜
	ModeSaveLast
	// ModeSearch 以搜尋指令開頭，執行網頁搜尋
	ModeSearch
)

// Responder 訊息回覆通道，Telegram 與 Web 各自實作
type Responder interface {
	// Send 送出新訊息
	Send(text string) error
	// Edit 更新最近一次 Send 的訊息
	Edit(text string) error
	// SendMarkdown 以 MarkdownV2 格式送出新訊息
	SendMarkdown(text string) error
}

// Answerer 閒聊回覆介面，由 Agent 實作
type Answerer interface {
	AnswerMessage(ctx context.Context, history *History, username, message string) (string, error)
	AnswerMessageWithPrompt(ctx context.Context, history *History, username, message, prompt string) (string, error)
	AnswerMessageWithLink(ctx context.Context, history *History, username, message string) (string, error)
}

// Acquirer 食譜擷取介面，由擷取管線實作
type Acquirer interface {
	Acquire(ctx context.Context, pageURL string, save bool) (*recipe.Recipe, error)
}

// Router 將訊息分流至閒聊或食譜擷取
type Router struct {
	config   *config.Config
	agent    Answerer
	pipeline Acquirer
	history  *History
	search   *search.Agent
}

// NewRouter 創建訊息分流器
func NewRouter(cfg *config.Config, agent Answerer, p Acquirer, history *History) *Router {
	return &Router{
		config:   cfg,
		agent:    agent,
		pipeline: p,
		history:  history,
	}
}

// SetSearchAgent 掛上網頁搜尋代理，未設置時搜尋指令視為閒聊
func (r *Router) SetSearchAgent(agent *search.Agent) {
	r.search = agent
}

// History 回傳此分流器使用的對話歷史
func (r *Router) History() *History {
	return r.history
}

// Classify 判斷訊息的處理方式並回傳其中的網址
// 訊息含儲存關鍵字但沒有連結時，回頭找歷史中最後一則含連結的訊息
func (r *Router) Classify(username, message string) (Mode, []string) {
	if r.search != nil && strings.HasPrefix(strings.TrimSpace(message), searchPrefix) {
		return ModeSearch, nil
	}

	urls := common.ExtractURLs(message)
	save := strings.Contains(message, r.config.Chat.SaveTerm)

	if save && len(urls) == 0 {
		if recalled := r.history.LastMessageWithURL(username); len(recalled) > 0 {
			return ModeSaveLast, recalled
		}
		// 歷史中也沒有連結，退回閒聊
		return ModeChat, nil
	}

	if len(urls) > 0 {
		return ModeRecipe, urls
	}
	return ModeChat, nil
}

// HandleMessage 處理一則進來的訊息
func (r *Router) HandleMessage(ctx context.Context, username, message string, responder Responder) {
	mode, urls := r.Classify(username, message)

	switch mode {
	case ModeRecipe, ModeSaveLast:
		r.handleRecipe(ctx, username, message, urls, mode == ModeSaveLast, responder)
	case ModeSearch:
		r.handleSearch(ctx, message, responder)
	default:
		r.handleChat(ctx, username, message, responder)
	}
}

// handleSearch 執行網頁搜尋並回覆彙整後的摘要
func (r *Router) handleSearch(ctx context.Context, message string, responder Responder) {
	query := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(message), searchPrefix))
	if query == "" {
		if err := responder.Send(searchFailedMsg); err != nil {
			common.LogError("搜尋訊息送出失敗", zap.Error(err))
		}
		return
	}

	if err := responder.Send(thinkingMessage); err != nil {
		common.LogError("等待訊息送出失敗", zap.Error(err))
		return
	}

	stop := r.startTicker(ctx, responder, thinkingMessage)
	summary, err := r.search.Run(ctx, query)
	stop()

	if err != nil {
		common.LogError("網頁搜尋失敗",
			zap.String("query", query),
			zap.Error(err),
		)
		if err := responder.Edit(searchFailedMsg); err != nil {
			common.LogError("搜尋備援訊息送出失敗", zap.Error(err))
		}
		return
	}

	if err := responder.Edit(summary); err != nil {
		common.LogError("搜尋結果送出失敗", zap.Error(err))
	}
}

// handleChat 閒聊：回覆等待訊息、跑動畫、送出模型回覆
func (r *Router) handleChat(ctx context.Context, username, message string, responder Responder) {
	if err := responder.Send(thinkingMessage); err != nil {
		common.LogError("等待訊息送出失敗", zap.Error(err))
		return
	}

	stop := r.startTicker(ctx, responder, thinkingMessage)
	response, err := r.agent.AnswerMessage(ctx, r.history, username, message)
	stop()

	if err != nil {
		common.LogError("閒聊回覆失敗",
			zap.String("username", username),
			zap.Error(err),
		)
		fallback := fmt.Sprintf(noURLFallbackFmt, username)
		if err := responder.Edit(fallback); err != nil {
			common.LogError("備援訊息送出失敗", zap.Error(err))
		}
		return
	}

	if err := responder.Edit(response); err != nil {
		common.LogError("回覆訊息更新失敗", zap.Error(err))
	}
}

// handleRecipe 擷取訊息（或歷史）中每個連結的食譜
// justSave 為 true 時使用者已看過食譜，只確認儲存
func (r *Router) handleRecipe(ctx context.Context, username, message string, urls []string, justSave bool, responder Responder) {
	save := justSave || strings.Contains(message, r.config.Chat.SaveTerm)

	var waiting string
	if justSave {
		// 靜態回覆，加速進入儲存流程
		waiting = savingMessage
	} else {
		response, err := r.agent.AnswerMessageWithLink(ctx, r.history, username, message)
		if err != nil {
			common.LogWarn("連結確認回覆失敗", zap.Error(err))
			response = savingMessage
		}
		waiting = response
	}

	if err := responder.Send(waiting); err != nil {
		common.LogError("等待訊息送出失敗", zap.Error(err))
		return
	}

	for _, pageURL := range urls {
		stop := r.startTicker(ctx, responder, waiting)
		recipeObj, err := r.pipeline.Acquire(ctx, pageURL, save)
		stop()

		if err != nil {
			common.LogError("食譜擷取失敗",
				zap.String("url", pageURL),
				zap.Error(err),
			)
			if err := responder.Send(recipeFailedMsg); err != nil {
				common.LogError("錯誤訊息送出失敗", zap.Error(err))
			}
			return
		}

		if justSave {
			prompt := fmt.Sprintf("Der Benutzer %s hatte das speichern des zuletzt gesendeten Rezeptes angefragt. "+
				"Antworte das dass Speichern nun im Hintergrund erfolgt. "+
				"Seine Nachricht war: %s", username, message)
			confirmation, err := r.agent.AnswerMessageWithPrompt(ctx, r.history, username, message, prompt)
			if err != nil {
				confirmation = fmt.Sprintf("%s gespeichert.", recipeObj.Name)
			}
			if err := responder.Send(confirmation); err != nil {
				common.LogError("儲存確認送出失敗", zap.Error(err))
			}
			continue
		}

		markdown := recipe.ToMarkdown(recipeObj)
		r.history.AddUserMessage(username, message)
		r.history.AddAssistantResponse(username, markdown)
		if err := responder.SendMarkdown(markdown); err != nil {
			common.LogError("食譜訊息送出失敗", zap.Error(err))
		}
	}
}

// startTicker 在等待模型回應期間定期在訊息後追加跳動的點
// 回傳的函式會停止動畫並等待其結束，確保之後的 Edit 不會被覆寫
func (r *Router) startTicker(ctx context.Context, responder Responder, base string) (stop func()) {
	done := make(chan struct{})
	cancel := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()
		deadline := time.Now().Add(tickerMaxAge)

		dots := 0
		for {
			select {
			case <-ticker.C:
				if time.Now().After(deadline) {
					return
				}
				dots = (dots + 1) % 4
				if err := responder.Edit(base + " " + strings.Repeat(".", dots)); err != nil {
					common.LogDebug("等待動畫更新失敗", zap.Error(err))
				}
			case <-cancel:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		close(cancel)
		<-done
	}
}
