package chat

import (
	"context"
	"sync"
	"testing"

	"recipe-chat-agent/internal/core/recipe"
	"recipe-chat-agent/internal/core/search"
	openrouter "recipe-chat-agent/internal/core/service"
	"recipe-chat-agent/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChatConfig() *config.Config {
	return &config.Config{
		Chat: config.ChatConfig{
			MaxHistoryLength: 10,
			MaxUsers:         24,
			MaxMessageLength: 2000,
			SaveTerm:         "#speichern",
		},
	}
}

func newTestRouter(cfg *config.Config) *Router {
	return NewRouter(cfg, nil, nil, NewHistory(cfg.Chat.MaxHistoryLength, cfg.Chat.MaxUsers))
}

func TestClassifyPlainMessage(t *testing.T) {
	r := newTestRouter(testChatConfig())

	mode, urls := r.Classify("anna", "Was kochst du heute?")
	assert.Equal(t, ModeChat, mode)
	assert.Empty(t, urls)
}

func TestClassifyMessageWithURL(t *testing.T) {
	r := newTestRouter(testChatConfig())

	mode, urls := r.Classify("anna", "Schau mal https://beispiel.de/rezept an")
	assert.Equal(t, ModeRecipe, mode)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://beispiel.de/rezept", urls[0])
}

func TestClassifyMessageWithMultipleURLs(t *testing.T) {
	r := newTestRouter(testChatConfig())

	mode, urls := r.Classify("anna", "https://a.de/1 und https://b.de/2")
	assert.Equal(t, ModeRecipe, mode)
	assert.Len(t, urls, 2)
}

func TestClassifySaveTermRecallsLastURL(t *testing.T) {
	r := newTestRouter(testChatConfig())
	r.History().AddUserMessage("anna", "Das hier: https://beispiel.de/lasagne")
	r.History().AddAssistantResponse("anna", "*Lasagne* ...")

	mode, urls := r.Classify("anna", "#speichern")
	assert.Equal(t, ModeSaveLast, mode)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://beispiel.de/lasagne", urls[0])
}

func TestClassifySaveTermWithoutHistoryFallsBackToChat(t *testing.T) {
	r := newTestRouter(testChatConfig())

	mode, urls := r.Classify("anna", "#speichern")
	assert.Equal(t, ModeChat, mode)
	assert.Empty(t, urls)
}

func TestClassifySaveTermWithURLIsRecipe(t *testing.T) {
	r := newTestRouter(testChatConfig())

	mode, urls := r.Classify("anna", "https://beispiel.de/rezept #speichern")
	assert.Equal(t, ModeRecipe, mode)
	assert.Len(t, urls, 1)
}

func TestClassifySearchCommand(t *testing.T) {
	cfg := testChatConfig()
	r := newTestRouter(cfg)

	// 沒有掛搜尋代理時視為閒聊
	mode, _ := r.Classify("anna", "/suche Pasta Carbonara")
	assert.Equal(t, ModeChat, mode)

	r.SetSearchAgent(search.NewAgent(cfg, nil, nil, nil))
	mode, _ = r.Classify("anna", "/suche Pasta Carbonara")
	assert.Equal(t, ModeSearch, mode)
}

// fakeCompleter 以固定文字回覆模型呼叫
type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []openrouter.Message, responseFormat map[string]interface{}, opts *openrouter.Options) (string, error) {
	return f.response, f.err
}

// acquireCall 一次擷取呼叫的參數
type acquireCall struct {
	url  string
	save bool
}

// fakeAcquirer 記錄擷取呼叫，可設定為失敗
type fakeAcquirer struct {
	mu    sync.Mutex
	calls []acquireCall
	err   error
}

func (f *fakeAcquirer) Acquire(ctx context.Context, pageURL string, save bool) (*recipe.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, acquireCall{url: pageURL, save: save})
	if f.err != nil {
		return nil, f.err
	}
	return &recipe.Recipe{Name: "Testrezept", RecipeIngredient: []string{"1Ei"}}, nil
}

// recordingResponder 記錄所有送出與更新的訊息
type recordingResponder struct {
	mu        sync.Mutex
	sent      []string
	edits     []string
	markdowns []string
}

func (r *recordingResponder) Send(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return nil
}

func (r *recordingResponder) Edit(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, text)
	return nil
}

func (r *recordingResponder) SendMarkdown(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markdowns = append(r.markdowns, text)
	return nil
}

func TestHandleMessageAcquiresEachURL(t *testing.T) {
	cfg := testChatConfig()
	acquirer := &fakeAcquirer{}
	agent := NewAgent(cfg, &fakeCompleter{response: "Schaue ich mir an!"})
	r := NewRouter(cfg, agent, acquirer, NewHistory(10, 10))
	responder := &recordingResponder{}

	r.HandleMessage(context.Background(), "anna", "https://a.de/1 und https://b.de/2", responder)

	require.Len(t, acquirer.calls, 2)
	assert.Equal(t, acquireCall{url: "https://a.de/1", save: false}, acquirer.calls[0])
	assert.Equal(t, acquireCall{url: "https://b.de/2", save: false}, acquirer.calls[1])

	// 每個連結各回覆一份 MarkdownV2 食譜
	require.Len(t, responder.markdowns, 2)
	assert.Contains(t, responder.markdowns[0], "Testrezept")
	assert.Equal(t, "Schaue ich mir an!", responder.sent[0])
}

func TestHandleMessageStopsAfterFirstFailure(t *testing.T) {
	cfg := testChatConfig()
	acquirer := &fakeAcquirer{err: assert.AnError}
	agent := NewAgent(cfg, &fakeCompleter{response: "Schaue ich mir an!"})
	r := NewRouter(cfg, agent, acquirer, NewHistory(10, 10))
	responder := &recordingResponder{}

	r.HandleMessage(context.Background(), "anna", "https://a.de/1 und https://b.de/2", responder)

	// 第一個連結失敗後不再處理後續連結
	require.Len(t, acquirer.calls, 1)
	assert.Empty(t, responder.markdowns)
	assert.Contains(t, responder.sent, recipeFailedMsg)
}

func TestHandleMessageSaveLastSavesRecalledURL(t *testing.T) {
	cfg := testChatConfig()
	acquirer := &fakeAcquirer{}
	agent := NewAgent(cfg, &fakeCompleter{response: "Wird gespeichert!"})
	r := NewRouter(cfg, agent, acquirer, NewHistory(10, 10))
	r.History().AddUserMessage("anna", "Das hier: https://beispiel.de/lasagne")
	responder := &recordingResponder{}

	r.HandleMessage(context.Background(), "anna", "#speichern", responder)

	require.Len(t, acquirer.calls, 1)
	assert.Equal(t, acquireCall{url: "https://beispiel.de/lasagne", save: true}, acquirer.calls[0])

	// 靜態等待訊息加上模型產生的儲存確認
	require.GreaterOrEqual(t, len(responder.sent), 2)
	assert.Equal(t, savingMessage, responder.sent[0])
	assert.Equal(t, "Wird gespeichert!", responder.sent[len(responder.sent)-1])
}

func TestHandleMessageChatUpdatesHistory(t *testing.T) {
	cfg := testChatConfig()
	agent := NewAgent(cfg, &fakeCompleter{response: "Hallo zurück!"})
	history := NewHistory(10, 10)
	r := NewRouter(cfg, agent, nil, history)
	responder := &recordingResponder{}

	r.HandleMessage(context.Background(), "anna", "Wie geht's?", responder)

	require.NotEmpty(t, responder.edits)
	assert.Equal(t, "Hallo zurück!", responder.edits[len(responder.edits)-1])

	// 歷史恰好多了一筆使用者訊息與一筆回覆
	messages := history.Messages("anna", "sys")
	require.Len(t, messages, 3)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "Wie geht's?", messages[1].Content)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Equal(t, "Hallo zurück!", messages[2].Content)
}
