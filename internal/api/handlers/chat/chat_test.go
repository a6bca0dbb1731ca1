package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	chatcore "recipe-chat-agent/internal/core/chat"
	"recipe-chat-agent/internal/core/recipe"
	openrouter "recipe-chat-agent/internal/core/service"
	"recipe-chat-agent/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	response string
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []openrouter.Message, responseFormat map[string]interface{}, opts *openrouter.Options) (string, error) {
	return f.response, nil
}

type fakeAcquirer struct{}

func (f *fakeAcquirer) Acquire(ctx context.Context, pageURL string, save bool) (*recipe.Recipe, error) {
	return &recipe.Recipe{Name: "Testrezept", RecipeIngredient: []string{"1Ei"}}, nil
}

func newTestEngine(response string) *gin.Engine {
	cfg := &config.Config{
		Chat: config.ChatConfig{
			MaxHistoryLength: 10,
			MaxUsers:         10,
			MaxMessageLength: 2000,
			SaveTerm:         "#speichern",
		},
	}
	agent := chatcore.NewAgent(cfg, &fakeCompleter{response: response})
	router := chatcore.NewRouter(cfg, agent, &fakeAcquirer{},
		chatcore.NewHistory(cfg.Chat.MaxHistoryLength, cfg.Chat.MaxUsers))

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/chat", HandleChat(router))
	return engine
}

func postChat(t *testing.T, engine *gin.Engine, form url.Values) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleChatPlainMessage(t *testing.T) {
	engine := newTestEngine("Hallo zurück!")

	status, body := postChat(t, engine, url.Values{
		"message":  {"Wie geht's?"},
		"username": {"anna"},
	})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hallo zurück!", body["response"])
	assert.Equal(t, false, body["markdown"])
}

func TestHandleChatRecipeSetsMarkdownFlag(t *testing.T) {
	engine := newTestEngine("Schaue ich mir an!")

	status, body := postChat(t, engine, url.Values{
		"message": {"https://beispiel.de/rezept"},
	})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["markdown"])
	assert.Contains(t, body["response"], "Testrezept")
}

func TestHandleChatMissingMessage(t *testing.T) {
	engine := newTestEngine("egal")

	status, body := postChat(t, engine, url.Values{"username": {"anna"}})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}
