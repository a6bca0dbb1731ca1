package cookbook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"recipe-chat-agent/internal/core/recipe"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNextcloudConfig(baseURL string) *config.Config {
	return &config.Config{
		Nextcloud: config.NextcloudConfig{
			BaseURL:     baseURL,
			Username:    "bot",
			AppPassword: "geheim",
			Timeout:     5 * time.Second,
		},
	}
}

func TestUploadUpdatesExistingRecipe(t *testing.T) {
	var putPath string
	var putBody recipe.Recipe

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/index.php/apps/cookbook/api/v1/recipes":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"42","name":"Lasagne"},{"id":"7","name":"Linseneintopf"}]`))
		case r.Method == http.MethodPut:
			putPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unerwarteter Aufruf: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	c := NewClient(testNextcloudConfig(ts.URL), nil)
	r := &recipe.Recipe{Name: "Lasagne", RecipeIngredient: []string{"500g Nudeln"}}

	require.NoError(t, c.Upload(context.Background(), r))
	assert.Equal(t, "/index.php/apps/cookbook/api/v1/recipes/42", putPath)
	assert.Equal(t, "42", putBody.ID)
	assert.Equal(t, "Lasagne", putBody.Name)
}

func TestUploadCreatesNewRecipe(t *testing.T) {
	var created recipe.Recipe

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/index.php/apps/cookbook/api/v1/recipes":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"42","name":"Lasagne"}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/index.php/apps/cookbook/api/v1/recipes":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unerwarteter Aufruf: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	c := NewClient(testNextcloudConfig(ts.URL), nil)
	r := &recipe.Recipe{Name: "Käsespätzle"}

	require.NoError(t, c.Upload(context.Background(), r))
	assert.Equal(t, "Käsespätzle", created.Name)

	id, err := strconv.Atoi(created.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, id, 100000)
	assert.LessOrEqual(t, id, 999999)
	assert.NotEqual(t, 42, id)
}

func TestUploadWithoutCredentialsIsNoop(t *testing.T) {
	cfg := &config.Config{Nextcloud: config.NextcloudConfig{Timeout: time.Second}}
	c := NewClient(cfg, nil)

	// 憑證不完整時不視為失敗，只是跳過上傳
	err := c.Upload(context.Background(), &recipe.Recipe{Name: "Lasagne"})
	assert.NoError(t, err)
}

func TestGetRecipeNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(testNextcloudConfig(ts.URL), nil)
	_, err := c.GetRecipe(context.Background(), "999")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReindex(t *testing.T) {
	var called bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/apps/cookbook/api/v1/reindex" {
			called = true
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(testNextcloudConfig(ts.URL), nil)
	require.NoError(t, c.Reindex(context.Background()))
	assert.True(t, called)
}
