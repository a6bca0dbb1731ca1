package cookbook

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"recipe-chat-agent/internal/core/recipe"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client Nextcloud Cookbook API 客戶端
// API 文件：https://nextcloud.github.io/cookbook/dev/api/0.1.2/
type Client struct {
	config    *config.NextcloudConfig
	client    *resty.Client
	filestore *FileStore
}

// NewClient 創建 Nextcloud Cookbook 客戶端
func NewClient(cfg *config.Config, fs *FileStore) *Client {
	client := resty.New().
		SetBaseURL(cfg.Nextcloud.BaseURL).
		SetTimeout(cfg.Nextcloud.Timeout).
		SetBasicAuth(cfg.Nextcloud.Username, cfg.Nextcloud.AppPassword).
		SetHeader("Accept", "application/json")

	if !hasCredentials(&cfg.Nextcloud) {
		common.LogWarn("Nextcloud 設定不完整，食譜將不會上傳",
			zap.Bool("base_url_set", cfg.Nextcloud.BaseURL != ""),
			zap.Bool("username_set", cfg.Nextcloud.Username != ""),
		)
	}

	return &Client{
		config:    &cfg.Nextcloud,
		client:    client,
		filestore: fs,
	}
}

// hasCredentials 檢查必要的憑證是否齊全
func hasCredentials(cfg *config.NextcloudConfig) bool {
	return cfg.BaseURL != "" && cfg.Username != "" && cfg.AppPassword != ""
}

// ListRecipes 取得所有食譜的中繼資料
func (c *Client) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	if !hasCredentials(c.config) {
		return nil, common.NewConfigError("nextcloud credentials are incomplete")
	}

	var recipes []recipe.Recipe
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&recipes).
		Get("/index.php/apps/cookbook/api/v1/recipes")
	if err != nil {
		return nil, common.NewTransportError("cookbook", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.NewTransportError("cookbook",
			fmt.Errorf("list recipes: status %d: %s", resp.StatusCode(), resp.String()))
	}

	return recipes, nil
}

// GetRecipe 依 ID 取得單一食譜
func (c *Client) GetRecipe(ctx context.Context, id string) (*recipe.Recipe, error) {
	if !hasCredentials(c.config) {
		return nil, common.NewConfigError("nextcloud credentials are incomplete")
	}

	var r recipe.Recipe
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&r).
		Get("/index.php/apps/cookbook/api/v1/recipes/" + id)
	if err != nil {
		return nil, common.NewTransportError("cookbook", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, common.ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.NewTransportError("cookbook",
			fmt.Errorf("get recipe %s: status %d", id, resp.StatusCode()))
	}

	return &r, nil
}

// CreateRecipe 建立新食譜
func (c *Client) CreateRecipe(ctx context.Context, r *recipe.Recipe) error {
	if !hasCredentials(c.config) {
		return common.NewConfigError("nextcloud credentials are incomplete")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(r).
		Post("/index.php/apps/cookbook/api/v1/recipes")
	if err != nil {
		return common.NewTransportError("cookbook", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return common.NewTransportError("cookbook",
			fmt.Errorf("create recipe: status %d: %s", resp.StatusCode(), resp.String()))
	}

	return nil
}

// UpdateRecipe 更新既有食譜
func (c *Client) UpdateRecipe(ctx context.Context, id string, r *recipe.Recipe) error {
	if !hasCredentials(c.config) {
		return common.NewConfigError("nextcloud credentials are incomplete")
	}

	// 確保路徑中的 ID 與內容一致
	r.ID = id

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(r).
		Put("/index.php/apps/cookbook/api/v1/recipes/" + id)
	if err != nil {
		return common.NewTransportError("cookbook", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return common.NewTransportError("cookbook",
			fmt.Errorf("update recipe %s: status %d: %s", id, resp.StatusCode(), resp.String()))
	}

	return nil
}

// Reindex 觸發 Cookbook App 重建搜尋索引
func (c *Client) Reindex(ctx context.Context) error {
	if !hasCredentials(c.config) {
		return common.NewConfigError("nextcloud credentials are incomplete")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		Post("/apps/cookbook/api/v1/reindex")
	if err != nil {
		return common.NewTransportError("cookbook", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		common.LogInfo("食譜索引重建已觸發")
		return nil
	default:
		return common.NewTransportError("cookbook",
			fmt.Errorf("reindex: status %d", resp.StatusCode()))
	}
}

// Upload 上傳食譜：名稱相同則更新，否則配發新 ID 並建立
// 憑證不完整時只寫入本地檔案庫，不視為失敗
func (c *Client) Upload(ctx context.Context, r *recipe.Recipe) error {
	savedLocally := false
	if c.filestore != nil {
		if err := c.filestore.Save(ctx, r); err != nil {
			common.LogWarn("本地檔案庫寫入失敗",
				zap.String("recipe_name", r.Name),
				zap.Error(err),
			)
		} else {
			savedLocally = true
		}
	}

	if !hasCredentials(c.config) {
		common.LogWarn("Nextcloud 憑證不完整，跳過上傳",
			zap.String("recipe_name", r.Name),
		)
		return nil
	}

	existing, err := c.ListRecipes(ctx)
	if err != nil {
		return err
	}

	matched := ""
	for _, e := range existing {
		if e.Name == r.Name {
			matched = e.ID
			break
		}
	}

	if matched != "" {
		common.LogInfo("更新既有食譜",
			zap.String("recipe_id", matched),
			zap.String("recipe_name", r.Name),
		)
		err = c.UpdateRecipe(ctx, matched, r)
	} else {
		// 配發一個與既有食譜不衝突的新 ID
		existingIDs := make(map[int]struct{}, len(existing))
		for _, e := range existing {
			if id, convErr := strconv.Atoi(e.ID); convErr == nil {
				existingIDs[id] = struct{}{}
			}
		}
		r.ID = strconv.Itoa(recipe.AllocateID(existingIDs))

		common.LogInfo("建立新食譜",
			zap.String("recipe_id", r.ID),
			zap.String("recipe_name", r.Name),
		)
		err = c.CreateRecipe(ctx, r)
	}
	if err != nil {
		return err
	}

	// 檔案庫有新寫入時觸發重建索引，讓 Cookbook 看到資料夾內容
	if savedLocally {
		if reindexErr := c.Reindex(ctx); reindexErr != nil {
			common.LogWarn("重建索引失敗", zap.Error(reindexErr))
		}
	}

	return nil
}
