package cookbook

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	imagesvc "recipe-chat-agent/internal/core/image"
	"recipe-chat-agent/internal/core/recipe"
	"recipe-chat-agent/internal/pkg/common"

	"go.uber.org/zap"
)

// previewSizes 預覽圖片的檔名與最長邊尺寸
var previewSizes = map[string]int{
	"full":    1024,
	"thumb":   256,
	"thumb16": 16,
}

// FileStore 本地食譜檔案庫，目錄結構與 Nextcloud Cookbook 相容
// 每份食譜一個資料夾：recipe.json 加上三種尺寸的預覽圖
type FileStore struct {
	baseDir string
	images  *imagesvc.Service
}

// NewFileStore 創建本地檔案庫，baseDir 為空時回傳 nil
func NewFileStore(baseDir string, images *imagesvc.Service) *FileStore {
	if baseDir == "" {
		return nil
	}
	return &FileStore{
		baseDir: baseDir,
		images:  images,
	}
}

// Save 將食譜寫入本地檔案庫
func (fs *FileStore) Save(ctx context.Context, r *recipe.Recipe) error {
	if _, err := os.Stat(fs.baseDir); err != nil {
		return fmt.Errorf("recipe folder not available: %w", err)
	}

	dir := filepath.Join(fs.baseDir, common.SafeFileName(r.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create recipe folder: %w", err)
	}

	if err := fs.writeRecipeData(dir, r); err != nil {
		return err
	}

	fs.writePreviewImages(ctx, dir, r)

	common.LogInfo("食譜已寫入本地檔案庫",
		zap.String("recipe_name", r.Name),
		zap.String("directory", dir),
	)
	return nil
}

// writeRecipeData 寫入 recipe.json
func (fs *FileStore) writeRecipeData(dir string, r *recipe.Recipe) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "recipe.json"), data, 0o644); err != nil {
		return fmt.Errorf("write recipe.json: %w", err)
	}
	return nil
}

// writePreviewImages 下載預覽圖並輸出三種尺寸
// 圖片失敗不影響食譜資料本身
func (fs *FileStore) writePreviewImages(ctx context.Context, dir string, r *recipe.Recipe) {
	if fs.images == nil || r.Image == "" {
		return
	}

	img, err := fs.images.Download(ctx, r.Image)
	if err != nil {
		common.LogWarn("預覽圖片下載失敗",
			zap.String("image_url", r.Image),
			zap.Error(err),
		)
		return
	}

	for name, maxSize := range previewSizes {
		resized := imagesvc.ResizeAndCrop(img, maxSize)
		path := filepath.Join(dir, name+".jpg")
		if err := imagesvc.SaveJPEG(resized, path); err != nil {
			common.LogWarn("預覽圖片寫入失敗",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
}
