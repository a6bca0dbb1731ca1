package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"time"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"github.com/go-resty/resty/v2"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/webp" // 支援 WebP
)

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	client       *resty.Client
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
		client:       resty.New().SetTimeout(30 * time.Second),
	}
}

// Download 下載並解碼圖片
func (s *Service) Download(ctx context.Context, imageURL string) (image.Image, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status code %d", resp.StatusCode())
	}

	imageBytes := resp.Body()

	// 檢查文件大小
	if int64(len(imageBytes)) > s.maxSizeBytes {
		return nil, fmt.Errorf("image size exceeds maximum limit of %d bytes", s.maxSizeBytes)
	}

	// 解碼圖片
	img, format, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if !isSupportedFormat(format) {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	return img, nil
}

// ResizeAndCrop 將圖片縮放至最長邊不超過 maxSize 後從中心裁切為正方形
func ResizeAndCrop(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	// 計算縮放後尺寸
	var newWidth, newHeight int
	if originalWidth > originalHeight {
		newWidth = maxSize
		newHeight = maxSize * originalHeight / originalWidth
	} else {
		newHeight = maxSize
		newWidth = maxSize * originalWidth / originalHeight
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	// 縮放
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	// 從中心裁切為正方形
	minDimension := newWidth
	if newHeight < minDimension {
		minDimension = newHeight
	}
	cropStartX := (newWidth - minDimension) / 2
	cropStartY := (newHeight - minDimension) / 2

	cropped := image.NewRGBA(image.Rect(0, 0, minDimension, minDimension))
	draw.Draw(cropped, cropped.Bounds(), resized, image.Pt(cropStartX, cropStartY), draw.Src)

	return cropped
}

// SaveJPEG 將圖片以 JPEG 格式寫入檔案
func SaveJPEG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to encode image as JPEG: %w", err)
	}
	return nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"jpg":  true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
