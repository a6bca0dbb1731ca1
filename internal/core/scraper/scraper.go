package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/go-resty/resty/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// siteOverride 特定站點的內容選擇規則
type siteOverride struct {
	selector string // 只保留符合此選擇器的節點
	excluded string // 移除符合此選擇器的節點
}

// siteOverrides 以主機名子字串比對的站點規則
var siteOverrides = map[string]siteOverride{
	"chefkoch": {
		selector: "main article",
		excluded: "article#recipe-comments, amp-img, amp-carousel, amp-lightbox, amp-social-share",
	},
}

// Result 抓取結果
type Result struct {
	Success      bool
	Markdown     string
	ErrorMessage string
}

// Scraper 網頁抓取器，抓取頁面並轉換為 Markdown
type Scraper struct {
	config      *config.Config
	client      *resty.Client
	mdConverter *converter.Converter
	sanitizer   *bluemonday.Policy
}

// NewScraper 創建網頁抓取器
func NewScraper(cfg *config.Config) *Scraper {
	client := resty.New().
		SetTimeout(cfg.Scraper.Timeout).
		SetHeader("User-Agent", cfg.Scraper.UserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &Scraper{
		config: cfg,
		client: client,
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Scrape 抓取頁面並回傳 Markdown 內容
func (s *Scraper) Scrape(ctx context.Context, pageURL string) *Result {
	rawHTML, err := s.fetch(ctx, pageURL)
	if err != nil {
		return &Result{ErrorMessage: err.Error()}
	}

	content, err := s.narrow(rawHTML, pageURL)
	if err != nil {
		return &Result{ErrorMessage: err.Error()}
	}

	// 清除腳本與樣式等無關節點後再轉 Markdown
	content = s.sanitizer.Sanitize(content)

	markdown, err := s.mdConverter.ConvertString(content, converter.WithDomain(pageURL))
	if err != nil || strings.TrimSpace(markdown) == "" {
		return &Result{ErrorMessage: fmt.Sprintf("markdown conversion failed: %v", err)}
	}

	common.LogDebug("頁面抓取完成",
		zap.String("url", pageURL),
		zap.Int("markdown_length", len(markdown)),
	)

	return &Result{Success: true, Markdown: strings.TrimSpace(markdown)}
}

// PreviewImage 取得頁面的預覽圖片網址（og:image 或 twitter:image）
func (s *Scraper) PreviewImage(ctx context.Context, pageURL string) string {
	rawHTML, err := s.fetch(ctx, pageURL)
	if err != nil {
		common.LogWarn("預覽圖片抓取失敗", zap.String("url", pageURL), zap.Error(err))
		return ""
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	for _, n := range querySelectorAll(doc, "meta[property=og:image], meta[name=twitter:image]") {
		if content := getAttr(n, "content"); content != "" {
			return content
		}
	}
	return ""
}

// fetch 下載頁面 HTML
func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return "", common.NewScrapeError(pageURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", common.NewScrapeError(pageURL, fmt.Errorf("status %d", resp.StatusCode()))
	}
	return resp.String(), nil
}

// narrow 依站點規則裁剪頁面內容，無規則時回傳完整 HTML
func (s *Scraper) narrow(rawHTML, pageURL string) (string, error) {
	override, ok := s.overrideFor(pageURL)
	if !ok {
		return rawHTML, nil
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", common.NewScrapeError(pageURL, fmt.Errorf("parse html: %w", err))
	}

	if override.excluded != "" {
		removeMatching(doc, override.excluded)
	}

	matches := querySelectorAll(doc, override.selector)
	if len(matches) == 0 {
		// 選擇器沒有命中時退回完整頁面
		common.LogWarn("站點選擇器未命中",
			zap.String("url", pageURL),
			zap.String("selector", override.selector),
		)
		return rawHTML, nil
	}

	return renderNodes(matches), nil
}

// overrideFor 依主機名尋找站點規則
func (s *Scraper) overrideFor(pageURL string) (siteOverride, bool) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return siteOverride{}, false
	}
	host := parsed.Hostname()
	for key, override := range siteOverrides {
		if strings.Contains(host, key) {
			return override, true
		}
	}
	return siteOverride{}, false
}
