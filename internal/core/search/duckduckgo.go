package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"github.com/anaskhan96/soup"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// SearchResult 單筆搜尋結果
type SearchResult struct {
	URL     string
	Title   string
	Snippet string
}

// String 以 Markdown 連結格式輸出
func (r SearchResult) String() string {
	return fmt.Sprintf("**[%s](%s)**: %s", r.Title, r.URL, r.Snippet)
}

// FormatResults 將結果列表輸出為 Markdown 清單
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	items := make([]string, 0, len(results))
	for _, r := range results {
		items = append(items, r.String())
	}
	return "- " + strings.Join(items, "\n- ")
}

// DuckDuckGo DuckDuckGo HTML 搜尋客戶端
type DuckDuckGo struct {
	client *resty.Client
}

// NewDuckDuckGo 創建搜尋客戶端
func NewDuckDuckGo(cfg *config.Config) *DuckDuckGo {
	client := resty.New().
		SetBaseURL("https://html.duckduckgo.com").
		SetTimeout(cfg.Scraper.Timeout).
		SetHeader("User-Agent", cfg.Scraper.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &DuckDuckGo{client: client}
}

// Search 執行搜尋並解析結果頁
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]SearchResult, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get("/html/")
	if err != nil {
		return nil, common.NewTransportError("duckduckgo", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.NewTransportError("duckduckgo",
			fmt.Errorf("search returned status %d", resp.StatusCode()))
	}

	results := parseResults(resp.String())
	common.LogDebug("搜尋完成",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// parseResults 解析 DuckDuckGo HTML 結果頁
func parseResults(body string) []SearchResult {
	var results []SearchResult

	doc := soup.HTMLParse(body)
	if doc.Error != nil {
		common.LogWarn("搜尋結果頁解析失敗", zap.Error(doc.Error))
		return results
	}

	for _, el := range doc.FindAll("div", "class", "result__body") {
		link := el.Find("a", "class", "result__a")
		snippet := el.Find("a", "class", "result__snippet")
		if link.Error != nil || snippet.Error != nil {
			continue
		}

		href := link.Attrs()["href"]
		resultURL := extractURLParameter(href, "uddg")

		// 過濾廣告
		if extractURLParameter(resultURL, "ad_domain") != "" {
			continue
		}

		if href != "" && resultURL != "" {
			results = append(results, SearchResult{
				URL:     resultURL,
				Title:   link.FullText(),
				Snippet: snippet.FullText(),
			})
		}
	}

	return results
}

// extractURLParameter 取出網址查詢參數的值，不存在時回傳空字串
func extractURLParameter(rawURL, name string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get(name)
}
