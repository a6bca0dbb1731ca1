package search

import (
	"context"
	"fmt"
	"strings"

	aiservice "recipe-chat-agent/internal/core/ai/service"
	"recipe-chat-agent/internal/core/scraper"
	openrouter "recipe-chat-agent/internal/core/service"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"go.uber.org/zap"
)

// maxIterations 搜尋細化的最大輪數
const maxIterations = 4

// scrapedContentLimit 送往摘要的內容長度上限
const scrapedContentLimit = 10000

// selectionSystemPrompt 搜尋結果篩選的系統提示詞
const selectionSystemPrompt = "You are a Web Search Assistant. You try to understand the meaning of the user's search query what he had " +
	"in mind when formulating this query. You need to decide between two options:\n" +
	"1. Select the 3 most relevant search results from the current search\n" +
	"-OR-\n" +
	"2. formulate a refined query of which you think will yield more relevant results\n\n" +
	"Think through your decision what could the user have exactly meant with the search query.\n\n" +
	"* Store your decision as a Boolean to refine or not to refine the search in the " +
	"refine_search_query field\n" +
	"* if you want to refine the search query, store it in the field refined_search_query\n"

// summarySystemPrompt 單頁內容摘要的系統提示詞
const summarySystemPrompt = "You are Web Search Assistant. Take this markdown cluttered with " +
	"general website content and create a concise summary of the article or " +
	"what is presented on that webpage. Ignore comments and social media " +
	"links.\n" +
	"* an ideal summary will not exceed 8192 tokens.\n" +
	"* stick to the original content as much as possible\n" +
	"* if the content is not helpful or related to the user search query " +
	"return the word None"

// combineSystemPrompt 彙整搜尋結果摘要的系統提示詞
const combineSystemPrompt = `<GOAL>
Generate a high-quality summary of the web search results and keep it concise / related to the user topic.
</GOAL>

<REQUIREMENTS>
When creating a NEW summary:
1. Highlight the most relevant information related to the user topic from the search results
2. Ensure a coherent flow of information

When EXTENDING an existing summary:
1. Read the existing summary and new search results carefully.
2. Compare the new information with the existing summary.
3. For each piece of new information:
    a. If it's related to existing points, integrate it into the relevant paragraph.
    b. If it's entirely new but relevant, add a new paragraph with a smooth transition.
    c. If it's not relevant to the user topic, skip it.
4. Ensure all additions are relevant to the user's topic.
5. Verify that your final output differs from the input summary.
</REQUIREMENTS>

<FORMATTING>
- Start directly with the updated summary, without preamble or titles. Do not use XML tags in the output.
</FORMATTING>`

// ResultSelection LLM 對搜尋結果的判斷
type ResultSelection struct {
	RelevantURLs       []string `json:"relevant_urls"`
	RefineSearchQuery  bool     `json:"refine_search_query"`
	RefinedSearchQuery string   `json:"refined_search_query"`
}

// selectionResponseFormat ResultSelection 對應的結構化輸出格式
func selectionResponseFormat() map[string]interface{} {
	return map[string]interface{}{
		"type": "json_schema",
		"json_schema": map[string]interface{}{
			"name":   "SearchResultSelection",
			"strict": true,
			"schema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"relevant_urls": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"refine_search_query":  map[string]interface{}{"type": "boolean"},
					"refined_search_query": map[string]interface{}{"type": "string"},
				},
				"required":             []string{"relevant_urls", "refine_search_query", "refined_search_query"},
				"additionalProperties": false,
			},
		},
	}
}

// Agent 網頁搜尋代理：搜尋、篩選、逐頁摘要後彙整
type Agent struct {
	config  *config.Config
	ddg     *DuckDuckGo
	scraper *scraper.Scraper
	ai      *aiservice.Service
}

// NewAgent 創建搜尋代理
func NewAgent(cfg *config.Config, ddg *DuckDuckGo, sc *scraper.Scraper, ai *aiservice.Service) *Agent {
	return &Agent{
		config:  cfg,
		ddg:     ddg,
		scraper: sc,
		ai:      ai,
	}
}

// Run 執行完整搜尋流程並回傳彙整後的摘要
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	selection, err := a.iterativeRefine(ctx, query)
	if err != nil {
		return "", err
	}

	summary := ""
	for _, pageURL := range selection.RelevantURLs {
		result := a.scraper.Scrape(ctx, pageURL)
		if !result.Success {
			common.LogWarn("搜尋結果頁抓取失敗",
				zap.String("url", pageURL),
				zap.String("error", result.ErrorMessage),
			)
			continue
		}

		pageSummary, err := a.summarizePage(ctx, result.Markdown, query)
		if err != nil {
			common.LogWarn("搜尋結果摘要失敗", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		if len(pageSummary) <= 10 {
			common.LogInfo("略過無幫助的搜尋結果", zap.String("url", pageURL))
			continue
		}

		summary, err = a.combine(ctx, summary, pageSummary, query)
		if err != nil {
			return "", err
		}
	}

	if summary == "" {
		return "", fmt.Errorf("no usable search results for query: %s", query)
	}
	return summary, nil
}

// iterativeRefine 反覆細化搜尋語句直到模型選定結果或達到輪數上限
func (a *Agent) iterativeRefine(ctx context.Context, query string) (*ResultSelection, error) {
	messages := []openrouter.Message{
		{Role: "system", Content: selectionSystemPrompt},
	}

	var selection ResultSelection
	for iteration := 0; ; iteration++ {
		results, err := a.ddg.Search(ctx, query)
		if err != nil {
			return nil, err
		}

		prompt := fmt.Sprintf("User search query: %q\nResults:\n%s", query, FormatResults(results))
		messages = append(messages, openrouter.Message{Role: "user", Content: prompt})

		response, err := a.ai.Complete(ctx, messages, selectionResponseFormat(), nil)
		if err != nil {
			return nil, err
		}
		messages = append(messages, openrouter.Message{Role: "assistant", Content: response})

		if err := common.ParseJSON(common.ExtractJSONObject(response), &selection); err != nil {
			return nil, common.NewExtractionError(err)
		}

		if iteration >= maxIterations {
			break
		}

		if !selection.RefineSearchQuery {
			common.LogInfo("搜尋完成", zap.Int("iterations", iteration+1))
			break
		}

		common.LogInfo("細化搜尋語句",
			zap.String("from", query),
			zap.String("to", selection.RefinedSearchQuery),
		)
		query = selection.RefinedSearchQuery
	}

	return &selection, nil
}

// summarizePage 摘要單一搜尋結果頁
func (a *Agent) summarizePage(ctx context.Context, markdown, query string) (string, error) {
	if len(markdown) > scrapedContentLimit {
		markdown = markdown[:scrapedContentLimit]
	}

	messages := []openrouter.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"The query we are searching the Web for is: %q\nThis is the extracted markdown:\n%s",
			query, markdown)},
	}

	response, err := a.ai.Complete(ctx, messages, nil, &openrouter.Options{
		Temperature: 0,
		MaxTokens:   8192,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// combine 將新的頁面摘要併入既有摘要
func (a *Agent) combine(ctx context.Context, existing, pageSummary, query string) (string, error) {
	messages := []openrouter.Message{
		{Role: "system", Content: combineSystemPrompt},
	}
	if existing != "" {
		messages = append(messages, openrouter.Message{
			Role:    "assistant",
			Content: existing,
		})
	}
	messages = append(messages, openrouter.Message{
		Role: "user",
		Content: fmt.Sprintf("<Query>\n%s\n<Query>\n\n<New Search Result>\n%s\n<New Search Result>",
			query, pageSummary),
	})

	response, err := a.ai.Complete(ctx, messages, nil, &openrouter.Options{
		Temperature: 0.1,
		MaxTokens:   a.config.OpenRouter.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}
