package pipeline

import (
	"context"
	"fmt"

	aiservice "recipe-chat-agent/internal/core/ai/service"
	"recipe-chat-agent/internal/core/recipe"
	"recipe-chat-agent/internal/core/scraper"
	openrouter "recipe-chat-agent/internal/core/service"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"go.uber.org/zap"
)

// extractionInstruction 食譜擷取提示詞
const extractionInstruction = "Extract a cooking recipe from the given context.\n" +
	"* we need a list of ingredients and their quantities\n" +
	"* if there is a space between units and the amount, remove it, eg.: 100 ml Water should become 100ml " +
	"Water or 200 g Cream should become 200g Cream\n" +
	"* ingredient units can be g, kg, l, ml, EL, TL, Stück" +
	"* we need a list of instructions to prepare the recipe in a specific order\n" +
	"* do not re-phrase ingredients or instructions\n" +
	"* format for the time fields is PT0H30M0S\n" +
	"* if information is missing in the context leave the field empty\n" +
	"* make sure to fill in all fields of the JSON schema but do not make-up information, leave empty if unsure\n" +
	"* fill the keywords field with words that you think would help search for the recipe\n" +
	"* store all data in German language\n"

// Uploader 將食譜送往遠端儲存
type Uploader interface {
	Upload(ctx context.Context, r *recipe.Recipe) error
}

// Pipeline 食譜擷取管線：抓取頁面、LLM 結構化、背景儲存
type Pipeline struct {
	config    *config.Config
	scraper   *scraper.Scraper
	ai        *aiservice.Service
	saveQueue *SaveQueue
}

// NewPipeline 創建食譜擷取管線
func NewPipeline(cfg *config.Config, sc *scraper.Scraper, ai *aiservice.Service, uploader Uploader) *Pipeline {
	return &Pipeline{
		config:    cfg,
		scraper:   sc,
		ai:        ai,
		saveQueue: NewSaveQueue(cfg, uploader),
	}
}

// Start 啟動背景儲存工作者
func (p *Pipeline) Start() {
	p.saveQueue.Start()
}

// Close 關閉管線
func (p *Pipeline) Close() {
	p.saveQueue.Close()
}

// SaveQueueStatus 回傳背景儲存佇列狀態
func (p *Pipeline) SaveQueueStatus() *QueueStatus {
	return p.saveQueue.Status()
}

// Acquire 抓取網頁食譜並由 LLM 結構化
// save 為 true 時將結果排入背景儲存佇列
func (p *Pipeline) Acquire(ctx context.Context, pageURL string, save bool) (*recipe.Recipe, error) {
	result := p.scraper.Scrape(ctx, pageURL)
	if !result.Success {
		return nil, common.NewScrapeError(pageURL, fmt.Errorf("%s", result.ErrorMessage))
	}

	markdown := scraper.FilterMarkdown(result.Markdown)

	content := p.extractionPrompt()
	content += fmt.Sprintf("\nUrl: %s Context: %s", pageURL, markdown)

	common.LogInfo("送往 LLM 的擷取請求",
		zap.String("url", pageURL),
		zap.Int("content_length", len(content)),
	)

	response, err := p.ai.Complete(ctx,
		[]openrouter.Message{{Role: "user", Content: content}},
		recipe.DraftResponseFormat(),
		&openrouter.Options{
			Temperature: p.config.OpenRouter.Temperature,
			MaxTokens:   p.config.OpenRouter.MaxTokens,
		},
	)
	if err != nil {
		return nil, err
	}

	draft, err := recipe.NewDraft([]byte(common.ExtractJSONObject(response)))
	if err != nil {
		return nil, err
	}

	r := recipe.FromDraft(draft)

	if save {
		if imageURL := p.scraper.PreviewImage(ctx, pageURL); imageURL != "" {
			r.Image = imageURL
			r.ImageURL = imageURL
		}
		if err := p.saveQueue.Enqueue(r); err != nil {
			common.LogError("食譜無法排入儲存佇列", zap.Error(err))
		}
	}

	return r, nil
}

// extractionPrompt 組合擷取提示詞與額外指示
func (p *Pipeline) extractionPrompt() string {
	prompt := extractionInstruction
	if p.config.Chat.SpecialInstructions != "" {
		prompt += "* " + p.config.Chat.SpecialInstructions + "\n"
	}
	return prompt
}
