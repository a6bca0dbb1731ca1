package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"recipe-chat-agent/internal/core/recipe"
	"recipe-chat-agent/internal/infrastructure/config"
	"recipe-chat-agent/internal/pkg/common"

	"go.uber.org/zap"
)

// SaveJob 背景儲存任務
type SaveJob struct {
	ID     string
	Recipe *recipe.Recipe
}

// QueueStatus 儲存佇列狀態
type QueueStatus struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	FailedCount    int `json:"failed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// SaveQueue 背景儲存佇列
// 儲存失敗只記錄日誌，不影響已回覆使用者的訊息
type SaveQueue struct {
	config   *config.Config
	uploader Uploader
	queue    chan *SaveJob
	done     chan struct{}
	wg       sync.WaitGroup

	processed int64
	failed    int64
}

// NewSaveQueue 創建背景儲存佇列
func NewSaveQueue(cfg *config.Config, uploader Uploader) *SaveQueue {
	return &SaveQueue{
		config:   cfg,
		uploader: uploader,
		queue:    make(chan *SaveJob, cfg.Queue.MaxSize),
		done:     make(chan struct{}),
	}
}

// Start 啟動工作者
func (q *SaveQueue) Start() {
	for i := 0; i < q.config.Queue.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	common.LogInfo("儲存佇列已啟動",
		zap.Int("workers", q.config.Queue.Workers),
		zap.Int("max_queue_size", q.config.Queue.MaxSize),
	)
}

// Enqueue 將食譜排入儲存佇列
func (q *SaveQueue) Enqueue(r *recipe.Recipe) error {
	job := &SaveJob{
		ID:     common.GenerateUUID(),
		Recipe: r,
	}

	select {
	case q.queue <- job:
		common.LogInfo("食譜已排入儲存佇列",
			zap.String("job_id", job.ID),
			zap.String("recipe_name", r.Name),
			zap.Int("queue_length", len(q.queue)),
		)
		return nil
	case <-q.done:
		return fmt.Errorf("save queue is closed")
	default:
		return fmt.Errorf("save queue is full")
	}
}

// Status 回傳佇列狀態
func (q *SaveQueue) Status() *QueueStatus {
	return &QueueStatus{
		QueueLength:    len(q.queue),
		ProcessedCount: int(atomic.LoadInt64(&q.processed)),
		FailedCount:    int(atomic.LoadInt64(&q.failed)),
		MaxQueueSize:   q.config.Queue.MaxSize,
		Workers:        q.config.Queue.Workers,
	}
}

// Close 關閉佇列並等待工作者結束
func (q *SaveQueue) Close() {
	close(q.done)
	q.wg.Wait()
}

// worker 佇列工作者
func (q *SaveQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case job := <-q.queue:
			q.process(job)
		case <-q.done:
			// 收尾：清空剩餘任務後結束
			for {
				select {
				case job := <-q.queue:
					q.process(job)
				default:
					common.LogInfo("儲存工作者結束", zap.Int("worker", id))
					return
				}
			}
		}
	}
}

// process 執行單一儲存任務
func (q *SaveQueue) process(job *SaveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), q.config.Nextcloud.Timeout+time.Minute)
	defer cancel()

	start := time.Now()
	if err := q.uploader.Upload(ctx, job.Recipe); err != nil {
		atomic.AddInt64(&q.failed, 1)
		common.LogError("背景儲存失敗",
			zap.String("job_id", job.ID),
			zap.String("recipe_name", job.Recipe.Name),
			zap.Error(err),
		)
		return
	}

	atomic.AddInt64(&q.processed, 1)
	common.LogInfo("食譜儲存完成",
		zap.String("job_id", job.ID),
		zap.String("recipe_name", job.Recipe.Name),
		zap.Duration("duration", time.Since(start)),
	)
}
