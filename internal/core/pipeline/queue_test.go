package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"recipe-chat-agent/internal/core/recipe"
	"recipe-chat-agent/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUploader 記錄上傳的食譜，可選擇性失敗
type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	err      error
}

func (f *fakeUploader) Upload(ctx context.Context, r *recipe.Recipe) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.uploaded = append(f.uploaded, r.Name)
	return nil
}

func (f *fakeUploader) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploaded...)
}

func testQueueConfig() *config.Config {
	return &config.Config{
		Queue: config.QueueConfig{
			Workers: 1,
			MaxSize: 2,
		},
		Nextcloud: config.NextcloudConfig{
			Timeout: 5 * time.Second,
		},
	}
}

func TestSaveQueueProcessesJobs(t *testing.T) {
	uploader := &fakeUploader{}
	q := NewSaveQueue(testQueueConfig(), uploader)
	q.Start()
	defer q.Close()

	require.NoError(t, q.Enqueue(&recipe.Recipe{Name: "Lasagne"}))

	assert.Eventually(t, func() bool {
		return q.Status().ProcessedCount == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"Lasagne"}, uploader.names())
}

func TestSaveQueueRejectsWhenFull(t *testing.T) {
	uploader := &fakeUploader{}
	q := NewSaveQueue(testQueueConfig(), uploader)
	// 不啟動工作者，佇列只能容納 MaxSize 筆

	require.NoError(t, q.Enqueue(&recipe.Recipe{Name: "Eins"}))
	require.NoError(t, q.Enqueue(&recipe.Recipe{Name: "Zwei"}))

	err := q.Enqueue(&recipe.Recipe{Name: "Drei"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")
}

func TestSaveQueueCountsFailures(t *testing.T) {
	uploader := &fakeUploader{err: assert.AnError}
	q := NewSaveQueue(testQueueConfig(), uploader)
	q.Start()
	defer q.Close()

	require.NoError(t, q.Enqueue(&recipe.Recipe{Name: "Kaputt"}))

	assert.Eventually(t, func() bool {
		return q.Status().FailedCount == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, uploader.names())
}

func TestSaveQueueDrainsOnClose(t *testing.T) {
	uploader := &fakeUploader{}
	q := NewSaveQueue(testQueueConfig(), uploader)

	require.NoError(t, q.Enqueue(&recipe.Recipe{Name: "Eins"}))
	require.NoError(t, q.Enqueue(&recipe.Recipe{Name: "Zwei"}))

	q.Start()
	q.Close()

	assert.Equal(t, 2, q.Status().ProcessedCount)
	assert.Len(t, uploader.names(), 2)
}
