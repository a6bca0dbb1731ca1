package bot

import (
	"sync"
)

// dispatchQueueSize 單一聊天室可排隊的訊息數
const dispatchQueueSize = 16

// dispatcher 依聊天室序列化訊息處理
// 同一聊天室的訊息按抵達順序逐一執行，不同聊天室互不阻塞
type dispatcher struct {
	mu     sync.Mutex
	queues map[int64]chan func()
	wg     sync.WaitGroup
	done   chan struct{}
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		queues: make(map[int64]chan func()),
		done:   make(chan struct{}),
	}
}

// dispatch 將處理函式排入聊天室的佇列，第一次見到的聊天室會啟動專屬工作者
func (d *dispatcher) dispatch(chatID int64, fn func()) {
	d.mu.Lock()
	queue, ok := d.queues[chatID]
	if !ok {
		queue = make(chan func(), dispatchQueueSize)
		d.queues[chatID] = queue
		d.wg.Add(1)
		go d.worker(queue)
	}
	d.mu.Unlock()

	select {
	case queue <- fn:
	case <-d.done:
	}
}

// worker 逐一執行單一聊天室的訊息處理
func (d *dispatcher) worker(queue chan func()) {
	defer d.wg.Done()
	for {
		select {
		case fn := <-queue:
			fn()
		case <-d.done:
			return
		}
	}
}

// close 停止所有工作者並等待進行中的處理結束
func (d *dispatcher) close() {
	close(d.done)
	d.wg.Wait()
}
