package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := newDispatcher()
	defer d.close()

	const n = 50
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		i := i
		d.dispatch(1, func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < n; i++ {
		assert.Equal(t, i, order[i])
	}
}

func TestDispatcherChatsDoNotBlockEachOther(t *testing.T) {
	d := newDispatcher()

	release := make(chan struct{})
	var mu sync.Mutex
	var ran []string

	// 聊天室 1 卡在第一則訊息上
	d.dispatch(1, func() {
		<-release
		mu.Lock()
		ran = append(ran, "eins")
		mu.Unlock()
	})
	d.dispatch(2, func() {
		mu.Lock()
		ran = append(ran, "zwei")
		mu.Unlock()
	})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) == 1 && ran[0] == "zwei"
	}, 2*time.Second, 5*time.Millisecond)

	close(release)
	d.close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"zwei", "eins"}, ran)
}
