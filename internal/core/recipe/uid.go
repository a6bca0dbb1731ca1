package recipe

import (
	"math/rand"
)

// AllocateID 在已知 ID 集合之外配發一個 6 位數的隨機 ID
// 各呼叫端以各自的快照判斷唯一性，跨併發呼叫不保證全域唯一
func AllocateID(existing map[int]struct{}) int {
	id := 100000 + rand.Intn(900000)
	for {
		if _, taken := existing[id]; !taken {
			return id
		}
		id = 100000 + rand.Intn(900000)
	}
}
