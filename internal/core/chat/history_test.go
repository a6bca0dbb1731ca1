package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryBoundedLength(t *testing.T) {
	h := NewHistory(4, 10)

	for i := 0; i < 10; i++ {
		h.AddUserMessage("anna", fmt.Sprintf("Nachricht %d", i))
	}

	messages := h.Messages("anna", "sys")
	// 系統提示詞加上最近 4 筆
	require.Len(t, messages, 5)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "Nachricht 6", messages[1].Content)
	assert.Equal(t, "Nachricht 9", messages[4].Content)
}

func TestHistoryMessagesStartWithSystemPrompt(t *testing.T) {
	h := NewHistory(4, 10)

	messages := h.Messages("unbekannt", "Du bist ein RezeptBot.")
	require.Len(t, messages, 1)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "Du bist ein RezeptBot.", messages[0].Content)
}

func TestHistoryUsersAreIndependent(t *testing.T) {
	h := NewHistory(4, 10)

	h.AddUserMessage("anna", "Hallo")
	h.AddAssistantResponse("anna", "Hi!")
	h.AddUserMessage("ben", "Servus")

	assert.Len(t, h.Messages("anna", "sys"), 3)
	assert.Len(t, h.Messages("ben", "sys"), 2)
}

func TestHistoryLastMessageWithURL(t *testing.T) {
	h := NewHistory(6, 10)

	h.AddUserMessage("anna", "Hallo")
	h.AddUserMessage("anna", "Schau mal: https://beispiel.de/altes-rezept")
	h.AddAssistantResponse("anna", "Sieht gut aus: https://nicht-diese.de/x")
	h.AddUserMessage("anna", "Und das hier https://beispiel.de/neues-rezept bitte")
	h.AddUserMessage("anna", "Danke!")

	urls := h.LastMessageWithURL("anna")
	// 只考慮使用者訊息，從最近的往回找
	require.Len(t, urls, 1)
	assert.Equal(t, "https://beispiel.de/neues-rezept", urls[0])
}

func TestHistoryLastMessageWithURLEmpty(t *testing.T) {
	h := NewHistory(4, 10)
	assert.Nil(t, h.LastMessageWithURL("niemand"))

	h.AddUserMessage("anna", "kein Link hier")
	assert.Nil(t, h.LastMessageWithURL("anna"))
}

func TestHistoryEvictsLeastRecentlyActiveUser(t *testing.T) {
	h := NewHistory(4, 2)

	h.AddUserMessage("anna", "Hallo")
	time.Sleep(2 * time.Millisecond)
	h.AddUserMessage("ben", "Servus")
	time.Sleep(2 * time.Millisecond)

	// anna 再次活躍，ben 成為最久未活動者
	h.AddUserMessage("anna", "Noch da")
	time.Sleep(2 * time.Millisecond)

	h.AddUserMessage("clara", "Moin")

	assert.Equal(t, 2, h.UserCount())
	assert.Len(t, h.Messages("ben", "sys"), 1) // 只剩系統提示詞
	assert.Len(t, h.Messages("anna", "sys"), 3)
	assert.Len(t, h.Messages("clara", "sys"), 2)
}
